package analyzer

import "FuturesLens/internal/model"

// Source selects where the bars of an evaluation come from. It is either
// FetchByCode or UploadedTable.
type Source interface {
	kind() string
}

// FetchByCode downloads history and the realtime quote for Code.
type FetchByCode struct {
	Code string
}

// UploadedTable evaluates a table the user supplied.
type UploadedTable struct {
	Name string
	Bars []model.PriceBar
}

func (FetchByCode) kind() string   { return "fetch" }
func (UploadedTable) kind() string { return "upload" }

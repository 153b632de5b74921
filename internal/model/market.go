package model

import "time"

// PriceBar is one daily bar of a futures price series.
type PriceBar struct {
	Date         time.Time
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       int64
	OpenInterest int64
	VWAP         float64 // settlement price
	Symbol       string
}

// PriceSeries holds the bars of one instrument in ascending date order.
// The last bar may be a synthetic snapshot of the running session.
type PriceSeries struct {
	Symbol    string
	Bars      []PriceBar
	Synthetic bool
	FetchedAt time.Time
}

// Last returns the most recent bar, or false for an empty series.
func (s *PriceSeries) Last() (PriceBar, bool) {
	if s == nil || len(s.Bars) == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Quote is the realtime snapshot of a contract.
type Quote struct {
	Symbol       string
	Name         string
	Open         float64
	High         float64
	Low          float64
	Last         float64
	Settlement   float64
	Volume       int64
	OpenInterest int64
}

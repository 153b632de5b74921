package model

// Label is the directional reading of one indicator.
type Label string

const (
	// LabelNone marks a rule whose inputs are not defined yet.
	LabelNone       Label = "none"
	LabelBullish    Label = "bullish"
	LabelBearish    Label = "bearish"
	LabelNeutral    Label = "neutral"
	LabelOversold   Label = "oversold"
	LabelOverbought Label = "overbought"
)

// Text returns the label as shown on the dashboard.
func (l Label) Text() string {
	switch l {
	case LabelBullish:
		return "看多"
	case LabelBearish:
		return "看空"
	case LabelNeutral:
		return "中性"
	case LabelOversold:
		return "超卖"
	case LabelOverbought:
		return "超买"
	default:
		return "数据不足"
	}
}

// Signal is the label derived for one indicator.
type Signal struct {
	Name  string `json:"name"`
	Label Label  `json:"label"`
}

// SignalSet keeps signals in display order.
type SignalSet []Signal

// Get returns the label of the named indicator.
func (s SignalSet) Get(name string) (Label, bool) {
	for _, sig := range s {
		if sig.Name == name {
			return sig.Label, true
		}
	}
	return LabelNone, false
}

// DecoratedSignal is a Signal with its display text, markers included.
type DecoratedSignal struct {
	Name  string `json:"name"`
	Label Label  `json:"label"`
	Text  string `json:"text"`
}

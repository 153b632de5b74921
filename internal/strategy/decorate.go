package strategy

import "FuturesLens/internal/model"

// Markers appended to directional labels.
const (
	BullishMarker = " 🔴⬆"
	BearishMarker = " 🟢⬇"
)

// Decorate renders each signal's text, marking bullish and bearish labels.
func Decorate(signals model.SignalSet) []model.DecoratedSignal {
	out := make([]model.DecoratedSignal, len(signals))
	for i, s := range signals {
		text := s.Label.Text()
		switch s.Label {
		case model.LabelBullish:
			text += BullishMarker
		case model.LabelBearish:
			text += BearishMarker
		}
		out[i] = model.DecoratedSignal{Name: s.Name, Label: s.Label, Text: text}
	}
	return out
}

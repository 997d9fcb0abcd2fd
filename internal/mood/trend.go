package mood

import "fmt"

// Trend is the direction of the most recent moods.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// TrendInfo is how a trend is shown on the stats page.
type TrendInfo struct {
	Emoji string `json:"emoji"`
	Text  string `json:"text"`
	Color string `json:"color"`
}

// TrendDisplay returns the display info for t. Unknown values show as stable.
func TrendDisplay(t Trend) TrendInfo {
	switch t {
	case TrendImproving:
		return TrendInfo{Emoji: "↗️", Text: "Improving", Color: "#2ecc71"}
	case TrendDeclining:
		return TrendInfo{Emoji: "↘️", Text: "Declining", Color: "#e74c3c"}
	default:
		return TrendInfo{Emoji: "→", Text: "Stable", Color: "#f1c40f"}
	}
}

// Gradient picks the stats page background for an average mood.
// An average of 0 (no data) is treated as neutral.
func Gradient(avg float64, dark bool) string {
	if avg == 0 {
		avg = NeutralValue
	}
	var light, darkG string
	switch {
	case avg <= 3:
		light = "linear-gradient(135deg, #FFD3E0 0%, #FFA6C9 50%, #FF7DAB 100%)"
		darkG = "linear-gradient(135deg, #1E0338 0%, #380440 50%, #4B0945 100%)"
	case avg <= 5:
		light = "linear-gradient(135deg, #C4D7E0 0%, #99C1DE 50%, #7EB1E5 100%)"
		darkG = "linear-gradient(135deg, #0A2342 0%, #1C3752 50%, #2C4A62 100%)"
	case avg <= 7:
		light = "linear-gradient(135deg, #B6EDD0 0%, #8BE0B3 50%, #60D69F 100%)"
		darkG = "linear-gradient(135deg, #0F3B2C 0%, #1B584A 50%, #276B5E 100%)"
	default:
		light = "linear-gradient(135deg, #D7F7A0 0%, #B9F269 50%, #9CE33C 100%)"
		darkG = "linear-gradient(135deg, #273307 0%, #3D4A18 50%, #5C6B2A 100%)"
	}
	if dark {
		return darkG
	}
	return light
}

// Tint is the translucent card background for an entry with value v.
func Tint(v int) string {
	var r, g, b int
	if _, err := fmt.Sscanf(Color(v), "#%02x%02x%02x", &r, &g, &b); err != nil {
		return ""
	}
	return fmt.Sprintf("linear-gradient(135deg, rgba(%d, %d, %d, 0.2) 0%%, rgba(%d, %d, %d, 0.1) 100%%)", r, g, b, r, g, b)
}

package model

// TrendDirection classifies the sentiment balance
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// DefaultTrendPeriod is the display label used when none is configured
const DefaultTrendPeriod = "Last Hour"

// CHIResult is the Customer Happiness Index derived from one ResearchSummary
type CHIResult struct {
	Score     float64        `json:"chi_score"`       // clamped to 0-100
	Trend     float64        `json:"chi_trend"`       // caller-supplied change vs. a reference
	Direction TrendDirection `json:"trend_direction"` // from positive minus negative share
	Period    string         `json:"trend_period"`    // caller-supplied label

	Breakdown CHIBreakdown `json:"-"`
}

// CHIBreakdown exposes every intermediate value of the calculation
type CHIBreakdown struct {
	SentimentScore float64           `json:"sentiment_score"`
	BaseCHI        float64           `json:"base_chi"`
	AverageNSS     float64           `json:"average_nss"`
	NSSAdjustment  float64           `json:"nss_adjustment"`
	Unclamped      float64           `json:"unclamped"`
	Delta          float64           `json:"delta"`
	Formulas       map[string]string `json:"formulas"`
}

// Carrier identifies a tracked mobile carrier
type Carrier struct {
	ID      string `json:"id" yaml:"id" mapstructure:"id"`
	Display string `json:"display" yaml:"display" mapstructure:"display"`
	Color   string `json:"color" yaml:"color" mapstructure:"color"`
}

// DefaultCarriers returns the carriers the dashboard compares
func DefaultCarriers() []Carrier {
	return []Carrier{
		{ID: "tmobile", Display: "T-Mobile", Color: "#E20074"},
		{ID: "att", Display: "AT&T", Color: "#FFC300"},
		{ID: "verizon", Display: "Verizon", Color: "#CCCCCC"},
	}
}

// CarrierColor returns the brand color for a carrier display name or ID
func CarrierColor(name string) string {
	for _, c := range DefaultCarriers() {
		if c.Display == name || c.ID == name {
			return c.Color
		}
	}
	return "#6B7280"
}

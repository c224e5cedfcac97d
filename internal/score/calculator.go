package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/vibecheck/internal/model"
)

// Weights applied to each sentiment share
const (
	positiveWeight = 1.0
	neutralWeight  = 0.0
	negativeWeight = -1.0

	// maxNSSAdjustment is the CHI swing produced by an average NSS of +/-100
	maxNSSAdjustment = 20.0

	// trendThreshold is the positive-minus-negative margin (in points) that counts as a trend
	trendThreshold = 10.0
)

// Calculator computes the Customer Happiness Index
type Calculator struct{}

// NewCalculator creates a new calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Option sets a caller-supplied display field on the result
type Option func(*model.CHIResult)

// WithTrend sets chi_trend, the change against a reference score
func WithTrend(trend float64) Option {
	return func(r *model.CHIResult) {
		r.Trend = trend
	}
}

// WithPeriod sets the trend_period label
func WithPeriod(period string) Option {
	return func(r *model.CHIResult) {
		r.Period = period
	}
}

// Compute maps a research summary and its average NSS to a CHI result.
// The only failure is ErrInvalidInput for NaN or out-of-range inputs.
func (c *Calculator) Compute(summary model.ResearchSummary, avgNSS float64, opts ...Option) (model.CHIResult, error) {
	if err := validate(summary, avgNSS); err != nil {
		return model.CHIResult{}, err
	}

	pos, neu, neg := summary.PositivePct, summary.NeutralPct, summary.NegativePct

	// 1. Sentiment score in [-1, 1]
	sentimentScore := (pos*positiveWeight + neu*neutralWeight + neg*negativeWeight) / 100.0

	// 2. Base CHI in [0, 100]
	baseCHI := 50 + sentimentScore*50

	// 3. NSS adjustment, clamped after it is applied
	adjustment := (avgNSS / 100.0) * maxNSSAdjustment
	unclamped := baseCHI + adjustment
	score := clamp(unclamped, 0, 100)

	// 4. Direction from the sentiment balance
	delta := pos - neg

	result := model.CHIResult{
		Score:     score,
		Direction: direction(delta),
		Period:    model.DefaultTrendPeriod,
		Breakdown: model.CHIBreakdown{
			SentimentScore: sentimentScore,
			BaseCHI:        baseCHI,
			AverageNSS:     avgNSS,
			NSSAdjustment:  adjustment,
			Unclamped:      unclamped,
			Delta:          delta,
			Formulas: map[string]string{
				"sentiment_score": "(positive*1.0 + neutral*0.0 + negative*(-1.0)) / 100",
				"base_chi":        "50 + sentiment_score*50",
				"chi_score":       "clamp(base_chi + (avg_nss/100)*20, 0, 100)",
				"trend_direction": "positive-negative > 10: up, < -10: down, else stable",
			},
		},
	}

	for _, opt := range opts {
		opt(&result)
	}

	return result, nil
}

// ComputeSummary computes CHI using the summary's own average NSS
func (c *Calculator) ComputeSummary(summary model.ResearchSummary, opts ...Option) (model.CHIResult, error) {
	return c.Compute(summary, summary.AverageNSS(), opts...)
}

func validate(summary model.ResearchSummary, avgNSS float64) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"positive_pct", summary.PositivePct},
		{"neutral_pct", summary.NeutralPct},
		{"negative_pct", summary.NegativePct},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) {
			return fmt.Errorf("%w: %s is NaN", model.ErrInvalidInput, f.name)
		}
		if f.value < 0 || f.value > 100 {
			return fmt.Errorf("%w: %s %.2f outside 0-100", model.ErrInvalidInput, f.name, f.value)
		}
	}
	if math.IsNaN(avgNSS) {
		return fmt.Errorf("%w: average nss is NaN", model.ErrInvalidInput)
	}
	return nil
}

func direction(delta float64) model.TrendDirection {
	switch {
	case delta > trendThreshold:
		return model.TrendUp
	case delta < -trendThreshold:
		return model.TrendDown
	default:
		return model.TrendStable
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

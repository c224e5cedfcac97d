package report

import (
	"fmt"
	"time"

	"github.com/ppiankov/vibecheck/internal/model"
	"github.com/ppiankov/vibecheck/internal/score"
)

// SummaryContext is the data the summary view needs beyond the CHI result
type SummaryContext struct {
	ActionCards []model.ActionCard
	Competitors []model.CarrierScore // required
	TrendData   []model.TrendPoint   // generated when empty
	Now         time.Time            // anchors the generated trend series
}

// AssembleSummary builds the home page document
func AssembleSummary(chi model.CHIResult, ctx SummaryContext) (model.SummaryView, error) {
	if len(ctx.Competitors) == 0 {
		return model.SummaryView{}, fmt.Errorf("%w: summary needs competitor scores", model.ErrIncompleteContext)
	}

	competitors := make([]model.CarrierScore, 0, len(ctx.Competitors))
	for _, c := range ctx.Competitors {
		if c.Carrier == "" {
			return model.SummaryView{}, fmt.Errorf("%w: competitor without carrier name", model.ErrIncompleteContext)
		}
		if c.Color == "" {
			c.Color = model.CarrierColor(c.Carrier)
		}
		c.Score = score.Round1(c.Score)
		competitors = append(competitors, c)
	}

	cards := ctx.ActionCards
	if cards == nil {
		cards = []model.ActionCard{}
	}

	trend := ctx.TrendData
	if len(trend) == 0 {
		trend = TrendSeries(chi.Score, chi.Trend, ctx.Now)
	}

	period := chi.Period
	if period == "" {
		period = model.DefaultTrendPeriod
	}

	view := model.SummaryView{
		CHIScore:           score.Round1(chi.Score),
		CHITrend:           score.Round1(chi.Trend),
		TrendDirection:     chi.Direction,
		TrendPeriod:        period,
		ActionCards:        cards,
		CompetitiveSummary: competitors,
		TrendData:          trend,
	}

	if err := view.Validate(); err != nil {
		return model.SummaryView{}, err
	}
	return view, nil
}

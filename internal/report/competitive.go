package report

import (
	"fmt"
	"time"

	"github.com/ppiankov/vibecheck/internal/model"
)

// GapCarriers are the carrier IDs behind the three vibe gap columns
var GapCarriers = []string{"tmobile", "att", "verizon"}

// CompetitiveContext is the data the competitive view needs
type CompetitiveContext struct {
	VibeGap        []model.VibeGapPoint // generated from Scores when empty
	Scores         map[string]float64   // current CHI by carrier ID
	GapDays        int
	FeatureMatrix  []model.FeatureRow // required
	CompWeaknesses []model.CompWeakness
	Critiques      []model.CarrierCritique
	Now            time.Time
}

// AssembleCompetitive builds the competitive intelligence document
func AssembleCompetitive(_ model.CHIResult, ctx CompetitiveContext) (model.CompetitiveView, error) {
	if len(ctx.FeatureMatrix) == 0 {
		return model.CompetitiveView{}, fmt.Errorf("%w: competitive view needs a feature comparison matrix", model.ErrIncompleteContext)
	}

	gap := ctx.VibeGap
	if len(gap) == 0 {
		if len(ctx.Scores) == 0 {
			return model.CompetitiveView{}, fmt.Errorf("%w: competitive view needs a vibe gap history or carrier scores", model.ErrIncompleteContext)
		}
		for _, id := range GapCarriers {
			if _, ok := ctx.Scores[id]; !ok {
				return model.CompetitiveView{}, fmt.Errorf("%w: vibe gap needs a score for %s", model.ErrIncompleteContext, id)
			}
		}
		days := ctx.GapDays
		if days <= 0 {
			days = 5
		}
		gap = VibeGapSeries(ctx.Scores, days, ctx.Now)
	}

	weaknesses := ctx.CompWeaknesses
	if weaknesses == nil {
		weaknesses = []model.CompWeakness{}
	}

	view := model.CompetitiveView{
		HistoricalVibeGap:       gap,
		FeatureComparisonMatrix: ctx.FeatureMatrix,
		CompWeaknesses:          weaknesses,
		Critiques:               ctx.Critiques,
	}

	if err := view.Validate(); err != nil {
		return model.CompetitiveView{}, err
	}
	return view, nil
}

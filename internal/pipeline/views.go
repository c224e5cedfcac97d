package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/vibecheck/internal/model"
	"github.com/ppiankov/vibecheck/internal/report"
	"github.com/ppiankov/vibecheck/internal/score"
	"github.com/ppiankov/vibecheck/internal/worker"
)

func (p *Pipeline) generateSummary(ctx context.Context) (model.SummaryView, error) {
	primary, err := p.primary()
	if err != nil {
		return model.SummaryView{}, err
	}

	results := worker.NewBatchProcessor(p, p.config.Concurrency.Workers).ScoreCarriers(ctx, p.carriers())

	var headline *worker.CarrierResult
	competitors := make([]model.CarrierScore, 0, len(results))
	scores := make(map[string]float64, len(results))

	for _, r := range results {
		if r.Carrier.ID == primary.ID {
			headline = r
		}
		if r.Error != nil {
			if r.Carrier.ID != primary.ID {
				p.log.WithFields(logrus.Fields{"carrier": r.Carrier.ID, "error": r.Error}).Warn("carrier left out of competitive summary")
			}
			continue
		}
		competitors = append(competitors, model.CarrierScore{
			Carrier: r.Carrier.Display,
			Score:   r.CHI.Score,
			Color:   r.Carrier.Color,
		})
		scores[r.Carrier.ID] = r.CHI.Score
	}

	if headline == nil {
		return model.SummaryView{}, fmt.Errorf("%w: primary carrier %s was not scored", model.ErrIncompleteContext, primary.ID)
	}
	if headline.Error != nil {
		return model.SummaryView{}, headline.Error
	}

	chi := headline.CHI
	if p.config.Trend.TrackHistory {
		history := p.loadHistory(ctx)
		if prev, ok := history[primary.ID]; ok {
			chi.Trend = score.TrendAgainst(chi.Score, &prev)
		}
	}

	view, err := report.AssembleSummary(chi, report.SummaryContext{
		ActionCards: headline.Research.ActionCards,
		Competitors: competitors,
		Now:         p.now(),
	})
	if err != nil {
		return model.SummaryView{}, err
	}

	if p.config.Trend.TrackHistory {
		p.saveHistory(ctx, scores)
	}

	return view, nil
}

func (p *Pipeline) generateVibeReport(ctx context.Context) (model.VibeReport, error) {
	primary, err := p.primary()
	if err != nil {
		return model.VibeReport{}, err
	}

	research, err := p.research(ctx, primary, model.ViewVibeReport)
	if err != nil {
		return model.VibeReport{}, err
	}

	chi, err := p.calculator.ComputeSummary(research.Summary, score.WithPeriod(p.period()))
	if err != nil {
		return model.VibeReport{}, err
	}

	return report.AssembleVibeReport(chi, report.VibeContext{
		Summary:        research.Summary,
		Sources:        research.SourceSentiment,
		DelightFeed:    research.DelightFeed,
		TopTopicsLimit: p.config.Views.TopTopicsLimit,
	})
}

func (p *Pipeline) generateCompetitive(ctx context.Context) (model.CompetitiveView, error) {
	primary, err := p.primary()
	if err != nil {
		return model.CompetitiveView{}, err
	}

	raw, err := p.fetch(ctx, primary, model.ViewCompetitive)
	if err != nil {
		return model.CompetitiveView{}, err
	}
	research, _, err := p.extractor.ExtractContext(raw)
	if err != nil {
		return model.CompetitiveView{}, fmt.Errorf("parse competitive research for %s: %w", primary.ID, err)
	}

	var scores map[string]float64
	if len(research.VibeGap) == 0 {
		scores, err = p.carrierScores(ctx)
		if err != nil {
			return model.CompetitiveView{}, err
		}
	}

	chi := model.CHIResult{Score: scores[primary.ID], Period: p.period()}

	return report.AssembleCompetitive(chi, report.CompetitiveContext{
		VibeGap:        research.VibeGap,
		Scores:         scores,
		GapDays:        p.config.Trend.GapDays,
		FeatureMatrix:  research.FeatureMatrix,
		CompWeaknesses: research.CompWeaknesses,
		Critiques:      research.Critiques,
		Now:            p.now(),
	})
}

func (p *Pipeline) generateTriage(ctx context.Context) (model.TriageView, error) {
	primary, err := p.primary()
	if err != nil {
		return model.TriageView{}, err
	}

	raw, err := p.fetch(ctx, primary, model.ViewTriage)
	if err != nil {
		return model.TriageView{}, err
	}
	research, hasSentiment, err := p.extractor.ExtractContext(raw)
	if err != nil {
		return model.TriageView{}, fmt.Errorf("parse triage research for %s: %w", primary.ID, err)
	}

	chi := model.CHIResult{Period: p.period()}
	if hasSentiment {
		if chi, err = p.calculator.ComputeSummary(research.Summary, score.WithPeriod(p.period())); err != nil {
			return model.TriageView{}, err
		}
	}

	return report.AssembleTriage(chi, report.TriageContext{
		Queue:          research.Queue,
		CauseBreakdown: research.CauseBreakdown,
		KPIs:           research.KPIs,
	})
}

// carrierScores reads carrier CHI from the cached summary, scoring carriers only when
// the summary is absent or lacks one of them. Every carrier must score.
func (p *Pipeline) carrierScores(ctx context.Context) (map[string]float64, error) {
	blob, ok, err := p.gate.Raw(ctx, model.ViewSummary.CacheKey())
	if err != nil {
		return nil, err
	}

	if ok {
		var summary model.SummaryView
		if err := json.Unmarshal(blob, &summary); err == nil {
			scores := make(map[string]float64)
			for _, cs := range summary.CompetitiveSummary {
				for _, c := range p.carriers() {
					if c.Display == cs.Carrier || c.ID == cs.Carrier {
						scores[c.ID] = cs.Score
					}
				}
			}
			if len(scores) == len(p.carriers()) {
				return scores, nil
			}
			p.log.WithField("carriers", len(scores)).Debug("cached summary is missing carriers, scoring directly")
		}
	}

	results := worker.NewBatchProcessor(p, p.config.Concurrency.Workers).ScoreCarriers(ctx, p.carriers())
	if err := worker.FirstError(results); err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(results))
	for _, r := range results {
		scores[r.Carrier.ID] = score.Round1(r.CHI.Score)
	}
	return scores, nil
}

func (p *Pipeline) loadHistory(ctx context.Context) map[string]float64 {
	history := make(map[string]float64)

	blob, ok, err := p.gate.Store().Get(ctx, historyKey)
	if err != nil {
		p.log.WithField("error", err).Warn("read score history")
		return history
	}
	if !ok {
		return history
	}
	if err := json.Unmarshal(blob, &history); err != nil {
		p.log.WithField("error", err).Warn("score history does not decode, ignoring")
		return make(map[string]float64)
	}
	return history
}

func (p *Pipeline) saveHistory(ctx context.Context, scores map[string]float64) {
	blob, err := json.Marshal(scores)
	if err != nil {
		return
	}
	if err := p.gate.Store().Set(ctx, historyKey, blob); err != nil {
		p.log.WithField("error", err).Warn("write score history")
	}
}

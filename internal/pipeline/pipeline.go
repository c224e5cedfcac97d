package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/vibecheck/internal/cache"
	"github.com/ppiankov/vibecheck/internal/extract"
	"github.com/ppiankov/vibecheck/internal/llm"
	"github.com/ppiankov/vibecheck/internal/model"
	"github.com/ppiankov/vibecheck/internal/score"
)

// historyKey stores the last headline score per carrier, the reference for chi_trend
const historyKey = "chi_history.json"

// Pipeline turns research into cached view documents
type Pipeline struct {
	provider   llm.Provider
	extractor  *extract.ResearchExtractor
	calculator *score.Calculator
	gate       *cache.Gate
	config     *model.Config
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewPipeline wires a research provider and a cache gate under cfg
func NewPipeline(cfg *model.Config, provider llm.Provider, gate *cache.Gate, log logrus.FieldLogger) *Pipeline {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{
		provider:   provider,
		extractor:  extract.NewResearchExtractor(),
		calculator: score.NewCalculator(),
		gate:       gate,
		config:     cfg,
		log:        log,
		now:        time.Now,
	}
}

// Get returns the document for view, generating it on a cache miss
func (p *Pipeline) Get(ctx context.Context, view model.View) (cache.Document, error) {
	key := view.CacheKey()
	switch view {
	case model.ViewSummary:
		return cache.GetOrGenerate(ctx, p.gate, key, p.generateSummary)
	case model.ViewVibeReport:
		return cache.GetOrGenerate(ctx, p.gate, key, p.generateVibeReport)
	case model.ViewCompetitive:
		return cache.GetOrGenerate(ctx, p.gate, key, p.generateCompetitive)
	case model.ViewTriage:
		return cache.GetOrGenerate(ctx, p.gate, key, p.generateTriage)
	default:
		return nil, fmt.Errorf("%w: unknown view %q", model.ErrInvalidInput, view)
	}
}

// Raw returns the persisted JSON for view, generating it first when needed
func (p *Pipeline) Raw(ctx context.Context, view model.View) ([]byte, error) {
	doc, err := p.Get(ctx, view)
	if err != nil {
		return nil, err
	}

	if blob, ok, err := p.gate.Raw(ctx, view.CacheKey()); err != nil {
		return nil, err
	} else if ok {
		return blob, nil
	}

	// expired between generation and read
	return json.Marshal(doc)
}

// Generate makes sure every view in views is cached, regenerating when force is set.
// Views are generated in order, so listing summary first lets competitive reuse its scores.
func (p *Pipeline) Generate(ctx context.Context, views []model.View, force bool) error {
	if force {
		if err := p.Invalidate(ctx, views...); err != nil {
			return err
		}
	}

	for _, view := range views {
		start := p.now()
		if _, err := p.Get(ctx, view); err != nil {
			return fmt.Errorf("generate %s: %w", view, err)
		}
		p.log.WithFields(logrus.Fields{
			"view":     view,
			"duration": p.now().Sub(start).Round(time.Millisecond),
		}).Info("view ready")
	}
	return nil
}

// Invalidate drops the cached documents of views
func (p *Pipeline) Invalidate(ctx context.Context, views ...model.View) error {
	keys := make([]string, len(views))
	for i, v := range views {
		keys[i] = v.CacheKey()
	}
	return p.gate.Invalidate(ctx, keys...)
}

// CarrierCHI researches and scores one carrier without caching
func (p *Pipeline) CarrierCHI(ctx context.Context, carrierID string) (model.CHIResult, error) {
	carrier, ok := p.carrier(carrierID)
	if !ok {
		return model.CHIResult{}, fmt.Errorf("%w: unknown carrier %q", model.ErrInvalidInput, carrierID)
	}
	_, chi, err := p.ScoreCarrier(ctx, carrier)
	return chi, err
}

// ScoreCarrier researches one carrier and computes its CHI
func (p *Pipeline) ScoreCarrier(ctx context.Context, carrier model.Carrier) (*model.Research, model.CHIResult, error) {
	research, err := p.research(ctx, carrier, model.ViewSummary)
	if err != nil {
		return nil, model.CHIResult{}, err
	}

	chi, err := p.calculator.ComputeSummary(research.Summary, score.WithPeriod(p.period()))
	if err != nil {
		return nil, model.CHIResult{}, err
	}

	p.log.WithFields(logrus.Fields{
		"carrier":   carrier.ID,
		"chi_score": score.Round1(chi.Score),
		"direction": chi.Direction,
	}).Debug("carrier scored")

	return research, chi, nil
}

// research fetches and strictly parses research for carrier and view
func (p *Pipeline) research(ctx context.Context, carrier model.Carrier, view model.View) (*model.Research, error) {
	raw, err := p.fetch(ctx, carrier, view)
	if err != nil {
		return nil, err
	}
	research, err := p.extractor.Extract(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s research for %s: %w", view, carrier.ID, err)
	}
	return research, nil
}

func (p *Pipeline) fetch(ctx context.Context, carrier model.Carrier, view model.View) ([]byte, error) {
	raw, err := p.provider.Research(ctx, llm.ResearchRequest{
		Carrier:   carrier,
		View:      view,
		Model:     p.config.Research.Model,
		MaxTokens: p.config.Research.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("research %s for %s: %w", view, carrier.ID, err)
	}
	return raw, nil
}

func (p *Pipeline) carriers() []model.Carrier {
	if len(p.config.Carriers.List) > 0 {
		return p.config.Carriers.List
	}
	return model.DefaultCarriers()
}

func (p *Pipeline) carrier(id string) (model.Carrier, bool) {
	for _, c := range p.carriers() {
		if c.ID == id {
			return c, true
		}
	}
	return model.Carrier{}, false
}

func (p *Pipeline) primary() (model.Carrier, error) {
	id := p.config.Carriers.Primary
	if id == "" {
		id = p.carriers()[0].ID
	}
	c, ok := p.carrier(id)
	if !ok {
		return model.Carrier{}, fmt.Errorf("%w: primary carrier %q is not in the carrier list", model.ErrInvalidInput, id)
	}
	return c, nil
}

func (p *Pipeline) period() string {
	if p.config.Trend.Period != "" {
		return p.config.Trend.Period
	}
	return model.DefaultTrendPeriod
}

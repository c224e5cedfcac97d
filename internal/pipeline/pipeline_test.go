package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ppiankov/vibecheck/internal/cache"
	"github.com/ppiankov/vibecheck/internal/llm"
	"github.com/ppiankov/vibecheck/internal/model"
)

// stubProvider serves research keyed by "carrier/view", falling back to "carrier"
type stubProvider struct {
	mu    sync.Mutex
	docs  map[string]string
	calls map[string]int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Research(_ context.Context, req llm.ResearchRequest) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	key := fmt.Sprintf("%s/%s", req.Carrier.ID, req.View)
	s.calls[key]++

	if doc, ok := s.docs[key]; ok {
		return []byte(doc), nil
	}
	if doc, ok := s.docs[req.Carrier.ID]; ok {
		return []byte(doc), nil
	}
	return nil, errors.New("upstream unavailable")
}

func (s *stubProvider) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

const tmobileResearch = `{
	"positive_pct": 60, "neutral_pct": 30, "negative_pct": 10,
	"topics": [{"name": "5G", "volume": 900, "nss": 30}, {"name": "Billing", "volume": 400, "nss": 10}],
	"action_cards": [{"id": "A101", "title": "Fix billing", "insight": "Complaints up", "priority": "High", "team": "Billing", "color": "#FFC300"}]
}`

const attResearch = `{"positive_pct": 40, "neutral_pct": 40, "negative_pct": 20, "topics": []}`

const verizonResearch = `{"positive_pct": 20, "neutral_pct": 30, "negative_pct": 50, "topics": [{"name": "Price", "volume": 10, "nss": -40}]}`

const vibeResearch = `Here you go: {
	"positive_pct": 60, "neutral_pct": 30, "negative_pct": 10,
	"topics": [{"name": "Coverage", "volume": 100, "nss": 20}],
	"sentiment_by_source": [{"source": "Reddit", "Positive": 55, "Neutral": 30, "Negative": 15}],
	"delight_feed": [{"snippet": "Love it", "source": "Reddit", "emotion": "joy"}, {"snippet": "Meh", "source": "Reddit", "emotion": "boredom"}]
}`

const competitiveResearch = `{
	"feature_comparison_matrix": [{"Feature/Service": "5G Coverage", "T_Mobile": "Positive (8.5/10)", "ATT": "Mixed (6.8/10)", "Verizon": "Positive (7.9/10)"}],
	"comp_weaknesses": [{"competitor": "AT&T", "weakness": "Fiber outages", "action_suggestion": "Target switchers"}]
}`

const triageResearch = `{
	"queue": [
		{"id": "T001", "title": "Outage in Dallas", "velocity": 9.2, "time_since_alert_h": 2, "status": "Active", "owner_team": "Network Ops", "root_cause": "Network Infrastructure"},
		{"id": "T002", "title": "Double charge", "velocity": 4, "time_since_alert_h": 10, "status": "Resolved", "owner_team": "Billing", "time_to_fix": 6, "root_cause": "Billing System"}
	]
}`

func newStub() *stubProvider {
	return &stubProvider{docs: map[string]string{
		"tmobile":             tmobileResearch,
		"att":                 attResearch,
		"verizon":             verizonResearch,
		"tmobile/vibe_report": vibeResearch,
		"tmobile/competitive": competitiveResearch,
		"tmobile/triage":      triageResearch,
	}}
}

func newTestPipeline(provider llm.Provider) (*Pipeline, cache.Store) {
	logger, _ := test.NewNullLogger()
	store := cache.NewMemoryCache(0, time.Minute)
	cfg := model.DefaultConfig()
	p := NewPipeline(cfg, provider, cache.NewGate(store, logger), logger)
	p.now = func() time.Time { return time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC) }
	return p, store
}

func TestPipeline_Summary(t *testing.T) {
	p, store := newTestPipeline(newStub())

	doc, err := p.Get(context.Background(), model.ViewSummary)
	if err != nil {
		t.Fatalf("Get summary failed: %v", err)
	}
	summary := doc.(model.SummaryView)

	// 75 base + 20/100*20
	if summary.CHIScore != 79 {
		t.Errorf("Expected CHI 79, got %v", summary.CHIScore)
	}
	if summary.TrendDirection != model.TrendUp {
		t.Errorf("Expected up, got %s", summary.TrendDirection)
	}
	if summary.CHITrend != 0 {
		t.Errorf("Expected zero trend without history, got %v", summary.CHITrend)
	}
	if len(summary.CompetitiveSummary) != 3 {
		t.Fatalf("Expected 3 carriers, got %d", len(summary.CompetitiveSummary))
	}
	if cs := summary.CompetitiveSummary[2]; cs.Carrier != "Verizon" || cs.Score != 27 {
		t.Errorf("Expected Verizon at 27, got %+v", cs)
	}
	if len(summary.ActionCards) != 1 || summary.ActionCards[0].ID != "A101" {
		t.Errorf("unexpected action cards %+v", summary.ActionCards)
	}

	if _, ok, _ := store.Get(context.Background(), "ai_generated_summary.json"); !ok {
		t.Error("Expected summary persisted under its fixed key")
	}
}

func TestPipeline_SummaryCachedAndTrend(t *testing.T) {
	stub := newStub()
	p, _ := newTestPipeline(stub)
	ctx := context.Background()

	first, err := p.Raw(ctx, model.ViewSummary)
	if err != nil {
		t.Fatalf("first Raw failed: %v", err)
	}
	second, err := p.Raw(ctx, model.ViewSummary)
	if err != nil {
		t.Fatalf("second Raw failed: %v", err)
	}
	if string(first) != string(second) {
		t.Error("Expected identical cached bytes")
	}
	if n := stub.count("tmobile/summary"); n != 1 {
		t.Errorf("Expected one research call for the cached view, got %d", n)
	}

	// T-Mobile sentiment improves, then a forced refresh reports the change
	stub.mu.Lock()
	stub.docs["tmobile"] = `{"positive_pct": 70, "neutral_pct": 20, "negative_pct": 10, "topics": [{"name": "5G", "volume": 1, "nss": 20}]}`
	stub.mu.Unlock()

	if err := p.Generate(ctx, []model.View{model.ViewSummary}, true); err != nil {
		t.Fatalf("forced generate failed: %v", err)
	}
	doc, err := p.Get(ctx, model.ViewSummary)
	if err != nil {
		t.Fatal(err)
	}
	summary := doc.(model.SummaryView)
	// 80 + 4 = 84, previous 79
	if summary.CHIScore != 84 || summary.CHITrend != 5 {
		t.Errorf("Expected 84 with trend 5, got %v / %v", summary.CHIScore, summary.CHITrend)
	}
}

func TestPipeline_SummaryCompetitorFailure(t *testing.T) {
	stub := newStub()
	delete(stub.docs, "att")
	p, _ := newTestPipeline(stub)

	doc, err := p.Get(context.Background(), model.ViewSummary)
	if err != nil {
		t.Fatalf("Expected summary without AT&T, got %v", err)
	}
	if n := len(doc.(model.SummaryView).CompetitiveSummary); n != 2 {
		t.Errorf("Expected 2 carriers, got %d", n)
	}
}

func TestPipeline_SummaryPrimaryFailure(t *testing.T) {
	stub := newStub()
	stub.docs["tmobile"] = `{"topics": []}`
	p, store := newTestPipeline(stub)

	_, err := p.Get(context.Background(), model.ViewSummary)
	if !errors.Is(err, model.ErrMalformedResearch) {
		t.Fatalf("Expected ErrMalformedResearch, got %v", err)
	}
	if _, ok, _ := store.Get(context.Background(), "ai_generated_summary.json"); ok {
		t.Error("Expected nothing cached after a failed generation")
	}
}

func TestPipeline_VibeReport(t *testing.T) {
	p, _ := newTestPipeline(newStub())

	doc, err := p.Get(context.Background(), model.ViewVibeReport)
	if err != nil {
		t.Fatalf("Get vibe report failed: %v", err)
	}
	vibe := doc.(model.VibeReport)
	if len(vibe.SentimentPolarity) != 3 || vibe.SentimentPolarity[0].Value != 60 {
		t.Errorf("unexpected polarity %+v", vibe.SentimentPolarity)
	}
	if len(vibe.DelightFeed) != 1 {
		t.Errorf("Expected only positive delight items, got %d", len(vibe.DelightFeed))
	}
}

func TestPipeline_CompetitiveUsesCachedSummary(t *testing.T) {
	stub := newStub()
	p, _ := newTestPipeline(stub)
	ctx := context.Background()

	if err := p.Generate(ctx, []model.View{model.ViewSummary, model.ViewCompetitive}, false); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if n := stub.count("att/summary"); n != 1 {
		t.Errorf("Expected carriers scored once, got %d", n)
	}

	doc, err := p.Get(ctx, model.ViewCompetitive)
	if err != nil {
		t.Fatal(err)
	}
	comp := doc.(model.CompetitiveView)
	if len(comp.HistoricalVibeGap) != 5 {
		t.Fatalf("Expected 5-day vibe gap, got %d", len(comp.HistoricalVibeGap))
	}
	last := comp.HistoricalVibeGap[4]
	if last.TMobile != 79 || last.ATT != 60 || last.Verizon != 27 {
		t.Errorf("Expected gap to end at current scores, got %+v", last)
	}
	if len(comp.CompWeaknesses) != 1 {
		t.Errorf("Expected weaknesses passed through, got %+v", comp.CompWeaknesses)
	}
}

func TestPipeline_CompetitiveWithoutSummary(t *testing.T) {
	stub := newStub()
	p, _ := newTestPipeline(stub)

	if _, err := p.Get(context.Background(), model.ViewCompetitive); err != nil {
		t.Fatalf("Get competitive failed: %v", err)
	}
	if n := stub.count("verizon/summary"); n != 1 {
		t.Errorf("Expected carriers scored directly, got %d calls", n)
	}
}

func TestPipeline_CompetitiveCarrierFailure(t *testing.T) {
	stub := newStub()
	delete(stub.docs, "verizon")
	p, store := newTestPipeline(stub)
	ctx := context.Background()

	// the summary tolerates a missing competitor, the vibe gap does not
	if _, err := p.Get(ctx, model.ViewSummary); err != nil {
		t.Fatalf("Get summary failed: %v", err)
	}

	_, err := p.Get(ctx, model.ViewCompetitive)
	if err == nil {
		t.Fatal("Expected competitive view to fail without a Verizon score")
	}
	if _, ok, _ := store.Get(ctx, "ai_generated_competitive.json"); ok {
		t.Error("Expected nothing cached after a failed generation")
	}
	if n := stub.count("verizon/summary"); n != 2 {
		t.Errorf("Expected Verizon rescored when the summary lacks it, got %d calls", n)
	}
}

func TestPipeline_Triage(t *testing.T) {
	p, _ := newTestPipeline(newStub())

	raw, err := p.Raw(context.Background(), model.ViewTriage)
	if err != nil {
		t.Fatalf("Raw triage failed: %v", err)
	}

	var triage model.TriageView
	if err := json.Unmarshal(raw, &triage); err != nil {
		t.Fatalf("decode triage: %v", err)
	}
	if triage.KPIs.CriticalCount != 1 || triage.KPIs.Resolved24h != 1 || triage.KPIs.MTTRHours != 6 {
		t.Errorf("unexpected kpis %+v", triage.KPIs)
	}
	if triage.Queue[0].Urgency != model.UrgencyCritical || triage.Queue[0].TimeToFix != 4.4 {
		t.Errorf("unexpected first item %+v", triage.Queue[0])
	}
	if len(triage.CauseBreakdown) != 2 {
		t.Errorf("Expected causes tallied from the queue, got %+v", triage.CauseBreakdown)
	}
}

func TestPipeline_TriageIncomplete(t *testing.T) {
	stub := newStub()
	stub.docs["tmobile/triage"] = `{"queue": []}`
	p, _ := newTestPipeline(stub)

	_, err := p.Get(context.Background(), model.ViewTriage)
	if !errors.Is(err, model.ErrIncompleteContext) {
		t.Errorf("Expected ErrIncompleteContext, got %v", err)
	}
}

func TestPipeline_CarrierCHI(t *testing.T) {
	p, _ := newTestPipeline(newStub())

	chi, err := p.CarrierCHI(context.Background(), "verizon")
	if err != nil {
		t.Fatalf("CarrierCHI failed: %v", err)
	}
	if math.Abs(chi.Score-27) > 1e-9 || chi.Direction != model.TrendDown {
		t.Errorf("Expected 27/down, got %v/%s", chi.Score, chi.Direction)
	}

	if _, err := p.CarrierCHI(context.Background(), "sprint"); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for unknown carrier, got %v", err)
	}
}

func TestPipeline_UnknownView(t *testing.T) {
	p, _ := newTestPipeline(newStub())
	if _, err := p.Get(context.Background(), model.View("nope")); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

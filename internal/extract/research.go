package extract

import (
	"fmt"
	"math"
	"strings"

	"github.com/ppiankov/vibecheck/internal/model"
)

// sumTolerance is the drift from 100 accepted without rescaling
const sumTolerance = 1.0

// ResearchExtractor turns raw research output into a normalized Research value
type ResearchExtractor struct {
	sentimentContainers []string
}

// NewResearchExtractor creates a new research extractor
func NewResearchExtractor() *ResearchExtractor {
	return &ResearchExtractor{
		sentimentContainers: []string{"sentiment", "sentiment_breakdown", "sentiment_distribution"},
	}
}

// Extract parses raw research (a JSON object, or LLM text containing one).
// It fails with ErrMalformedResearch when the sentiment split cannot be recovered.
func (e *ResearchExtractor) Extract(raw []byte) (*model.Research, error) {
	payload, err := ExtractJSONObject(string(raw))
	if err != nil {
		return nil, err
	}

	summary, err := e.summary(payload)
	if err != nil {
		return nil, err
	}

	research := contextFields(payload)
	research.Summary = summary
	return research, nil
}

// ExtractContext parses research that is only needed for its contextual data.
// The sentiment split is filled in when present and hasSentiment reports whether it was.
func (e *ResearchExtractor) ExtractContext(raw []byte) (research *model.Research, hasSentiment bool, err error) {
	payload, err := ExtractJSONObject(string(raw))
	if err != nil {
		return nil, false, err
	}

	research = contextFields(payload)
	if summary, err := e.summary(payload); err == nil {
		research.Summary = summary
		return research, true, nil
	}
	research.Summary.Topics = topics(payload)
	return research, false, nil
}

// contextFields maps every optional view field of the payload
func contextFields(payload map[string]any) *model.Research {
	return &model.Research{
		Carrier:         text(payload, "carrier"),
		SourceSentiment: sourceSentiment(payload),
		DelightFeed:     delightFeed(payload),
		ActionCards:     actionCards(payload),
		Competitors:     competitors(payload),
		VibeGap:         vibeGap(payload),
		FeatureMatrix:   featureMatrix(payload),
		CompWeaknesses:  compWeaknesses(payload),
		Critiques:       critiques(payload),
		Queue:           queue(payload),
		CauseBreakdown:  namedValues(payload, "cause_breakdown", "root_causes"),
		KPIs:            kpis(payload),
	}
}

// summary pulls the sentiment split and topics out of the payload
func (e *ResearchExtractor) summary(payload map[string]any) (model.ResearchSummary, error) {
	var pcts [3]float64
	for i, name := range []string{"positive", "neutral", "negative"} {
		v, raw, ok := e.percentage(payload, name)
		if !ok {
			return model.ResearchSummary{}, fmt.Errorf("%w: %s sentiment is %s", model.ErrMalformedResearch, name, describe(raw))
		}
		if v < 0 {
			return model.ResearchSummary{}, fmt.Errorf("%w: %s sentiment %.2f is negative", model.ErrMalformedResearch, name, v)
		}
		pcts[i] = v
	}

	total := pcts[0] + pcts[1] + pcts[2]
	if total == 0 {
		return model.ResearchSummary{}, fmt.Errorf("%w: sentiment split is all zero", model.ErrMalformedResearch)
	}

	// Upstream sometimes reports counts instead of shares
	if math.Abs(total-100) > sumTolerance {
		for i := range pcts {
			pcts[i] = pcts[i] / total * 100
		}
	}
	// drift inside the tolerance can still push one share past 100
	for i := range pcts {
		pcts[i] = math.Min(pcts[i], 100)
	}

	return model.ResearchSummary{
		PositivePct: pcts[0],
		NeutralPct:  pcts[1],
		NegativePct: pcts[2],
		Topics:      topics(payload),
	}, nil
}

// percentage looks up one sentiment share under its known aliases.
// When no alias holds a number, raw is the first value found, or nil.
func (e *ResearchExtractor) percentage(payload map[string]any, name string) (v float64, raw any, ok bool) {
	keys := []string{name + "_pct", name + "_percentage", name}

	scopes := []map[string]any{payload}
	for _, container := range e.sentimentContainers {
		if nested, ok := object(payload, container); ok {
			scopes = append(scopes, nested)
		}
	}
	for _, scope := range scopes {
		if v, ok := numberAt(scope, keys...); ok {
			return v, nil, true
		}
		if raw == nil {
			raw = present(scope, keys...)
		}
	}

	// vibe report shape: [{"name": "Positive", "value": 45}, ...]
	for _, item := range objects(payload, "sentiment_polarity") {
		if strings.EqualFold(text(item, "name"), name) {
			if v, ok := numberAt(item, "value"); ok {
				return v, nil, true
			}
			if raw == nil {
				raw = present(item, "value")
			}
		}
	}

	return 0, raw, false
}

// topics keeps every named topic; an unusable NSS becomes nil instead of zero
func topics(payload map[string]any) []model.Topic {
	items := objects(payload, "topics", "top_topics")
	out := make([]model.Topic, 0, len(items))

	for _, item := range items {
		name := text(item, "name", "topic")
		if name == "" {
			continue
		}

		topic := model.Topic{Name: name}
		if v, ok := numberAt(item, "volume", "mentions", "count"); ok && v > 0 {
			topic.Volume = int(math.Round(v))
		}
		if v, ok := numberAt(item, "nss", "net_sentiment", "net_sentiment_score"); ok {
			topic.NSS = model.Float(math.Max(-100, math.Min(100, v)))
		}

		out = append(out, topic)
	}

	return out
}

func sourceSentiment(payload map[string]any) []model.SourceSentiment {
	var out []model.SourceSentiment
	for _, item := range objects(payload, "sentiment_by_source", "sources") {
		source := canonicalSource(text(item, "source", "name"))
		if source == "" {
			continue
		}
		pos, _ := numberAt(item, "Positive", "positive")
		neu, _ := numberAt(item, "Neutral", "neutral")
		neg, _ := numberAt(item, "Negative", "negative")
		out = append(out, model.SourceSentiment{Source: source, Positive: pos, Neutral: neu, Negative: neg})
	}
	return out
}

func delightFeed(payload map[string]any) []model.DelightItem {
	var out []model.DelightItem
	for _, item := range objects(payload, "delight_feed", "highlights") {
		snippet := CleanSnippet(text(item, "snippet", "text", "quote"))
		if snippet == "" {
			continue
		}
		out = append(out, model.DelightItem{
			Snippet: snippet,
			Source:  canonicalSource(text(item, "source")),
			Emotion: text(item, "emotion", "tag"),
		})
	}
	return out
}

func actionCards(payload map[string]any) []model.ActionCard {
	var out []model.ActionCard
	for _, item := range objects(payload, "action_cards", "actions") {
		out = append(out, model.ActionCard{
			ID:       text(item, "id"),
			Title:    text(item, "title"),
			Insight:  text(item, "insight"),
			Priority: text(item, "priority"),
			Team:     text(item, "team"),
			Color:    text(item, "color"),
		})
	}
	return out
}

func competitors(payload map[string]any) []model.CarrierScore {
	var out []model.CarrierScore
	for _, item := range objects(payload, "competitive_summary") {
		score, ok := numberAt(item, "score", "chi_score")
		carrier := text(item, "carrier")
		if !ok || carrier == "" {
			continue
		}
		out = append(out, model.CarrierScore{Carrier: carrier, Score: score, Color: text(item, "color")})
	}
	return out
}

func vibeGap(payload map[string]any) []model.VibeGapPoint {
	var out []model.VibeGapPoint
	for _, item := range objects(payload, "historical_vibe_gap") {
		tm, _ := numberAt(item, "T_Mobile", "tmobile")
		att, _ := numberAt(item, "ATT", "att")
		vz, _ := numberAt(item, "Verizon", "verizon")
		out = append(out, model.VibeGapPoint{Date: text(item, "date"), TMobile: tm, ATT: att, Verizon: vz})
	}
	return out
}

func featureMatrix(payload map[string]any) []model.FeatureRow {
	var out []model.FeatureRow
	for _, item := range objects(payload, "feature_comparison_matrix") {
		out = append(out, model.FeatureRow{
			Feature: text(item, "Feature/Service", "feature"),
			TMobile: text(item, "T_Mobile", "tmobile"),
			ATT:     text(item, "ATT", "att"),
			Verizon: text(item, "Verizon", "verizon"),
		})
	}
	return out
}

func compWeaknesses(payload map[string]any) []model.CompWeakness {
	var out []model.CompWeakness
	for _, item := range objects(payload, "comp_weaknesses") {
		out = append(out, model.CompWeakness{
			Competitor:       text(item, "competitor"),
			Weakness:         text(item, "weakness"),
			ActionSuggestion: text(item, "action_suggestion"),
		})
	}
	return out
}

func critiques(payload map[string]any) []model.CarrierCritique {
	var out []model.CarrierCritique
	for _, item := range objects(payload, "tmobile_critiques", "critiques") {
		out = append(out, model.CarrierCritique{
			Critique:       text(item, "critique"),
			SourceImpact:   text(item, "source_impact"),
			TeamSuggestion: text(item, "team_suggestion"),
		})
	}
	return out
}

func queue(payload map[string]any) []model.QueueItem {
	var out []model.QueueItem
	for _, item := range objects(payload, "queue", "issues") {
		velocity, _ := numberAt(item, "velocity")
		since, _ := numberAt(item, "time_since_alert_h")
		ttf, _ := numberAt(item, "time_to_fix")
		out = append(out, model.QueueItem{
			ID:                text(item, "id"),
			Title:             text(item, "title"),
			Velocity:          velocity,
			TimeSinceAlertH:   since,
			Status:            text(item, "status"),
			OwnerTeam:         text(item, "owner_team", "team"),
			Urgency:           text(item, "urgency"),
			TimeToFix:         ttf,
			ResolutionSummary: text(item, "resolution_summary"),
			RootCause:         text(item, "root_cause", "cause"),
		})
	}
	return out
}

func namedValues(payload map[string]any, keys ...string) []model.NamedValue {
	var out []model.NamedValue
	for _, item := range objects(payload, keys...) {
		value, ok := numberAt(item, "value")
		name := text(item, "name")
		if !ok || name == "" {
			continue
		}
		out = append(out, model.NamedValue{Name: name, Value: value, Color: text(item, "color")})
	}
	return out
}

func kpis(payload map[string]any) *model.TriageKPIs {
	obj, ok := object(payload, "kpis")
	if !ok {
		return nil
	}
	critical, _ := numberAt(obj, "critical_count")
	mttr, _ := numberAt(obj, "mttr_h")
	resolved, _ := numberAt(obj, "resolved_24h")
	return &model.TriageKPIs{
		CriticalCount: int(critical),
		MTTRHours:     mttr,
		Resolved24h:   int(resolved),
	}
}

// canonicalSource maps free-form source names onto the dashboard's labels
func canonicalSource(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return ""
	case "reddit":
		return "Reddit"
	case "google play", "google play store", "play store", "playstore":
		return "Google Play"
	case "apple app store", "app store", "appstore", "ios":
		return "Apple App Store"
	case "twitter", "x":
		return "Twitter"
	default:
		return strings.TrimSpace(name)
	}
}

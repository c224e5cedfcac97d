package model

import (
	"fmt"
	"math"
)

// View names the four dashboard documents
type View string

const (
	ViewSummary     View = "summary"
	ViewVibeReport  View = "vibe_report"
	ViewCompetitive View = "competitive"
	ViewTriage      View = "triage"
)

// AllViews lists every view in generation order (competitive reads the summary)
func AllViews() []View {
	return []View{ViewSummary, ViewVibeReport, ViewCompetitive, ViewTriage}
}

// CacheKey returns the fixed persisted name of the view
func (v View) CacheKey() string {
	return "ai_generated_" + string(v) + ".json"
}

// ParseView resolves a view name, accepting the dashboard's route aliases
func ParseView(name string) (View, error) {
	switch name {
	case "summary":
		return ViewSummary, nil
	case "vibe_report", "vibe-report", "vibe":
		return ViewVibeReport, nil
	case "competitive":
		return ViewCompetitive, nil
	case "triage", "triage_queue":
		return ViewTriage, nil
	default:
		return "", fmt.Errorf("unknown view %q (supported: summary, vibe_report, competitive, triage)", name)
	}
}

// Urgency levels of a triage queue item
const (
	UrgencyCritical = "Critical"
	UrgencyHigh     = "High"
	UrgencyMedium   = "Medium"
	UrgencyLow      = "Low"
)

// ActionCard is a recommended action for a team
type ActionCard struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Insight  string `json:"insight"`
	Priority string `json:"priority"`
	Team     string `json:"team"`
	Color    string `json:"color"`
}

// CarrierScore is one carrier's CHI on the competitive strip
type CarrierScore struct {
	Carrier string  `json:"carrier"`
	Score   float64 `json:"score"`
	Color   string  `json:"color"`
}

// TrendPoint is one sample of the CHI trend chart
type TrendPoint struct {
	Time  string  `json:"time"`
	Score float64 `json:"score"`
}

// NamedValue is a labelled slice of a pie or bar chart
type NamedValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// SourceSentiment is the sentiment split for one feedback source
type SourceSentiment struct {
	Source   string  `json:"source"`
	Positive float64 `json:"Positive"`
	Neutral  float64 `json:"Neutral"`
	Negative float64 `json:"Negative"`
}

// DelightItem is a qualitative positive highlight
type DelightItem struct {
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
	Emotion string `json:"emotion"`
}

// VibeGapPoint is one day of carrier CHI history
type VibeGapPoint struct {
	Date    string  `json:"date"`
	TMobile float64 `json:"T_Mobile"`
	ATT     float64 `json:"ATT"`
	Verizon float64 `json:"Verizon"`
}

// FeatureRow is one row of the feature comparison matrix
type FeatureRow struct {
	Feature string `json:"Feature/Service"`
	TMobile string `json:"T_Mobile"`
	ATT     string `json:"ATT"`
	Verizon string `json:"Verizon"`
}

// CompWeakness is a competitor weakness with a suggested response
type CompWeakness struct {
	Competitor       string `json:"competitor"`
	Weakness         string `json:"weakness"`
	ActionSuggestion string `json:"action_suggestion"`
}

// CarrierCritique is a criticism of the primary carrier
type CarrierCritique struct {
	Critique       string `json:"critique"`
	SourceImpact   string `json:"source_impact"`
	TeamSuggestion string `json:"team_suggestion"`
}

// QueueItem is an issue in the triage queue
type QueueItem struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Velocity          float64 `json:"velocity"`
	TimeSinceAlertH   float64 `json:"time_since_alert_h"`
	Status            string  `json:"status"`
	OwnerTeam         string  `json:"owner_team"`
	Urgency           string  `json:"urgency"`
	TimeToFix         float64 `json:"time_to_fix"`
	ResolutionSummary string  `json:"resolution_summary,omitempty"`
	RootCause         string  `json:"root_cause,omitempty"` // input only, cleared in the triage view
}

// TriageKPIs are the headline numbers of the triage page
type TriageKPIs struct {
	CriticalCount int     `json:"critical_count"`
	MTTRHours     float64 `json:"mttr_h"`
	Resolved24h   int     `json:"resolved_24h"`
}

// SummaryView is the home page document
type SummaryView struct {
	CHIScore           float64        `json:"chi_score"`
	CHITrend           float64        `json:"chi_trend"`
	TrendDirection     TrendDirection `json:"trend_direction"`
	TrendPeriod        string         `json:"trend_period"`
	ActionCards        []ActionCard   `json:"action_cards"`
	CompetitiveSummary []CarrierScore `json:"competitive_summary"`
	TrendData          []TrendPoint   `json:"trend_data"`
}

// Validate checks that every field the dashboard reads is populated
func (v SummaryView) Validate() error {
	if err := validScore("chi_score", v.CHIScore); err != nil {
		return err
	}
	switch v.TrendDirection {
	case TrendUp, TrendDown, TrendStable:
	default:
		return fmt.Errorf("%w: summary trend_direction %q", ErrIncompleteContext, v.TrendDirection)
	}
	if v.TrendPeriod == "" {
		return fmt.Errorf("%w: summary trend_period is empty", ErrIncompleteContext)
	}
	if v.ActionCards == nil {
		return fmt.Errorf("%w: summary action_cards missing", ErrIncompleteContext)
	}
	if len(v.CompetitiveSummary) == 0 {
		return fmt.Errorf("%w: summary competitive_summary is empty", ErrIncompleteContext)
	}
	if len(v.TrendData) == 0 {
		return fmt.Errorf("%w: summary trend_data is empty", ErrIncompleteContext)
	}
	return nil
}

// VibeReport is the sentiment deep-dive document
type VibeReport struct {
	SentimentPolarity []NamedValue      `json:"sentiment_polarity"`
	SentimentBySource []SourceSentiment `json:"sentiment_by_source"`
	TopTopics         []Topic           `json:"top_topics"`
	DelightFeed       []DelightItem     `json:"delight_feed"`
}

// Validate checks that every field the dashboard reads is populated
func (v VibeReport) Validate() error {
	if len(v.SentimentPolarity) != 3 {
		return fmt.Errorf("%w: vibe_report sentiment_polarity has %d entries", ErrIncompleteContext, len(v.SentimentPolarity))
	}
	if len(v.SentimentBySource) == 0 {
		return fmt.Errorf("%w: vibe_report sentiment_by_source is empty", ErrIncompleteContext)
	}
	if v.TopTopics == nil || v.DelightFeed == nil {
		return fmt.Errorf("%w: vibe_report top_topics or delight_feed missing", ErrIncompleteContext)
	}
	return nil
}

// CompetitiveView is the competitive intelligence document
type CompetitiveView struct {
	HistoricalVibeGap       []VibeGapPoint    `json:"historical_vibe_gap"`
	FeatureComparisonMatrix []FeatureRow      `json:"feature_comparison_matrix"`
	CompWeaknesses          []CompWeakness    `json:"comp_weaknesses"`
	Critiques               []CarrierCritique `json:"tmobile_critiques,omitempty"`
}

// Validate checks that every field the dashboard reads is populated
func (v CompetitiveView) Validate() error {
	if len(v.HistoricalVibeGap) == 0 {
		return fmt.Errorf("%w: competitive historical_vibe_gap is empty", ErrIncompleteContext)
	}
	if len(v.FeatureComparisonMatrix) == 0 {
		return fmt.Errorf("%w: competitive feature_comparison_matrix is empty", ErrIncompleteContext)
	}
	if v.CompWeaknesses == nil {
		return fmt.Errorf("%w: competitive comp_weaknesses missing", ErrIncompleteContext)
	}
	return nil
}

// TriageView is the issue triage document
type TriageView struct {
	KPIs           TriageKPIs   `json:"kpis"`
	Queue          []QueueItem  `json:"queue"`
	CauseBreakdown []NamedValue `json:"cause_breakdown"`
}

// Validate checks that every field the dashboard reads is populated
func (v TriageView) Validate() error {
	if len(v.Queue) == 0 {
		return fmt.Errorf("%w: triage queue is empty", ErrIncompleteContext)
	}
	for _, item := range v.Queue {
		if item.Urgency == "" {
			return fmt.Errorf("%w: triage item %s has no urgency", ErrIncompleteContext, item.ID)
		}
	}
	if len(v.CauseBreakdown) == 0 {
		return fmt.Errorf("%w: triage cause_breakdown is empty", ErrIncompleteContext)
	}
	return nil
}

func validScore(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return fmt.Errorf("%w: %s %v outside 0-100", ErrIncompleteContext, field, v)
	}
	return nil
}

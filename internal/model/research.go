package model

// ResearchSummary is the normalized sentiment mix and topic list for one carrier
type ResearchSummary struct {
	PositivePct float64 `json:"positive_pct"` // 0-100
	NeutralPct  float64 `json:"neutral_pct"`  // 0-100
	NegativePct float64 `json:"negative_pct"` // 0-100
	Topics      []Topic `json:"topics"`
}

// Topic is a discussion theme with its mention volume and net sentiment
type Topic struct {
	Name   string   `json:"topic"`
	Volume int      `json:"volume"`
	NSS    *float64 `json:"nss"` // nil when upstream NSS was missing or ambiguous
}

// AverageNSS returns the mean NSS over topics that carry one.
// Topics without an NSS are skipped rather than counted as zero.
func (s ResearchSummary) AverageNSS() float64 {
	var sum float64
	n := 0
	for _, t := range s.Topics {
		if t.NSS == nil {
			continue
		}
		sum += *t.NSS
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Total returns the sum of the three sentiment percentages
func (s ResearchSummary) Total() float64 {
	return s.PositivePct + s.NeutralPct + s.NegativePct
}

// Research bundles a parsed summary with the contextual data the views need.
// Every context field is optional at parse time; the assemblers decide what is required.
type Research struct {
	Carrier string          `json:"carrier,omitempty"`
	Summary ResearchSummary `json:"summary"`

	SourceSentiment []SourceSentiment `json:"sentiment_by_source,omitempty"`
	DelightFeed     []DelightItem     `json:"delight_feed,omitempty"`

	ActionCards []ActionCard   `json:"action_cards,omitempty"`
	Competitors []CarrierScore `json:"competitive_summary,omitempty"`

	VibeGap        []VibeGapPoint    `json:"historical_vibe_gap,omitempty"`
	FeatureMatrix  []FeatureRow      `json:"feature_comparison_matrix,omitempty"`
	CompWeaknesses []CompWeakness    `json:"comp_weaknesses,omitempty"`
	Critiques      []CarrierCritique `json:"tmobile_critiques,omitempty"`

	Queue          []QueueItem  `json:"queue,omitempty"`
	CauseBreakdown []NamedValue `json:"cause_breakdown,omitempty"`
	KPIs           *TriageKPIs  `json:"kpis,omitempty"`
}

// Float returns a pointer to v, for optional numeric fields
func Float(v float64) *float64 {
	return &v
}

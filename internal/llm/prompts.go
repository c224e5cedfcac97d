package llm

import (
	"fmt"

	"github.com/ppiankov/vibecheck/internal/model"
)

const sentimentSchema = `    "positive_pct": <number 0-100>,
    "neutral_pct": <number 0-100>,
    "negative_pct": <number 0-100>,
    "topics": [
        {"name": "<string>", "volume": <integer mentions>, "nss": <number -100 to 100>}
    ]`

var viewSchemas = map[model.View]string{
	model.ViewSummary: `{
` + sentimentSchema + `,
    "action_cards": [
        {"id": "<string>", "team": "<string>", "priority": "<Critical|High|Medium|Low>", "title": "<string>", "insight": "<string>", "color": "<hex_color>"}
    ]
}`,
	model.ViewVibeReport: `{
` + sentimentSchema + `,
    "sentiment_by_source": [
        {"source": "<Reddit|Google Play|Apple App Store>", "Positive": <number>, "Neutral": <number>, "Negative": <number>}
    ],
    "delight_feed": [
        {"snippet": "<string>", "source": "<string>", "emotion": "<string>"}
    ]
}`,
	model.ViewCompetitive: `{
    "feature_comparison_matrix": [
        {"Feature/Service": "<string>", "T_Mobile": "<string>", "ATT": "<string>", "Verizon": "<string>"}
    ],
    "comp_weaknesses": [
        {"competitor": "<string>", "weakness": "<string>", "action_suggestion": "<string>"}
    ],
    "tmobile_critiques": [
        {"critique": "<string>", "source_impact": "<string>", "team_suggestion": "<string>"}
    ]
}`,
	model.ViewTriage: `{
    "queue": [
        {"id": "<string>", "title": "<string>", "velocity": <number 0-10>, "time_since_alert_h": <number>, "status": "<Active|Investigating|Resolved>", "owner_team": "<string>", "time_to_fix": <hours>, "root_cause": "<Network Infrastructure|Customer Service|Billing System|Product/App Issues|Other>"}
    ]
}`,
}

var viewInstructions = map[model.View]string{
	model.ViewSummary: `Extract:
1. Sentiment split (positive, neutral, negative percentages summing to 100)
2. Up to 8 topics with mention volume and Net Sentiment Score (-100 to 100, positive is favorable)
3. Top 2-3 action items with a responsible team, priority and insight (use #D62828 for Critical, #FFC300 for High)`,
	model.ViewVibeReport: `Extract:
1. Sentiment split (positive, neutral, negative percentages summing to 100)
2. Sentiment breakdown by source (Reddit, Google Play, Apple App Store)
3. Top 8 topics with mention volume and Net Sentiment Score (-100 to 100)
4. Delight feed: 6 positive feedback quotes with source and emotion`,
	model.ViewCompetitive: `Compare T-Mobile with AT&T and Verizon. Extract:
1. Feature comparison matrix with sentiment ratings (e.g. "Positive (8.5/10)", "Mixed (6.8/10)")
2. At least 2 competitor weaknesses with action suggestions
3. At least 2 T-Mobile critiques with source impact and team suggestions`,
	model.ViewTriage: `Extract 5 to 8 current customer issues as a triage queue:
- id: T001, T002, ...
- velocity: how fast complaints are growing, 0-10
- time_to_fix: estimated hours to fix
- root_cause: one of the listed categories
Only report issues present in the feedback.`,
}

// SystemPrompt returns the extraction instructions for a view
func SystemPrompt(view model.View) string {
	return fmt.Sprintf(`You are a Data Extraction Agent for mobile carrier customer feedback.

Expected JSON structure:
%s

IMPORTANT: Return ONLY valid JSON. No markdown, no code blocks, no explanations.`, viewSchemas[view])
}

// BuildPrompt constructs the user prompt for a research request
func BuildPrompt(req ResearchRequest) string {
	if req.Prompt != "" {
		return req.Prompt
	}

	return fmt.Sprintf(`Analyze %s customer feedback, reviews, and sentiment from Reddit, Google Play Store and Apple App Store reviews.

%s

Return the data as valid JSON matching the schema.`, req.Carrier.Display, viewInstructions[req.View])
}

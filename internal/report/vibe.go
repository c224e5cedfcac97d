package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/vibecheck/internal/model"
	"github.com/ppiankov/vibecheck/internal/score"
)

// Polarity slice colors
const (
	ColorPositive = "#E20074"
	ColorNeutral  = "#9CA3AF"
	ColorNegative = "#D62828"
)

var positiveEmotions = map[string]bool{
	"joy":          true,
	"satisfaction": true,
	"trust":        true,
	"delight":      true,
	"gratitude":    true,
	"surprise":     true,
	"love":         true,
	"relief":       true,
	"excitement":   true,
	"happiness":    true,
	"admiration":   true,
	"pride":        true,
}

// VibeContext is the data the vibe report needs
type VibeContext struct {
	Summary        model.ResearchSummary
	Sources        []model.SourceSentiment // required
	DelightFeed    []model.DelightItem
	TopTopicsLimit int // 0 keeps every topic
}

// AssembleVibeReport builds the sentiment deep-dive document.
// The CHI result is accepted for symmetry with the other assemblers; the
// report itself is derived from the research summary.
func AssembleVibeReport(_ model.CHIResult, ctx VibeContext) (model.VibeReport, error) {
	if len(ctx.Sources) == 0 {
		return model.VibeReport{}, fmt.Errorf("%w: vibe report needs sentiment by source", model.ErrIncompleteContext)
	}

	s := ctx.Summary
	polarity := []model.NamedValue{
		{Name: "Positive", Value: score.Round1(s.PositivePct), Color: ColorPositive},
		{Name: "Neutral", Value: score.Round1(s.NeutralPct), Color: ColorNeutral},
		{Name: "Negative", Value: score.Round1(s.NegativePct), Color: ColorNegative},
	}

	view := model.VibeReport{
		SentimentPolarity: polarity,
		SentimentBySource: ctx.Sources,
		TopTopics:         TopTopics(s.Topics, ctx.TopTopicsLimit),
		DelightFeed:       PositiveFeed(ctx.DelightFeed),
	}

	if err := view.Validate(); err != nil {
		return model.VibeReport{}, err
	}
	return view, nil
}

// TopTopics orders topics by volume descending, then |nss| descending with
// missing NSS last, then name ascending. The input slice is not modified.
func TopTopics(topics []model.Topic, limit int) []model.Topic {
	out := make([]model.Topic, len(topics))
	copy(out, topics)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Volume != b.Volume {
			return a.Volume > b.Volume
		}
		switch {
		case a.NSS != nil && b.NSS == nil:
			return true
		case a.NSS == nil && b.NSS != nil:
			return false
		case a.NSS != nil && b.NSS != nil:
			if x, y := math.Abs(*a.NSS), math.Abs(*b.NSS); x != y {
				return x > y
			}
		}
		return a.Name < b.Name
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// PositiveFeed keeps delight items tagged with a positive emotion
func PositiveFeed(items []model.DelightItem) []model.DelightItem {
	out := make([]model.DelightItem, 0, len(items))
	for _, item := range items {
		if positiveEmotions[strings.ToLower(strings.TrimSpace(item.Emotion))] {
			out = append(out, item)
		}
	}
	return out
}

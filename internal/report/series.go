package report

import (
	"math"
	"time"

	"github.com/ppiankov/vibecheck/internal/model"
	"github.com/ppiankov/vibecheck/internal/score"
)

const (
	trendPoints = 25

	// trendSpan scales chi_trend into the distance the placeholder series travels
	trendSpan = 8.0

	// gapRise is how far each carrier climbs across the generated vibe gap
	gapRise = 5.0
)

// TrendSeries generates hourly placeholder points ending at now.
// The series moves linearly toward current, starting |trend|*8 below it when
// trend is positive and above it when negative; zero trend gives a flat line.
func TrendSeries(current, trend float64, now time.Time) []model.TrendPoint {
	if now.IsZero() {
		now = time.Now()
	}
	now = now.Truncate(time.Hour)

	start := current - trend*trendSpan
	points := make([]model.TrendPoint, trendPoints)
	for i := range points {
		frac := float64(i) / float64(trendPoints-1)
		v := start + (current-start)*frac
		points[i] = model.TrendPoint{
			Time:  now.Add(time.Duration(i-(trendPoints-1)) * time.Hour).Format("15:04"),
			Score: score.Round1(math.Max(0, math.Min(100, v))),
		}
	}
	return points
}

// VibeGapSeries generates a daily history for the three compared carriers
// ending at today, each rising linearly by gapRise points to its current score.
// Callers must supply a score for every carrier in GapCarriers.
func VibeGapSeries(scores map[string]float64, days int, now time.Time) []model.VibeGapPoint {
	if days < 1 {
		days = 1
	}
	if now.IsZero() {
		now = time.Now()
	}

	at := func(id string, i int) float64 {
		current, ok := scores[id]
		if !ok {
			return 0
		}
		if days == 1 {
			return score.Round1(current)
		}
		frac := float64(i) / float64(days-1)
		v := current - gapRise + gapRise*frac
		return score.Round1(math.Max(0, math.Min(100, v)))
	}

	points := make([]model.VibeGapPoint, days)
	for i := range points {
		points[i] = model.VibeGapPoint{
			Date:    now.AddDate(0, 0, i-(days-1)).Format("01/02"),
			TMobile: at("tmobile", i),
			ATT:     at("att", i),
			Verizon: at("verizon", i),
		}
	}
	return points
}

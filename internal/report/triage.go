package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/ppiankov/vibecheck/internal/model"
	"github.com/ppiankov/vibecheck/internal/score"
)

const statusResolved = "resolved"

var causeColors = map[string]string{
	"Network Infrastructure": "#D62828",
	"Customer Service":       "#FFC300",
	"Billing System":         "#9CA3AF",
	"Product/App Issues":     "#3B82F6",
	"Other":                  "#6B7280",
}

// TriageContext is the data the triage view needs
type TriageContext struct {
	Queue          []model.QueueItem // required
	CauseBreakdown []model.NamedValue
	KPIs           *model.TriageKPIs // mttr_h and resolved_24h pass through when set
}

// AssembleTriage builds the issue triage document
func AssembleTriage(_ model.CHIResult, ctx TriageContext) (model.TriageView, error) {
	if len(ctx.Queue) == 0 {
		return model.TriageView{}, fmt.Errorf("%w: triage needs a non-empty queue", model.ErrIncompleteContext)
	}

	queue := make([]model.QueueItem, len(ctx.Queue))
	var critical, resolved24h, resolved int
	var fixHours float64

	for i, item := range ctx.Queue {
		item.Urgency = Urgency(item.Velocity, item.Status)
		if item.TimeToFix <= 0 {
			item.TimeToFix = EstimateTimeToFix(item.Urgency, item.Velocity)
		}

		if item.Urgency == model.UrgencyCritical {
			critical++
		}
		if strings.EqualFold(item.Status, statusResolved) {
			resolved++
			fixHours += item.TimeToFix
			if item.TimeSinceAlertH <= 24 {
				resolved24h++
			}
		}

		queue[i] = item
	}

	kpis := model.TriageKPIs{CriticalCount: critical}
	if ctx.KPIs != nil {
		kpis.MTTRHours = ctx.KPIs.MTTRHours
		kpis.Resolved24h = ctx.KPIs.Resolved24h
	} else {
		if resolved > 0 {
			kpis.MTTRHours = score.Round1(fixHours / float64(resolved))
		}
		kpis.Resolved24h = resolved24h
	}

	causes := ctx.CauseBreakdown
	if len(causes) == 0 {
		causes = tallyCauses(queue)
	} else {
		causes = colorCauses(causes)
	}

	// root_cause is an input tag only
	for i := range queue {
		queue[i].RootCause = ""
	}

	view := model.TriageView{
		KPIs:           kpis,
		Queue:          queue,
		CauseBreakdown: causes,
	}

	if err := view.Validate(); err != nil {
		return model.TriageView{}, err
	}
	return view, nil
}

// Urgency maps velocity and status to a single urgency level
func Urgency(velocity float64, status string) string {
	switch {
	case velocity > 8 || strings.EqualFold(status, model.UrgencyCritical):
		return model.UrgencyCritical
	case velocity > 5:
		return model.UrgencyHigh
	case velocity > 2:
		return model.UrgencyMedium
	default:
		return model.UrgencyLow
	}
}

// EstimateTimeToFix returns a fix estimate in hours for items without one
func EstimateTimeToFix(urgency string, velocity float64) float64 {
	var hours float64
	switch urgency {
	case model.UrgencyCritical:
		hours = 2 + clamp(velocity-8, 0, 2)*2
	case model.UrgencyHigh:
		hours = 6 + (velocity-5)*2
	case model.UrgencyMedium:
		hours = 12 + (velocity-2)*4
	default:
		hours = 24 + clamp(velocity, 0, 2)*12
	}
	return score.Round1(hours)
}

// CauseColor returns the chart color for a root cause
func CauseColor(name string) string {
	if c, ok := causeColors[name]; ok {
		return c
	}
	return causeColors["Other"]
}

// tallyCauses turns queue root_cause tags into a percentage breakdown.
// Items without a tag are counted as Other; order follows first appearance.
func tallyCauses(queue []model.QueueItem) []model.NamedValue {
	counts := make(map[string]int)
	var order []string

	for _, item := range queue {
		cause := strings.TrimSpace(item.RootCause)
		if cause == "" {
			cause = "Other"
		}
		if _, seen := counts[cause]; !seen {
			order = append(order, cause)
		}
		counts[cause]++
	}

	out := make([]model.NamedValue, 0, len(order))
	for _, cause := range order {
		out = append(out, model.NamedValue{
			Name:  cause,
			Value: score.Round1(float64(counts[cause]) / float64(len(queue)) * 100),
			Color: CauseColor(cause),
		})
	}
	return out
}

func colorCauses(causes []model.NamedValue) []model.NamedValue {
	out := make([]model.NamedValue, len(causes))
	for i, c := range causes {
		if c.Color == "" {
			c.Color = CauseColor(c.Name)
		}
		out[i] = c
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

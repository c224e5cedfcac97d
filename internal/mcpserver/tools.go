package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/vibecheck/internal/model"
	"github.com/ppiankov/vibecheck/internal/score"
)

// ViewTool handles vibecheck_get_view
type ViewTool struct {
	views Views
	log   logrus.FieldLogger
}

// NewViewTool creates a ViewTool reading from views
func NewViewTool(views Views, log logrus.FieldLogger) *ViewTool {
	return &ViewTool{views: views, log: log}
}

// Definition returns the MCP tool definition for registration
func (t *ViewTool) Definition() mcp.Tool {
	return mcp.NewTool("vibecheck_get_view",
		mcp.WithDescription(
			"Return one dashboard document as JSON. The document is served from cache "+
				"and generated from fresh research on a miss, which can take a while.",
		),
		mcp.WithString("view",
			mcp.Required(),
			mcp.Description("One of: summary, vibe_report, competitive, triage"),
		),
	)
}

// Handle processes the vibecheck_get_view tool call
func (t *ViewTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(req.GetString("view", ""))
	if name == "" {
		return mcp.NewToolResultError("'view' is required"), nil
	}
	view, err := model.ParseView(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	blob, err := t.views.Raw(ctx, view)
	if err != nil {
		t.log.WithFields(logrus.Fields{"view": view, "error": err}).Warn("mcp view failed")
		return mcp.NewToolResultError(fmt.Sprintf("generate %s: %v", view, err)), nil
	}
	return mcp.NewToolResultText(string(blob)), nil
}

// CHITool handles vibecheck_compute_chi
type CHITool struct {
	views      Views
	calculator *score.Calculator
	log        logrus.FieldLogger
}

// NewCHITool creates a CHITool
func NewCHITool(views Views, log logrus.FieldLogger) *CHITool {
	return &CHITool{views: views, calculator: score.NewCalculator(), log: log}
}

// Definition returns the MCP tool definition for registration
func (t *CHITool) Definition() mcp.Tool {
	return mcp.NewTool("vibecheck_compute_chi",
		mcp.WithDescription(
			"Compute the Customer Happiness Index. Pass 'carrier' to research and score a carrier, "+
				"or pass positive_pct, neutral_pct and negative_pct (and optionally avg_nss) to score "+
				"an explicit sentiment split. The result includes the formula breakdown.",
		),
		mcp.WithString("carrier",
			mcp.Description("Carrier ID: tmobile, att or verizon"),
		),
		mcp.WithNumber("positive_pct",
			mcp.Description("Share of positive mentions, 0-100"),
		),
		mcp.WithNumber("neutral_pct",
			mcp.Description("Share of neutral mentions, 0-100"),
		),
		mcp.WithNumber("negative_pct",
			mcp.Description("Share of negative mentions, 0-100"),
		),
		mcp.WithNumber("avg_nss",
			mcp.Description("Average net sentiment score across topics, -100 to 100 (default 0)"),
		),
	)
}

type chiOutput struct {
	Carrier        string               `json:"carrier,omitempty"`
	Score          float64              `json:"chi_score"`
	Trend          float64              `json:"chi_trend"`
	TrendDirection model.TrendDirection `json:"trend_direction"`
	TrendPeriod    string               `json:"trend_period"`
	Breakdown      model.CHIBreakdown   `json:"breakdown"`
}

// Handle processes the vibecheck_compute_chi tool call
func (t *CHITool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	carrier := strings.TrimSpace(req.GetString("carrier", ""))
	args := req.GetArguments()

	var (
		chi model.CHIResult
		err error
	)
	switch {
	case carrier != "":
		chi, err = t.views.CarrierCHI(ctx, carrier)
	case hasNumber(args, "positive_pct") && hasNumber(args, "neutral_pct") && hasNumber(args, "negative_pct"):
		summary := model.ResearchSummary{
			PositivePct: req.GetFloat("positive_pct", 0),
			NeutralPct:  req.GetFloat("neutral_pct", 0),
			NegativePct: req.GetFloat("negative_pct", 0),
		}
		chi, err = t.calculator.Compute(summary, req.GetFloat("avg_nss", 0))
	default:
		return mcp.NewToolResultError("pass 'carrier' or all of positive_pct, neutral_pct and negative_pct"), nil
	}
	if err != nil {
		t.log.WithFields(logrus.Fields{"carrier": carrier, "error": err}).Warn("mcp chi failed")
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, err := json.MarshalIndent(chiOutput{
		Carrier:        carrier,
		Score:          score.Round1(chi.Score),
		Trend:          score.Round1(chi.Trend),
		TrendDirection: chi.Direction,
		TrendPeriod:    chi.Period,
		Breakdown:      chi.Breakdown,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode chi result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func hasNumber(args map[string]any, key string) bool {
	_, ok := args[key].(float64)
	return ok
}

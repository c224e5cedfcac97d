package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ppiankov/vibecheck/internal/extract"
	"github.com/ppiankov/vibecheck/internal/model"
	"github.com/ppiankov/vibecheck/internal/score"
)

var (
	chiJSON  bool
	chiTrend float64
)

// chiCmd represents the chi command
var chiCmd = &cobra.Command{
	Use:   "chi <research-file>",
	Short: "Compute the CHI of a research file",
	Long: `Chi parses a research file (JSON, or LLM output containing JSON) and prints
the Customer Happiness Index with its full formula breakdown.

Use "-" to read from stdin.

Example:
  vibecheck chi research/tmobile.json
  vibecheck chi research/verizon.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCHI,
}

func init() {
	rootCmd.AddCommand(chiCmd)

	chiCmd.Flags().BoolVar(&chiJSON, "json", false, "print the result as JSON")
	chiCmd.Flags().Float64Var(&chiTrend, "trend", 0, "chi_trend to report alongside the score")
}

type chiReport struct {
	CHIScore       float64              `json:"chi_score"`
	CHITrend       float64              `json:"chi_trend"`
	TrendDirection model.TrendDirection `json:"trend_direction"`
	TrendPeriod    string               `json:"trend_period"`
	Breakdown      model.CHIBreakdown   `json:"breakdown"`
	Topics         []model.Topic        `json:"topics"`
}

func runCHI(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	research, err := extract.NewResearchExtractor().Extract(raw)
	if err != nil {
		return fmt.Errorf("parse research: %w", err)
	}

	chi, err := score.NewCalculator().ComputeSummary(research.Summary, score.WithTrend(chiTrend))
	if err != nil {
		return fmt.Errorf("compute chi: %w", err)
	}

	report := chiReport{
		CHIScore:       score.Round1(chi.Score),
		CHITrend:       score.Round1(chi.Trend),
		TrendDirection: chi.Direction,
		TrendPeriod:    chi.Period,
		Breakdown:      chi.Breakdown,
		Topics:         research.Summary.Topics,
	}

	out := cmd.OutOrStdout()
	if chiJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printCHI(out, research.Summary, report)
	return nil
}

func printCHI(w io.Writer, s model.ResearchSummary, r chiReport) {
	b := r.Breakdown
	fmt.Fprintf(w, "CHI %.1f (%s, trend %+.1f)\n\n", r.CHIScore, r.TrendDirection, r.CHITrend)
	fmt.Fprintf(w, "  Sentiment        positive %.1f%%  neutral %.1f%%  negative %.1f%%\n", s.PositivePct, s.NeutralPct, s.NegativePct)
	fmt.Fprintf(w, "  Sentiment score  %.4f\n", b.SentimentScore)
	fmt.Fprintf(w, "  Base CHI         %.2f\n", b.BaseCHI)
	fmt.Fprintf(w, "  Average NSS      %.2f over %d topic(s)\n", b.AverageNSS, scoredTopics(s.Topics))
	fmt.Fprintf(w, "  NSS adjustment   %+.2f\n", b.NSSAdjustment)
	fmt.Fprintf(w, "  Unclamped        %.2f\n", b.Unclamped)
	fmt.Fprintf(w, "  Delta            %+.1f\n\n", b.Delta)

	names := make([]string, 0, len(b.Formulas))
	for name := range b.Formulas {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "Formulas:")
	for _, name := range names {
		fmt.Fprintf(w, "  %-16s %s\n", name, b.Formulas[name])
	}
}

func scoredTopics(topics []model.Topic) int {
	n := 0
	for _, t := range topics {
		if t.NSS != nil {
			n++
		}
	}
	return n
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read research file: %w", err)
	}
	return data, nil
}

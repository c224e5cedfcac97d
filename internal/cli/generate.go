package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/vibecheck/internal/model"
)

var (
	forceGenerate   bool
	generateTimeout time.Duration
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate [views...]",
	Short: "Generate and cache dashboard documents",
	Long: `Generate researches, scores and caches the dashboard documents.
Views already in the cache are kept unless --force is given.

Views: summary, vibe_report, competitive, triage (default: all)

Example:
  vibecheck generate
  vibecheck generate summary competitive --force`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().BoolVarP(&forceGenerate, "force", "f", false, "regenerate views that are already cached")
	generateCmd.Flags().DurationVar(&generateTimeout, "timeout", 10*time.Minute, "overall generation timeout")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	views, err := parseViews(args)
	if err != nil {
		return err
	}

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	start := time.Now()
	if err := a.pipeline.Generate(ctx, views, forceGenerate); err != nil {
		return fmt.Errorf("generate failed: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, view := range views {
		fmt.Fprintf(out, "✓ %-12s %s\n", view, view.CacheKey())
	}
	fmt.Fprintf(out, "\nGenerated %d view(s) in %v\n", len(views), time.Since(start).Round(time.Millisecond))
	return nil
}

// parseViews maps view names to views, keeping summary ahead of competitive
// so the competitive view can reuse the cached carrier scores.
func parseViews(args []string) ([]model.View, error) {
	if len(args) == 0 {
		return model.AllViews(), nil
	}

	seen := make(map[model.View]bool)
	for _, arg := range args {
		view, err := model.ParseView(arg)
		if err != nil {
			return nil, err
		}
		seen[view] = true
	}

	var views []model.View
	for _, view := range model.AllViews() {
		if seen[view] {
			views = append(views, view)
		}
	}
	return views, nil
}

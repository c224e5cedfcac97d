package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/vibecheck/internal/model"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached documents",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [views...]",
	Short: "Remove cached documents",
	Long: `Clear removes cached documents so the next request regenerates them.
Without arguments every entry in the cache is removed, including score history.

Example:
  vibecheck cache clear
  vibecheck cache clear triage`,
	RunE: runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		if err := a.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Fprintf(out, "✓ Cleared %s cache\n", a.config.Cache.Backend)
		return nil
	}

	for _, arg := range args {
		view, err := model.ParseView(arg)
		if err != nil {
			return err
		}
		if err := a.store.Delete(ctx, view.CacheKey()); err != nil {
			return fmt.Errorf("clear %s: %w", view, err)
		}
		fmt.Fprintf(out, "✓ Cleared %s\n", view.CacheKey())
	}
	return nil
}

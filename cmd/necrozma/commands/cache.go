package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "라벨 캐시 관리",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "오래된 캐시 삭제",
	Long: `보존 기간보다 오래된 라벨 캐시를 삭제합니다.
기본 보존 기간은 LABEL_CACHE_RETENTION (720h) 입니다.

Example:
  go run ./cmd/necrozma cache prune
  go run ./cmd/necrozma cache prune --older-than 168h`,
	RunE: runCachePrune,
}

var pruneOlderThan time.Duration

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cachePruneCmd)

	cachePruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "retention (default LABEL_CACHE_RETENTION)")
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := bootstrap(ctx, bootstrapOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	retention := pruneOlderThan
	if retention <= 0 {
		retention = a.cfg.Labeling.CacheRetention
	}

	removed, err := a.store.Prune(ctx, retention)
	if err != nil {
		return fmt.Errorf("prune cache: %w", err)
	}

	fmt.Printf("✅ Removed %d cache entries older than %s (%s backend)\n",
		removed, retention, a.cfg.Labeling.CacheBackend)
	return nil
}

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
	"github.com/dans91364-create/NECROZMAv2/internal/labeling"
	"github.com/dans91364-create/NECROZMAv2/internal/series"
	"github.com/dans91364-create/NECROZMAv2/pkg/httputil"
)

// labelCmd represents the label command
var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "라벨 생성/조회",
	Long: `트리플 배리어 라벨을 생성하거나 캐시된 결과를 조회합니다.

Subcommands:
  run     - 스윕 실행 (CSV 또는 DB)
  show    - fingerprint로 캐시 조회
  latest  - 가장 최근 캐시 조회`,
}

var (
	labelRunCmd = &cobra.Command{
		Use:   "run",
		Short: "라벨 스윕 실행",
		Long: `가격 시리즈를 로드하고 전체 그리드에 대해 라벨을 계산합니다.
동일한 데이터+그리드는 캐시에서 즉시 반환됩니다.

Example:
  go run ./cmd/necrozma label run --csv data/XAUUSD_M1.csv
  go run ./cmd/necrozma label run --symbol XAUUSD --from 2024-01-01 --to 2024-03-31 --no-cache
  go run ./cmd/necrozma label run --csv data/XAUUSD_M1.csv --sweep config/sweep/default.yaml
  go run ./cmd/necrozma label run --csv https://example.com/bars/XAUUSD_M1.csv
  go run ./cmd/necrozma label run --csv data/XAUUSD_M1.csv --forward --forward-periods 1,5,20`,
		RunE: runLabel,
	}

	labelShowCmd = &cobra.Command{
		Use:   "show",
		Short: "fingerprint로 캐시된 라벨 조회",
		Long: `Example:
  go run ./cmd/necrozma label show --fingerprint <fp>
  go run ./cmd/necrozma label show --fingerprint <fp> --config T10_S10_H60 --rows 20`,
		RunE: showLabels,
	}

	labelLatestCmd = &cobra.Command{
		Use:   "latest",
		Short: "가장 최근 캐시된 라벨 조회",
		RunE:  showLatestLabels,
	}
)

var (
	labelCSV     string
	labelSymbol  string
	labelFrom    string
	labelTo      string
	labelNoCache bool
	labelTop     int

	labelForward        bool
	labelForwardPeriods []int

	showFingerprint string
	showConfig      string
	showRows        int
)

func init() {
	rootCmd.AddCommand(labelCmd)
	labelCmd.AddCommand(labelRunCmd)
	labelCmd.AddCommand(labelShowCmd)
	labelCmd.AddCommand(labelLatestCmd)

	labelRunCmd.Flags().StringVar(&labelCSV, "csv", "", "CSV file or http(s) URL (DateTime,Open,High,Low,Close,Volume)")
	labelRunCmd.Flags().StringVar(&labelSymbol, "symbol", "", "symbol to load from the database")
	labelRunCmd.Flags().StringVar(&labelFrom, "from", "", "start date (YYYY-MM-DD, with --symbol)")
	labelRunCmd.Flags().StringVar(&labelTo, "to", "", "end date (YYYY-MM-DD, inclusive, with --symbol)")
	labelRunCmd.Flags().BoolVar(&labelNoCache, "no-cache", false, "recompute even when a cached result exists")
	labelRunCmd.Flags().IntVar(&labelTop, "top", 10, "number of configurations to print")
	labelRunCmd.Flags().BoolVar(&labelForward, "forward", false, "also compute forward returns and target levels")
	labelRunCmd.Flags().IntSliceVar(&labelForwardPeriods, "forward-periods", labeling.DefaultForwardPeriods, "forward return periods in bars")
	labelRunCmd.MarkFlagsMutuallyExclusive("csv", "symbol")
	labelRunCmd.MarkFlagsOneRequired("csv", "symbol")

	labelShowCmd.Flags().StringVar(&showFingerprint, "fingerprint", "", "cache fingerprint")
	labelShowCmd.Flags().StringVar(&showConfig, "config", "", "configuration name, e.g. T10_S10_H60")
	labelShowCmd.Flags().IntVar(&showRows, "rows", 10, "rows to print with --config")
	labelShowCmd.MarkFlagRequired("fingerprint")
}

func runLabel(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, bootstrapOptions{requireDB: labelSymbol != ""})
	if err != nil {
		return err
	}
	defer a.Close()

	// 1. Load series
	s, err := loadSeries(ctx, a)
	if err != nil {
		return err
	}

	// 2. Quality gate
	report, err := a.gate.Check(s)
	if err != nil {
		return fmt.Errorf("invalid series: %w", err)
	}
	for _, w := range report.Warnings {
		a.log.WithField("symbol", s.Symbol).Warn(w)
	}
	if err := report.Err(); err != nil {
		return err
	}

	// 3. Label
	opts := a.options()
	if labelNoCache {
		opts.UseCache = false
	}
	if labelForward {
		opts.ForwardPeriods = labelForwardPeriods
	}

	printHeader("Labeling Sweep", [][2]string{
		{"Symbol", s.Symbol},
		{"Rows", fmt.Sprintf("%d", s.Len())},
		{"Period", fmt.Sprintf("%s ~ %s", firstBound(s), lastBound(s))},
		{"Configs", fmt.Sprintf("%d", opts.Grid.Size())},
		{"Cache", fmt.Sprintf("%v (%s)", opts.UseCache, a.cfg.Labeling.CacheBackend)},
	})

	result, err := a.service.Label(ctx, s, opts)
	if err != nil {
		return fmt.Errorf("label: %w", err)
	}

	printRunSummary(result)
	printStatsTable(result.Stats, labelTop)
	printForward(result.Forward, result.Targets)
	return nil
}

func loadSeries(ctx context.Context, a *app) (*contracts.PriceSeries, error) {
	if series.IsRemote(labelCSV) {
		return series.FetchCSV(ctx, httputil.New(a.cfg, a.log), labelCSV)
	}
	if labelCSV != "" {
		return series.LoadCSV(labelCSV)
	}

	from, to, err := parsePeriod(labelFrom, labelTo)
	if err != nil {
		return nil, err
	}
	return series.NewRepository(a.db.Pool).Load(ctx, labelSymbol, from, to)
}

// parsePeriod parses YYYY-MM-DD bounds; to is inclusive of the whole day
func parsePeriod(fromStr, toStr string) (time.Time, time.Time, error) {
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--from and --to are required with --symbol")
	}
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from: %w", err)
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --to: %w", err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to must not be before --from")
	}
	return from, to.Add(24*time.Hour - time.Nanosecond), nil
}

func showLabels(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := bootstrap(ctx, bootstrapOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	entry, err := a.service.Load(ctx, showFingerprint)
	if err != nil {
		return err
	}

	if showConfig == "" {
		printEntry(entry)
		return nil
	}

	frame, ok := entry.Labels.Get(showConfig)
	if !ok {
		return fmt.Errorf("config %s not found in %s", showConfig, entry.Fingerprint)
	}
	printRows(frame, showRows)
	return nil
}

func showLatestLabels(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := bootstrap(ctx, bootstrapOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	entry, err := a.service.LoadLatest(ctx)
	if err != nil {
		return err
	}
	printEntry(entry)
	return nil
}

func printRunSummary(r *labeling.Result) {
	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Run ID      : %s\n", r.RunID)
	fmt.Printf("  Fingerprint : %s\n", r.Fingerprint)
	fmt.Printf("  Bars/min    : %.4f\n", r.BarsPerMinute)
	fmt.Printf("  From cache  : %v\n", r.FromCache)
	if r.Skipped > 0 {
		fmt.Printf("  Skipped     : %d\n", r.Skipped)
		for _, e := range r.Errors {
			fmt.Printf("    - %s\n", e.Error())
		}
	}
	if r.Best != nil {
		avg, _ := r.Best.AverageWinRate()
		fmt.Printf("  Best        : %s (avg win rate %.1f%%)\n", r.Best.Name, avg*100)
	}
	fmt.Println()
	fmt.Printf("✅ Labeling completed in %.2fs\n", r.Elapsed.Seconds())
}

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dans91364-create/NECROZMAv2/internal/scheduler"
	"github.com/dans91364-create/NECROZMAv2/internal/scheduler/jobs"
	"github.com/dans91364-create/NECROZMAv2/internal/series"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `캐시 유지보수 스케줄러를 시작하거나 작업을 즉시 실행합니다.

Subcommands:
  start   - 스케줄러 시작
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/necrozma scheduler start
  go run ./cmd/necrozma scheduler start --symbols XAUUSD,EURUSD
  go run ./cmd/necrozma scheduler run label_cache_prune`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `등록되는 작업:
- label_cache_prune: 매일 03:30 (보존 기간 초과 캐시 삭제)
- label_refresh: 6시간마다 (--symbols 지정 시, DB 필요)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedulerJob,
	}
)

var (
	schedSymbols         []string
	schedLookback        time.Duration
	schedPruneSchedule   string
	schedRefreshSchedule string
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerCmd.PersistentFlags().StringSliceVar(&schedSymbols, "symbols", nil, "symbols relabeled by label_refresh")
	schedulerCmd.PersistentFlags().DurationVar(&schedLookback, "lookback", 30*24*time.Hour, "label_refresh window")
	schedulerCmd.PersistentFlags().StringVar(&schedPruneSchedule, "prune-schedule", "", "cron spec of label_cache_prune")
	schedulerCmd.PersistentFlags().StringVar(&schedRefreshSchedule, "refresh-schedule", "", "cron spec of label_refresh")
}

// initScheduler registers the maintenance jobs
func initScheduler(ctx context.Context) (*scheduler.Scheduler, *app, error) {
	a, err := bootstrap(ctx, bootstrapOptions{requireDB: len(schedSymbols) > 0})
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(a.log)

	prune := jobs.NewCachePruneJob(a.store, a.cfg.Labeling.CacheRetention, schedPruneSchedule, a.log.Component("jobs.prune"))
	if err := sched.AddJob(prune); err != nil {
		a.Close()
		return nil, nil, err
	}

	if len(schedSymbols) > 0 {
		refresh := jobs.NewLabelRefreshJob(
			series.NewRepository(a.db.Pool),
			a.service,
			schedSymbols,
			schedLookback,
			a.options(),
			schedRefreshSchedule,
			a.log.Component("jobs.refresh"),
		)
		if err := sched.AddJob(refresh); err != nil {
			a.Close()
			return nil, nil, err
		}
	}

	return sched, a, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== NECROZMA Scheduler ===")

	sched, a, err := initScheduler(context.Background())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for name, st := range sched.GetJobStats() {
		fmt.Printf("  - %s (%s)\n", name, st.Schedule)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}

func runSchedulerJob(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, a, err := initScheduler(ctx)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	result, err := sched.RunJob(ctx, args[0])
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("❌ %s failed: %s", result.JobName, result.Error)
	}

	fmt.Printf("✅ %s completed in %.2fs (attempts: %d)\n", result.JobName, result.Duration.Seconds(), result.Attempts)
	return nil
}

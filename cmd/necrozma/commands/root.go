package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	sweepFile string
	verbose   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "necrozma",
	Short: "NECROZMA - 트리플 배리어 라벨링 엔진",
	Long: `NECROZMA Labeling CLI

OHLC 분봉 데이터의 모든 바에 대해 (target × stop × horizon) 그리드로
롱/숏 first-touch 결과(target/stop/timeout), MFE/MAE, R-multiple을 계산합니다.
결과는 데이터+그리드 fingerprint로 캐시됩니다.

Usage:
  go run ./cmd/necrozma [command]

Examples:
  go run ./cmd/necrozma label run --csv data/XAUUSD_M1.csv
  go run ./cmd/necrozma label run --symbol XAUUSD --from 2024-01-01 --to 2024-03-31
  go run ./cmd/necrozma label latest
  go run ./cmd/necrozma cache prune --older-than 720h
  go run ./cmd/necrozma api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sweepFile, "sweep", "", "sweep YAML file (labeling: section overrides LABEL_* env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

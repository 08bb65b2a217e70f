package commands

import (
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
	"github.com/dans91364-create/NECROZMAv2/internal/labeling"
)

// ═══════════════════════════════════════════════════════════
// 공통 출력 포맷
// ═══════════════════════════════════════════════════════════

const (
	lineHeavy = "═══════════════════════════════════════════════════════════"
	lineLight = "───────────────────────────────────────────────────────────"
)

// printHeader prints a title and aligned key/value lines
func printHeader(title string, fields [][2]string) {
	fmt.Println()
	fmt.Println(lineHeavy)
	fmt.Printf("  %s\n", title)
	fmt.Println(lineLight)
	for _, f := range fields {
		fmt.Printf("  %-11s : %s\n", f[0], f[1])
	}
}

// printStatsTable prints the top configurations by average win rate
func printStatsTable(stats []contracts.ConfigStats, top int) {
	if len(stats) == 0 {
		return
	}

	ranked := make([]contracts.ConfigStats, len(stats))
	copy(ranked, stats)
	sort.SliceStable(ranked, func(i, j int) bool {
		ai, _ := ranked[i].AverageWinRate()
		aj, _ := ranked[j].AverageWinRate()
		return ai > aj
	})
	if top > 0 && top < len(ranked) {
		ranked = ranked[:top]
	}

	fmt.Println()
	fmt.Printf("  %-16s %8s %8s %8s %8s %8s\n", "CONFIG", "H_BARS", "LONG_WR", "SHORT_WR", "AVG_WR", "TIMEOUT")
	fmt.Println(lineLight)
	for _, s := range ranked {
		avg, ok := s.AverageWinRate()
		avgStr := "-"
		if ok {
			avgStr = fmt.Sprintf("%.1f%%", avg*100)
		}
		timeouts := s.LongTimeouts + s.ShortTimeouts
		fmt.Printf("  %-16s %8d %7.1f%% %7.1f%% %8s %8d\n",
			s.Name, s.HorizonBars, s.LongWinRate*100, s.ShortWinRate*100, avgStr, timeouts)
	}
}

// printEntry prints a cached sweep
func printEntry(entry *contracts.CacheEntry) {
	printHeader("Cached Labels", [][2]string{
		{"Fingerprint", entry.Fingerprint},
		{"Created", entry.CreatedAt.Format(time.RFC3339)},
		{"Symbol", entry.Symbol},
		{"Rows", fmt.Sprintf("%d", entry.Rows)},
		{"Configs", fmt.Sprintf("%d", entry.Labels.Len())},
	})

	stats := labeling.StatsOf(entry.Labels)
	if best := labeling.BestConfig(stats); best != nil {
		fmt.Printf("  %-11s : %s\n", "Best", best.Name)
	}
	printStatsTable(stats, 10)
}

// printRows prints the first n rows of a frame
func printRows(frame *contracts.LabelFrame, n int) {
	printHeader(frame.Name, [][2]string{
		{"Horizon", fmt.Sprintf("%d min (%d bars)", frame.HorizonMinutes, frame.HorizonBars)},
		{"Rows", fmt.Sprintf("%d", frame.Len())},
	})

	fmt.Printf("  %6s %-8s %7s %7s %6s %5s | %-8s %7s %7s %6s %5s\n",
		"IDX", "UP", "MFE", "MAE", "R", "BARS", "DOWN", "MFE", "MAE", "R", "BARS")
	fmt.Println(lineLight)
	for _, r := range frame.Rows(0, n) {
		fmt.Printf("  %6d %-8s %7.1f %7.1f %6.2f %5d | %-8s %7.1f %7.1f %6.2f %5d\n",
			r.Index,
			r.UpOutcome, r.UpMFE, r.UpMAE, r.UpRMultiple, r.UpTimeToResult,
			r.DownOutcome, r.DownMFE, r.DownMAE, r.DownRMultiple, r.DownTimeToResult)
	}
}

// printForward prints forward return summaries and the last bar's exit levels
func printForward(windows []contracts.ForwardWindow, targets []*contracts.TargetLevels) {
	if len(windows) == 0 {
		return
	}

	fmt.Println()
	fmt.Println(lineLight)
	fmt.Printf("  %-8s %8s %10s %8s %10s\n", "PERIOD", "ROWS", "MEAN RET", "UP", "RANGE")
	for _, w := range windows {
		sum := w.Summary()
		fmt.Printf("  %-8d %8d %9.4f%% %7.1f%% %10.3f\n",
			sum.Period, sum.Rows, sum.MeanReturn*100, sum.UpRatio*100, sum.MeanRange)
	}

	if len(targets) == 0 {
		return
	}
	fmt.Println(lineLight)
	fmt.Printf("  %-10s %6s %10s %10s %10s %10s\n", "PAIR", "RR", "LONG TP", "LONG SL", "SHORT TP", "SHORT SL")
	for _, l := range targets {
		last := len(l.LongTarget) - 1
		fmt.Printf("  %-10s %6.2f %10.2f %10.2f %10.2f %10.2f\n",
			fmt.Sprintf("T%d_S%d", l.TargetPips, l.StopPips), l.RiskReward,
			l.LongTarget[last], l.LongStop[last], l.ShortTarget[last], l.ShortStop[last])
	}
}

func firstBound(s *contracts.PriceSeries) string {
	first, _ := s.Bounds()
	return first
}

func lastBound(s *contracts.PriceSeries) string {
	_, last := s.Bounds()
	return last
}

// maskPassword hides the password of a postgres URL for display
func maskPassword(raw string) string {
	if raw == "" {
		return "(not set)"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "(invalid)"
	}
	return u.Redacted()
}

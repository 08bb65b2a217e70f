package labeling

import (
	"errors"
	"fmt"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
)

// Scan errors
var (
	ErrOutOfRange  = errors.New("scan start or horizon out of range")
	ErrInvalidRisk = errors.New("stop must sit on the losing side of entry")
)

// Scan walks forward from bar start and reports whether the target or the
// stop is touched first within horizonBars.
//
// Bars start+1 .. min(start+horizonBars, len)-1 are inspected. On each bar the
// excursions are updated first (the triggering bar's full range counts), then
// the target is checked before the stop. When a single bar spans both levels
// the result is Target: intrabar order is unknown without tick data and the
// optimistic resolution is a known approximation.
//
// On timeout BarsToResult is horizonBars and RMultiple is marked to the
// midpoint of the last inspected bar (the entry bar itself when no forward
// bar exists). MFE/MAE are in pips.
func Scan(
	high, low []float64,
	start, horizonBars int,
	entry, target, stop, pipValue float64,
	dir contracts.Direction,
) (contracts.ScanResult, error) {
	n := len(high)
	if len(low) < n {
		n = len(low)
	}
	if start < 0 || start >= n || horizonBars < 1 {
		return contracts.ScanResult{}, fmt.Errorf("%w: start=%d horizon=%d len=%d", ErrOutOfRange, start, horizonBars, n)
	}

	risk := entry - stop
	if dir == contracts.Short {
		risk = stop - entry
	}
	if !(risk > 0) || !(pipValue > 0) {
		return contracts.ScanResult{}, fmt.Errorf("%w: entry=%v stop=%v pip=%v", ErrInvalidRisk, entry, stop, pipValue)
	}

	end := start + horizonBars
	if end > n {
		end = n
	}

	var mfe, mae float64

	if dir == contracts.Long {
		for i := start + 1; i < end; i++ {
			h, l := high[i], low[i]
			if fav := h - entry; fav > mfe {
				mfe = fav
			}
			if adv := entry - l; adv > mae {
				mae = adv
			}

			if h >= target {
				return hit(contracts.OutcomeTarget, mfe, mae, pipValue, (target-entry)/risk, i-start), nil
			}
			if l <= stop {
				return hit(contracts.OutcomeStop, mfe, mae, pipValue, (stop-entry)/risk, i-start), nil
			}
		}
	} else {
		for i := start + 1; i < end; i++ {
			h, l := high[i], low[i]
			if fav := entry - l; fav > mfe {
				mfe = fav
			}
			if adv := h - entry; adv > mae {
				mae = adv
			}

			if l <= target {
				return hit(contracts.OutcomeTarget, mfe, mae, pipValue, (entry-target)/risk, i-start), nil
			}
			if h >= stop {
				return hit(contracts.OutcomeStop, mfe, mae, pipValue, (entry-stop)/risk, i-start), nil
			}
		}
	}

	// Timeout: mark to market at the last inspected bar
	last := end - 1
	mid := (high[last] + low[last]) / 2.0
	r := (mid - entry) / risk
	if dir == contracts.Short {
		r = (entry - mid) / risk
	}

	return hit(contracts.OutcomeTimeout, mfe, mae, pipValue, r, horizonBars), nil
}

func hit(outcome contracts.Outcome, mfe, mae, pipValue, r float64, bars int) contracts.ScanResult {
	return contracts.ScanResult{
		Outcome:      outcome,
		MFE:          mfe / pipValue,
		MAE:          mae / pipValue,
		RMultiple:    r,
		BarsToResult: bars,
	}
}

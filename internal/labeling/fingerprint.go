package labeling

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
)

// FingerprintMode selects what identifies a series in the cache key
type FingerprintMode string

const (
	// FingerprintContent hashes the bar values as well as the boundaries
	FingerprintContent FingerprintMode = "content"

	// FingerprintBoundary hashes only first/last timestamp and row count.
	// Two datasets with equal boundaries and length collide.
	FingerprintBoundary FingerprintMode = "boundary"
)

// fingerprintVersion changes whenever the label layout or scan semantics change
const fingerprintVersion = 1

// fingerprintPayload is serialized as canonical JSON (struct, not map)
type fingerprintPayload struct {
	Version int                 `json:"version"`
	First   string              `json:"first"`
	Last    string              `json:"last"`
	Rows    int                 `json:"rows"`
	Grid    contracts.SweepGrid `json:"grid"`
	Content string              `json:"content,omitempty"`
}

// Fingerprint computes the cache key of a (series, grid) pair.
// It is a pure function: identical inputs always yield the same key.
func Fingerprint(series *contracts.PriceSeries, grid contracts.SweepGrid, mode FingerprintMode) (string, error) {
	if err := series.Check(); err != nil {
		return "", err
	}

	first, last := series.Bounds()
	payload := fingerprintPayload{
		Version: fingerprintVersion,
		First:   first,
		Last:    last,
		Rows:    series.Len(),
		Grid:    grid,
	}

	switch mode {
	case FingerprintContent, "":
		payload.Content = strconv.FormatUint(contentDigest(series), 16)
	case FingerprintBoundary:
		// boundary metadata only
	default:
		return "", fmt.Errorf("unknown fingerprint mode %q", mode)
	}

	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// contentDigest is an xxhash64 over the IEEE-754 bits of high/low/close and
// the timestamps (which drive the bars-per-minute detection).
func contentDigest(series *contracts.PriceSeries) uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 8*512)

	flush := func() {
		_, _ = d.Write(buf)
		buf = buf[:0]
	}
	put := func(v uint64) {
		buf = binary.LittleEndian.AppendUint64(buf, v)
		if len(buf) == cap(buf) {
			flush()
		}
	}

	for _, col := range [][]float64{series.High, series.Low, series.Close} {
		for _, v := range col {
			put(math.Float64bits(v))
		}
	}
	for _, t := range series.Time {
		put(uint64(t.UnixNano()))
	}
	flush()

	return d.Sum64()
}

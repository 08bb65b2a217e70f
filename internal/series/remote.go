package series

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
)

// MaxRemoteBytes caps the size of a downloaded bar file
const MaxRemoteBytes = 256 << 20

// Fetcher downloads a resource body (implemented by httputil.Client)
type Fetcher interface {
	Fetch(ctx context.Context, url string, maxBytes int64) ([]byte, error)
}

// IsRemote reports whether src is an http(s) URL
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// FetchCSV downloads and parses a bar file. The symbol defaults to the last
// path segment without extension.
func FetchCSV(ctx context.Context, fetcher Fetcher, rawURL string) (*contracts.PriceSeries, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	body, err := fetcher.Fetch(ctx, rawURL, MaxRemoteBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch csv: %w", err)
	}

	base := path.Base(u.Path)
	symbol := strings.TrimSuffix(base, path.Ext(base))
	if symbol == "." || symbol == "/" {
		symbol = ""
	}

	s, err := ReadCSV(bytes.NewReader(body), symbol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u.Redacted(), err)
	}
	return s, nil
}

package labelstore

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
)

// formatVersion is written ahead of every payload
const formatVersion uint32 = 2

type envelope struct {
	Version uint32
	Entry   *contracts.CacheEntry
}

func encode(w io.Writer, entry *contracts.CacheEntry) error {
	if err := gob.NewEncoder(w).Encode(envelope{Version: formatVersion, Entry: entry}); err != nil {
		return fmt.Errorf("encode label set: %w", err)
	}
	return nil
}

func decode(r io.Reader) (*contracts.CacheEntry, error) {
	var env envelope
	if err := gob.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode label set: %w", err)
	}
	if env.Version != formatVersion {
		return nil, fmt.Errorf("unsupported label cache format v%d", env.Version)
	}
	if env.Entry == nil || env.Entry.Labels == nil {
		return nil, fmt.Errorf("decode label set: empty entry")
	}
	return env.Entry, nil
}

func encodeBytes(entry *contracts.CacheEntry) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, entry); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeBytes(data []byte) (*contracts.CacheEntry, error) {
	return decode(bytes.NewReader(data))
}

package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Sink is the strictly-weaker-guarantee fallback behind the primary store.
// When the primary append fails, the event goes here; the sink trades the
// queryability and schema constraints of the store for the best durability
// locally available.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// FileSink appends events as JSON lines to a local file. It survives a
// primary store outage but not loss of the host; it exists so an audit event
// always leaves at least one durable trace.
//
// The event structs marshal with fixed field order, so lines are
// deterministic and the commitment hash they carry stays verifiable when the
// file is replayed into the store.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink creates the sink, ensuring the parent directory exists.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create fallback directory: %w", err)
	}
	return &FileSink{path: path}, nil
}

// Append writes one JSONL entry and syncs it to disk before returning. The
// open/sync/close cycle per event is deliberate: this path only runs while
// the primary store is down, and durability beats throughput there.
func (s *FileSink) Append(_ context.Context, event Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal fallback event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return fmt.Errorf("open fallback file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write fallback event: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync fallback file: %w", err)
	}
	return nil
}

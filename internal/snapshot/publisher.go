package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Publisher writes snapshot files so that readers only ever see the previous
// complete file or the new complete file.
type Publisher struct {
	logger *zap.Logger
}

// NewPublisher creates a new Publisher
func NewPublisher(logger *zap.Logger) *Publisher {
	return &Publisher{logger: logger}
}

// Encode renders v the way snapshots are stored: two-space indent, no HTML
// escaping, trailing newline.
func Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Publish serializes v and replaces the file at path with it. The content is
// written to a temp file in the same directory, synced, then renamed over
// path. On any failure the existing file is untouched and the error wraps
// ErrPublishFailure.
func (p *Publisher) Publish(path string, v interface{}) (int, error) {
	data, err := Encode(v)
	if err != nil {
		return 0, fmt.Errorf("%w: encode %s: %v", ErrPublishFailure, path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("%w: create %s: %v", ErrPublishFailure, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("%w: create temp file in %s: %v", ErrPublishFailure, dir, err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("%w: write %s: %v", ErrPublishFailure, tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("%w: sync %s: %v", ErrPublishFailure, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("%w: close %s: %v", ErrPublishFailure, tmpPath, err)
	}
	// CreateTemp uses 0600; snapshots are read by other processes too.
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return 0, fmt.Errorf("%w: chmod %s: %v", ErrPublishFailure, tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return 0, fmt.Errorf("%w: rename to %s: %v", ErrPublishFailure, path, err)
	}
	committed = true

	p.logger.Debug("Snapshot published",
		zap.String("path", path),
		zap.Int("size", len(data)))

	return len(data), nil
}

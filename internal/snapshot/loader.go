package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Load reads the snapshot at path from disk on every call. It returns
// ErrSnapshotNotFound when the file does not exist and ErrSnapshotCorrupt
// when it does not hold valid JSON.
func Load(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s: %w", path, ErrSnapshotCorrupt)
	}
	return json.RawMessage(data), nil
}

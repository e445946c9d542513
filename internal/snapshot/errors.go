package snapshot

import (
	"errors"

	"github.com/garyjia/sheet-snapshot/internal/spreadsheet"
)

var (
	// ErrSourceUnavailable aliases the reader error so callers of this
	// package need not import spreadsheet to classify build failures.
	ErrSourceUnavailable = spreadsheet.ErrSourceUnavailable

	// ErrPublishFailure means the snapshot could not be serialized or written.
	// The previous snapshot is left in place.
	ErrPublishFailure = errors.New("snapshot publish failed")

	// ErrSnapshotNotFound means no snapshot has been published yet.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrSnapshotCorrupt means the snapshot file exists but is not valid JSON.
	ErrSnapshotCorrupt = errors.New("snapshot is not valid JSON")
)

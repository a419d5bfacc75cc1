package snapshot

import (
	"errors"
	"fmt"
)

// ErrNoSnapshot means nothing has been persisted yet.
var ErrNoSnapshot = errors.New("no prior snapshot")

type SnapshotReadError struct {
	Path string
	Err  error
}

func (e *SnapshotReadError) Error() string {
	return fmt.Sprintf("failed to read snapshot %s: %v", e.Path, e.Err)
}

func (e *SnapshotReadError) Unwrap() error {
	return e.Err
}

type SnapshotWriteError struct {
	Path string
	Err  error
}

func (e *SnapshotWriteError) Error() string {
	return fmt.Sprintf("failed to write snapshot %s: %v", e.Path, e.Err)
}

func (e *SnapshotWriteError) Unwrap() error {
	return e.Err
}

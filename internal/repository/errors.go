package repository

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrDuplicateID = errors.New("record id already exists")
	ErrMissingID   = errors.New("record has no id")
	ErrPersist     = errors.New("could not persist snapshot")
)

// SnapshotError reports a persisted snapshot that does not match the
// snapshot schema.
type SnapshotError struct {
	Source   string
	Problems []string
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("invalid snapshot %s: %s", e.Source, strings.Join(e.Problems, "; "))
}

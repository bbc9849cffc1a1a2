package selection

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEntry is returned when a key is not part of the loaded catalog.
	ErrUnknownEntry = errors.New("unknown catalog entry")

	// ErrMissingISO is returned by Commit when no image path has been set.
	ErrMissingISO = errors.New("no Windows ISO selected")

	// ErrPersistence matches every *PersistenceError via errors.Is.
	ErrPersistence = errors.New("selection record could not be saved")
)

// PersistenceError reports a failed write of the selection record. Any
// record previously on disk is left as it was.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", ErrPersistence, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrPersistence) match.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

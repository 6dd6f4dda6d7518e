package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/internpm/internal/domain/project"
)

var (
	// ErrCorrupt indicates the stored collection does not match the expected shape.
	ErrCorrupt = errors.New("corrupt project store")
	// ErrDuplicateID indicates a collection with two projects sharing an id.
	ErrDuplicateID = errors.New("duplicate project id")
)

// CorruptError reports an unreadable collection. When Quarantined is empty the
// whole document was unreadable; otherwise only the listed records were.
type CorruptError struct {
	Quarantined []project.QuarantinedRecord
	Cause       error
}

func (e *CorruptError) Error() string {
	if len(e.Quarantined) == 0 {
		return fmt.Sprintf("%s: %v", ErrCorrupt, e.Cause)
	}
	reasons := make([]string, 0, len(e.Quarantined))
	for _, q := range e.Quarantined {
		reasons = append(reasons, fmt.Sprintf("record %d: %s", q.Index, q.Reason))
	}
	return fmt.Sprintf("%s: %d unreadable record(s): %s", ErrCorrupt, len(e.Quarantined), strings.Join(reasons, "; "))
}

func (e *CorruptError) Is(target error) bool {
	return target == ErrCorrupt
}

func (e *CorruptError) Unwrap() error {
	return e.Cause
}

// Partial reports whether some records were readable.
func (e *CorruptError) Partial() bool {
	return len(e.Quarantined) > 0
}

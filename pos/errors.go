package pos

import (
	"errors"
	"fmt"
)

var (
	ErrModelNotTrained = errors.New("model not trained")
	ErrNoViablePath    = errors.New("no tag path can explain the sentence")
	ErrReservedTag     = errors.New("reserved tag found in training data")
	ErrMalformedTag    = errors.New("tag is empty or contains whitespace")
	ErrInvalidCount    = errors.New("count must be positive and finite")
)

// AlignmentError reports a training sequence whose words and tags differ in length.
type AlignmentError struct {
	Index int
	Words int
	Tags  int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("sequence %d: %d words but %d tags", e.Index, e.Words, e.Tags)
}

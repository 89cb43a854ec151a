package generator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAllEnginesExhausted is matched by the error returned when every model
// in the priority list failed with a quota, availability or transient error.
var ErrAllEnginesExhausted = errors.New("all engines exhausted")

// Attempt records how one model in the priority list failed.
type Attempt struct {
	Model   string  `json:"model"`
	Outcome Outcome `json:"-"`
	Err     error   `json:"-"`
}

// ExhaustedError lists every failed attempt in the order they were made.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s (%s)", a.Model, a.Outcome))
	}
	return fmt.Sprintf("%s: tried %s", ErrAllEnginesExhausted, strings.Join(parts, ", "))
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrAllEnginesExhausted
}

// StreamError wraps a failure that happened after text was already
// delivered to the caller. It is never retried.
type StreamError struct {
	Model     string
	Delivered int
	Err       error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream from %s interrupted after %d chunks: %v", e.Model, e.Delivered, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// Package errors defines the conversion-core error taxonomy.
//
// The core never panics or uses exceptional control flow for ordinary
// rejection paths (empty key, too many segments, search failure): those are
// reported through ConversionError and returned as a plain error, per the
// error-handling design of the converter.
package errors

import (
	"fmt"
)

// Kind classifies why a conversion request was rejected.
type Kind string

const (
	// InvalidInput covers malformed requests: empty/overlong conversion
	// keys, too many segments, or a multi-segment request sent to
	// reverse-conversion or prediction mode.
	InvalidInput Kind = "InvalidInput"
	// LatticeBuildFailure means the dictionary produced no usable nodes
	// for some required span (typically the history prefix).
	LatticeBuildFailure Kind = "LatticeBuildFailure"
	// SearchFailure means the Viterbi back-walk from EOS never reached BOS.
	SearchFailure Kind = "SearchFailure"
	// ContainerDuplicateKey is raised at FlatMap/FlatMultiMap/FlatSet
	// construction time when the backing array holds equivalent keys
	// where the container requires uniqueness. It is a programming error,
	// not a request-time failure: it only ever surfaces from constructors
	// called during process or data-module initialization.
	ContainerDuplicateKey Kind = "ContainerDuplicateKey"
)

// ConversionError is the error type returned by the converter's public
// entry points. Construction sites attach enough context (the conversion
// key, segment index) to make a log line actionable without stack unwinding.
type ConversionError struct {
	Kind    Kind
	Message string
	Key     string // conversion key in play, when applicable
	Segment int    // offending segment index, -1 if not applicable
}

func (e *ConversionError) Error() string {
	if e.Segment >= 0 {
		return fmt.Sprintf("%s: %s (key=%q segment=%d)", e.Kind, e.Message, e.Key, e.Segment)
	}
	if e.Key != "" {
		return fmt.Sprintf("%s: %s (key=%q)", e.Kind, e.Message, e.Key)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewInvalidInput reports a request-shape violation.
func NewInvalidInput(message, key string) *ConversionError {
	return &ConversionError{Kind: InvalidInput, Message: message, Key: key, Segment: -1}
}

// NewLatticeBuildFailure reports that lookups produced no reachable span.
func NewLatticeBuildFailure(message, key string, segment int) *ConversionError {
	return &ConversionError{Kind: LatticeBuildFailure, Message: message, Key: key, Segment: segment}
}

// NewSearchFailure reports that Viterbi's back-walk did not reach BOS.
func NewSearchFailure(message, key string) *ConversionError {
	return &ConversionError{Kind: SearchFailure, Message: message, Key: key, Segment: -1}
}

// NewContainerDuplicateKey reports a sorted-container construction failure.
func NewContainerDuplicateKey(message string) *ConversionError {
	return &ConversionError{Kind: ContainerDuplicateKey, Message: message, Segment: -1}
}

// Is lets callers write errors.Is(err, &errors.ConversionError{Kind: errors.SearchFailure})
// style checks without comparing messages.
func (e *ConversionError) Is(target error) bool {
	t, ok := target.(*ConversionError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Package request defines the conversion request shape consumed by every
// other package in kanaconv: the immutable converter orchestrator, the
// n-best generator, and the candidate filter all branch on RequestType and the
// size/behavior knobs carried here.
package request

import "github.com/google/uuid"

// Type is the kind of conversion being requested.
type Type int

const (
	Conversion Type = iota
	Prediction
	Suggestion
	Reverse
)

func (t Type) String() string {
	switch t {
	case Conversion:
		return "Conversion"
	case Prediction:
		return "Prediction"
	case Suggestion:
		return "Suggestion"
	case Reverse:
		return "Reverse"
	default:
		return "Unknown"
	}
}

// BoundaryMode selects how the n-best generator's boundary checker treats
// grammatical-boundary mismatches at the edges vs. the interior of a
// candidate region.
type BoundaryMode int

const (
	// Strict requires every on-edge position to be a grammar boundary and
	// every internal position not to be one.
	Strict BoundaryMode = iota
	// OnlyMid checks only internal edges.
	OnlyMid
	// OnlyEdge checks only the candidate's own edges, used for realtime
	// single-segment conversion; an on-edge position that is not a
	// grammatical boundary is "weakly connected" and penalized rather than
	// rejected outright.
	OnlyEdge
)

// Request carries everything the orchestrator, search, and filter need to
// decide how to build and trim a lattice for one call.
type Request struct {
	Type Type

	// MaxConversionCandidatesSize bounds per-segment candidate count handed
	// back to the caller; it is independent of the filter's internal
	// kMaxCandidatesSize enumeration cap.
	MaxConversionCandidatesSize int

	// MixedConversion marks a mobile-style request: prediction augments
	// each inner segment, not just the whole path.
	MixedConversion bool

	// CompositionKey is carried only for logging/tracing; the actual
	// conversion key lives on the Segments object.
	CompositionKey string

	// CorrelationID stamps a request for cross-log tracing across the
	// lattice-build / search / filter stages of one ConvertForRequest call.
	CorrelationID uuid.UUID
}

// Option configures a Request at construction time, in place of a large
// constructor argument list.
type Option func(*Request)

// WithMaxConversionCandidatesSize overrides the default per-segment
// candidate cap.
func WithMaxConversionCandidatesSize(n int) Option {
	return func(r *Request) { r.MaxConversionCandidatesSize = n }
}

// WithMixedConversion toggles mobile-style per-segment prediction
// augmentation.
func WithMixedConversion(on bool) Option {
	return func(r *Request) { r.MixedConversion = on }
}

// WithCompositionKey attaches a logging/tracing-only composition key.
func WithCompositionKey(key string) Option {
	return func(r *Request) { r.CompositionKey = key }
}

// New returns a Request with a freshly generated CorrelationID and the
// given type, defaulted to a 200-candidate cap and then adjusted by opts
// in order.
func New(t Type, opts ...Option) *Request {
	r := &Request{Type: t, CorrelationID: uuid.New(), MaxConversionCandidatesSize: 200}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

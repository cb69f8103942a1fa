// Package candidate defines the external unit delivered to callers:
// Segment, Candidate, and the Segments sequence that bundles history and
// conversion segments around a cached lattice key.
package candidate

// SegmentType classifies a Segment's role and mutability.
type SegmentType int

const (
	Free SegmentType = iota
	FixedBoundary
	FixedValue
	HistorySegment
	Submitted
)

// Attribute is a bit in a Candidate's attribute set, propagated up from the
// path nodes that produced it.
type Attribute uint32

const (
	AttrSpellingCorrection Attribute = 1 << iota
	AttrUserDictionary
	AttrSuffixDictionary
	AttrNoVariantsExpansion
	AttrContextSensitive    // any node on the path was Constrained
	AttrPartiallyKeyConsumed // mobile first-inner-segment partial candidate
	AttrRealtimeConversion
)

func (a Attribute) Has(flag Attribute) bool { return a&flag != 0 }

// InnerSegmentBoundary marks one content-word/functional-suffix grouping
// inside a single-segment candidate, recorded as byte lengths so the
// caller can slice Key/Value/ContentKey/ContentValue without re-deriving
// segmentation.
type InnerSegmentBoundary struct {
	KeyLen         int
	ValueLen       int
	ContentKeyLen  int
	ContentValueLen int
}

// Candidate is one ranked conversion result.
type Candidate struct {
	Key           string
	Value         string
	ContentKey    string // prefix of Key: stem without trailing functional suffix
	ContentValue  string // prefix of Value

	Cost          int32
	WCost         int32
	StructureCost int32

	LID uint16
	RID uint16

	Attributes Attribute

	InnerSegmentBoundary []InnerSegmentBoundary

	// ConsumedKeySize is Util::CharsLen(candidate.key) for mobile partial
	// (first-inner-segment) candidates; zero otherwise.
	ConsumedKeySize int
}

// Segment is one bunsetsu unit delivered to the UI.
type Segment struct {
	Key         string
	Type        SegmentType
	Candidates  []Candidate
}

// AddCandidate appends c to the segment's candidate list.
func (s *Segment) AddCandidate(c Candidate) { s.Candidates = append(s.Candidates, c) }

// Segments is the history + conversion segment sequence the converter
// populates in place.
type Segments struct {
	History    []Segment
	Conversion []Segment
}

// ConversionKey concatenates every conversion segment's key, i.e. the full
// reading the caller is asking to convert.
func (s *Segments) ConversionKey() string {
	var out string
	for _, seg := range s.Conversion {
		out += seg.Key
	}
	return out
}

// HistoryKey concatenates every history segment's key.
func (s *Segments) HistoryKey() string {
	var out string
	for _, seg := range s.History {
		out += seg.Key
	}
	return out
}

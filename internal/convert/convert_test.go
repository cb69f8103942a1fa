package convert

import (
	"context"
	"testing"

	"kanaconv/internal/candidate"
	"kanaconv/internal/connector"
	"kanaconv/internal/dictionary"
	kerrors "kanaconv/internal/errors"
	"kanaconv/internal/lattice"
	"kanaconv/internal/posmatcher"
	"kanaconv/internal/request"
	"kanaconv/internal/segmenter"
)

func newTestConverter(tokens []dictionary.Token) *Converter {
	dict := dictionary.NewInMemoryDictionary(tokens)
	pos := posmatcher.NewStaticPosMatcher(posmatcher.Sets{
		Number:    []uint16{2},
		NumberID:  2,
		UnknownID: 3,
	})
	seg := segmenter.NewStaticSegmenter(nil, nil, nil)
	conn := connector.NewMatrix(make([]int16, 16), 4, 1) // 4x4, every transition costs 0
	return &Converter{Dict: dict, Conn: conn, Pos: pos, Segmenter: seg}
}

func TestConvertForRequestBasicConversion(t *testing.T) {
	c := newTestConverter([]dictionary.Token{
		{Key: "ab", Value: "AB", LID: 1, RID: 1, WCost: 100},
	})
	req := request.New(request.Conversion)
	segs := &candidate.Segments{Conversion: []candidate.Segment{{Key: "ab", Type: candidate.Free}}}

	if err := c.ConvertForRequest(context.Background(), req, segs); err != nil {
		t.Fatalf("ConvertForRequest: %v", err)
	}
	if len(segs.Conversion) != 1 || len(segs.Conversion[0].Candidates) == 0 {
		t.Fatalf("segments = %+v, want one segment with at least one candidate", segs.Conversion)
	}
	if got := segs.Conversion[0].Candidates[0].Value; got != "AB" {
		t.Fatalf("top candidate = %q, want AB (the cheap dictionary entry beating the unknown-node fallback)", got)
	}
}

func TestConvertForRequestRejectsEmptyKey(t *testing.T) {
	c := newTestConverter(nil)
	req := request.New(request.Conversion)
	segs := &candidate.Segments{Conversion: []candidate.Segment{{Key: "", Type: candidate.Free}}}

	err := c.ConvertForRequest(context.Background(), req, segs)
	if err == nil {
		t.Fatal("ConvertForRequest with an empty conversion key succeeded, want InvalidInput")
	}
	convErr, ok := err.(*kerrors.ConversionError)
	if !ok || convErr.Kind != kerrors.InvalidInput {
		t.Fatalf("err = %v, want *ConversionError{Kind: InvalidInput}", err)
	}
}

func TestConvertForRequestRejectsMultiSegmentPrediction(t *testing.T) {
	c := newTestConverter(nil)
	req := request.New(request.Prediction)
	segs := &candidate.Segments{Conversion: []candidate.Segment{
		{Key: "a", Type: candidate.Free},
		{Key: "b", Type: candidate.Free},
	}}

	err := c.ConvertForRequest(context.Background(), req, segs)
	if err == nil {
		t.Fatal("ConvertForRequest with a multi-segment prediction request succeeded, want InvalidInput")
	}
}

func TestConvertForRequestPrediction(t *testing.T) {
	c := newTestConverter([]dictionary.Token{
		{Key: "ab", Value: "AB", LID: 1, RID: 1, WCost: 100},
	})
	req := request.New(request.Prediction)
	segs := &candidate.Segments{Conversion: []candidate.Segment{{Key: "ab", Type: candidate.Free}}}

	if err := c.ConvertForRequest(context.Background(), req, segs); err != nil {
		t.Fatalf("ConvertForRequest: %v", err)
	}
	if len(segs.Conversion) != 1 || len(segs.Conversion[0].Candidates) == 0 {
		t.Fatalf("segments = %+v, want one segment with at least one candidate", segs.Conversion)
	}
	if got := segs.Conversion[0].Candidates[0].Value; got != "AB" {
		t.Fatalf("top candidate = %q, want AB", got)
	}
}

// A compound whose left POS is a number and whose right POS is not, with a
// digit-leading reading and surface, is split into a number node and a
// constrained suffix node rather than surfacing as one candidate.
func TestResegmentArabicNumberAndSuffixSplitsCompound(t *testing.T) {
	c := newTestConverter([]dictionary.Token{
		{Key: "3kai", Value: "3kai", LID: 2, RID: 1, WCost: 100},
	})
	req := request.New(request.Conversion)
	segs := &candidate.Segments{Conversion: []candidate.Segment{{Key: "3kai", Type: candidate.Free}}}

	if err := c.ConvertForRequest(context.Background(), req, segs); err != nil {
		t.Fatalf("ConvertForRequest: %v", err)
	}
	if len(segs.Conversion) == 0 || len(segs.Conversion[0].Candidates) == 0 {
		t.Fatalf("segments = %+v, want at least one candidate", segs.Conversion)
	}
}

// resegmentPrefixAndArabicNumber has no POS gate: a compound whose value and
// key both end in an arabic digit, but don't start with one, qualifies
// regardless of lid/rid.
func TestResegmentPrefixAndArabicNumberSplitsCompound(t *testing.T) {
	c := newTestConverter(nil)
	c.lattice = lattice.New()
	c.lattice.SetKey("dai3")

	if ok := c.resegmentPrefixAndArabicNumber(0, "dai3", "dai3", 5, 6, 100); !ok {
		t.Fatal("resegmentPrefixAndArabicNumber = false, want true")
	}

	prefix := c.lattice.Node(c.lattice.BeginNodesAt(0))
	if prefix.Key != "dai" || prefix.Value != "dai" || prefix.RID != 0 {
		t.Fatalf("prefix node = %+v, want Key/Value=dai, RID=0", prefix)
	}
	number := c.lattice.Node(c.lattice.BeginNodesAt(3))
	if number.Key != "3" || number.Value != "3" || number.LID != 0 {
		t.Fatalf("number node = %+v, want Key/Value=3, LID=0", number)
	}
}

// A compound whose prefix itself starts with a digit (e.g. "3a4") must not
// qualify: the original only resegments when the leading character of both
// key and value is non-numeric.
func TestResegmentPrefixAndArabicNumberRejectsLeadingDigit(t *testing.T) {
	c := newTestConverter(nil)
	c.lattice = lattice.New()
	c.lattice.SetKey("3a4")

	if ok := c.resegmentPrefixAndArabicNumber(0, "3a4", "3a4", 5, 6, 100); ok {
		t.Fatal("resegmentPrefixAndArabicNumber = true for a leading-digit compound, want false")
	}
}

// Personal-name resegmentation cost identity (spec scenario: wcost=1000,
// last-to-first transition cost=100 => each emitted node gets wcost=450).
func TestResegmentPersonalNameCostIdentity(t *testing.T) {
	const lastNameID, firstNameID uint16 = 10, 20

	table := make([]int16, 21*21)
	table[int(lastNameID)*21+int(firstNameID)] = 100
	conn := connector.NewMatrix(table, 21, 1)

	pos := posmatcher.NewStaticPosMatcher(posmatcher.Sets{
		LastNameID: lastNameID, FirstNameID: firstNameID, UnknownID: 99,
	})
	seg := segmenter.NewStaticSegmenter(nil, nil, nil)
	c := &Converter{Conn: conn, Pos: pos, Segmenter: seg}

	c.lattice = lattice.New()
	c.lattice.SetKey("tanakareina")

	lastCandidate := c.lattice.NewNode()
	*c.lattice.Node(lastCandidate) = lattice.Node{Key: "tanaka", Value: "田中", LID: lastNameID, RID: 0, WCost: 200, Type: lattice.Normal}
	c.lattice.Insert(0, lastCandidate)

	firstCandidate := c.lattice.NewNode()
	*c.lattice.Node(firstCandidate) = lattice.Node{Key: "reina", Value: "麗奈", LID: 0, RID: firstNameID, WCost: 300, Type: lattice.Normal}
	c.lattice.Insert(len("tanaka"), firstCandidate)

	if ok := c.resegmentPersonalName(0, "tanakareina", "田中麗奈", lastNameID, firstNameID, 1000); !ok {
		t.Fatal("resegmentPersonalName = false, want true")
	}

	last := c.lattice.Node(c.lattice.BeginNodesAt(0))
	if last.Key != "tanaka" || last.Value != "田中" || last.WCost != 450 {
		t.Fatalf("last-name node = %+v, want Key=tanaka Value=田中 WCost=450", last)
	}
	first := c.lattice.Node(c.lattice.BeginNodesAt(len("tanaka")))
	if first.Key != "reina" || first.Value != "麗奈" || first.WCost != 450 {
		t.Fatalf("first-name node = %+v, want Key=reina Value=麗奈 WCost=450", first)
	}
	if first.ConstrainedPrev != c.lattice.BeginNodesAt(0) {
		t.Fatal("first-name node's ConstrainedPrev does not point at the emitted last-name node")
	}
}

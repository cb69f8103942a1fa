package request

import "testing"

func TestNewDefaults(t *testing.T) {
	r := New(Conversion)
	if r.Type != Conversion {
		t.Fatalf("Type = %v, want Conversion", r.Type)
	}
	if r.MaxConversionCandidatesSize != 200 {
		t.Fatalf("MaxConversionCandidatesSize = %d, want 200", r.MaxConversionCandidatesSize)
	}
	if r.MixedConversion {
		t.Fatal("MixedConversion = true, want false by default")
	}
	if r.CorrelationID.String() == "" {
		t.Fatal("CorrelationID is unset")
	}
}

func TestNewWithOptions(t *testing.T) {
	r := New(Prediction,
		WithMaxConversionCandidatesSize(5),
		WithMixedConversion(true),
		WithCompositionKey("わたし"),
	)
	if r.MaxConversionCandidatesSize != 5 {
		t.Fatalf("MaxConversionCandidatesSize = %d, want 5", r.MaxConversionCandidatesSize)
	}
	if !r.MixedConversion {
		t.Fatal("MixedConversion = false, want true")
	}
	if r.CompositionKey != "わたし" {
		t.Fatalf("CompositionKey = %q, want わたし", r.CompositionKey)
	}
}

func TestNewGrantsDistinctCorrelationIDs(t *testing.T) {
	a := New(Conversion)
	b := New(Conversion)
	if a.CorrelationID == b.CorrelationID {
		t.Fatal("two New() calls produced the same CorrelationID")
	}
}

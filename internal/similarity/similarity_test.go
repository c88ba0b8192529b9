package similarity

import (
	"math"
	"testing"
)

func TestSimpleNoOverlap(t *testing.T) {
	if got := Simple("sofa bed", "hair growth oil"); got != 0 {
		t.Errorf("expected 0 for disjoint tokens, got %v", got)
	}
}

func TestSimpleEmptyInputs(t *testing.T) {
	if got := Simple("", "some text"); got != 0 {
		t.Errorf("empty query: expected 0, got %v", got)
	}
	if got := Simple("some text", ""); got != 0 {
		t.Errorf("empty text: expected 0, got %v", got)
	}
}

func TestSimpleSubsetIsOne(t *testing.T) {
	// Single distinct query token present in the text scores 1.0.
	if got := Simple("hair", "hair growth oil for hair fall"); got != 1.0 {
		t.Errorf("expected 1.0, got %v", got)
	}
	// Repeated query tokens still count once.
	if got := Simple("hair hair", "hair growth oil"); got != 1.0 {
		t.Errorf("repeated token: expected 1.0, got %v", got)
	}
}

func TestSimplePartialOverlap(t *testing.T) {
	got := Simple("hair fall remedy", "reduces hair fall and nourishes scalp")
	want := 2.0 / 3.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSimpleCaseInsensitive(t *testing.T) {
	if got := Simple("HAIR", "Hair growth oil"); got != 1.0 {
		t.Errorf("expected case-insensitive match, got %v", got)
	}
}

func TestEnhancedEmptyInputs(t *testing.T) {
	if got := Enhanced("", "text"); got != 0 {
		t.Errorf("empty query: expected 0, got %v", got)
	}
	if got := Enhanced("query", ""); got != 0 {
		t.Errorf("empty text: expected 0, got %v", got)
	}
	// Punctuation-only inputs tokenize to nothing.
	if got := Enhanced("...", "!!!"); got != 0 {
		t.Errorf("punctuation-only: expected 0, got %v", got)
	}
}

func TestEnhancedLongerTokensWeighMore(t *testing.T) {
	// Same structure, one query has a longer matching token. Both queries are
	// two tokens with exactly one match; the longer shared token must score
	// higher after normalization.
	short := Enhanced("oil zzzzzzzzzz", "oil for scalp")
	long := Enhanced("nourishing zzzzzzzzzz", "nourishing treatment")
	if long <= short {
		t.Errorf("longer shared token should score higher: long=%v short=%v", long, short)
	}
}

func TestEnhancedWeightCap(t *testing.T) {
	// Tokens of length >= 10 all carry the capped weight 2.0, so a single
	// fully-matching capped token scores exactly 1.0.
	if got := Enhanced("absolutely", "absolutely wonderful"); got != 1.0 {
		t.Errorf("capped token full match: expected 1.0, got %v", got)
	}
}

func TestEnhancedFullMatch(t *testing.T) {
	got := Enhanced("hair fall", "reduces hair fall and nourishes scalp")
	if got != 1.0 {
		t.Errorf("all query tokens present: expected 1.0, got %v", got)
	}
}

func TestEnhancedTokenizesPunctuation(t *testing.T) {
	// The word-boundary tokenizer matches across punctuation the
	// whitespace tokenizer would glue together.
	if got := Enhanced("scalp", "nourishes-scalp,deeply"); got == 0 {
		t.Error("expected punctuation-separated token to match")
	}
	if got := Simple("scalp", "nourishes-scalp,deeply"); got != 0 {
		t.Errorf("whitespace tokenizer should not match here, got %v", got)
	}
}

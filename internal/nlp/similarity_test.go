package nlp

import "testing"

func TestSimilarityIdenticalIsHundred(t *testing.T) {
	for _, s := range []string{
		"x",
		"Two jawans killed in Manipur ambush",
		"BREAKING: Floods hit Mumbai!!",
		"!!!",
		"मुंबई में बाढ़",
	} {
		if got := Similarity(s, s); got != 100 {
			t.Fatalf("Similarity(%q, itself) = %d, want 100", s, got)
		}
	}
}

func TestSimilarityEmptyIsZero(t *testing.T) {
	if got := Similarity("", "something"); got != 0 {
		t.Fatalf("Similarity with empty = %d, want 0", got)
	}
	if got := Similarity("", ""); got != 0 {
		t.Fatalf("Similarity of two empty strings = %d, want 0", got)
	}
}

func TestSimilarityIgnoresCase(t *testing.T) {
	if got := Similarity("Earthquake Hits Tokyo", "earthquake hits tokyo"); got != 100 {
		t.Fatalf("Similarity should be case-insensitive, got %d", got)
	}
}

func TestRatioKnownValues(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"this is a test", "this is a test!", 97},
		{"abc", "abc", 100},
		{"abc", "xyz", 0},
		{"abcd", "abce", 75},
	}
	for _, c := range cases {
		if got := Ratio(c.a, c.b); got != c.want {
			t.Fatalf("Ratio(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestPartialRatioFindsSubstring(t *testing.T) {
	headline := "floods hit mumbai"
	framed := "breaking: floods hit mumbai as monsoon intensifies"
	if got := PartialRatio(headline, framed); got != 100 {
		t.Fatalf("PartialRatio substring = %d, want 100", got)
	}
	// 参数顺序不影响结果
	if got := PartialRatio(framed, headline); got != 100 {
		t.Fatalf("PartialRatio reversed = %d, want 100", got)
	}
	if got := Similarity("Floods hit Mumbai", "BREAKING: Floods hit Mumbai as monsoon intensifies"); got != 100 {
		t.Fatalf("Similarity should pick the partial ratio, got %d", got)
	}
}

func TestTokenSortRatioIgnoresOrder(t *testing.T) {
	if got := TokenSortRatio("mumbai hit by floods", "floods hit by mumbai"); got != 100 {
		t.Fatalf("TokenSortRatio reorder = %d, want 100", got)
	}
	if got := TokenSortRatio("New York, Mets!", "mets new york"); got != 100 {
		t.Fatalf("TokenSortRatio should strip punctuation, got %d", got)
	}
}

func TestTokenSetRatioIgnoresExtraWords(t *testing.T) {
	if got := TokenSetRatio("fuzzy was a bear", "fuzzy fuzzy was a bear"); got != 100 {
		t.Fatalf("TokenSetRatio duplicates = %d, want 100", got)
	}
	if got := TokenSetRatio("", "bear"); got != 0 {
		t.Fatalf("TokenSetRatio empty = %d, want 0", got)
	}
}

func TestWeightedSimilarity(t *testing.T) {
	c := WeightedSimilarity("Floods hit Mumbai", "floods hit mumbai")
	if c.Overall != 100 {
		t.Fatalf("Overall = %v, want 100", c.Overall)
	}
	for _, key := range []string{"ratio", "partial_ratio", "token_sort_ratio", "token_set_ratio"} {
		if c.Individual[key] != 100 {
			t.Fatalf("Individual[%s] = %d, want 100", key, c.Individual[key])
		}
	}

	c = WeightedSimilarity("abc", "xyz")
	if c.Overall != 0 {
		t.Fatalf("Overall for unrelated text = %v, want 0", c.Overall)
	}
}

package verifier

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type fakeFetcher struct {
	name    string
	method  string
	outcome Outcome
	panics  bool

	gotKeywords []string
}

func (f *fakeFetcher) Name() string   { return f.name }
func (f *fakeFetcher) Method() string { return f.method }

func (f *fakeFetcher) Fetch(ctx context.Context, headline string, keywords []string) Outcome {
	f.gotKeywords = keywords
	if f.panics {
		panic("boom")
	}
	return f.outcome
}

type panicExtractor struct{}

func (panicExtractor) Extract(string) []string { panic("extractor exploded") }

func TestVerifyExactBBCMatchIsLikelyTrue(t *testing.T) {
	headline := "Floods hit Mumbai as monsoon intensifies"
	api := &fakeFetcher{name: "newsapi", method: "NewsAPI", outcome: Outcome{
		Checked: 20,
		Candidates: []Candidate{{
			Source:      "BBC News",
			Title:       headline,
			URL:         "https://www.bbc.com/news/1",
			PublishedAt: "2024-07-01T08:00:00Z",
			Similarity:  100,
		}},
	}}
	rss := &fakeFetcher{name: "rss", method: "RSS_Feeds", outcome: Outcome{Checked: 120}}
	fc := &fakeFetcher{name: "factcheck", method: "Fact_Check"}

	r := New(nil, api, rss, fc).Verify(context.Background(), headline)

	if r.Details.MatchingSources != 1 {
		t.Fatalf("matching = %d, want 1", r.Details.MatchingSources)
	}
	if r.Details.TotalSourcesChecked != 140 {
		t.Fatalf("checked = %d, want 140", r.Details.TotalSourcesChecked)
	}
	if r.AuthenticityScore != 70 {
		t.Fatalf("score = %d, want 70", r.AuthenticityScore)
	}
	if r.VerificationStatus != StatusLikelyTrue {
		t.Fatalf("status = %q, want %q", r.VerificationStatus, StatusLikelyTrue)
	}
	if r.Summary.When != "Originally reported around: 2024-07-01T08:00:00Z" {
		t.Fatalf("When = %q", r.Summary.When)
	}
	if r.ID == "" || r.CheckedAt.IsZero() {
		t.Fatalf("result should carry an id and timestamp")
	}
}

func TestVerifyNothingFound(t *testing.T) {
	r := New(nil,
		&fakeFetcher{name: "rss", method: "RSS_Feeds"},
		&fakeFetcher{name: "factcheck", method: "Fact_Check"},
	).Verify(context.Background(), "Aliens land in Pune")

	if r.AuthenticityScore != 0 || r.VerificationStatus != StatusLikelyFalse {
		t.Fatalf("score=%d status=%q", r.AuthenticityScore, r.VerificationStatus)
	}
	if r.Summary != (Summary{}) {
		t.Fatalf("summary should be empty, got %+v", r.Summary)
	}
	if len(r.SourcesFound) != 0 || r.SourcesFound == nil {
		t.Fatalf("sources_found should be an empty list, got %#v", r.SourcesFound)
	}
}

func TestVerifyThreeAverageMatches(t *testing.T) {
	rss := &fakeFetcher{name: "rss", method: "RSS_Feeds", outcome: Outcome{
		Checked: 60,
		Candidates: []Candidate{
			{Source: "Times of India", Title: "a", Similarity: 45},
			{Source: "The Hindu", Title: "b", Similarity: 50},
			{Source: "Firstpost", Title: "c", Similarity: 55},
		},
	}}
	r := New(nil, rss).Verify(context.Background(), "Some headline about Delhi")
	if r.AuthenticityScore != 70 || r.VerificationStatus != StatusLikelyTrue {
		t.Fatalf("score=%d status=%q, want 70 / %q", r.AuthenticityScore, r.VerificationStatus, StatusLikelyTrue)
	}
}

func TestVerifyMergesInRegistrationOrder(t *testing.T) {
	api := &fakeFetcher{name: "newsapi", method: "NewsAPI", outcome: Outcome{
		Checked:    1,
		Candidates: []Candidate{{Source: "A", Title: "from api", Similarity: 60}},
	}}
	rss := &fakeFetcher{name: "rss", method: "RSS_Feeds", outcome: Outcome{
		Checked:    1,
		Candidates: []Candidate{{Source: "B", Title: "from rss", Similarity: 60}},
	}}
	fc := &fakeFetcher{name: "factcheck", method: "Fact_Check", outcome: Outcome{
		FactChecks: []FactCheckHit{{Site: "snopes.com", ResultsFound: 4, Status: "Found related fact-checks"}},
	}}

	r := New(nil, api, rss, fc).Verify(context.Background(), "headline")

	wantMethods := []string{"NewsAPI", "RSS_Feeds", "Fact_Check"}
	if !reflect.DeepEqual(r.Details.VerificationMethod, wantMethods) {
		t.Fatalf("methods = %v, want %v", r.Details.VerificationMethod, wantMethods)
	}
	if r.SourcesFound[0].Title != "from api" || r.SourcesFound[1].Title != "from rss" {
		t.Fatalf("sources not in fetcher order: %+v", r.SourcesFound)
	}
	if len(r.SimilarHeadlines) != 2 || r.SimilarHeadlines[1].Source != "B" {
		t.Fatalf("similar headlines = %+v", r.SimilarHeadlines)
	}
	if len(r.Details.FactCheckResults) != 1 {
		t.Fatalf("fact checks = %+v", r.Details.FactCheckResults)
	}
	// 35 + 24 + 10(fact check)
	if r.AuthenticityScore != 69 {
		t.Fatalf("score = %d, want 69", r.AuthenticityScore)
	}
}

func TestVerifyPassesKeywordsToEveryFetcher(t *testing.T) {
	a := &fakeFetcher{name: "a", method: "A"}
	b := &fakeFetcher{name: "b", method: "B"}
	New(nil, a, b).Verify(context.Background(), "Earthquake shakes Delhi tonight")

	want := []string{"earthquake", "shakes", "delhi", "tonight"}
	if !reflect.DeepEqual(a.gotKeywords, want) || !reflect.DeepEqual(b.gotKeywords, want) {
		t.Fatalf("keywords a=%v b=%v, want %v", a.gotKeywords, b.gotKeywords, want)
	}
}

func TestVerifyIsolatesFailingFetcher(t *testing.T) {
	broken := &fakeFetcher{name: "newsapi", method: "NewsAPI", panics: true}
	failed := &fakeFetcher{name: "rss", method: "RSS_Feeds", outcome: Outcome{Err: errors.New("all feeds down")}}
	ok := &fakeFetcher{name: "factcheck", method: "Fact_Check", outcome: Outcome{
		FactChecks: []FactCheckHit{{Site: "altnews.in", ResultsFound: 2}},
	}}

	r := New(nil, broken, failed, ok).Verify(context.Background(), "headline")

	if r.VerificationStatus == StatusError {
		t.Fatalf("a single failing source must not fail the verification")
	}
	if r.AuthenticityScore != 10 {
		t.Fatalf("score = %d, want 10", r.AuthenticityScore)
	}
	if r.Details.SourceErrors["newsapi"] == "" || r.Details.SourceErrors["rss"] != "all feeds down" {
		t.Fatalf("source errors = %v", r.Details.SourceErrors)
	}
	if len(r.Details.VerificationMethod) != 3 {
		t.Fatalf("methods = %v", r.Details.VerificationMethod)
	}
}

func TestVerifyRecoversFromPanicOutsideFetchers(t *testing.T) {
	r := New(panicExtractor{}).Verify(context.Background(), "headline")
	if r.VerificationStatus != StatusError {
		t.Fatalf("status = %q, want %q", r.VerificationStatus, StatusError)
	}
	if r.Details.Error != "extractor exploded" {
		t.Fatalf("error = %q", r.Details.Error)
	}
	if r.Headline != "headline" {
		t.Fatalf("headline = %q", r.Headline)
	}
}

func TestVerifyMatchingNeverExceedsChecked(t *testing.T) {
	outcomes := []Outcome{
		{},
		{Err: errors.New("down")},
		{Checked: 3, Candidates: []Candidate{{Similarity: 90}}},
		// 上报的检查数小于候选数时，合并阶段会补齐
		{Checked: 0, Candidates: []Candidate{{Similarity: 40}, {Similarity: 50}}},
		{FactChecks: []FactCheckHit{{Site: "snopes.com", ResultsFound: 1}}},
	}
	for i := range outcomes {
		for j := range outcomes {
			f1 := &fakeFetcher{name: "one", method: "One", outcome: outcomes[i]}
			f2 := &fakeFetcher{name: "two", method: "Two", outcome: outcomes[j]}
			r := New(nil, f1, f2).Verify(context.Background(), "headline")
			if r.Details.MatchingSources > r.Details.TotalSourcesChecked {
				t.Fatalf("case %d/%d: matching %d > checked %d", i, j, r.Details.MatchingSources, r.Details.TotalSourcesChecked)
			}
			if r.AuthenticityScore < 0 || r.AuthenticityScore > 100 {
				t.Fatalf("case %d/%d: score %d out of range", i, j, r.AuthenticityScore)
			}
		}
	}
}

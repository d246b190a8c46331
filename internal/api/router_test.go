package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/LJTian/HeadlineCheck/internal/audio"
	"github.com/LJTian/HeadlineCheck/internal/config"
	"github.com/LJTian/HeadlineCheck/internal/storage"
	"github.com/LJTian/HeadlineCheck/internal/verifier"
	"github.com/gin-gonic/gin"
)

type fakeVerifier struct {
	got string
}

func (f *fakeVerifier) Verify(ctx context.Context, headline string) *verifier.Result {
	f.got = headline
	return &verifier.Result{
		Headline:           headline,
		AuthenticityScore:  70,
		VerificationStatus: verifier.StatusLikelyTrue,
	}
}

func (f *fakeVerifier) Keywords(headline string) []string {
	return []string{"earthquake", "delhi"}
}

type fakeSources struct {
	feeds   []storage.FeedSource
	sites   []storage.FactCheckSite
	removed []string
}

func (f *fakeSources) ListFeedSources() ([]storage.FeedSource, error) { return f.feeds, nil }

func (f *fakeSources) UpsertFeedSource(rawURL, name string, enabled bool) (*storage.FeedSource, error) {
	src := storage.FeedSource{ID: uint(len(f.feeds) + 1), URL: rawURL, Name: name, Enabled: enabled}
	f.feeds = append(f.feeds, src)
	return &src, nil
}

func (f *fakeSources) RemoveFeedSource(rawURL string) error {
	for _, s := range f.feeds {
		if s.URL == rawURL {
			f.removed = append(f.removed, rawURL)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeSources) ListFactCheckSites() ([]storage.FactCheckSite, error) { return f.sites, nil }

func (f *fakeSources) AddFactCheckSite(domain string) (*storage.FactCheckSite, error) {
	site := storage.FactCheckSite{ID: uint(len(f.sites) + 1), Domain: storage.NormalizeSite(domain)}
	f.sites = append(f.sites, site)
	return &site, nil
}

func (f *fakeSources) RemoveFactCheckSite(domain string) error {
	return errors.New("db down")
}

type fakeAnalyzer struct {
	err      error
	gotPath  string
	existed  bool
	analysis audio.Analysis
}

func (f *fakeAnalyzer) Analyze(path string) (audio.Analysis, error) {
	f.gotPath = path
	_, statErr := os.Stat(path)
	f.existed = statErr == nil
	return f.analysis, f.err
}

func newTestServer(t *testing.T) (*gin.Engine, *fakeVerifier, *fakeSources, *fakeAnalyzer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	v := &fakeVerifier{}
	src := &fakeSources{}
	an := &fakeAnalyzer{analysis: audio.Analysis{
		Features:   audio.Features{Duration: 1, SampleRate: 16000},
		Prediction: audio.Prediction{Label: audio.LabelRealHuman, Confidence: 0.92},
	}}
	cfg := &config.Config{UploadDir: t.TempDir(), MaxUploadMB: 1}

	r := gin.New()
	NewServer(v, src, an, cfg).RegisterRoutes(r)
	return r, v, src, an
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestHealth(t *testing.T) {
	r, _, _, _ := newTestServer(t)
	w := do(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || decode(t, w)["status"] != "ok" {
		t.Fatalf("health = %d %s", w.Code, w.Body.String())
	}
}

func TestVerifyJSON(t *testing.T) {
	r, v, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/verify", strings.NewReader(`{"headline":"  Earthquake shakes Delhi  "}`))
	req.Header.Set("Content-Type", "application/json")

	w := do(r, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["status"] != "success" || body["headline"] != "Earthquake shakes Delhi" {
		t.Fatalf("unexpected body: %v", body)
	}
	if v.got != "Earthquake shakes Delhi" {
		t.Fatalf("verifier got %q", v.got)
	}
	result := body["verification_result"].(map[string]any)
	if result["authenticity_score"] != float64(70) || result["verification_status"] != "Likely True" {
		t.Fatalf("unexpected result: %v", result)
	}
}

func TestVerifyForm(t *testing.T) {
	r, v, _, _ := newTestServer(t)
	form := url.Values{"headline": {"Floods hit Mumbai"}}
	req := httptest.NewRequest(http.MethodPost, "/verify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := do(r, req)
	if w.Code != http.StatusOK || v.got != "Floods hit Mumbai" {
		t.Fatalf("status = %d, verifier got %q", w.Code, v.got)
	}
}

func TestVerifyRejectsEmptyHeadline(t *testing.T) {
	r, v, _, _ := newTestServer(t)
	for _, payload := range []string{`{"headline":"   "}`, `{}`, `not json`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/verify", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := do(r, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", payload, w.Code)
		}
		body := decode(t, w)
		if body["status"] != "error" || body["error"] != "Please provide a news headline to verify" {
			t.Fatalf("%s: unexpected body %v", payload, body)
		}
	}
	if v.got != "" {
		t.Fatalf("verifier should not be called, got %q", v.got)
	}
}

func TestSimilarityAndKeywords(t *testing.T) {
	r, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/similarity", strings.NewReader(`{"text1":"Floods hit Mumbai","text2":"floods hit mumbai"}`))
	req.Header.Set("Content-Type", "application/json")
	w := do(r, req)
	if w.Code != http.StatusOK {
		t.Fatalf("similarity status = %d", w.Code)
	}
	data := decode(t, w)["data"].(map[string]any)
	if data["overall_similarity"] != float64(100) {
		t.Fatalf("overall = %v", data["overall_similarity"])
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/similarity", strings.NewReader(`{"text1":"only one"}`))
	req.Header.Set("Content-Type", "application/json")
	if w := do(r, req); w.Code != http.StatusBadRequest {
		t.Fatalf("missing text2: status = %d", w.Code)
	}

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/v1/keywords?text=Earthquake+shakes+Delhi", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("keywords status = %d", w.Code)
	}
	data = decode(t, w)["data"].(map[string]any)
	if data["search_terms"] != "earthquake delhi" {
		t.Fatalf("search terms = %v", data["search_terms"])
	}

	if w := do(r, httptest.NewRequest(http.MethodGet, "/api/v1/keywords", nil)); w.Code != http.StatusBadRequest {
		t.Fatalf("empty text: status = %d", w.Code)
	}
}

func TestFeedSources(t *testing.T) {
	r, _, src, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sources/feeds", strings.NewReader(`{"url":"ftp://example.com/rss"}`))
	req.Header.Set("Content-Type", "application/json")
	if w := do(r, req); w.Code != http.StatusBadRequest {
		t.Fatalf("ftp url: status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/sources/feeds", strings.NewReader(`{"url":"https://example.com/rss","name":"Example"}`))
	req.Header.Set("Content-Type", "application/json")
	w := do(r, req)
	if w.Code != http.StatusOK {
		t.Fatalf("add feed: status = %d body=%s", w.Code, w.Body.String())
	}
	if len(src.feeds) != 1 || !src.feeds[0].Enabled || src.feeds[0].Name != "Example" {
		t.Fatalf("stored feeds = %+v", src.feeds)
	}

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/v1/sources/feeds", nil))
	if list := decode(t, w)["data"].([]any); len(list) != 1 {
		t.Fatalf("list = %v", list)
	}

	w = do(r, httptest.NewRequest(http.MethodDelete, "/api/v1/sources/feeds?url="+url.QueryEscape("https://missing.example/rss"), nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("remove missing: status = %d", w.Code)
	}
	w = do(r, httptest.NewRequest(http.MethodDelete, "/api/v1/sources/feeds?url="+url.QueryEscape("https://example.com/rss"), nil))
	if w.Code != http.StatusOK || len(src.removed) != 1 {
		t.Fatalf("remove: status = %d removed=%v", w.Code, src.removed)
	}
}

func TestFactCheckSources(t *testing.T) {
	r, _, src, _ := newTestServer(t)

	w := do(r, httptest.NewRequest(http.MethodGet, "/api/v1/sources/factcheck", nil))
	if list := decode(t, w)["data"].([]any); len(list) != 0 {
		t.Fatalf("empty list should serialise as [], got %v", list)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sources/factcheck", strings.NewReader(`{"domain":"not a domain"}`))
	req.Header.Set("Content-Type", "application/json")
	if w := do(r, req); w.Code != http.StatusBadRequest {
		t.Fatalf("bad domain: status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/sources/factcheck", strings.NewReader(`{"domain":"https://Snopes.com/"}`))
	req.Header.Set("Content-Type", "application/json")
	if w := do(r, req); w.Code != http.StatusOK || src.sites[0].Domain != "snopes.com" {
		t.Fatalf("add: status = %d sites=%+v", w.Code, src.sites)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/sources/factcheck", strings.NewReader(`{"domain":"https://www.thequint.com/fact-check/"}`))
	req.Header.Set("Content-Type", "application/json")
	if w := do(r, req); w.Code != http.StatusOK || src.sites[1].Domain != "www.thequint.com/fact-check" {
		t.Fatalf("add section site: status = %d sites=%+v", w.Code, src.sites)
	}

	w = do(r, httptest.NewRequest(http.MethodDelete, "/api/v1/sources/factcheck?domain=snopes.com", nil))
	if w.Code != http.StatusInternalServerError || decode(t, w)["code"] != "internal_error" {
		t.Fatalf("store failure: status = %d body=%s", w.Code, w.Body.String())
	}
}

func multipartUpload(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write(content)
	}
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/audio/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAnalyzeAudio(t *testing.T) {
	r, _, _, an := newTestServer(t)

	w := do(r, multipartUpload(t, "file", "Voice Memo.WAV", []byte("RIFF....")))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["filename"] != "Voice Memo.WAV" || body["prediction"] != "REAL_HUMAN" ||
		body["confidence"] != 0.92 || body["status"] != "success" {
		t.Fatalf("unexpected body: %v", body)
	}
	features := body["features"].(map[string]any)
	if features["sample_rate"] != float64(16000) {
		t.Fatalf("features = %v", features)
	}
	if !an.existed || !strings.HasSuffix(an.gotPath, ".wav") || strings.Contains(an.gotPath, "Voice Memo") {
		t.Fatalf("upload stored as %q (existed=%v)", an.gotPath, an.existed)
	}
	if _, err := os.Stat(an.gotPath); !os.IsNotExist(err) {
		t.Fatalf("upload should be removed after analysis")
	}
}

func TestAnalyzeAudioErrors(t *testing.T) {
	r, _, _, an := newTestServer(t)

	w := do(r, multipartUpload(t, "", "", nil))
	if w.Code != http.StatusBadRequest || decode(t, w)["error"] != "No file uploaded" {
		t.Fatalf("missing file: %d %s", w.Code, w.Body.String())
	}

	w = do(r, multipartUpload(t, "file", "notes.txt", []byte("hi")))
	if w.Code != http.StatusBadRequest || decode(t, w)["error"] != "Invalid file format" {
		t.Fatalf("bad extension: %d %s", w.Code, w.Body.String())
	}

	an.err = audio.ErrUnsupportedFormat
	w = do(r, multipartUpload(t, "file", "song.mp3", []byte("ID3")))
	if w.Code != http.StatusUnsupportedMediaType || decode(t, w)["status"] != "failed" {
		t.Fatalf("unsupported: %d %s", w.Code, w.Body.String())
	}

	an.err = errors.New("decoder crashed")
	w = do(r, multipartUpload(t, "file", "clip.wav", []byte("RIFF")))
	body := decode(t, w)
	if w.Code != http.StatusInternalServerError || body["error"] != "decoder crashed" {
		t.Fatalf("analysis failure: %d %v", w.Code, body)
	}
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mlorentedev/doctran/internal/adapter"
	"github.com/mlorentedev/doctran/internal/config"
	"github.com/mlorentedev/doctran/internal/middleware"
	"github.com/mlorentedev/doctran/internal/pipeline"
	"github.com/mlorentedev/doctran/internal/prompt"
)

type failingProvider struct{}

func (f *failingProvider) Name() string { return "failing" }
func (f *failingProvider) Translate(ctx context.Context, req prompt.Request) (adapter.Response, error) {
	return adapter.Response{}, fmt.Errorf("intentional failure")
}
func (f *failingProvider) Available() bool { return true }

type translateRequest struct {
	Message     string `json:"message,omitempty"`
	FileContent string `json:"fileContent,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	Language    string `json:"language"`
	Provider    string `json:"provider,omitempty"`
}

type translateResponse struct {
	Success     bool   `json:"success"`
	Translation string `json:"translation"`
	Provider    string `json:"provider"`
	Fallback    bool   `json:"fallback"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type serverOptions struct {
	providers map[string]adapter.Provider
	apiKey    string
	limit     int
	timeout   time.Duration
}

func newTestServer(t *testing.T, opts serverOptions) *httptest.Server {
	t.Helper()
	if opts.providers == nil {
		opts.providers = map[string]adapter.Provider{
			"mock":  &adapter.MockProvider{},
			"deepl": &adapter.DeepLProvider{},
		}
	}
	if opts.limit == 0 {
		opts.limit = 1000
	}
	var infos []adapter.ProviderInfo
	for id, p := range opts.providers {
		infos = append(infos, adapter.ProviderInfo{ID: id, Name: p.Name()})
	}

	p := pipeline.New(pipeline.Config{
		Providers:       opts.providers,
		DefaultProvider: "mock",
		Timeout:         opts.timeout,
	})
	h := SetupMux(Deps{
		Pipeline:      p,
		Providers:     opts.providers,
		ProviderInfos: infos,
		Version:       "test",
		Middleware: middleware.Options{
			RateLimiter: middleware.NewRateLimiter(opts.limit, time.Minute),
			APIKey:      opts.apiKey,
		},
	})
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func postTranslate(t *testing.T, url string, body translateRequest) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return resp
}

func TestIntegration_TranslateFullFlow(t *testing.T) {
	ts := newTestServer(t, serverOptions{})

	resp := postTranslate(t, ts.URL+"/api/translate", translateRequest{Message: "hello world", Language: "es"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS Allow-Origin: got %q, want %q", got, "*")
	}
	if reqID := resp.Header.Get("X-Request-ID"); len(reqID) != 32 {
		t.Errorf("X-Request-ID: got %q, want 32 hex chars", reqID)
	}

	var tr translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !tr.Success || tr.Translation != "[mock:es] hello world" {
		t.Errorf("response: got %+v", tr)
	}
}

func TestIntegration_SpecPathsMounted(t *testing.T) {
	ts := newTestServer(t, serverOptions{})

	resp := postTranslate(t, ts.URL+"/translate", translateRequest{FileContent: "Plain document", FileName: "a.txt", Language: "fr"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/translate status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "notes.txt")
	part.Write([]byte("some notes"))
	mw.Close()

	resp, err := http.Post(ts.URL+"/process-file", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/process-file status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var pf struct {
		Success bool   `json:"success"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(pf.Content, "--- Processing Summary ---") {
		t.Errorf("content missing summary: %q", pf.Content)
	}
}

func TestIntegration_DeepLOfflineFallback(t *testing.T) {
	ts := newTestServer(t, serverOptions{})

	resp := postTranslate(t, ts.URL+"/api/translate", translateRequest{Message: "Good night", Language: "de", Provider: "deepl"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var tr translateResponse
	json.NewDecoder(resp.Body).Decode(&tr)
	if !tr.Fallback {
		t.Error("fallback: got false")
	}
	if tr.Translation != "Ins Deutsche übersetzt: Good night" {
		t.Errorf("translation: got %q", tr.Translation)
	}
	if tr.Provider != adapter.OfflineFallbackName {
		t.Errorf("provider: got %q", tr.Provider)
	}
}

func TestIntegration_HealthAndCatalogs(t *testing.T) {
	ts := newTestServer(t, serverOptions{})

	for _, path := range []string{"/api/health", "/api/providers", "/api/languages"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status: got %d, want %d", path, resp.StatusCode, http.StatusOK)
		}
	}
}

func TestIntegration_OptionsPreflightCORS(t *testing.T) {
	ts := newTestServer(t, serverOptions{apiKey: "secret"})

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/translate", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status: got %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if got := resp.Header.Get("Access-Control-Allow-Headers"); !strings.Contains(got, "X-API-Key") {
		t.Errorf("Allow-Headers: got %q, want to contain X-API-Key", got)
	}
}

func TestIntegration_UnknownRoute(t *testing.T) {
	ts := newTestServer(t, serverOptions{})

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestIntegration_ConcurrentTranslate(t *testing.T) {
	ts := newTestServer(t, serverOptions{})

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			provider := "mock"
			if i%2 == 1 {
				provider = "deepl"
			}
			b, _ := json.Marshal(translateRequest{
				FileContent: fmt.Sprintf("document %d", i),
				Language:    "es",
				Provider:    provider,
			})
			resp, err := http.Post(ts.URL+"/api/translate", "application/json", bytes.NewReader(b))
			if err != nil {
				errs <- fmt.Errorf("request %d: %w", i, err)
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				errs <- fmt.Errorf("request %d: status %d", i, resp.StatusCode)
				return
			}
			var tr translateResponse
			if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
				errs <- fmt.Errorf("request %d: decode: %w", i, err)
				return
			}
			if !strings.HasSuffix(tr.Translation, fmt.Sprintf("document %d", i)) {
				errs <- fmt.Errorf("request %d: translation %q belongs to another request", i, tr.Translation)
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestIntegration_ProviderTimeout(t *testing.T) {
	ts := newTestServer(t, serverOptions{
		providers: map[string]adapter.Provider{"mock": &adapter.MockProvider{Delay: 5 * time.Second}},
		timeout:   50 * time.Millisecond,
	})

	resp := postTranslate(t, ts.URL+"/api/translate", translateRequest{Message: "hello", Language: "es"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}
	var er errorResponse
	json.NewDecoder(resp.Body).Decode(&er)
	if !strings.Contains(er.Error, "timed out") {
		t.Errorf("error: got %q, want to mention timeout", er.Error)
	}
}

func TestIntegration_ClientCancellation(t *testing.T) {
	ts := newTestServer(t, serverOptions{
		providers: map[string]adapter.Provider{"mock": &adapter.MockProvider{Delay: 5 * time.Second}},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	b, _ := json.Marshal(translateRequest{Message: "hello", Language: "es"})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, ts.URL+"/api/translate", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")

	_, err := http.DefaultClient.Do(req)
	if err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
	if !strings.Contains(err.Error(), "context") {
		t.Errorf("expected context error, got: %v", err)
	}
}

func TestIntegration_ProviderErrorPropagation(t *testing.T) {
	ts := newTestServer(t, serverOptions{
		providers: map[string]adapter.Provider{"mock": &failingProvider{}},
	})

	resp := postTranslate(t, ts.URL+"/api/translate", translateRequest{Message: "hello", Language: "es"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if er.Error != "Translation service temporarily unavailable" {
		t.Errorf("error: got %q", er.Error)
	}
	if er.Kind != "provider_error" {
		t.Errorf("kind: got %q", er.Kind)
	}
	if strings.Contains(er.Error, "intentional failure") {
		t.Error("provider cause leaked into the response")
	}
}

func TestIntegration_RateLimit(t *testing.T) {
	ts := newTestServer(t, serverOptions{limit: 10})

	for i := 0; i < 11; i++ {
		resp, err := http.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()

		want := http.StatusOK
		if i == 10 {
			want = http.StatusTooManyRequests
		}
		if resp.StatusCode != want {
			t.Errorf("request %d: got %d, want %d", i, resp.StatusCode, want)
		}
	}
}

func TestIntegration_OversizedUpload(t *testing.T) {
	ts := newTestServer(t, serverOptions{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "big.txt")
	part.Write(bytes.Repeat([]byte("x"), 10<<20+1))
	mw.Close()

	resp, err := http.Post(ts.URL+"/api/process-file", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status: got %d, want %d", resp.StatusCode, http.StatusRequestEntityTooLarge)
	}
}

func TestIntegration_APIKeyRequired(t *testing.T) {
	ts := newTestServer(t, serverOptions{apiKey: "test-key-123"})

	send := func(key string) int {
		b, _ := json.Marshal(translateRequest{Message: "hello", Language: "es"})
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/translate", bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if got := send(""); got != http.StatusUnauthorized {
		t.Errorf("without key: got %d, want %d", got, http.StatusUnauthorized)
	}
	if got := send("wrong-key"); got != http.StatusUnauthorized {
		t.Errorf("wrong key: got %d, want %d", got, http.StatusUnauthorized)
	}
	if got := send("test-key-123"); got != http.StatusOK {
		t.Errorf("valid key: got %d, want %d", got, http.StatusOK)
	}

	for _, path := range []string{"/api/health", "/metrics"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s exempt: got %d, want %d", path, resp.StatusCode, http.StatusOK)
		}
	}
}

func TestIntegration_MetricsAfterTranslate(t *testing.T) {
	ts := newTestServer(t, serverOptions{})

	resp := postTranslate(t, ts.URL+"/api/translate", translateRequest{FileContent: "metric input", Language: "es"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("translate status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	text := string(body)
	for _, name := range []string{
		"doctran_requests_total",
		"doctran_translate_duration_seconds",
		"doctran_extracted_chars",
		"go_goroutines",
	} {
		if !strings.Contains(text, name) {
			t.Errorf("metrics body missing %s", name)
		}
	}
}

func TestBuildProviders(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.DeepLAPIKey = "k"

	providers, infos := BuildProviders(cfg, false, logger)
	for _, id := range config.Providers {
		if _, ok := providers[id]; !ok {
			t.Errorf("provider %q not registered", id)
		}
	}
	if len(infos) != len(providers) {
		t.Errorf("infos: got %d, want %d", len(infos), len(providers))
	}
	if !providers["deepl"].Available() {
		t.Error("deepl: got unavailable with key set")
	}

	providers, infos = BuildProviders(cfg, true, logger)
	if len(providers) != 1 || len(infos) != 1 || infos[0].ID != "mock" {
		t.Errorf("mock mode: got %d providers, infos %+v", len(providers), infos)
	}
}

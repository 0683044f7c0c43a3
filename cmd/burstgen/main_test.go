package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/oshelot/burstgen/internal/config"
	"github.com/oshelot/burstgen/internal/httpclient"
	"github.com/oshelot/burstgen/internal/tracing"
)

func newRequester(t *testing.T, cfg *config.Config) *httpRequester {
	t.Helper()
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	provider, err := tracing.Init(context.Background(), config.TracingConfig{})
	if err != nil {
		t.Fatalf("tracing.Init() error = %v", err)
	}

	var corpus []string
	if cfg.Mode == config.ModeChat {
		corpus = []string{"What is Go?"}
	}
	builder, err := httpclient.NewRequestBuilder(cfg, corpus, 1)
	if err != nil {
		t.Fatalf("NewRequestBuilder() error = %v", err)
	}

	return &httpRequester{
		client:   httpclient.NewClient(5*time.Second, false),
		builder:  builder,
		mode:     cfg.Mode,
		target:   cfg.TargetURL,
		provider: provider,
	}
}

func TestServerErrorsCountAsTransportSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	req := newRequester(t, &config.Config{
		Mode:      config.ModeGet,
		TargetURL: server.URL,
		MinWords:  10,
		MaxWords:  60,
	})

	outcome := req.Do(context.Background())
	if !outcome.Success {
		t.Fatalf("outcome = %+v, want success for HTTP 500", outcome)
	}
	if outcome.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", outcome.StatusCode)
	}
	if outcome.ErrorKind != "" {
		t.Errorf("ErrorKind = %q, want empty", outcome.ErrorKind)
	}
}

func TestTransportFailureHasErrorKindAndNoStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing is listening anymore

	req := newRequester(t, &config.Config{
		Mode:      config.ModeGet,
		TargetURL: server.URL,
		MinWords:  10,
		MaxWords:  60,
	})

	outcome := req.Do(context.Background())
	if outcome.Success {
		t.Fatalf("outcome = %+v, want failure", outcome)
	}
	if outcome.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 on transport failure", outcome.StatusCode)
	}
	if outcome.ErrorKind != "connection refused" {
		t.Errorf("ErrorKind = %q, want connection refused", outcome.ErrorKind)
	}
}

func TestChatModeRejectsMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	req := newRequester(t, &config.Config{
		Mode:      config.ModeChat,
		TargetURL: server.URL,
		MinWords:  10,
		MaxWords:  60,
	})

	outcome := req.Do(context.Background())
	if outcome.Success {
		t.Fatalf("outcome = %+v, want failure for malformed chat JSON", outcome)
	}
	if outcome.ErrorKind != "invalid json response" {
		t.Errorf("ErrorKind = %q, want invalid json response", outcome.ErrorKind)
	}
}

func TestChatModeAcceptsValidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer":"short answer"}`))
	}))
	defer server.Close()

	req := newRequester(t, &config.Config{
		Mode:      config.ModeChat,
		TargetURL: server.URL,
		MinWords:  10,
		MaxWords:  60,
	})

	outcome := req.Do(context.Background())
	if !outcome.Success {
		t.Fatalf("outcome = %+v, want success", outcome)
	}
	if outcome.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", outcome.StatusCode)
	}
	if outcome.Latency <= 0 {
		t.Errorf("Latency = %s, want > 0", outcome.Latency)
	}
}

func TestPreflightAcceptsAnyStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cfg := &config.Config{Mode: config.ModeGet, TargetURL: server.URL}
	client := httpclient.NewClient(5*time.Second, false)

	if err := preflight(context.Background(), client, cfg); err != nil {
		t.Fatalf("preflight() error = %v, want nil on any HTTP response", err)
	}
}

func TestPreflightFailureSuggestsSkipFlag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	cfg := &config.Config{Mode: config.ModeGet, TargetURL: server.URL}
	client := httpclient.NewClient(time.Second, false)

	err := preflight(context.Background(), client, cfg)
	if err == nil {
		t.Fatal("preflight() error = nil, want connection failure")
	}
	if !strings.Contains(err.Error(), "--no-preflight") {
		t.Errorf("error = %q, want hint about --no-preflight", err)
	}
}

func TestPreflightChatSendsJSONPing(t *testing.T) {
	var gotMethod, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
	}))
	defer server.Close()

	cfg := &config.Config{Mode: config.ModeChat, TargetURL: server.URL}
	client := httpclient.NewClient(5*time.Second, false)

	if err := preflight(context.Background(), client, cfg); err != nil {
		t.Fatalf("preflight() error = %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
}

func TestRunHelpExitsCleanly(t *testing.T) {
	if err := run([]string{"--help"}); err != nil {
		t.Errorf("run(--help) error = %v, want nil", err)
	}
	if err := run(nil); err != nil {
		t.Errorf("run() with no args error = %v, want nil", err)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	err := run([]string{"--url", "https://example.com", "--max-rps", "0"})
	if err == nil {
		t.Fatal("run() error = nil, want validation error")
	}
	if !strings.Contains(err.Error(), "max-rps") {
		t.Errorf("error = %q, want max-rps validation issue", err)
	}
}

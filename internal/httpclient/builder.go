// Package httpclient builds the HTTP requests and the tuned client used to
// send them.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"

	"github.com/oshelot/burstgen/internal/config"
)

const userAgent = "burstgen/1.2"

type chatPayload struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

// RequestBuilder constructs one fresh *http.Request per call. In chat mode
// each request carries a randomly chosen prompt with a requested answer
// length appended; in get mode every request is an identical GET.
type RequestBuilder struct {
	mode     config.Mode
	target   string
	headers  http.Header
	model    string
	prompts  []string
	minWords int
	maxWords int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRequestBuilder validates cfg's request-shaping fields and returns a
// builder. prompts is only consulted in chat mode and must be non-empty
// there. seed drives prompt and word-count selection.
func NewRequestBuilder(cfg *config.Config, prompts []string, seed int64) (*RequestBuilder, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	target := strings.TrimSpace(cfg.TargetURL)
	if target == "" {
		return nil, errors.New("target URL is required")
	}

	if cfg.Mode == config.ModeChat && len(prompts) == 0 {
		return nil, errors.New("chat mode requires at least one prompt")
	}

	headers := http.Header{}
	for key, value := range cfg.Headers {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" || strings.ContainsAny(trimmedKey, "\r\n") {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", trimmedKey)
		}
		headers.Set(http.CanonicalHeaderKey(trimmedKey), value)
	}

	return &RequestBuilder{
		mode:     cfg.Mode,
		target:   target,
		headers:  headers,
		model:    strings.TrimSpace(cfg.Model),
		prompts:  prompts,
		minWords: cfg.MinWords,
		maxWords: cfg.MaxWords,
		rng:      rand.New(rand.NewSource(seed)),
	}, nil
}

func (b *RequestBuilder) Build(ctx context.Context) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var req *http.Request
	var err error
	switch b.mode {
	case config.ModeChat:
		req, err = b.buildChat(ctx)
	default:
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, b.target, nil)
	}
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	for key, values := range b.headers {
		for _, val := range values {
			req.Header.Set(key, val)
		}
	}
	return req, nil
}

func (b *RequestBuilder) buildChat(ctx context.Context) (*http.Request, error) {
	body, err := json.Marshal(chatPayload{
		Prompt: b.nextPrompt(),
		Model:  b.model,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = int64(len(body))
	return req, nil
}

// nextPrompt picks a prompt and appends a target answer length so responses
// stay bounded. Inverted word bounds collapse to a single value.
func (b *RequestBuilder) nextPrompt() string {
	b.mu.Lock()
	prompt := b.prompts[b.rng.Intn(len(b.prompts))]
	upper := b.maxWords
	if upper < b.minWords {
		upper = b.minWords
	}
	words := b.minWords + b.rng.Intn(upper-b.minWords+1)
	b.mu.Unlock()

	prompt = strings.TrimSpace(prompt)
	if !strings.HasSuffix(prompt, ".") && !strings.HasSuffix(prompt, "?") && !strings.HasSuffix(prompt, "!") {
		prompt += "."
	}
	return fmt.Sprintf("%s Answer in about %d words.", prompt, words)
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/oshelot/burstgen/internal/config"
	"github.com/oshelot/burstgen/internal/metrics"
)

// preflight sends a single request at the target before the run starts, so a
// bad URL or unreachable host fails fast instead of producing a report full
// of identical errors.
func preflight(ctx context.Context, client *http.Client, cfg *config.Config) error {
	var req *http.Request
	var err error
	if cfg.Mode == config.ModeChat {
		body, merr := json.Marshal(struct {
			Prompt string `json:"prompt"`
			Model  string `json:"model,omitempty"`
		}{Prompt: "ping", Model: cfg.Model})
		if merr != nil {
			return merr
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, cfg.TargetURL, bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, cfg.TargetURL, nil)
	}
	if err != nil {
		return fmt.Errorf("preflight request: %w", err)
	}
	req.Header.Set("User-Agent", "burstgen/1.2")
	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("preflight failed (%s); check the target URL or pass --no-preflight to skip this check", metrics.KindFromError(err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	fmt.Fprintf(os.Stderr, "[preflight] %s -> HTTP %d\n", cfg.TargetURL, resp.StatusCode)
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"

	"github.com/oshelot/burstgen/internal/config"
	"github.com/oshelot/burstgen/internal/httpclient"
	"github.com/oshelot/burstgen/internal/metrics"
	"github.com/oshelot/burstgen/internal/runner"
	"github.com/oshelot/burstgen/internal/tracing"
)

const maxValidatedBodyBytes = 1 << 20

// httpRequester executes one HTTP attempt per Do call. Any response from the
// server counts as a transport success, whatever its status code; only
// failures to complete the exchange are failures.
type httpRequester struct {
	client   *http.Client
	builder  *httpclient.RequestBuilder
	mode     config.Mode
	target   string
	provider *tracing.Provider
}

func (r *httpRequester) Do(ctx context.Context) metrics.Outcome {
	if ctx == nil {
		ctx = context.Background()
	}

	spanCtx, span := tracing.StartRequestSpan(ctx, r.provider.Tracer(), string(r.mode), r.target)

	req, err := r.builder.Build(spanCtx)
	if err != nil {
		tracing.EndSpan(span, err)
		return metrics.Outcome{ErrorKind: metrics.KindFromError(err)}
	}
	if r.provider.ShouldPropagate() {
		tracing.InjectHTTPHeaders(spanCtx, req.Header)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		tracing.EndSpan(span, err)
		return metrics.Outcome{ErrorKind: metrics.KindFromError(err)}
	}
	defer resp.Body.Close()

	tracing.EndSpan(span, nil, attribute.Int("http.response.status_code", resp.StatusCode))

	if r.mode == config.ModeChat && resp.StatusCode == http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxValidatedBodyBytes))
		if readErr != nil {
			return metrics.Outcome{ErrorKind: metrics.KindFromError(readErr)}
		}
		if !gjson.ValidBytes(body) {
			return metrics.Outcome{ErrorKind: "invalid json response"}
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return metrics.Outcome{
		Success:    true,
		StatusCode: resp.StatusCode,
		Latency:    latency,
	}
}

type stderrFailureLogger struct {
	mu sync.Mutex
}

func (l *stderrFailureLogger) LogFailure(kind string) {
	if kind == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(os.Stderr, "[burstgen] request failed: %s\n", kind)
}

// loggingRequester reports each failed outcome to a logger as it happens.
type loggingRequester struct {
	next   runner.Requester
	logger *stderrFailureLogger
}

func (r *loggingRequester) Do(ctx context.Context) metrics.Outcome {
	outcome := r.next.Do(ctx)
	if !outcome.Success {
		r.logger.LogFailure(outcome.ErrorKind)
	}
	return outcome
}

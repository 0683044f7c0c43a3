package tracing_test

import (
	"context"
	"testing"

	"github.com/oshelot/burstgen/internal/config"
	"github.com/oshelot/burstgen/internal/tracing"
)

func TestInitDisabledReturnsNoopProvider(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	provider, err := tracing.Init(context.Background(), config.TracingConfig{})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if provider.ShouldPropagate() {
		t.Error("ShouldPropagate() = true, want false when disabled")
	}
	if provider.Tracer() == nil {
		t.Error("Tracer() = nil, want no-op tracer")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestInitRejectsBadSampleRate(t *testing.T) {
	_, err := tracing.Init(context.Background(), config.TracingConfig{
		Endpoint:   "localhost:4317",
		SampleRate: 1.5,
	})
	if err == nil {
		t.Fatal("Init() error = nil, want sample rate error")
	}
}

func TestInitRejectsUnknownProtocol(t *testing.T) {
	_, err := tracing.Init(context.Background(), config.TracingConfig{
		Endpoint:   "localhost:4317",
		Protocol:   "udp",
		SampleRate: 1.0,
	})
	if err == nil {
		t.Fatal("Init() error = nil, want protocol error")
	}
}

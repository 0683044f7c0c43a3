package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Mode selects the traffic shape sent at the target.
type Mode string

const (
	ModeGet  Mode = "get"
	ModeChat Mode = "chat"
)

// Config is the immutable configuration snapshot for one run. It is built
// once by the Loader and read-only afterwards.
type Config struct {
	Mode        Mode              `mapstructure:"mode"`
	TargetURL   string            `mapstructure:"url"`
	Duration    time.Duration     `mapstructure:"duration"`
	MaxRPS      int               `mapstructure:"max_rps"`
	Concurrency int               `mapstructure:"concurrency"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	NoPreflight bool              `mapstructure:"no_preflight"`
	Insecure    bool              `mapstructure:"insecure"`
	Headers     map[string]string `mapstructure:"headers"`

	// Chat-mode settings.
	PromptsFile string `mapstructure:"prompts_file"`
	Model       string `mapstructure:"model"`
	MinWords    int    `mapstructure:"min_words"`
	MaxWords    int    `mapstructure:"max_words"`

	Seed       int64         `mapstructure:"seed"`
	JSONOutput bool          `mapstructure:"json_output"`
	JSONFile   string        `mapstructure:"json_file"`
	Dashboard  bool          `mapstructure:"dashboard"`
	LogErrors  bool          `mapstructure:"log_errors"`
	ConfigFile string        `mapstructure:"-"`
	Tracing    TracingConfig `mapstructure:"tracing"`
}

// TracingConfig configures the optional OpenTelemetry exporter.
type TracingConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Propagate   bool    `mapstructure:"propagate"`
}

// Enabled reports whether an OTLP endpoint is configured, either directly or
// through the standard environment variable.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// ShouldPropagate reports whether W3C trace headers are injected into
// outgoing requests.
func (t TracingConfig) ShouldPropagate() bool {
	return t.Propagate
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string
	var warnings []string

	switch c.Mode {
	case ModeGet, ModeChat:
	default:
		issues = append(issues, fmt.Sprintf("mode must be %q or %q, got %q", ModeGet, ModeChat, c.Mode))
	}

	if strings.TrimSpace(c.TargetURL) == "" {
		issues = append(issues, "url is required (use --help for usage information)")
	}
	if c.Duration < time.Minute {
		issues = append(issues, "duration must be >= 1 minute")
	}
	if c.MaxRPS < 1 {
		issues = append(issues, "max-rps must be >= 1")
	}
	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.Timeout <= 0 {
		issues = append(issues, "timeout must be > 0")
	}
	if c.MinWords < 1 {
		issues = append(issues, "min-words must be >= 1")
	}
	if c.MaxWords < 1 {
		issues = append(issues, "max-words must be >= 1")
	}
	if c.Dashboard && c.JSONOutput {
		issues = append(issues, "dashboard and json-output are mutually exclusive")
	}

	if c.MaxRPS > 1000 {
		warnings = append(warnings, fmt.Sprintf("WARNING: High rate configured (up to %d RPS). Ensure you have authorization to test the target system.", c.MaxRPS))
	}
	if c.Concurrency > 500 {
		warnings = append(warnings, fmt.Sprintf("WARNING: High concurrency configured (%d workers). Ensure you have authorization to test the target system.", c.Concurrency))
	}
	if c.Insecure {
		warnings = append(warnings, "WARNING: TLS certificate verification is DISABLED (--insecure). Use only against test environments.")
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, w)
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

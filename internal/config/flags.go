package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "burstgen",
		Short:         "Randomized-rate HTTP load generator for web and LLM endpoints",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	configureFlags(cmd.Flags())
	return cmd
}

func configureFlags(fs *pflag.FlagSet) {
	fs.String("mode", string(ModeGet), "traffic mode: get (plain GET) or chat (POST JSON prompts)")
	fs.String("url", "", "target URL (required)")
	fs.Int("duration", 1, "run duration in minutes")
	fs.Int("max-rps", 10, "upper bound for the per-second randomized request rate")
	fs.Int("concurrency", 4, "number of worker goroutines")
	fs.Float64("timeout", 15.0, "per-request timeout in seconds")
	fs.Bool("no-preflight", false, "skip the single connectivity check before the run")
	fs.Bool("insecure", false, "skip TLS certificate verification")
	fs.StringArray("header", nil, "extra request header as 'Name: Value' (repeatable)")
	fs.String("prompts-file", "", "file with chat prompts (JSON array or one prompt per line)")
	fs.String("model", "", "model name included in chat request bodies")
	fs.Int("min-words", 10, "minimum requested answer length in words (chat mode)")
	fs.Int("max-words", 60, "maximum requested answer length in words (chat mode)")
	fs.Int64("seed", 0, "seed for the rate and prompt RNG (0 picks a random seed)")
	fs.String("config", "", "path to a YAML/JSON config file")
	fs.Bool("json-output", false, "print the final report as JSON instead of text")
	fs.String("json-file", "", "append the final report as a JSON line to this file")
	fs.Bool("dashboard", false, "render a live terminal dashboard during the run")
	fs.Bool("log-errors", false, "log every failed request to stderr as it happens")
}

func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "mode":
			v, _ := fs.GetString("mode")
			cfg.Mode = Mode(strings.ToLower(strings.TrimSpace(v)))
		case "url":
			cfg.TargetURL, _ = fs.GetString("url")
		case "duration":
			v, _ := fs.GetInt("duration")
			cfg.Duration = time.Duration(v) * time.Minute
		case "max-rps":
			cfg.MaxRPS, _ = fs.GetInt("max-rps")
		case "concurrency":
			cfg.Concurrency, _ = fs.GetInt("concurrency")
		case "timeout":
			v, _ := fs.GetFloat64("timeout")
			cfg.Timeout = time.Duration(v * float64(time.Second))
		case "no-preflight":
			cfg.NoPreflight, _ = fs.GetBool("no-preflight")
		case "insecure":
			cfg.Insecure, _ = fs.GetBool("insecure")
		case "header":
			values, _ := fs.GetStringArray("header")
			headers, parseErr := parseHeaderFlags(values)
			if parseErr != nil {
				err = parseErr
				return
			}
			if cfg.Headers == nil {
				cfg.Headers = make(map[string]string, len(headers))
			}
			for k, v := range headers {
				cfg.Headers[k] = v
			}
		case "prompts-file":
			cfg.PromptsFile, _ = fs.GetString("prompts-file")
		case "model":
			cfg.Model, _ = fs.GetString("model")
		case "min-words":
			cfg.MinWords, _ = fs.GetInt("min-words")
		case "max-words":
			cfg.MaxWords, _ = fs.GetInt("max-words")
		case "seed":
			cfg.Seed, _ = fs.GetInt64("seed")
		case "json-output":
			cfg.JSONOutput, _ = fs.GetBool("json-output")
		case "json-file":
			cfg.JSONFile, _ = fs.GetString("json-file")
		case "dashboard":
			cfg.Dashboard, _ = fs.GetBool("dashboard")
		case "log-errors":
			cfg.LogErrors, _ = fs.GetBool("log-errors")
		}
	})
	return err
}

func parseHeaderFlags(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))
	for _, raw := range values {
		name, value, ok := strings.Cut(raw, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: Value'", raw)
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}

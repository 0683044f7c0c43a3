// Package prompts loads the chat prompt corpus used in chat mode.
package prompts

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Defaults is the built-in corpus used when no prompts file is given or the
// given file cannot be used. The questions target common observability
// topics so chat-mode answers stay short and on one subject.
var Defaults = []string{
	"Explain OpenTelemetry in one sentence.",
	"What is the difference between tracing and logging?",
	"Summarize why a Collector fan-out is useful.",
	"How does sampling affect trace quality?",
	"Give me 3 pros and 3 cons of auto-instrumentation.",
	"What is an OTLP exporter and why do we use one?",
	"Describe a typical Grafana Tempo + Prometheus + Loki stack.",
	"How do I correlate a trace in Grafana with a Phoenix session?",
	"What are common labels/tags to add to LLM spans?",
	"Explain the term ‘span kind’ with examples.",
}

// Load reads prompts from path. An empty path returns the built-in corpus.
// Files ending in .json or .jsonl must hold a JSON array of strings; any
// other file is read as one prompt per line. Every failure mode falls back
// to Defaults after printing a note to warn, so a bad file never stops a run.
func Load(path string, warn io.Writer) []string {
	if strings.TrimSpace(path) == "" {
		return Defaults
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(warn, "warning: cannot read prompts file %s (%v), using built-in prompts\n", path, err)
		return Defaults
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonl":
		return fromJSON(path, data, warn)
	default:
		return fromLines(path, data, warn)
	}
}

func fromJSON(path string, data []byte, warn io.Writer) []string {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		fmt.Fprintf(warn, "warning: prompts file %s is not a JSON array of strings, using built-in prompts\n", path)
		return Defaults
	}
	prompts := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			prompts = append(prompts, trimmed)
		}
	}
	if len(prompts) == 0 {
		fmt.Fprintf(warn, "warning: prompts file %s is empty, using built-in prompts\n", path)
		return Defaults
	}
	return prompts
}

func fromLines(path string, data []byte, warn io.Writer) []string {
	var prompts []string
	for _, line := range strings.Split(string(data), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			prompts = append(prompts, trimmed)
		}
	}
	if len(prompts) == 0 {
		fmt.Fprintf(warn, "warning: prompts file %s is empty, using built-in prompts\n", path)
		return Defaults
	}
	return prompts
}

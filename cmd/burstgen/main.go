package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/oshelot/burstgen/internal/config"
	"github.com/oshelot/burstgen/internal/dashboard"
	"github.com/oshelot/burstgen/internal/httpclient"
	"github.com/oshelot/burstgen/internal/metrics"
	"github.com/oshelot/burstgen/internal/output"
	"github.com/oshelot/burstgen/internal/prompts"
	"github.com/oshelot/burstgen/internal/runner"
	"github.com/oshelot/burstgen/internal/tracing"
)

const progressInterval = time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var corpus []string
	if cfg.Mode == config.ModeChat {
		corpus = prompts.Load(cfg.PromptsFile, os.Stderr)
	}

	builder, err := httpclient.NewRequestBuilder(cfg, corpus, seed)
	if err != nil {
		return err
	}

	client := httpclient.NewClient(cfg.Timeout, cfg.Insecure)
	collector := metrics.NewCollector()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	if !cfg.NoPreflight {
		if err := preflight(ctx, client, cfg); err != nil {
			return err
		}
	}

	var requester runner.Requester = &httpRequester{
		client:   client,
		builder:  builder,
		mode:     cfg.Mode,
		target:   cfg.TargetURL,
		provider: provider,
	}
	if cfg.LogErrors {
		requester = &loggingRequester{next: requester, logger: &stderrFailureLogger{}}
	}

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(collector, dashboard.RunConfig{
			TargetURL:   cfg.TargetURL,
			Mode:        string(cfg.Mode),
			MaxRPS:      cfg.MaxRPS,
			Concurrency: cfg.Concurrency,
			Duration:    cfg.Duration,
			Timeout:     cfg.Timeout,
			ConfigFile:  cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return err
		}
		dash.Start()
		defer dash.Stop()
	}

	var progress *output.ProgressReporter
	if !cfg.JSONOutput && !cfg.Dashboard {
		progress = output.NewProgressReporter(collector, progressInterval, os.Stdout)
		progress.Start()
		defer func() {
			progress.Stop()
			fmt.Fprintln(os.Stdout)
		}()
	}

	if !cfg.JSONOutput && !cfg.Dashboard {
		fmt.Printf("Starting %s load against %s: 1..%d req/s, %d workers, %s, timeout %s\n",
			cfg.Mode, cfg.TargetURL, cfg.MaxRPS, cfg.Concurrency, cfg.Duration, cfg.Timeout)
	}

	collector.Start()
	result, err := runner.Run(ctx, runner.Options{
		MaxRate:     cfg.MaxRPS,
		Concurrency: cfg.Concurrency,
		Duration:    cfg.Duration,
		RandomSeed:  seed,
		Requester:   requester,
		Collector:   collector,
	})
	if err != nil {
		return err
	}

	stats := collector.Stats(result.Duration)
	stats.RunID = ulid.Make().String()

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, stats); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, stats)
	}

	if cfg.JSONFile != "" {
		if err := output.AppendJSONFile(cfg.JSONFile, stats); err != nil {
			return err
		}
	}

	return nil
}

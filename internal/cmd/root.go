// SPDX-License-Identifier: AGPL-3.0-or-later
// iaxcore - an IAX2 voice conferencing bridge
// Copyright (C) 2023-2026 Jacob McSwain
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/USA-RedDragon/configulator"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/allstarlink/iaxcore/internal/bridge"
	"github.com/allstarlink/iaxcore/internal/config"
	"github.com/allstarlink/iaxcore/internal/line"
	"github.com/allstarlink/iaxcore/internal/logging"
	"github.com/allstarlink/iaxcore/internal/metrics"
	"github.com/allstarlink/iaxcore/internal/netdiag"
	"github.com/allstarlink/iaxcore/internal/nodedb"
	"github.com/allstarlink/iaxcore/internal/pprof"
	"github.com/allstarlink/iaxcore/internal/router"
	"github.com/allstarlink/iaxcore/internal/ttsworker"
)

// audioRateTickInterval matches the 20ms frame the bridge mixer and the
// TTS worker both operate on.
const audioRateTickInterval = 20 * time.Millisecond

// NewCommand builds the `iaxcore` root command. serve is the implicit
// default action; status is the read-only diagnostic subcommand.
func NewCommand(version, commit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "iaxcore",
		Version: fmt.Sprintf("%s - %s", version, commit),
		Annotations: map[string]string{
			"version": version,
			"commit":  commit,
		},
		RunE:              runServe,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	cmd.AddCommand(newStatusCommand())
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	fmt.Printf("iaxcore - %s (%s)\n", cmd.Annotations["version"], cmd.Annotations["commit"])

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cleanup, err := setupTracing(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cleanup(shutdownCtx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	reg := metrics.New()

	engine, err := line.New(cfg.Line, cfg.DNS, nodedb.New(), log)
	if err != nil {
		return fmt.Errorf("failed to start line engine: %w", err)
	}
	defer engine.Close()

	br := bridge.New(cfg.Bridge, log)
	tts := ttsworker.New(log)
	diag := netdiag.New(log, reg)
	router.Wire(engine, br, tts, diag)

	if err := metrics.CreateMetricsServer(cfg, func() any { return br.Roster() }); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	if err := pprof.CreatePProfServer(cfg, log); err != nil {
		return fmt.Errorf("failed to start pprof server: %w", err)
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		return engine.Run(groupCtx)
	})
	group.Go(func() error {
		runAudioRateLoop(groupCtx, br, tts)
		return nil
	})

	setupShutdownHandlers(cancelRun, group, log)

	return nil
}

// runAudioRateLoop drives the bridge mixer and the TTS worker's drain
// step on the same 20ms cadence the line engine's own audio-rate tick
// uses, since both read and mutate call state that must only ever be
// touched by one goroutine at a time.
func runAudioRateLoop(ctx context.Context, br *bridge.Bridge, tts *ttsworker.Worker) {
	ticker := time.NewTicker(audioRateTickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			br.AudioRateTick(now)
			tts.Tick()
		}
	}
}

// loadConfig loads the configuration from context.
func loadConfig(ctx context.Context) (*config.Config, error) {
	c, err := configulator.FromContext[config.Config](ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get config from context: %w", err)
	}

	cfg, err := c.LoadWithoutValidation()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// setupTracing initializes OpenTelemetry tracing if configured. When
// tracing is not configured it returns a no-op cleanup function.
func setupTracing(cfg *config.Config) (func(context.Context) error, error) {
	if cfg.Metrics.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	return initTracer(cfg)
}

func initTracer(cfg *config.Config) (func(context.Context) error, error) {
	exporter, err := otlptrace.New(
		context.Background(),
		otlptracegrpc.NewClient(
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(cfg.Metrics.OTLPEndpoint),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	resources, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", "iaxcore"),
			attribute.String("library.language", "go"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resources: %w", err)
	}

	otel.SetTracerProvider(
		sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(resources),
		),
	)
	return exporter.Shutdown, nil
}

// setupShutdownHandlers blocks until SIGINT/SIGTERM/SIGQUIT/SIGHUP,
// cancels the run context, and waits for the line engine and mixer
// loop to drain before returning, forcing an exit if they don't within
// the shutdown budget.
func setupShutdownHandlers(cancel context.CancelFunc, group *errgroup.Group, log *slog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

	sig := <-sigCh
	log.Warn("shutting down due to signal", "signal", sig)
	cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("error during shutdown", "error", err)
		}
	}()

	const timeout = 10 * time.Second
	done := make(chan struct{})
	go func() {
		defer close(done)
		wg.Wait()
	}()

	select {
	case <-done:
		log.Info("all services stopped, shutting down gracefully")
		os.Exit(0)
	case <-time.After(timeout):
		log.Error("shutdown timed out, forcing exit")
		os.Exit(1)
	}
}

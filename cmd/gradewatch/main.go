// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// gradewatch is a scheduled change-detection pipeline for a remote grade
// service (spec.md §1). This binary wires the core packages together: it
// owns configuration loading, process-wide logging, signal handling, and
// the CLI surface; every correctness-bearing decision lives in
// internal/differ, internal/store, internal/notify, internal/journal, and
// internal/pipeline.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/suckerfish/gradewatch/internal/config"
	"github.com/suckerfish/gradewatch/internal/fetcher"
	"github.com/suckerfish/gradewatch/internal/healthping"
	"github.com/suckerfish/gradewatch/internal/journal"
	"github.com/suckerfish/gradewatch/internal/notify"
	"github.com/suckerfish/gradewatch/internal/notify/providers"
	"github.com/suckerfish/gradewatch/internal/pipeline"
	"github.com/suckerfish/gradewatch/internal/scheduler"
	"github.com/suckerfish/gradewatch/internal/store/boltstore"
)

var (
	configFile  string
	daemonMode  bool
	scrapeTimes []string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gradewatch",
		Short:         "Scheduled change-detection pipeline for a remote grade service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the fetch/diff/notify/journal/persist pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context())
		},
	}
	runCmd.Flags().BoolVar(&daemonMode, "daemon", false, "run on the configured schedule instead of once")
	runCmd.Flags().StringSliceVar(&scrapeTimes, "times", nil, "HH:MM,HH:MM,... overriding scrape_times in daemon mode")
	runCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a settings file (default: env vars only)")

	root.AddCommand(runCmd)

	return root
}

// exitCode wraps an error with the process exit code spec.md §6 assigns to
// its category: 1 for configuration errors, 2 for unrecoverable runtime
// errors.
type exitCode struct {
	code int
	err  error
}

func (e *exitCode) Error() string { return e.err.Error() }
func (e *exitCode) Unwrap() error { return e.err }

func exitCodeFor(err error) int {
	if ec, ok := err.(*exitCode); ok {
		return ec.code
	}

	return 1
}

func runRun(ctx context.Context) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		slog.Error("gradewatch: configuration error", "error", err)

		return &exitCode{code: 1, err: err}
	}

	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	if len(scrapeTimes) > 0 {
		cfg.ScrapeTimes = scrapeTimes
	}

	st, err := boltstore.Open(cfg.StoragePath, cfg.StorageTimeout)
	if err != nil {
		log.Error("gradewatch: failed to open snapshot store", "error", err)

		return &exitCode{code: 2, err: err}
	}
	defer st.Close()

	jrnl, err := journal.Open(cfg.JournalPath, daysToDuration(cfg.JournalRetentionDays))
	if err != nil {
		log.Error("gradewatch: failed to open change journal", "error", err)

		return &exitCode{code: 2, err: err}
	}
	defer jrnl.Close()

	manager := notify.NewManager(log, buildProviders(cfg, log)...)
	pinger := healthping.New(cfg.HealthcheckURL, log)

	orchestrator := &pipeline.Orchestrator{
		Log:     log,
		Fetcher: fetcher.New(cfg.APIDomain, cfg.APIKey, cfg.APISecret),
		Store:   st,
		Notify:  manager,
		Journal: jrnl,
		Health:  pinger,
		Retry: pipeline.Retry{
			MaxAttempts: cfg.RetryMaxAttempts,
			Delay:       cfg.RetryDelay,
		},
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !daemonMode {
		result := orchestrator.RunCycle(runCtx)
		log.Info("gradewatch: cycle complete", "result", result)
		if !isSuccess(result) {
			return &exitCode{code: 1, err: errResult(result)}
		}

		return nil
	}

	sched, err := scheduler.New(log, cfg.ScrapeTimes)
	if err != nil {
		log.Error("gradewatch: scheduler configuration error", "error", err)

		return &exitCode{code: 1, err: err}
	}

	sched.RunDaemon(runCtx, func(cycleCtx context.Context) {
		result := orchestrator.RunCycle(cycleCtx)
		log.Info("gradewatch: cycle complete", "result", result)
	})

	return nil
}

// buildProviders constructs every reference notify.Provider this binary
// ships with. Construction-time Available() filtering (internal/notify)
// drops whichever of these has no usable configuration.
func buildProviders(cfg config.Config, log *slog.Logger) []notify.Provider {
	return []notify.Provider{
		providers.NewConsole(os.Stdout, log),
		providers.NewWebhook(cfg.Notifications["webhook"]["url"], log),
	}
}

func daysToDuration(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}

// isSuccess implements spec.md §6's exit-code rule for single-shot mode:
// exit 0 on an "ok_*" result, 1 otherwise — partial and failed cycles both
// exit non-zero, even though partial still fetched and persisted cleanly.
func isSuccess(r pipeline.Result) bool {
	switch r {
	case pipeline.ResultOKNoChanges, pipeline.ResultOKChanges:
		return true
	default:
		return false
	}
}

func errResult(r pipeline.Result) error {
	return &resultError{result: r}
}

type resultError struct{ result pipeline.Result }

func (e *resultError) Error() string { return "pipeline cycle failed: " + string(e.result) }

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

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

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/suckerfish/gradewatch/internal/differ"
	"github.com/suckerfish/gradewatch/internal/journal"
	"github.com/suckerfish/gradewatch/internal/model"
	"github.com/suckerfish/gradewatch/internal/notify"
	"github.com/suckerfish/gradewatch/internal/store"
)

// Fetcher is the sole external collaborator boundary: it returns a fully
// built Snapshot of the live grade state, or an error on any failure
// (transient or permanent alike — spec.md §7 draws no distinction at this
// boundary). Implementations are expected to talk to the remote grade
// service; none ships in this package.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (model.Snapshot, error)
}

// Notifier is the subset of *notify.Manager the orchestrator depends on.
type Notifier interface {
	Dispatch(ctx context.Context, msg notify.Message) map[string]bool
}

// JournalWriter is the subset of *journal.Journal the orchestrator depends
// on.
type JournalWriter interface {
	Append(rec journal.ChangeRecord) error
}

// HealthPinger is the subset of *healthping.Pinger the orchestrator depends
// on.
type HealthPinger interface {
	Ping(ctx context.Context, success bool)
}

// Result is the per-cycle outcome reported to the caller (cmd/gradewatch),
// which uses it to pick the process exit code in single-shot mode.
type Result string

const (
	ResultOKNoChanges   Result = "ok_no_changes"
	ResultOKChanges     Result = "ok_changes"
	ResultFetchFailed   Result = "fetch_failed"
	ResultPersistFailed Result = "persist_failed"
	ResultPartial       Result = "partial"
)

// Retry holds the fetch-retry configuration (spec.md §6 retry.max_attempts,
// retry.delay_ms).
type Retry struct {
	MaxAttempts int
	Delay       time.Duration
}

// Orchestrator wires together every collaborator a cycle needs. All fields
// are required except Health, which may be nil (equivalent to a no-op
// pinger) when no healthcheck.url is configured.
type Orchestrator struct {
	Log     *slog.Logger
	Fetcher Fetcher
	Store   store.Store
	Notify  Notifier
	Journal JournalWriter
	Health  HealthPinger
	Retry   Retry
}

// RunCycle executes exactly one pipeline cycle (spec.md §4.G) and returns
// its Result. It never returns an error: every failure is logged and folded
// into the Result instead, since nothing downstream of RunCycle (the
// scheduler) needs more than that to decide what to do next.
func (o *Orchestrator) RunCycle(ctx context.Context) Result {
	snapshot, err := o.fetchWithRetry(ctx)
	if err != nil {
		o.Log.ErrorContext(ctx, "pipeline: fetch failed after retries", "error", err)
		o.notifyFetchFailure(ctx, err)
		o.appendJournal(ctx, journal.NewErrorRecord(time.Now().UTC(), err.Error()))
		o.ping(ctx, false)

		return ResultFetchFailed
	}

	report := differ.Run(ctx, o.Log, o.Store, snapshot)

	notifyFailed := false
	notified := map[string]bool{}
	if !report.IsInitial && !report.Empty() {
		notified = o.Notify.Dispatch(ctx, changeMessage(report))
		for _, ok := range notified {
			if !ok {
				notifyFailed = true
			}
		}
	}

	// Only a non-empty report gets journaled: cold-start and no-op cycles
	// carry nothing worth auditing, per spec.md §4.D and seed scenario 2.
	journalFailed := false
	if !report.Empty() {
		journalFailed = o.appendJournal(ctx, journal.NewChangeRecord(report, notified))
	}

	persistErr := o.Store.ReplaceAll(ctx, snapshot)
	if persistErr != nil {
		o.Log.ErrorContext(ctx, "pipeline: persist failed, next cycle will re-diff against stale state",
			"error", persistErr)
	}

	o.ping(ctx, persistErr == nil)

	switch {
	case persistErr != nil:
		return ResultPersistFailed
	case notifyFailed || journalFailed:
		return ResultPartial
	case report.IsInitial || report.Empty():
		return ResultOKNoChanges
	default:
		return ResultOKChanges
	}
}

// fetchWithRetry calls Fetcher.FetchSnapshot, retrying up to Retry.MaxAttempts
// times with a fixed Retry.Delay between attempts.
func (o *Orchestrator) fetchWithRetry(ctx context.Context) (model.Snapshot, error) {
	var snapshot model.Snapshot

	attempts := o.Retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	attempt := 0
	operation := func() error {
		attempt++
		var err error
		snapshot, err = o.Fetcher.FetchSnapshot(ctx)
		if err != nil {
			o.Log.WarnContext(ctx, "pipeline: fetch attempt failed", "attempt", attempt, "error", err)
		}

		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(o.Retry.Delay), uint64(attempts-1)),
		ctx,
	)

	if err := backoff.Retry(operation, policy); err != nil {
		return model.Snapshot{}, fmt.Errorf("pipeline: all %d fetch attempts failed: %w", attempts, err)
	}

	return snapshot, nil
}

// notifyFetchFailure sends the distinguished "Pipeline error" message
// (spec.md §7) on a best-effort basis. A failure here is logged, not
// propagated: a notification problem must never mask the underlying fetch
// failure already being reported.
func (o *Orchestrator) notifyFetchFailure(ctx context.Context, fetchErr error) {
	msg := notify.Message{
		Title:    "Pipeline error",
		Content:  fmt.Sprintf("fetch failed after %d attempt(s): %s", o.Retry.MaxAttempts, fetchErr),
		Priority: notify.PriorityHigh,
	}

	for name, ok := range o.Notify.Dispatch(ctx, msg) {
		if !ok {
			o.Log.WarnContext(ctx, "pipeline: fetch-failure notification did not reach provider", "provider", name)
		}
	}
}

// appendJournal writes rec and reports whether the write failed. Per
// spec.md §7 this is always logged and swallowed; the caller only uses the
// boolean to decide between ok_changes and partial.
func (o *Orchestrator) appendJournal(ctx context.Context, rec journal.ChangeRecord) bool {
	if err := o.Journal.Append(rec); err != nil {
		o.Log.WarnContext(ctx, "pipeline: journal write failed", "error", err)

		return true
	}

	return false
}

// ping invokes Health.Ping if a pinger is configured.
func (o *Orchestrator) ping(ctx context.Context, success bool) {
	if o.Health == nil {
		return
	}
	o.Health.Ping(ctx, success)
}

// changeMessage builds the mandatory "Changes detected" notification
// (spec.md §4.G step 3).
func changeMessage(report differ.ChangeReport) notify.Message {
	return notify.Message{
		Title:    "Changes detected",
		Content:  differ.FormatReport(report),
		Priority: notify.PriorityNormal,
		Metadata: map[string]string{
			"new_assignments": fmt.Sprintf("%d", report.Counts.NewAssignments),
			"grade_updates":    fmt.Sprintf("%d", report.Counts.GradeUpdates),
			"comment_updates":  fmt.Sprintf("%d", report.Counts.CommentUpdates),
		},
	}
}

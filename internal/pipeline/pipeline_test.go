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
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/suckerfish/gradewatch/internal/journal"
	"github.com/suckerfish/gradewatch/internal/model"
	"github.com/suckerfish/gradewatch/internal/notify"
	"github.com/suckerfish/gradewatch/internal/store"
)

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFetcher fails its first failTimes calls and returns snapshot on every
// later call, so tests can exercise the retry loop deterministically.
type fakeFetcher struct {
	calls     int
	failTimes int
	snapshot  model.Snapshot
}

func (f *fakeFetcher) FetchSnapshot(context.Context) (model.Snapshot, error) {
	f.calls++
	if f.calls <= f.failTimes {
		return model.Snapshot{}, errors.New("fetch boom")
	}

	return f.snapshot, nil
}

// fakeStore is a minimal store.Store double: empty until ReplaceAll is
// called, after which LatestTimestamp reports a snapshot present.
type fakeStore struct {
	hasSnapshot bool
	replaced    []model.Snapshot
	failReplace bool
}

func (f *fakeStore) LatestTimestamp(context.Context) (time.Time, bool, error) {
	return time.Time{}, f.hasSnapshot, nil
}

func (f *fakeStore) GetAssignment(context.Context, string) (model.Assignment, store.CategoryContext, bool, error) {
	return model.Assignment{}, store.CategoryContext{}, false, nil
}

func (f *fakeStore) GetCategory(context.Context, string, string) (model.Category, bool, error) {
	return model.Category{}, false, nil
}

func (f *fakeStore) IterAssignments(context.Context, func(model.Assignment, store.CategoryContext) error) error {
	return nil
}

func (f *fakeStore) ReplaceAll(_ context.Context, snapshot model.Snapshot) error {
	if f.failReplace {
		return errors.New("persist boom")
	}
	f.replaced = append(f.replaced, snapshot)
	f.hasSnapshot = true

	return nil
}

func (f *fakeStore) ClearAll(context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }

// fakeNotifier records every dispatched message and returns a scripted
// per-provider result map.
type fakeNotifier struct {
	dispatched []notify.Message
	result     map[string]bool
}

func (f *fakeNotifier) Dispatch(_ context.Context, msg notify.Message) map[string]bool {
	f.dispatched = append(f.dispatched, msg)
	if f.result == nil {
		return map[string]bool{"console": true}
	}

	return f.result
}

// fakeJournal records appended records; while failErr is set, every Append
// fails with it.
type fakeJournal struct {
	records []journal.ChangeRecord
	failErr error
}

func (f *fakeJournal) Append(rec journal.ChangeRecord) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.records = append(f.records, rec)

	return nil
}

// fakeHealth records every ping's success argument.
type fakeHealth struct {
	pings []bool
}

func (f *fakeHealth) Ping(_ context.Context, success bool) {
	f.pings = append(f.pings, success)
}

func snapshotWithOneGradedAssignment(ts time.Time, earned, max string) model.Snapshot {
	e, _ := model.ParseOptionalDecimal(earned)
	m, _ := model.ParseOptionalDecimal(max)

	return model.Snapshot{
		Timestamp: ts,
		Sections: []model.Section{{
			SectionID: "sec1",
			Periods: []model.Period{{
				PeriodID: "per1",
				Categories: []model.Category{{
					CategoryID: "cat1",
					Assignments: []model.Assignment{{
						AssignmentID: "a1",
						Title:        "Homework 1",
						EarnedPoints: e,
						MaxPoints:    m,
					}},
				}},
			}},
		}},
	}
}

func TestRunCycleFetchFailsAfterAllRetriesReturnsFetchFailed(t *testing.T) {
	fetcher := &fakeFetcher{failTimes: 99}
	st := &fakeStore{}
	nf := &fakeNotifier{}
	jr := &fakeJournal{}
	hp := &fakeHealth{}

	o := &Orchestrator{
		Log: discardLog(), Fetcher: fetcher, Store: st, Notify: nf, Journal: jr, Health: hp,
		Retry: Retry{MaxAttempts: 3, Delay: time.Millisecond},
	}

	got := o.RunCycle(context.Background())
	if got != ResultFetchFailed {
		t.Fatalf("RunCycle() = %v, want %v", got, ResultFetchFailed)
	}
	if fetcher.calls != 3 {
		t.Errorf("fetch calls = %d, want 3", fetcher.calls)
	}
	if len(nf.dispatched) != 1 || nf.dispatched[0].Title != "Pipeline error" {
		t.Errorf("dispatched = %+v, want one Pipeline error message", nf.dispatched)
	}
	if len(jr.records) != 1 || !jr.records[0].IsError {
		t.Errorf("journal records = %+v, want one is_error record", jr.records)
	}
	if len(hp.pings) != 1 || hp.pings[0] != false {
		t.Errorf("pings = %v, want [false]", hp.pings)
	}
	if len(st.replaced) != 0 {
		t.Errorf("store was persisted to on a fetch failure")
	}
}

func TestRunCycleFetchSucceedsAfterRetry(t *testing.T) {
	fetcher := &fakeFetcher{failTimes: 2, snapshot: snapshotWithOneGradedAssignment(time.Now(), "5", "5")}
	st := &fakeStore{}
	o := &Orchestrator{
		Log: discardLog(), Fetcher: fetcher, Store: st, Notify: &fakeNotifier{}, Journal: &fakeJournal{},
		Retry: Retry{MaxAttempts: 3, Delay: time.Millisecond},
	}

	got := o.RunCycle(context.Background())
	if got != ResultOKNoChanges {
		t.Fatalf("RunCycle() = %v, want %v (cold start persists but reports no changes)", got, ResultOKNoChanges)
	}
	if fetcher.calls != 3 {
		t.Errorf("fetch calls = %d, want 3", fetcher.calls)
	}
	if len(st.replaced) != 1 {
		t.Errorf("store.ReplaceAll called %d times, want 1", len(st.replaced))
	}
}

func TestRunCycleColdStartDoesNotNotify(t *testing.T) {
	fetcher := &fakeFetcher{snapshot: snapshotWithOneGradedAssignment(time.Now(), "5", "5")}
	nf := &fakeNotifier{}
	o := &Orchestrator{
		Log: discardLog(), Fetcher: fetcher, Store: &fakeStore{}, Notify: nf, Journal: &fakeJournal{},
		Retry: Retry{MaxAttempts: 1, Delay: time.Millisecond},
	}

	if got := o.RunCycle(context.Background()); got != ResultOKNoChanges {
		t.Fatalf("RunCycle() = %v, want %v", got, ResultOKNoChanges)
	}
	if len(nf.dispatched) != 0 {
		t.Errorf("dispatched = %+v, want none on a cold-start cycle", nf.dispatched)
	}
}

func TestRunCycleDetectsChangeAndNotifies(t *testing.T) {
	earlier := time.Now().Add(-time.Hour)
	st := &fakeStore{}
	// Seed the store via a first cycle so it reports a prior snapshot. The
	// fake keeps no assignments, so the second cycle reports a1 as new.
	seed := &Orchestrator{
		Log:     discardLog(),
		Fetcher: &fakeFetcher{snapshot: snapshotWithOneGradedAssignment(earlier, "5", "5")},
		Store:   st, Notify: &fakeNotifier{}, Journal: &fakeJournal{},
		Retry: Retry{MaxAttempts: 1, Delay: time.Millisecond},
	}
	seed.RunCycle(context.Background())

	nf := &fakeNotifier{}
	jr := &fakeJournal{}
	o := &Orchestrator{
		Log:     discardLog(),
		Fetcher: &fakeFetcher{snapshot: snapshotWithOneGradedAssignment(time.Now(), "4", "5")},
		Store:   st, Notify: nf, Journal: jr,
		Retry: Retry{MaxAttempts: 1, Delay: time.Millisecond},
	}

	got := o.RunCycle(context.Background())
	if got != ResultOKChanges {
		t.Fatalf("RunCycle() = %v, want %v", got, ResultOKChanges)
	}
	if len(nf.dispatched) != 1 || nf.dispatched[0].Title != "Changes detected" {
		t.Fatalf("dispatched = %+v, want one Changes detected message", nf.dispatched)
	}
	if len(jr.records) != 1 || jr.records[0].IsInitial {
		t.Errorf("journal records = %+v, want one non-initial record", jr.records)
	}
}

func TestRunCyclePersistFailureReportsPersistFailed(t *testing.T) {
	st := &fakeStore{failReplace: true}
	o := &Orchestrator{
		Log:     discardLog(),
		Fetcher: &fakeFetcher{snapshot: snapshotWithOneGradedAssignment(time.Now(), "5", "5")},
		Store:   st, Notify: &fakeNotifier{}, Journal: &fakeJournal{},
		Retry: Retry{MaxAttempts: 1, Delay: time.Millisecond},
	}

	if got := o.RunCycle(context.Background()); got != ResultPersistFailed {
		t.Fatalf("RunCycle() = %v, want %v", got, ResultPersistFailed)
	}
}

func TestRunCycleJournalFailureYieldsPartialNotPersistFailed(t *testing.T) {
	earlier := time.Now().Add(-time.Hour)
	st := &fakeStore{}
	seed := &Orchestrator{
		Log:     discardLog(),
		Fetcher: &fakeFetcher{snapshot: snapshotWithOneGradedAssignment(earlier, "5", "5")},
		Store:   st, Notify: &fakeNotifier{}, Journal: &fakeJournal{},
		Retry: Retry{MaxAttempts: 1, Delay: time.Millisecond},
	}
	seed.RunCycle(context.Background())

	o := &Orchestrator{
		Log:     discardLog(),
		Fetcher: &fakeFetcher{snapshot: snapshotWithOneGradedAssignment(time.Now(), "4", "5")},
		Store:   st, Notify: &fakeNotifier{}, Journal: &fakeJournal{failErr: errors.New("disk full")},
		Retry: Retry{MaxAttempts: 1, Delay: time.Millisecond},
	}

	if got := o.RunCycle(context.Background()); got != ResultPartial {
		t.Fatalf("RunCycle() = %v, want %v", got, ResultPartial)
	}
	// persist must still have happened despite the journal failure.
	if len(st.replaced) != 2 {
		t.Errorf("store.ReplaceAll called %d times, want 2", len(st.replaced))
	}
}

func TestRunCycleNotifyFailureYieldsPartial(t *testing.T) {
	earlier := time.Now().Add(-time.Hour)
	st := &fakeStore{}
	seed := &Orchestrator{
		Log:     discardLog(),
		Fetcher: &fakeFetcher{snapshot: snapshotWithOneGradedAssignment(earlier, "5", "5")},
		Store:   st, Notify: &fakeNotifier{}, Journal: &fakeJournal{},
		Retry: Retry{MaxAttempts: 1, Delay: time.Millisecond},
	}
	seed.RunCycle(context.Background())

	o := &Orchestrator{
		Log:     discardLog(),
		Fetcher: &fakeFetcher{snapshot: snapshotWithOneGradedAssignment(time.Now(), "4", "5")},
		Store:   st, Notify: &fakeNotifier{result: map[string]bool{"console": false}}, Journal: &fakeJournal{},
		Retry: Retry{MaxAttempts: 1, Delay: time.Millisecond},
	}

	if got := o.RunCycle(context.Background()); got != ResultPartial {
		t.Fatalf("RunCycle() = %v, want %v", got, ResultPartial)
	}
}

func TestRunCycleHealthPingReflectsPersistOutcome(t *testing.T) {
	hp := &fakeHealth{}
	o := &Orchestrator{
		Log:     discardLog(),
		Fetcher: &fakeFetcher{snapshot: snapshotWithOneGradedAssignment(time.Now(), "5", "5")},
		Store:   &fakeStore{}, Notify: &fakeNotifier{}, Journal: &fakeJournal{}, Health: hp,
		Retry: Retry{MaxAttempts: 1, Delay: time.Millisecond},
	}
	o.RunCycle(context.Background())

	if len(hp.pings) != 1 || hp.pings[0] != true {
		t.Errorf("pings = %v, want [true]", hp.pings)
	}
}

func TestRunCycleNilHealthIsNoOp(t *testing.T) {
	o := &Orchestrator{
		Log:     discardLog(),
		Fetcher: &fakeFetcher{snapshot: snapshotWithOneGradedAssignment(time.Now(), "5", "5")},
		Store:   &fakeStore{}, Notify: &fakeNotifier{}, Journal: &fakeJournal{},
		Retry: Retry{MaxAttempts: 1, Delay: time.Millisecond},
	}
	// Must not panic with Health left nil.
	o.RunCycle(context.Background())
}

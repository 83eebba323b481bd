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

package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/suckerfish/gradewatch/internal/differ"
)

func openTestJournal(t *testing.T, retention time.Duration) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.bin")
	j, err := Open(path, retention)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := j.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})

	return j
}

func TestJournalAppendAndReadAll(t *testing.T) {
	j := openTestJournal(t, 0)

	rec1 := NewChangeRecord(differ.ChangeReport{
		Timestamp: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		Counts:    differ.Counts{GradeUpdates: 1},
		Changes:   []differ.Change{{Type: differ.ChangeGradeUpdated, AssignmentID: "100"}},
	}, map[string]bool{"webhook": true})

	rec2 := NewErrorRecord(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), "fetch failed: timeout")

	if err := j.Append(rec1); err != nil {
		t.Fatalf("Append rec1: %v", err)
	}
	if err := j.Append(rec2); err != nil {
		t.Fatalf("Append rec2: %v", err)
	}

	got, err := j.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadAll returned %d records, want 2", len(got))
	}
	if got[0].ID != rec1.ID || got[1].ID != rec2.ID {
		t.Errorf("record order/IDs mismatch: got %+v", got)
	}
	if !got[1].IsError || got[1].ErrorText != "fetch failed: timeout" {
		t.Errorf("error record mismatch: %+v", got[1])
	}
}

func TestJournalPruneDropsOldRecordsOnly(t *testing.T) {
	j := openTestJournal(t, 0)

	old := NewChangeRecord(differ.ChangeReport{Timestamp: time.Now().Add(-200 * 24 * time.Hour)}, nil)
	recent := NewChangeRecord(differ.ChangeReport{Timestamp: time.Now()}, nil)

	if err := j.Append(old); err != nil {
		t.Fatalf("Append old: %v", err)
	}
	if err := j.Append(recent); err != nil {
		t.Fatalf("Append recent: %v", err)
	}

	if err := j.Prune(time.Now().Add(-90 * 24 * time.Hour)); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	got, err := j.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 1 || got[0].ID != recent.ID {
		t.Fatalf("after prune = %+v, want only the recent record", got)
	}
}

func TestOpenPrunesOnStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.bin")

	j, err := Open(path, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	old := NewChangeRecord(differ.ChangeReport{Timestamp: time.Now().Add(-200 * 24 * time.Hour)}, nil)
	if err := j.Append(old); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	j2, err := Open(path, 90*24*time.Hour)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() {
		if err := j2.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})

	got, err := j2.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadAll after retention-pruning reopen = %d records, want 0", len(got))
	}
}

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

// Package journal is the append-only audit sink for gradewatch pipeline
// cycles (spec.md §4.D). Every non-empty ChangeReport, plus one distinguished
// entry for a final fetch failure, gets exactly one Record. Records are
// never rewritten in place; the only mutation Prune performs is dropping
// whole records past the retention horizon.
//
// Writing the journal must never fail a pipeline cycle: callers are expected
// to log and swallow any error this package returns, per spec.md §7.
package journal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/suckerfish/gradewatch/internal/differ"
	"github.com/vmihailenco/msgpack/v5"
)

// ChangeRecord is one journal entry: a ChangeReport plus the per-provider
// notification outcome the orchestrator learns only after the notify step.
type ChangeRecord struct {
	ID        string            `msgpack:"id"`
	Timestamp time.Time         `msgpack:"timestamp"`
	IsInitial bool              `msgpack:"is_initial"`
	IsError   bool              `msgpack:"is_error"`
	Summary   string            `msgpack:"summary"`
	Counts    differ.Counts     `msgpack:"counts"`
	Changes   []differ.Change   `msgpack:"changes"`
	Notified  map[string]bool   `msgpack:"notified"`
	ErrorText string            `msgpack:"error_text,omitempty"`
}

// NewChangeRecord builds a record from a ChangeReport and its notification
// results. Call site owns assigning Notified after the notify step runs.
func NewChangeRecord(report differ.ChangeReport, notified map[string]bool) ChangeRecord {
	return ChangeRecord{
		ID:        uuid.NewString(),
		Timestamp: report.Timestamp,
		IsInitial: report.IsInitial,
		Summary:   differ.Summary(report.Counts),
		Counts:    report.Counts,
		Changes:   report.Changes,
		Notified:  notified,
	}
}

// NewErrorRecord builds the distinguished journal entry for a final fetch
// failure: is_initial=false, zero changes, per spec.md §6.
func NewErrorRecord(at time.Time, errText string) ChangeRecord {
	return ChangeRecord{
		ID:        uuid.NewString(),
		Timestamp: at,
		IsError:   true,
		ErrorText: errText,
	}
}

// Journal is a single append-only file of length-prefixed msgpack records,
// one per line in spirit (each record is self-delimiting via its length
// prefix, so no record's bytes can ever be mistaken for a line break).
type Journal struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// Open opens (creating if absent) the journal at path and prunes any record
// older than retention. A non-positive retention disables pruning.
func Open(path string, retention time.Duration) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}

	j := &Journal{path: path, file: f}

	if retention > 0 {
		if err := j.prune(time.Now().Add(-retention)); err != nil {
			_ = f.Close()

			return nil, fmt.Errorf("journal: prune on open: %w", err)
		}
	}

	return j, nil
}

// Append writes one record to the end of the journal.
func (j *Journal) Append(rec ChangeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	payload, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("journal: encode record: %w", err)
	}

	if _, err := j.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("journal: seek end: %w", err)
	}

	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(payload)))

	if _, err := j.file.Write(lenPrefix[:]); err != nil {
		return fmt.Errorf("journal: write length prefix: %w", err)
	}
	if _, err := j.file.Write(payload); err != nil {
		return fmt.Errorf("journal: write record: %w", err)
	}

	return j.file.Sync()
}

// ReadAll returns every record currently in the journal, oldest first.
// Intended for operator tooling and tests, not the hot path.
func (j *Journal) ReadAll() ([]ChangeRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("journal: seek start: %w", err)
	}

	return readRecords(bufio.NewReader(j.file))
}

// Prune rewrites the journal keeping only records with Timestamp >= cutoff.
func (j *Journal) Prune(cutoff time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.prune(cutoff)
}

// prune assumes the caller already holds j.mu.
func (j *Journal) prune(cutoff time.Time) error {
	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek start: %w", err)
	}

	records, err := readRecords(bufio.NewReader(j.file))
	if err != nil {
		return fmt.Errorf("read existing records: %w", err)
	}

	var kept []ChangeRecord
	for _, r := range records {
		if !r.Timestamp.Before(cutoff) {
			kept = append(kept, r)
		}
	}

	if len(kept) == len(records) {
		return nil
	}

	tmpPath := j.path + ".tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open scratch file: %w", err)
	}

	for _, r := range kept {
		payload, err := msgpack.Marshal(r)
		if err != nil {
			_ = tmp.Close()

			return fmt.Errorf("encode record %s: %w", r.ID, err)
		}

		var lenPrefix [4]byte
		binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(payload)))

		if _, err := tmp.Write(lenPrefix[:]); err != nil {
			_ = tmp.Close()

			return fmt.Errorf("write length prefix: %w", err)
		}
		if _, err := tmp.Write(payload); err != nil {
			_ = tmp.Close()

			return fmt.Errorf("write record: %w", err)
		}
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("sync scratch file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close scratch file: %w", err)
	}
	if err := j.file.Close(); err != nil {
		return fmt.Errorf("close old file: %w", err)
	}
	if err := os.Rename(tmpPath, j.path); err != nil {
		return fmt.Errorf("rename scratch file into place: %w", err)
	}

	f, err := os.OpenFile(j.path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("reopen journal: %w", err)
	}
	j.file = f

	return nil
}

// Close flushes and releases the journal's file handle.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.file.Close()
}

func readRecords(r *bufio.Reader) ([]ChangeRecord, error) {
	var records []ChangeRecord

	for {
		var lenPrefix [4]byte
		if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return nil, fmt.Errorf("read length prefix: %w", err)
		}

		n := binary.BigEndian.Uint32(lenPrefix[:])
		payload := make([]byte, n)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("read record body: %w", err)
		}

		var rec ChangeRecord
		if err := msgpack.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}

		records = append(records, rec)
	}

	return records, nil
}

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

// Package store defines the durable, ID-keyed storage contract for the
// current grade snapshot (spec.md §4.B). The differ queries it read-only;
// the pipeline orchestrator is the sole writer, replacing the whole snapshot
// atomically once per cycle.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/suckerfish/gradewatch/internal/model"
)

// ErrNotFound names the "no matching row" condition. No Store method returns
// it: every lookup reports a missing row as (zero, false, nil), reserving
// errors for actual I/O failure.
var ErrNotFound = errors.New("store: not found")

// CategoryContext is the category/period identification returned alongside
// an assignment lookup, without pulling the full assignment list for that
// category.
type CategoryContext struct {
	CategoryID string
	PeriodID   string
	Name       string
	Weight     model.OptionalDecimal
}

// Store is the public contract in spec.md §4.B. Implementations must
// guarantee that replace_all is atomic: either the whole new snapshot is
// visible after return, or the old one remains.
type Store interface {
	// LatestTimestamp returns the observation timestamp of the current
	// snapshot, or (zero, false) if the store has never been populated.
	LatestTimestamp(ctx context.Context) (time.Time, bool, error)

	// GetAssignment returns the stored assignment plus its owning category
	// context, or (zero, zero, false) if no such assignment is stored.
	GetAssignment(ctx context.Context, assignmentID string) (model.Assignment, CategoryContext, bool, error)

	// GetCategory returns the stored category (without its assignments), or
	// (zero, false) if no such category is stored.
	GetCategory(ctx context.Context, categoryID, periodID string) (model.Category, bool, error)

	// IterAssignments calls yield once per stored assignment. Returning a
	// non-nil error from yield stops iteration and is propagated.
	IterAssignments(ctx context.Context, yield func(model.Assignment, CategoryContext) error) error

	// ReplaceAll atomically replaces the entire persisted snapshot.
	ReplaceAll(ctx context.Context, snapshot model.Snapshot) error

	// ClearAll wipes every row including the observation-timestamp
	// metadata. Test-only per spec.md §4.B.
	ClearAll(ctx context.Context) error

	// Close releases any resources (file handles, locks) held by the store.
	Close() error
}

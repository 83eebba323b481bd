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

package differ

import "time"

// ChangeType identifies the kind of edit a Change record describes.
type ChangeType string

const (
	ChangeNewAssignment   ChangeType = "new_assignment"
	ChangeGradeUpdated    ChangeType = "grade_updated"
	ChangeExceptionUpdate ChangeType = "exception_updated"
	ChangeCommentUpdated  ChangeType = "comment_updated"
)

// Change is one reportable edit to a single assignment, with enough path
// context (section/period/category titles and IDs) that a journal reader or
// notification recipient doesn't need to cross-reference the store.
type Change struct {
	Type ChangeType

	SectionID    string
	SectionTitle string
	PeriodID     string
	PeriodName   string
	CategoryID   string
	CategoryName string

	AssignmentID    string
	AssignmentTitle string

	Old string
	New string
}

// Counts tallies the changes in a ChangeReport by type, excluding deletions
// (which are never reported at all).
type Counts struct {
	NewAssignments  int
	GradeUpdates    int
	CommentUpdates  int
}

// Total reports the number of changes represented by the counts.
func (c Counts) Total() int {
	return c.NewAssignments + c.GradeUpdates + c.CommentUpdates
}

// ChangeReport is the Differ's sole output: the complete, ordered set of
// edits between the store's current snapshot and a newly fetched one.
type ChangeReport struct {
	Timestamp time.Time
	Changes   []Change
	Counts    Counts

	// IsInitial is true when the store had no prior snapshot to compare
	// against, or when comparison failed and the cycle fails safe.
	IsInitial bool
}

// Empty reports whether the report carries no changes at all. An initial
// report is always empty; a non-initial report with zero changes (a no-op
// cycle) is also empty for the purposes of notification and journaling.
func (r ChangeReport) Empty() bool {
	return len(r.Changes) == 0
}

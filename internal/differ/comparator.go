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

import (
	"github.com/suckerfish/gradewatch/internal/model"
)

// assignmentPath carries the section/period/category context a Change needs
// alongside the assignment itself, so compareAssignment stays a pure
// function of its inputs rather than reaching back into the store.
type assignmentPath struct {
	SectionID, SectionTitle string
	PeriodID, PeriodName    string
	CategoryID, CategoryName string
}

// compareAssignment decides the single Change, if any, between a
// previously stored assignment and its newly fetched counterpart. oldFound
// is false when the assignment has no stored counterpart at all (a
// cold-start or brand-new row); a nil is never used for "absent" because
// model.Assignment's zero value is a legitimate, if degenerate, assignment.
func compareAssignment(path assignmentPath, oldAssignment model.Assignment, oldFound bool, newAssignment model.Assignment) (Change, bool) {
	base := Change{
		SectionID:       path.SectionID,
		SectionTitle:    path.SectionTitle,
		PeriodID:        path.PeriodID,
		PeriodName:      path.PeriodName,
		CategoryID:      path.CategoryID,
		CategoryName:    path.CategoryName,
		AssignmentID:    newAssignment.AssignmentID,
		AssignmentTitle: newAssignment.Title,
	}

	if !oldFound {
		base.Type = ChangeNewAssignment
		base.Old = "—"
		base.New = model.FormatGrade(newAssignment)

		return base, true
	}

	if oldAssignment.Exception != newAssignment.Exception {
		base.Type = ChangeExceptionUpdate
		base.Old = oldAssignment.Exception.String()
		base.New = newAssignment.Exception.String()

		return base, true
	}

	if !model.AssignmentsGradeEqual(oldAssignment, newAssignment) {
		base.Type = ChangeGradeUpdated
		base.Old = model.FormatGrade(oldAssignment)
		base.New = model.FormatGrade(newAssignment)

		return base, true
	}

	if !model.AssignmentsCommentEquivalent(oldAssignment, newAssignment) &&
		model.IsSubstantiveCommentChange(oldAssignment.Comment, newAssignment.Comment) {
		base.Type = ChangeCommentUpdated
		base.Old = oldAssignment.Comment
		base.New = newAssignment.Comment

		return base, true
	}

	return Change{}, false
}

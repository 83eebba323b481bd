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

package model

import "strings"

// noCommentSentinels is the minimal, documented set of strings that are
// equivalent to "no comment" once normalized. Open Question 1 in spec.md §9
// asks whether to widen this set ("—", "n/a"); DESIGN.md records the decision
// to keep it minimal, matching only what spec.md §3 names explicitly.
var noCommentSentinels = map[string]bool{
	"":           true,
	"no comment": true,
}

// NormalizeComment lowercases, trims, and collapses the documented "no
// comment" sentinels to the empty string.
func NormalizeComment(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if noCommentSentinels[c] {
		return ""
	}

	return c
}

// AssignmentsGradeEqual reports numeric equality on points and exact
// equality on exception, per spec.md §4.A. Titles are deliberately ignored.
func AssignmentsGradeEqual(a, b Assignment) bool {
	if a.Exception != b.Exception {
		return false
	}

	return a.EarnedPoints.Equal(b.EarnedPoints) && a.MaxPoints.Equal(b.MaxPoints)
}

// AssignmentsCommentEquivalent reports whether two comments normalize to the
// same value. Note this is true when both sides normalize to the empty
// sentinel — callers that care about *substantive* changes must additionally
// check that both sides are non-empty before treating a difference as
// meaningful; see IsSubstantiveCommentChange.
func AssignmentsCommentEquivalent(a, b Assignment) bool {
	return NormalizeComment(a.Comment) == NormalizeComment(b.Comment)
}

// IsSubstantiveCommentChange reports whether the transition from old to new
// is a substantive comment change: both sides normalize to non-empty text,
// and that text differs. A comment appearing where none existed before (or
// vice versa) is not substantive on its own.
func IsSubstantiveCommentChange(oldComment, newComment string) bool {
	o := NormalizeComment(oldComment)
	n := NormalizeComment(newComment)
	if o == "" || n == "" {
		return false
	}

	return o != n
}

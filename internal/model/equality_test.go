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

import "testing"

func mustDecimal(t *testing.T, s string) OptionalDecimal {
	t.Helper()
	d, err := ParseOptionalDecimal(s)
	if err != nil {
		t.Fatalf("ParseOptionalDecimal(%q): %v", s, err)
	}

	return d
}

func TestAssignmentsGradeEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Assignment
		want bool
	}{
		{
			name: "identical",
			a:    Assignment{EarnedPoints: mustDecimal(t, "5"), MaxPoints: mustDecimal(t, "5")},
			b:    Assignment{EarnedPoints: mustDecimal(t, "5"), MaxPoints: mustDecimal(t, "5")},
			want: true,
		},
		{
			name: "formatting drift is still equal",
			a:    Assignment{EarnedPoints: mustDecimal(t, "5"), MaxPoints: mustDecimal(t, "5")},
			b:    Assignment{EarnedPoints: mustDecimal(t, "5.00"), MaxPoints: mustDecimal(t, "5.0")},
			want: true,
		},
		{
			name: "title differs but grade equal",
			a:    Assignment{Title: "Essay", EarnedPoints: mustDecimal(t, "5"), MaxPoints: mustDecimal(t, "5")},
			b:    Assignment{Title: "Essay Draft 2", EarnedPoints: mustDecimal(t, "5"), MaxPoints: mustDecimal(t, "5")},
			want: true,
		},
		{
			name: "earned differs",
			a:    Assignment{EarnedPoints: mustDecimal(t, "5"), MaxPoints: mustDecimal(t, "5")},
			b:    Assignment{EarnedPoints: mustDecimal(t, "4"), MaxPoints: mustDecimal(t, "5")},
			want: false,
		},
		{
			name: "exception differs",
			a:    Assignment{Exception: ExceptionNone},
			b:    Assignment{Exception: ExceptionMissing},
			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := AssignmentsGradeEqual(tc.a, tc.b); got != tc.want {
				t.Errorf("AssignmentsGradeEqual() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsSubstantiveCommentChange(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
		want     bool
	}{
		{name: "empty to empty", old: "", new: "No comment", want: false},
		{name: "empty to text is not substantive", old: "", new: "great work", want: false},
		{name: "text to empty is not substantive", old: "great work", new: "", want: false},
		{name: "case-insensitive no comment", old: "NO COMMENT", new: "", want: false},
		{name: "text changes to different text", old: "great work", new: "needs revision", want: true},
		{name: "same text different casing is not substantive", old: "Great Work", new: "great work", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsSubstantiveCommentChange(tc.old, tc.new); got != tc.want {
				t.Errorf("IsSubstantiveCommentChange(%q, %q) = %v, want %v", tc.old, tc.new, got, tc.want)
			}
		})
	}
}

func TestAssignmentIsGraded(t *testing.T) {
	tests := []struct {
		name string
		a    Assignment
		want bool
	}{
		{
			name: "points present and positive max",
			a:    Assignment{EarnedPoints: mustDecimal(t, "5"), MaxPoints: mustDecimal(t, "5")},
			want: true,
		},
		{
			name: "max points zero is ungraded",
			a:    Assignment{EarnedPoints: mustDecimal(t, "0"), MaxPoints: mustDecimal(t, "0")},
			want: false,
		},
		{
			name: "missing exception with absent points is graded",
			a:    Assignment{Exception: ExceptionMissing},
			want: true,
		},
		{
			name: "no points and no exception is ungraded",
			a:    Assignment{},
			want: false,
		},
		{
			name: "earned present but max absent is ungraded",
			a:    Assignment{EarnedPoints: mustDecimal(t, "5")},
			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.IsGraded(); got != tc.want {
				t.Errorf("IsGraded() = %v, want %v", got, tc.want)
			}
		})
	}
}

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

package boltstore

import (
	"time"

	"github.com/suckerfish/gradewatch/internal/model"
)

// Row types mirror the logical schema in spec.md §4.B exactly: one type per
// table. Decimals and instants are carried as strings so the wire encoding
// (msgpack) never has to know about decimal.Decimal's own binary form,
// guaranteeing the round-trip-equality requirement the spec places on
// numeric fields: decimal.NewFromString is exact, so "5" decoded back out
// compares equal to "5" encoded in, with no float conversion anywhere on the
// path.
type metaRow struct {
	TimestampUnixNano int64 `msgpack:"ts"`
}

type sectionRow struct {
	CourseTitle  string `msgpack:"course_title"`
	SectionTitle string `msgpack:"section_title"`
}

type periodRow struct {
	SectionID string `msgpack:"section_id"`
	Name      string `msgpack:"name"`
}

type categoryRow struct {
	PeriodID    string `msgpack:"period_id"`
	Name        string `msgpack:"name"`
	WeightValid bool   `msgpack:"weight_valid"`
	Weight      string `msgpack:"weight"`
}

type assignmentRow struct {
	CategoryID        string `msgpack:"category_id"`
	PeriodID          string `msgpack:"period_id"`
	Title             string `msgpack:"title"`
	EarnedValid       bool   `msgpack:"earned_valid"`
	Earned            string `msgpack:"earned"`
	MaxValid          bool   `msgpack:"max_valid"`
	Max               string `msgpack:"max"`
	Exception         int    `msgpack:"exception"`
	Comment           string `msgpack:"comment"`
	DueDateValid      bool   `msgpack:"due_date_valid"`
	DueDateUnixNano   int64  `msgpack:"due_date"`
}

func decimalToRow(d model.OptionalDecimal) (valid bool, value string) {
	if !d.Valid {
		return false, ""
	}

	return true, d.Value.String()
}

func rowToDecimal(valid bool, value string) (model.OptionalDecimal, error) {
	if !valid {
		return model.NoDecimal, nil
	}

	return model.ParseOptionalDecimal(value)
}

func timeToRow(t model.OptionalTime) (valid bool, unixNano int64) {
	if !t.Valid {
		return false, 0
	}

	return true, t.Value.UTC().UnixNano()
}

func rowToTime(valid bool, unixNano int64) model.OptionalTime {
	if !valid {
		return model.OptionalTime{}
	}

	return model.SomeTime(time.Unix(0, unixNano).UTC())
}

func newAssignmentRow(categoryID, periodID string, a model.Assignment) (assignmentRow, error) {
	earnedValid, earned := decimalToRow(a.EarnedPoints)
	maxValid, maxV := decimalToRow(a.MaxPoints)
	dueValid, dueNano := timeToRow(a.DueDate)

	return assignmentRow{
		CategoryID:      categoryID,
		PeriodID:        periodID,
		Title:           a.Title,
		EarnedValid:     earnedValid,
		Earned:          earned,
		MaxValid:        maxValid,
		Max:             maxV,
		Exception:       int(a.Exception),
		Comment:         a.Comment,
		DueDateValid:    dueValid,
		DueDateUnixNano: dueNano,
	}, nil
}

func (r assignmentRow) toAssignment(assignmentID string) (model.Assignment, error) {
	earned, err := rowToDecimal(r.EarnedValid, r.Earned)
	if err != nil {
		return model.Assignment{}, err
	}
	maxPoints, err := rowToDecimal(r.MaxValid, r.Max)
	if err != nil {
		return model.Assignment{}, err
	}

	return model.Assignment{
		AssignmentID: assignmentID,
		Title:        r.Title,
		EarnedPoints: earned,
		MaxPoints:    maxPoints,
		Exception:    model.Exception(r.Exception),
		Comment:      r.Comment,
		DueDate:      rowToTime(r.DueDateValid, r.DueDateUnixNano),
	}, nil
}

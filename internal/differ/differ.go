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
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/suckerfish/gradewatch/internal/model"
	"github.com/suckerfish/gradewatch/internal/store"
)

// Run compares snapshot against the assignments currently held in st and
// returns the resulting ChangeReport. Run never returns an error: any
// failure reading the store degrades the result to an empty, is_initial
// report, per the fail-safe documented in doc.go.
func Run(ctx context.Context, log *slog.Logger, st store.Store, snapshot model.Snapshot) ChangeReport {
	initial := ChangeReport{Timestamp: snapshot.Timestamp, IsInitial: true}

	_, found, err := st.LatestTimestamp(ctx)
	if err != nil {
		log.Warn("differ: reading latest timestamp failed, degrading to initial report", "error", err)

		return initial
	}
	if !found {
		return initial
	}

	report := ChangeReport{Timestamp: snapshot.Timestamp}

	for _, sec := range sortedSections(snapshot.Sections) {
		for _, per := range sortedPeriods(sec.Periods) {
			for _, cat := range sortedCategories(per.Categories) {
				for _, a := range sortedAssignments(cat.Assignments) {
					if !a.IsGraded() {
						continue
					}

					oldAssignment, _, oldFound, err := st.GetAssignment(ctx, a.AssignmentID)
					if err != nil {
						log.Warn("differ: reading stored assignment failed, degrading to initial report",
							"assignment_id", a.AssignmentID, "error", err)

						return initial
					}

					path := assignmentPath{
						SectionID:    sec.SectionID,
						SectionTitle: sec.CourseTitle,
						PeriodID:     per.PeriodID,
						PeriodName:   per.Name,
						CategoryID:   cat.CategoryID,
						CategoryName: cat.Name,
					}

					// A stored assignment only counts as a "prior state" for
					// diffing if it was graded then; an assignment that
					// existed but was ungraded behaves like no prior state
					// at all, so its first graded appearance is reported
					// as new_assignment rather than exception_updated.
					effectiveOldFound := oldFound && oldAssignment.IsGraded()

					change, ok := compareAssignment(path, oldAssignment, effectiveOldFound, a)
					if !ok {
						continue
					}

					switch change.Type {
					case ChangeNewAssignment:
						report.Counts.NewAssignments++
					case ChangeGradeUpdated, ChangeExceptionUpdate:
						report.Counts.GradeUpdates++
					case ChangeCommentUpdated:
						report.Counts.CommentUpdates++
					}

					report.Changes = append(report.Changes, change)
				}
			}
		}
	}

	return report
}

func sortedSections(in []model.Section) []model.Section {
	out := append([]model.Section(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i].SectionID < out[j].SectionID })

	return out
}

func sortedPeriods(in []model.Period) []model.Period {
	out := append([]model.Period(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodID < out[j].PeriodID })

	return out
}

func sortedCategories(in []model.Category) []model.Category {
	out := append([]model.Category(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })

	return out
}

func sortedAssignments(in []model.Assignment) []model.Assignment {
	out := append([]model.Assignment(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i].AssignmentID < out[j].AssignmentID })

	return out
}

// Summary renders the mandatory one-line count sentence for a report:
// "{n} new, {m} grade update(s), {k} comment update(s)", suppressing any
// zero-count term. An all-zero report renders the empty string, signalling
// "nothing to say."
func Summary(c Counts) string {
	var parts []string
	if c.NewAssignments > 0 {
		parts = append(parts, fmt.Sprintf("%d new", c.NewAssignments))
	}
	if c.GradeUpdates > 0 {
		parts = append(parts, fmt.Sprintf("%d grade update(s)", c.GradeUpdates))
	}
	if c.CommentUpdates > 0 {
		parts = append(parts, fmt.Sprintf("%d comment update(s)", c.CommentUpdates))
	}

	if len(parts) == 0 {
		return ""
	}

	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}

	return out
}

// FormatReport renders the full notification body for a non-empty report:
// the summary sentence, followed by one line per change in the same
// section/period/category/assignment order Run produced them in.
func FormatReport(report ChangeReport) string {
	body := Summary(report.Counts)

	for _, c := range report.Changes {
		body += fmt.Sprintf("\n- [%s] %s > %s > %s > %s: %s -> %s",
			c.Type, c.SectionTitle, c.PeriodName, c.CategoryName, c.AssignmentTitle, c.Old, c.New)
	}

	return body
}

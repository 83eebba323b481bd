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

package fetcher

import (
	"testing"
	"time"
)

func TestSnapshotFromWireDecodesDecimalsAndException(t *testing.T) {
	earned := "5.00"
	max := "5"
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	wire := wireSnapshot{
		Timestamp: due,
		Sections: []wireSection{
			{
				SectionID: "s1",
				Periods: []wirePeriod{
					{
						PeriodID: "p1",
						Categories: []wireCategory{
							{
								CategoryID: "c1",
								Assignments: []wireAssignment{
									{
										AssignmentID: "100",
										EarnedPoints: &earned,
										MaxPoints:    &max,
										Exception:    3,
										DueDate:      &due,
									},
								},
							},
						},
					},
				},
			},
		},
	}

	snapshot, err := snapshotFromWire(wire)
	if err != nil {
		t.Fatalf("snapshotFromWire: %v", err)
	}

	a := snapshot.Sections[0].Periods[0].Categories[0].Assignments[0]
	if !a.EarnedPoints.Valid || a.EarnedPoints.Value.String() != "5" {
		t.Errorf("EarnedPoints = %+v, want exact 5", a.EarnedPoints)
	}
	if a.Exception.String() != "missing" {
		t.Errorf("Exception = %v, want missing", a.Exception)
	}
	if !a.DueDate.Valid {
		t.Errorf("DueDate.Valid = false, want true")
	}
}

func TestSnapshotFromWireRejectsUnknownExceptionCode(t *testing.T) {
	wire := wireSnapshot{
		Sections: []wireSection{
			{
				Periods: []wirePeriod{
					{
						Categories: []wireCategory{
							{
								Assignments: []wireAssignment{
									{AssignmentID: "1", Exception: 9},
								},
							},
						},
					},
				},
			},
		},
	}

	if _, err := snapshotFromWire(wire); err == nil {
		t.Errorf("snapshotFromWire() with exception code 9 = nil error, want error")
	}
}

func TestSnapshotFromWireAbsentPointsAreInvalid(t *testing.T) {
	wire := wireSnapshot{
		Sections: []wireSection{
			{
				Periods: []wirePeriod{
					{
						Categories: []wireCategory{
							{Assignments: []wireAssignment{{AssignmentID: "1"}}},
						},
					},
				},
			},
		},
	}

	snapshot, err := snapshotFromWire(wire)
	if err != nil {
		t.Fatalf("snapshotFromWire: %v", err)
	}

	a := snapshot.Sections[0].Periods[0].Categories[0].Assignments[0]
	if a.EarnedPoints.Valid || a.MaxPoints.Valid {
		t.Errorf("expected absent points to remain invalid, got %+v / %+v", a.EarnedPoints, a.MaxPoints)
	}
	if a.IsGraded() {
		t.Errorf("IsGraded() = true for ungraded wire assignment, want false")
	}
}

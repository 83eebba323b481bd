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

// Package fetcher is the remote grade API client: authentication, HTTP, and
// JSON decoding into internal/model types. spec.md §1 places all of this
// explicitly out of scope for the core ("the core receives a fully built
// snapshot value") and specifies it only by the internal/pipeline.Fetcher
// interface it must satisfy. This package is a minimal, concrete
// implementation of that boundary so cmd/gradewatch links and runs against a
// real endpoint; none of its internals are exercised by the core's tests.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/suckerfish/gradewatch/internal/model"
)

// HTTPFetcher calls a remote grade service's snapshot endpoint and decodes
// its response into a model.Snapshot. It implements pipeline.Fetcher.
type HTTPFetcher struct {
	domain     string
	key        string
	secret     string
	httpClient *http.Client
}

// New builds an HTTPFetcher against domain, authenticating every request
// with key/secret as HTTP Basic credentials.
func New(domain, key, secret string) *HTTPFetcher {
	return &HTTPFetcher{
		domain:     domain,
		key:        key,
		secret:     secret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// wireSnapshot mirrors the upstream JSON shape: string-encoded decimals and
// ISO-8601 timestamps, decoded into model's exact types by snapshotFromWire.
type wireSnapshot struct {
	Timestamp time.Time      `json:"timestamp"`
	Sections  []wireSection  `json:"sections"`
}

type wireSection struct {
	SectionID    string       `json:"section_id"`
	CourseTitle  string       `json:"course_title"`
	SectionTitle string       `json:"section_title"`
	Periods      []wirePeriod `json:"periods"`
}

type wirePeriod struct {
	PeriodID   string         `json:"period_id"`
	Name       string         `json:"name"`
	Categories []wireCategory `json:"categories"`
}

type wireCategory struct {
	CategoryID  string           `json:"category_id"`
	Name        string           `json:"name"`
	Weight      *string          `json:"weight"`
	Assignments []wireAssignment `json:"assignments"`
}

type wireAssignment struct {
	AssignmentID string     `json:"assignment_id"`
	Title        string     `json:"title"`
	EarnedPoints *string    `json:"earned_points"`
	MaxPoints    *string    `json:"max_points"`
	Exception    int        `json:"exception"`
	Comment      string     `json:"comment"`
	DueDate      *time.Time `json:"due_date"`
}

// FetchSnapshot implements pipeline.Fetcher.
func (f *HTTPFetcher) FetchSnapshot(ctx context.Context) (model.Snapshot, error) {
	url := fmt.Sprintf("https://%s/api/v1/grades/snapshot", f.domain)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("fetcher: build request: %w", err)
	}
	req.SetBasicAuth(f.key, f.secret)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("fetcher: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Snapshot{}, fmt.Errorf("fetcher: unexpected status %d", resp.StatusCode)
	}

	var wire wireSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return model.Snapshot{}, fmt.Errorf("fetcher: decode response: %w", err)
	}

	return snapshotFromWire(wire)
}

func snapshotFromWire(w wireSnapshot) (model.Snapshot, error) {
	snapshot := model.Snapshot{Timestamp: w.Timestamp, Sections: make([]model.Section, 0, len(w.Sections))}

	for _, ws := range w.Sections {
		section := model.Section{
			SectionID:    ws.SectionID,
			CourseTitle:  ws.CourseTitle,
			SectionTitle: ws.SectionTitle,
			Periods:      make([]model.Period, 0, len(ws.Periods)),
		}

		for _, wp := range ws.Periods {
			period := model.Period{PeriodID: wp.PeriodID, Name: wp.Name, Categories: make([]model.Category, 0, len(wp.Categories))}

			for _, wc := range wp.Categories {
				weight, err := optionalDecimalPtr(wc.Weight)
				if err != nil {
					return model.Snapshot{}, fmt.Errorf("fetcher: category %s weight: %w", wc.CategoryID, err)
				}

				category := model.Category{
					CategoryID:  wc.CategoryID,
					Name:        wc.Name,
					Weight:      weight,
					Assignments: make([]model.Assignment, 0, len(wc.Assignments)),
				}

				for _, wa := range wc.Assignments {
					a, err := assignmentFromWire(wa)
					if err != nil {
						return model.Snapshot{}, err
					}
					category.Assignments = append(category.Assignments, a)
				}

				period.Categories = append(period.Categories, category)
			}

			section.Periods = append(section.Periods, period)
		}

		snapshot.Sections = append(snapshot.Sections, section)
	}

	return snapshot, nil
}

func assignmentFromWire(wa wireAssignment) (model.Assignment, error) {
	earned, err := optionalDecimalPtr(wa.EarnedPoints)
	if err != nil {
		return model.Assignment{}, fmt.Errorf("fetcher: assignment %s earned_points: %w", wa.AssignmentID, err)
	}
	max, err := optionalDecimalPtr(wa.MaxPoints)
	if err != nil {
		return model.Assignment{}, fmt.Errorf("fetcher: assignment %s max_points: %w", wa.AssignmentID, err)
	}

	due := model.OptionalTime{}
	if wa.DueDate != nil {
		due = model.SomeTime(*wa.DueDate)
	}

	exception, err := exceptionFromWireCode(wa.Exception)
	if err != nil {
		return model.Assignment{}, fmt.Errorf("fetcher: assignment %s: %w", wa.AssignmentID, err)
	}

	return model.Assignment{
		AssignmentID: wa.AssignmentID,
		Title:        wa.Title,
		EarnedPoints: earned,
		MaxPoints:    max,
		Exception:    exception,
		Comment:      wa.Comment,
		DueDate:      due,
	}, nil
}

// exceptionFromWireCode maps the upstream integer codes {0,1,2,3} onto
// model.Exception in declaration order, per spec.md §3.
func exceptionFromWireCode(code int) (model.Exception, error) {
	switch code {
	case 0:
		return model.ExceptionNone, nil
	case 1:
		return model.ExceptionExcused, nil
	case 2:
		return model.ExceptionIncomplete, nil
	case 3:
		return model.ExceptionMissing, nil
	default:
		return model.ExceptionNone, fmt.Errorf("unrecognized exception code %d", code)
	}
}

func optionalDecimalPtr(s *string) (model.OptionalDecimal, error) {
	if s == nil {
		return model.NoDecimal, nil
	}

	return model.ParseOptionalDecimal(*s)
}

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

// Package boltstore implements store.Store on go.etcd.io/bbolt: one bucket
// per logical table in spec.md §4.B, msgpack-encoded rows, and bbolt's
// native single-writer transactions standing in for the "scoped
// transactional context with guaranteed commit on success, rollback on any
// error" the spec requires. Grounded on loog-project-loog's
// internal/store/bbolt, which uses the identical shape: fixed bucket names
// created once at Open, composite keys built by concatenation, msgpack
// row encoding.
package boltstore

import (
	"context"
	"fmt"
	"time"

	"github.com/suckerfish/gradewatch/internal/model"
	"github.com/suckerfish/gradewatch/internal/store"
	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

var (
	bucketMeta        = []byte("meta")
	bucketSections    = []byte("sections")
	bucketPeriods     = []byte("periods")
	bucketCategories  = []byte("categories")
	bucketAssignments = []byte("assignments")

	allBuckets = [][]byte{bucketMeta, bucketSections, bucketPeriods, bucketCategories, bucketAssignments}
)

const metaKey = "current"

// categoryKey builds the compound (category_id, period_id) key spec.md §3
// invariant 2 requires for uniqueness.
func categoryKey(categoryID, periodID string) []byte {
	return []byte(categoryID + "\x00" + periodID)
}

// Store is a bbolt-backed store.Store. Single-writer, single-process: the
// file lock bbolt takes on Open satisfies Design Notes §9's file-locking
// recommendation for the single-writer precondition.
type Store struct {
	db *bbolt.DB
}

var _ store.Store = (*Store)(nil)

// Open creates (or reopens) the snapshot store at path, with the given
// maximum wait for the file lock (storage.timeout_ms in spec.md §6).
func Open(path string, lockTimeout time.Duration) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{
		Timeout:      lockTimeout,
		FreelistType: bbolt.FreelistMapType,
	})
	if err != nil {
		return nil, fmt.Errorf("open bbolt store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

// LatestTimestamp implements store.Store.
func (s *Store) LatestTimestamp(_ context.Context) (time.Time, bool, error) {
	var (
		ts    time.Time
		found bool
	)

	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketMeta).Get([]byte(metaKey))
		if raw == nil {
			return nil
		}

		var row metaRow
		if err := msgpack.Unmarshal(raw, &row); err != nil {
			return err
		}
		ts = time.Unix(0, row.TimestampUnixNano).UTC()
		found = true

		return nil
	})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read latest timestamp: %w", err)
	}

	return ts, found, nil
}

// GetAssignment implements store.Store.
func (s *Store) GetAssignment(
	_ context.Context, assignmentID string,
) (model.Assignment, store.CategoryContext, bool, error) {
	var (
		assignment model.Assignment
		catCtx     store.CategoryContext
		found      bool
	)

	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketAssignments).Get([]byte(assignmentID))
		if raw == nil {
			return nil
		}

		var row assignmentRow
		if err := msgpack.Unmarshal(raw, &row); err != nil {
			return err
		}

		a, err := row.toAssignment(assignmentID)
		if err != nil {
			return err
		}
		assignment = a
		found = true

		catRaw := tx.Bucket(bucketCategories).Get(categoryKey(row.CategoryID, row.PeriodID))
		if catRaw == nil {
			catCtx = store.CategoryContext{CategoryID: row.CategoryID, PeriodID: row.PeriodID}

			return nil
		}

		var catRow categoryRow
		if err := msgpack.Unmarshal(catRaw, &catRow); err != nil {
			return err
		}
		weight, err := rowToDecimal(catRow.WeightValid, catRow.Weight)
		if err != nil {
			return err
		}
		catCtx = store.CategoryContext{
			CategoryID: row.CategoryID,
			PeriodID:   row.PeriodID,
			Name:       catRow.Name,
			Weight:     weight,
		}

		return nil
	})
	if err != nil {
		return model.Assignment{}, store.CategoryContext{}, false, fmt.Errorf("get assignment %s: %w", assignmentID, err)
	}

	return assignment, catCtx, found, nil
}

// GetCategory implements store.Store.
func (s *Store) GetCategory(_ context.Context, categoryID, periodID string) (model.Category, bool, error) {
	var (
		category model.Category
		found    bool
	)

	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketCategories).Get(categoryKey(categoryID, periodID))
		if raw == nil {
			return nil
		}

		var row categoryRow
		if err := msgpack.Unmarshal(raw, &row); err != nil {
			return err
		}
		weight, err := rowToDecimal(row.WeightValid, row.Weight)
		if err != nil {
			return err
		}
		category = model.Category{CategoryID: categoryID, Name: row.Name, Weight: weight}
		found = true

		return nil
	})
	if err != nil {
		return model.Category{}, false, fmt.Errorf("get category %s/%s: %w", categoryID, periodID, err)
	}

	return category, found, nil
}

// IterAssignments implements store.Store.
func (s *Store) IterAssignments(
	_ context.Context, yield func(model.Assignment, store.CategoryContext) error,
) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		categories := tx.Bucket(bucketCategories)

		return tx.Bucket(bucketAssignments).ForEach(func(k, v []byte) error {
			var row assignmentRow
			if err := msgpack.Unmarshal(v, &row); err != nil {
				return err
			}
			a, err := row.toAssignment(string(k))
			if err != nil {
				return err
			}

			catCtx := store.CategoryContext{CategoryID: row.CategoryID, PeriodID: row.PeriodID}
			if catRaw := categories.Get(categoryKey(row.CategoryID, row.PeriodID)); catRaw != nil {
				var catRow categoryRow
				if err := msgpack.Unmarshal(catRaw, &catRow); err != nil {
					return err
				}
				weight, err := rowToDecimal(catRow.WeightValid, catRow.Weight)
				if err != nil {
					return err
				}
				catCtx.Name = catRow.Name
				catCtx.Weight = weight
			}

			return yield(a, catCtx)
		})
	})
}

// ReplaceAll implements store.Store. It replaces every bucket's contents in
// a single transaction: either the whole new snapshot becomes visible, or
// (on any error) bbolt rolls the transaction back and the old snapshot is
// untouched, satisfying the atomicity invariant spec.md §4.B requires.
func (s *Store) ReplaceAll(_ context.Context, snapshot model.Snapshot) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []([]byte){bucketSections, bucketPeriods, bucketCategories, bucketAssignments} {
			if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}

		sections := tx.Bucket(bucketSections)
		periods := tx.Bucket(bucketPeriods)
		categories := tx.Bucket(bucketCategories)
		assignments := tx.Bucket(bucketAssignments)

		for _, sec := range snapshot.Sections {
			secRaw, err := msgpack.Marshal(sectionRow{CourseTitle: sec.CourseTitle, SectionTitle: sec.SectionTitle})
			if err != nil {
				return err
			}
			if err := sections.Put([]byte(sec.SectionID), secRaw); err != nil {
				return err
			}

			for _, per := range sec.Periods {
				perRaw, err := msgpack.Marshal(periodRow{SectionID: sec.SectionID, Name: per.Name})
				if err != nil {
					return err
				}
				if err := periods.Put([]byte(per.PeriodID), perRaw); err != nil {
					return err
				}

				for _, cat := range per.Categories {
					weightValid, weightStr := decimalToRow(cat.Weight)
					catRaw, err := msgpack.Marshal(categoryRow{
						PeriodID:    per.PeriodID,
						Name:        cat.Name,
						WeightValid: weightValid,
						Weight:      weightStr,
					})
					if err != nil {
						return err
					}
					if err := categories.Put(categoryKey(cat.CategoryID, per.PeriodID), catRaw); err != nil {
						return err
					}

					for _, a := range cat.Assignments {
						row, err := newAssignmentRow(cat.CategoryID, per.PeriodID, a)
						if err != nil {
							return err
						}
						raw, err := msgpack.Marshal(row)
						if err != nil {
							return err
						}
						if err := assignments.Put([]byte(a.AssignmentID), raw); err != nil {
							return err
						}
					}
				}
			}
		}

		metaRaw, err := msgpack.Marshal(metaRow{TimestampUnixNano: snapshot.Timestamp.UTC().UnixNano()})
		if err != nil {
			return err
		}

		return tx.Bucket(bucketMeta).Put([]byte(metaKey), metaRaw)
	})
	if err != nil {
		return fmt.Errorf("replace all: %w", err)
	}

	return nil
}

// ClearAll implements store.Store. Test-only per spec.md §4.B.
func (s *Store) ClearAll(_ context.Context) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("clear all: %w", err)
	}

	return nil
}

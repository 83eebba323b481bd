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

// Package model defines the normalized grade snapshot: a 4-level tree of
// Section, Period, Category and Assignment rooted at a Snapshot, plus the
// value-equality predicates the differ uses to decide whether an assignment
// actually changed.
//
// Identifiers are opaque strings assigned by the upstream grade source. This
// package never generates them and does not check them: the store and differ
// rely on the upstream source keeping them safe to use as match keys across
// snapshots (assignment_id globally unique, category_id unique within its
// period, period_id and section_id each unique within the snapshot).
package model

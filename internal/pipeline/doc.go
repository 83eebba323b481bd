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

// Package pipeline drives one gradewatch cycle end to end (spec.md §4.G):
// fetch (with retry), diff, notify, journal, persist, health-ping, in that
// fixed order, with persist strictly last among the steps that mutate state.
//
// RunCycle never panics and never blocks beyond the timeouts its
// collaborators already enforce; every step after fetch runs best-effort, so
// a failure in notify or journal never prevents persist from running. A
// fetch or persist failure sets the reported Result (fetch_failed,
// persist_failed); a notify or journal failure after a successful fetch and
// persist yields partial.
package pipeline

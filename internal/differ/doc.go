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

/*
Package differ is the "Brain" of gradewatch. It is responsible for comparing
a freshly fetched grade Snapshot against the previously persisted one and
producing a structured ChangeReport for the notification manager and the
change journal to act on. It does not fetch, persist, notify, or schedule;
its only job is to report facts about how the gradebook changed.

# Cold start

If the store has never been populated, Run returns a report with
is_initial=true and no changes. The pipeline still persists the snapshot, so
the *next* run has something to diff against; the cold-start snapshot itself
is never treated as a wave of changes, since every assignment in it would
otherwise show up as "new."

# Comparison

Run walks the new snapshot in a fixed traversal order — section, period,
category, assignment, each level sorted by identifier — and for every graded
assignment looks up the stored counterpart by assignment ID. ID lookup, not
structural diffing: a reshuffled category list or renamed section title does
not, by itself, produce a Change, because nothing is keyed by position.

The comparison logic in comparator.go is pure: given an old assignment (or
its absence) and a new one, it decides the single Change to emit, if any.
Exactly one Change per assignment per run — an exception transition and a
grade change landing in the same cycle report only the exception transition,
per the documented precedence below.

# Precedence: exception over grade

When an assignment's exception field and its points change in the same
cycle, only exception_updated is emitted; the coincident grade change is not
separately reported. Catching both would mean two audit-log entries for one
edit to the gradebook, which reads as noisier than it is.

# Deletions are silent

An assignment present in the store but absent from the new snapshot
produces no Change. It is simply not carried forward the next time
replace_all runs. Gradebook software drops entire assignments far more
often than it drops grades, and a "this existed, now it doesn't" alert for
every dropped placeholder row would drown out the signal.

# Failure mode

Any error surfacing from the store during comparison (a decode failure, a
corrupt row) is caught at the top of Run and degrades the whole cycle to an
is_initial=true, empty report — the same shape as the cold-start case. When
in doubt, stay quiet; a spurious batch of false "new assignment" alerts is
worse than one silently skipped comparison, since the next cycle's diff
against the (successfully replaced) snapshot will recover naturally.
*/
package differ

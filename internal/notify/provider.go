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

package notify

import "context"

// Provider is the narrow capability every notification channel implements:
// a stable name, an availability check driven by configuration, and a
// best-effort send that never panics or returns an error the manager has to
// interpret — failure is communicated purely by returning false.
type Provider interface {
	// Name returns a stable short identifier, used for ordering and for the
	// per-provider result map the manager returns.
	Name() string

	// Available reports whether the provider's mandatory configuration
	// (credentials, URLs, feature flags) is present. Providers whose
	// Available returns false are never added to the active set.
	Available() bool

	// Send attempts one delivery of msg and reports success. Send must
	// catch any provider-internal error itself; it has no error return
	// because the manager treats every provider uniformly.
	Send(ctx context.Context, msg Message) bool
}

// Enricher is an optional second capability a Provider may implement. At
// most one enricher runs per cycle; its output message replaces the
// original for every subsequent provider in the fan-out.
type Enricher interface {
	Enrich(ctx context.Context, msg Message) (Message, error)
}

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

// Package healthping pings an optional external dead-man's-switch URL at
// the end of every pipeline cycle (spec.md §4.G step 6, §6). A failure here
// is logged at info level and never fails the cycle, per spec.md §7.
package healthping

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const defaultTimeout = 10 * time.Second

// Pinger pings a configured URL with a ?status=ok|fail query parameter.
type Pinger struct {
	url        string
	httpClient *http.Client
	log        *slog.Logger
}

// New builds a Pinger. An empty url makes Ping a no-op, since the hook is
// optional.
func New(url string, log *slog.Logger) *Pinger {
	return &Pinger{url: url, httpClient: &http.Client{Timeout: defaultTimeout}, log: log}
}

// Ping notifies the configured health endpoint of a cycle's outcome.
// Network failures are logged at info level and otherwise ignored.
func (p *Pinger) Ping(ctx context.Context, success bool) {
	if p.url == "" {
		return
	}

	status := "fail"
	if success {
		status = "ok"
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	target, err := url.Parse(p.url)
	if err != nil {
		p.log.InfoContext(ctx, "healthping: parsing url failed", "error", err)

		return
	}
	q := target.Query()
	q.Set("status", status)
	target.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(pingCtx, http.MethodGet, target.String(), nil)
	if err != nil {
		p.log.InfoContext(ctx, "healthping: building request failed", "error", err)

		return
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.log.InfoContext(ctx, "healthping: request failed", "error", err)

		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.log.InfoContext(ctx, "healthping: non-2xx response", "status", resp.StatusCode)
	}
}

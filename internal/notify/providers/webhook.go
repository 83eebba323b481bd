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

package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/suckerfish/gradewatch/internal/notify"
)

// defaultSendTimeout bounds a single Webhook.Send call, per spec.md §5's
// per-provider send timeout (default 30s).
const defaultSendTimeout = 30 * time.Second

// Webhook POSTs a JSON rendering of the message to a configured URL. It is
// the minimal uniform transport most of the pack's workers eventually call
// out to, so it stands in for "any HTTP-based notification sink" here.
type Webhook struct {
	url        string
	httpClient *http.Client
	log        *slog.Logger
}

// NewWebhook builds a Webhook provider. An empty url makes Available report
// false, since there is nothing to POST to.
func NewWebhook(url string, log *slog.Logger) *Webhook {
	return &Webhook{
		url:        url,
		httpClient: &http.Client{Timeout: defaultSendTimeout},
		log:        log,
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Available() bool { return w.url != "" }

type webhookPayload struct {
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Priority string            `json:"priority"`
	URL      string            `json:"url,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (w *Webhook) Send(ctx context.Context, msg notify.Message) bool {
	body, err := json.Marshal(webhookPayload{
		Title:    msg.Title,
		Content:  msg.Content,
		Priority: string(msg.Priority),
		URL:      msg.URL,
		Metadata: msg.Metadata,
	})
	if err != nil {
		w.log.ErrorContext(ctx, "webhook provider: encode failed", "error", err)

		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, defaultSendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(sendCtx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		w.log.ErrorContext(ctx, "webhook provider: build request failed", "error", err)

		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		w.log.WarnContext(ctx, "webhook provider: request failed", "error", err)

		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.log.WarnContext(ctx, "webhook provider: non-2xx response", "status", resp.StatusCode)

		return false
	}

	return true
}

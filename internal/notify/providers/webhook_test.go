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
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/suckerfish/gradewatch/internal/notify"
)

func TestWebhookAvailable(t *testing.T) {
	w := NewWebhook("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if w.Available() {
		t.Errorf("Available() = true for empty URL, want false")
	}

	w2 := NewWebhook("http://example.invalid/hook", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if !w2.Available() {
		t.Errorf("Available() = false for configured URL, want true")
	}
}

func TestWebhookSendSuccess(t *testing.T) {
	var gotPayload webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		rw.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ok := w.Send(context.Background(), notify.Message{Title: "Changes detected", Content: "1 new", Priority: notify.PriorityNormal})
	if !ok {
		t.Fatalf("Send() = false, want true")
	}
	if gotPayload.Title != "Changes detected" {
		t.Errorf("server received title %q, want %q", gotPayload.Title, "Changes detected")
	}
}

func TestWebhookSendNon2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if w.Send(context.Background(), notify.Message{Title: "t"}) {
		t.Errorf("Send() = true for 500 response, want false")
	}
}

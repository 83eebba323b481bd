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

// Package providers holds reference notify.Provider implementations.
package providers

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/suckerfish/gradewatch/internal/notify"
)

// Console writes notifications to an io.Writer (stdout, typically). It is
// always available: single-shot and dev runs need at least one provider
// that works with zero configuration.
type Console struct {
	w   io.Writer
	log *slog.Logger
}

// NewConsole builds a Console provider writing to w.
func NewConsole(w io.Writer, log *slog.Logger) *Console {
	return &Console{w: w, log: log}
}

func (c *Console) Name() string { return "console" }

func (c *Console) Available() bool { return true }

func (c *Console) Send(ctx context.Context, msg notify.Message) bool {
	_, err := fmt.Fprintf(c.w, "[%s] %s\n%s\n", msg.Priority, msg.Title, msg.Content)
	if err != nil {
		c.log.ErrorContext(ctx, "console provider: write failed", "error", err)

		return false
	}

	return true
}

// Enrich tags the message with the provider that will render it first, so
// later providers (and the journal) can see which one ran as the enricher
// this cycle. It never fails, making Console a convenient deterministic
// enricher in tests that need one.
func (c *Console) Enrich(_ context.Context, msg notify.Message) (notify.Message, error) {
	return msg.WithMetadata("enriched_by", "console"), nil
}

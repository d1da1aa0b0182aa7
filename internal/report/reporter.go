// Package report holds the stateless content generators: part-of-day
// digests and English lessons. Each produces one message from a read-only
// snapshot of external state; nothing here touches the dedup store.
package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vthunder/kernel/internal/logging"
	"github.com/vthunder/kernel/internal/suite"
)

const snapshotLimit = 10

// Generator is the one-shot text generation capability generators need
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Reporter produces digest summaries of the owner's current mail, task and
// calendar state.
type Reporter struct {
	api suite.API
	gen Generator
}

// NewReporter creates a reporter
func NewReporter(api suite.API, gen Generator) *Reporter {
	return &Reporter{api: api, gen: gen}
}

// Report generates a digest for the given part of day ("morning",
// "afternoon", "evening"). An empty snapshot still produces a report that
// tells the owner they are clear.
func (r *Reporter) Report(ctx context.Context, partOfDay string) string {
	logging.Info("report", "Generating %s report", partOfDay)

	emails := r.api.ListUnreadEmails(ctx, snapshotLimit)
	tasks := r.api.ListTasks(ctx, snapshotLimit)
	events := r.api.ListUpcomingEvents(ctx, 12)

	prompt := fmt.Sprintf(`You are generating a %s report for the user.

Unread Emails (last %d):
%s

Upcoming Tasks:
%s

Upcoming Events (next 12h):
%s

Please summarize this information into a concise and helpful report.
Highlight important items.
If there are no emails, tasks, or events, mention that the user is clear: nothing pending.
Structure it nicely with Markdown.`,
		partOfDay, snapshotLimit, asJSON(emails), asJSON(tasks), asJSON(events))

	text, err := r.gen.Generate(ctx, prompt)
	if err != nil {
		logging.Warn("report", "%s report failed: %v", partOfDay, err)
		return "Failed to generate report due to an error."
	}
	return text
}

// asJSON renders a snapshot slice for the prompt. Nil slices render as an
// explicit "(none)" so the model does not invent content.
func asJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return "(none)"
	}
	return string(data)
}

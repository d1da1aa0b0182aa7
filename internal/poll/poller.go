// Package poll watches the mailbox and calendar for items the owner has
// not been told about yet and turns them into alert messages.
package poll

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tsawler/prose/v3"

	"github.com/vthunder/kernel/internal/config"
	"github.com/vthunder/kernel/internal/dedup"
	"github.com/vthunder/kernel/internal/filter"
	"github.com/vthunder/kernel/internal/logging"
	"github.com/vthunder/kernel/internal/suite"
)

const (
	emailFetchLimit = 10
	// Calendar alerts cover events starting within the next hour
	calendarLookaheadHours = 1
)

// Poller produces alert texts for unseen emails and upcoming events. Each
// alert's item is claimed in the dedup store before the alert is returned,
// so a claimed item is never alerted twice even across overlapping cycles
// or a restart (at-most-once delivery).
type Poller struct {
	api      suite.API
	store    *dedup.Store
	settings *config.Store
	gen      filter.Generator // nil when no reasoning model is configured
}

// New creates a poller
func New(api suite.API, store *dedup.Store, settings *config.Store, gen filter.Generator) *Poller {
	return &Poller{api: api, store: store, settings: settings, gen: gen}
}

// PollEmails checks for new important emails and returns alert strings.
// Emails judged unimportant are still marked seen so they are never
// re-analyzed on later cycles.
func (p *Poller) PollEmails(ctx context.Context) []string {
	emails := p.api.ListUnreadEmails(ctx, emailFetchLimit)
	if len(emails) == 0 {
		return nil
	}

	assessor := p.assessor()

	var alerts []string
	for _, email := range emails {
		if p.store.Seen(dedup.KindEmail, email.ID) {
			continue
		}

		important, reason := assessor.Assess(ctx, email)
		if !important {
			p.store.MarkSeen(dedup.KindEmail, email.ID)
			logging.Debug("poll", "email %s not important: %s", email.ID, reason)
			continue
		}

		// Claim before emitting; a concurrent cycle that loses the claim
		// drops the alert.
		if !p.store.MarkIfUnseen(dedup.KindEmail, email.ID) {
			continue
		}

		alerts = append(alerts, formatEmailAlert(email, reason))
	}
	return alerts
}

// PollCalendar checks for events starting soon and returns alert strings
func (p *Poller) PollCalendar(ctx context.Context) []string {
	events := p.api.ListUpcomingEvents(ctx, calendarLookaheadHours)

	var alerts []string
	for _, event := range events {
		if !p.store.MarkIfUnseen(dedup.KindEvent, event.ID) {
			continue
		}
		alerts = append(alerts, formatEventAlert(event))
	}
	return alerts
}

// assessor picks the importance policy from the current settings snapshot.
// AI filtering silently degrades to pass-through when no model is available.
func (p *Poller) assessor() filter.Assessor {
	useAI := p.settings.SettingBool("ai_email_filtering", true)
	if !useAI || p.gen == nil {
		return filter.Passthrough{}
	}
	criteria := p.settings.Setting("importance_criteria",
		"urgent, personal, or requires a reply from me")
	return filter.NewAIAssessor(p.gen, criteria)
}

func formatEmailAlert(email suite.Email, reason string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📧 **Important Email**\nFrom: %s\nSubject: %s\nReason: %s", email.Sender, email.Subject, reason)
	if mentions := extractMentions(email.Snippet); len(mentions) > 0 {
		fmt.Fprintf(&b, "\nMentions: %s", strings.Join(mentions, ", "))
	}
	if email.Link != "" {
		fmt.Fprintf(&b, "\n%s", email.Link)
	}
	return b.String()
}

func formatEventAlert(event suite.Event) string {
	display := event.Start
	if t, err := time.Parse(time.RFC3339, event.Start); err == nil {
		display = t.Local().Format("15:04")
	}
	alert := fmt.Sprintf("📅 **Upcoming Event**\n%s\nAt: %s", event.Summary, display)
	if event.Link != "" {
		alert += "\n" + event.Link
	}
	return alert
}

// extractMentions pulls person and organization names out of an email
// snippet so the alert shows who it is about at a glance. Best effort: any
// NLP failure just means no mentions line.
func extractMentions(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil
	}

	const maxMentions = 5
	seen := map[string]bool{}
	var mentions []string
	for _, ent := range doc.Entities() {
		label := strings.ToUpper(ent.Label)
		if label != "PERSON" && label != "ORG" {
			continue
		}
		name := strings.TrimSpace(ent.Text)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		mentions = append(mentions, name)
		if len(mentions) == maxMentions {
			break
		}
	}
	return mentions
}

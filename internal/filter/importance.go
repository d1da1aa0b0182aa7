// Package filter decides, per unseen email, whether it warrants an alert.
package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vthunder/kernel/internal/logging"
	"github.com/vthunder/kernel/internal/suite"
)

// FailClosedReason is returned whenever AI analysis cannot produce a
// verdict. Failing closed means a malfunctioning filter causes silence,
// never a flood.
const FailClosedReason = "error in analysis"

// Generator is the one-shot text generation capability the AI policy needs
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Assessor decides whether an email is worth alerting on
type Assessor interface {
	Assess(ctx context.Context, email suite.Email) (important bool, reason string)
}

// Passthrough treats every unseen email as important. Used when AI
// filtering is disabled or unavailable.
type Passthrough struct{}

// Assess always says yes
func (Passthrough) Assess(ctx context.Context, email suite.Email) (bool, string) {
	return true, "New unread email."
}

// AIAssessor asks the reasoning model to judge an email against the
// owner's criteria and parses a strict two-field JSON verdict.
type AIAssessor struct {
	gen      Generator
	criteria string
}

// NewAIAssessor creates an assessor with the owner's criteria snapshot
func NewAIAssessor(gen Generator, criteria string) *AIAssessor {
	return &AIAssessor{gen: gen, criteria: criteria}
}

// Assess returns the model's verdict, or (false, FailClosedReason) on any
// model or parse failure. It never raises: one bad response must not abort
// a poll cycle covering several emails.
func (a *AIAssessor) Assess(ctx context.Context, email suite.Email) (bool, string) {
	prompt := fmt.Sprintf(`Analyze the following email and decide if it is IMPORTANT based on this criteria: %q.

Email Subject: %s
Sender: %s
Snippet: %s

Respond with valid JSON only: { "important": boolean, "reason": "short explanation" }`,
		a.criteria, email.Subject, email.Sender, email.Snippet)

	text, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		logging.Warn("filter", "analysis of %s failed: %v", email.ID, err)
		return false, FailClosedReason
	}

	important, reason, ok := parseVerdict(text)
	if !ok {
		logging.Warn("filter", "malformed verdict for %s: %s", email.ID, logging.Truncate(text, 120))
		return false, FailClosedReason
	}
	return important, reason
}

// parseVerdict extracts the {important, reason} pair. Markdown code fences
// around the JSON are tolerated; anything else malformed is rejected.
func parseVerdict(text string) (bool, string, bool) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var verdict struct {
		Important *bool  `json:"important"`
		Reason    string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(text), &verdict); err != nil {
		return false, "", false
	}
	if verdict.Important == nil {
		return false, "", false
	}
	reason := verdict.Reason
	if reason == "" {
		reason = "No reason provided."
	}
	return *verdict.Important, reason, true
}

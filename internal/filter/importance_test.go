package filter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vthunder/kernel/internal/suite"
)

// fixedGen returns a canned completion, or an error
type fixedGen struct {
	text   string
	err    error
	prompt string
}

func (g *fixedGen) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.text, g.err
}

var sampleEmail = suite.Email{
	ID:      "m1",
	Subject: "Invoice overdue",
	Sender:  "billing@example.com",
	Snippet: "Your payment is 30 days late",
}

func TestPassthrough(t *testing.T) {
	important, reason := Passthrough{}.Assess(context.Background(), sampleEmail)
	if !important {
		t.Error("passthrough must treat every email as important")
	}
	if reason != "New unread email." {
		t.Errorf("unexpected reason: %q", reason)
	}
}

func TestAIAssessor_Verdict(t *testing.T) {
	gen := &fixedGen{text: `{"important": true, "reason": "Payment deadline"}`}
	a := NewAIAssessor(gen, "bills and deadlines")

	important, reason := a.Assess(context.Background(), sampleEmail)
	if !important || reason != "Payment deadline" {
		t.Errorf("expected (true, Payment deadline), got (%v, %q)", important, reason)
	}
	if !strings.Contains(gen.prompt, "bills and deadlines") {
		t.Error("prompt should embed the owner's criteria")
	}
	if !strings.Contains(gen.prompt, "Invoice overdue") {
		t.Error("prompt should embed the email subject")
	}
}

func TestAIAssessor_FencedJSON(t *testing.T) {
	gen := &fixedGen{text: "```json\n{\"important\": false, \"reason\": \"Newsletter\"}\n```"}
	a := NewAIAssessor(gen, "anything urgent")

	important, reason := a.Assess(context.Background(), sampleEmail)
	if important || reason != "Newsletter" {
		t.Errorf("expected (false, Newsletter), got (%v, %q)", important, reason)
	}
}

func TestAIAssessor_MalformedFailsClosed(t *testing.T) {
	cases := []string{
		"I think this email is quite important, yes.",
		`{"reason": "missing the important field"}`,
		`{"important": "yes"}`,
		"",
	}
	for _, text := range cases {
		a := NewAIAssessor(&fixedGen{text: text}, "")
		important, reason := a.Assess(context.Background(), sampleEmail)
		if important {
			t.Errorf("response %q: must fail closed, got important=true", text)
		}
		if reason != FailClosedReason {
			t.Errorf("response %q: expected %q, got %q", text, FailClosedReason, reason)
		}
	}
}

func TestAIAssessor_GeneratorErrorFailsClosed(t *testing.T) {
	a := NewAIAssessor(&fixedGen{err: errors.New("timeout")}, "")
	important, reason := a.Assess(context.Background(), sampleEmail)
	if important || reason != FailClosedReason {
		t.Errorf("expected (false, %q), got (%v, %q)", FailClosedReason, important, reason)
	}
}

func TestAIAssessor_EmptyReasonGetsDefault(t *testing.T) {
	a := NewAIAssessor(&fixedGen{text: `{"important": true}`}, "")
	important, reason := a.Assess(context.Background(), sampleEmail)
	if !important {
		t.Error("expected important=true")
	}
	if reason != "No reason provided." {
		t.Errorf("expected default reason, got %q", reason)
	}
}

package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vthunder/kernel/internal/config"
	"github.com/vthunder/kernel/internal/suite"
)

type stubAPI struct {
	suite.Unavailable
	emails []suite.Email
	tasks  []suite.Task
	events []suite.Event
}

func (s *stubAPI) ListUnreadEmails(ctx context.Context, limit int) []suite.Email { return s.emails }
func (s *stubAPI) ListTasks(ctx context.Context, limit int) []suite.Task         { return s.tasks }
func (s *stubAPI) ListUpcomingEvents(ctx context.Context, hours int) []suite.Event {
	return s.events
}

type stubGen struct {
	text   string
	err    error
	prompt string
}

func (g *stubGen) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.text, g.err
}

func testSettings(t *testing.T, yaml string) *config.Store {
	t.Helper()
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, "settings.yaml")
	if err := os.WriteFile(settingsPath, []byte(yaml), 0644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	return config.Load(filepath.Join(dir, "secrets.json"), settingsPath)
}

func TestReport_SnapshotInPrompt(t *testing.T) {
	api := &stubAPI{
		emails: []suite.Email{{ID: "e1", Subject: "Quarterly numbers"}},
		tasks:  []suite.Task{{ID: "t1", Title: "Buy milk"}},
		events: []suite.Event{{ID: "ev1", Summary: "Standup"}},
	}
	gen := &stubGen{text: "Here is your morning report."}
	r := NewReporter(api, gen)

	got := r.Report(context.Background(), "morning")
	if got != "Here is your morning report." {
		t.Errorf("report should forward the generated text verbatim, got %q", got)
	}
	for _, want := range []string{"morning report", "Quarterly numbers", "Buy milk", "Standup"} {
		if !strings.Contains(gen.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestReport_EmptySnapshot(t *testing.T) {
	gen := &stubGen{text: "All clear!"}
	r := NewReporter(&stubAPI{}, gen)

	if got := r.Report(context.Background(), "evening"); got != "All clear!" {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(gen.prompt, "(none)") {
		t.Error("empty snapshot sections should render as (none)")
	}
	if !strings.Contains(gen.prompt, "nothing pending") {
		t.Error("prompt should instruct the model about the all-clear case")
	}
}

func TestReport_GenerationFailure(t *testing.T) {
	r := NewReporter(&stubAPI{}, &stubGen{err: errors.New("quota")})
	got := r.Report(context.Background(), "afternoon")
	if got != "Failed to generate report due to an error." {
		t.Errorf("got %q", got)
	}
}

func TestLesson_DisabledReturnsEmpty(t *testing.T) {
	teacher := NewTeacher(&stubGen{text: "lesson"}, testSettings(t, "learning_enabled: false\n"))
	if got := teacher.Lesson(context.Background()); got != "" {
		t.Errorf("disabled learning should produce nothing, got %q", got)
	}
}

func TestLesson_UsesConfiguredLevel(t *testing.T) {
	gen := &stubGen{text: "Idiom of the day: break a leg."}
	teacher := NewTeacher(gen, testSettings(t, "learning_enabled: true\nlearning_level: Advanced\n"))

	got := teacher.Lesson(context.Background())
	if !strings.HasPrefix(got, "🎓 **English Lesson**") {
		t.Errorf("missing lesson header: %q", got)
	}
	if !strings.Contains(got, "break a leg") {
		t.Errorf("missing generated body: %q", got)
	}
	if !strings.Contains(gen.prompt, "Advanced") {
		t.Error("prompt should carry the configured level")
	}
}

func TestLesson_FailureReturnsEmpty(t *testing.T) {
	teacher := NewTeacher(&stubGen{err: errors.New("down")}, testSettings(t, "learning_enabled: true\n"))
	if got := teacher.Lesson(context.Background()); got != "" {
		t.Errorf("failed generation should produce nothing, got %q", got)
	}
}

func TestWordOfTheDay(t *testing.T) {
	gen := &stubGen{text: "**Word**: serendipity"}
	teacher := NewTeacher(gen, testSettings(t, "{}\n"))

	got := teacher.WordOfTheDay(context.Background())
	if !strings.HasPrefix(got, "📖 **Word of the Day**") {
		t.Errorf("missing header: %q", got)
	}
	if !strings.Contains(got, "serendipity") {
		t.Errorf("missing body: %q", got)
	}
}

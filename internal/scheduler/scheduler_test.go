package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vthunder/kernel/internal/config"
)

func testSettings(t *testing.T) *config.Store {
	t.Helper()
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, "settings.yaml")
	if err := os.WriteFile(settingsPath, []byte("{}\n"), 0644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	return config.Load(filepath.Join(dir, "secrets.json"), settingsPath)
}

func TestAdd_Validation(t *testing.T) {
	s := New(testSettings(t))
	run := func(ctx context.Context) error { return nil }

	cases := []struct {
		name string
		job  *Job
	}{
		{"no name", &Job{Interval: time.Minute, Run: run}},
		{"no run", &Job{Name: "j", Interval: time.Minute}},
		{"no trigger", &Job{Name: "j", Run: run}},
		{"both triggers", &Job{Name: "j", Interval: time.Minute, DailyAt: "09:00", Run: run}},
		{"bad daily time", &Job{Name: "j", DailyAt: "9am", Run: run}},
	}
	for _, tc := range cases {
		if err := s.Add(tc.job); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}

	if err := s.Add(&Job{Name: "ok", Interval: time.Minute, Run: run}); err != nil {
		t.Errorf("valid interval job rejected: %v", err)
	}
	if err := s.Add(&Job{Name: "ok2", DailyAt: "09:00", Run: run}); err != nil {
		t.Errorf("valid daily job rejected: %v", err)
	}
}

func TestRunDue_IntervalJob(t *testing.T) {
	s := New(testSettings(t))
	fired := 0
	s.Add(&Job{Name: "j", Interval: 5 * time.Minute, Run: func(ctx context.Context) error {
		fired++
		return nil
	}})

	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.Local)

	s.runDue(context.Background(), base)
	if fired != 1 {
		t.Fatalf("job should fire on first pass, fired=%d", fired)
	}

	s.runDue(context.Background(), base.Add(time.Minute))
	if fired != 1 {
		t.Fatalf("job fired again before its interval, fired=%d", fired)
	}

	s.runDue(context.Background(), base.Add(5*time.Minute))
	if fired != 2 {
		t.Fatalf("job should fire once its interval elapses, fired=%d", fired)
	}
}

func TestRunDue_DailyJob(t *testing.T) {
	s := New(testSettings(t))
	fired := 0
	s.Add(&Job{Name: "digest", DailyAt: "08:00", Run: func(ctx context.Context) error {
		fired++
		return nil
	}})

	day := time.Date(2026, 8, 31, 8, 0, 10, 0, time.Local)

	s.runDue(context.Background(), day.Add(-time.Minute))
	if fired != 0 {
		t.Fatal("job fired outside its minute")
	}

	// Two ticks inside the same matching minute fire once
	s.runDue(context.Background(), day)
	s.runDue(context.Background(), day.Add(30*time.Second))
	if fired != 1 {
		t.Fatalf("daily job must fire once per matching minute, fired=%d", fired)
	}

	// Next day, same minute, fires again
	s.runDue(context.Background(), day.AddDate(0, 0, 1))
	if fired != 2 {
		t.Fatalf("daily job should fire the next day, fired=%d", fired)
	}
}

func TestRunDue_OrderAndIsolation(t *testing.T) {
	s := New(testSettings(t))
	var order []string
	s.Add(&Job{Name: "panics", Interval: time.Minute, Run: func(ctx context.Context) error {
		order = append(order, "panics")
		panic("job blew up")
	}})
	s.Add(&Job{Name: "errors", Interval: time.Minute, Run: func(ctx context.Context) error {
		order = append(order, "errors")
		return errors.New("job failed")
	}})
	s.Add(&Job{Name: "healthy", Interval: time.Minute, Run: func(ctx context.Context) error {
		order = append(order, "healthy")
		return nil
	}})

	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.Local)
	s.runDue(context.Background(), now)

	want := []string{"panics", "errors", "healthy"}
	if len(order) != len(want) {
		t.Fatalf("expected all %d jobs to fire, got %v", len(want), order)
	}
	for i, name := range want {
		if order[i] != name {
			t.Errorf("position %d: expected %s, got %s", i, name, order[i])
		}
	}

	// A panicked job still fires on later passes
	s.runDue(context.Background(), now.Add(time.Minute))
	if len(order) != 6 {
		t.Errorf("expected second full pass, got %v", order)
	}
}

func TestStop_Idempotent(t *testing.T) {
	s := New(testSettings(t))
	s.Start()
	s.Stop()
	s.Stop() // must not panic on double close
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vthunder/kernel/internal/brain"
	"github.com/vthunder/kernel/internal/config"
	"github.com/vthunder/kernel/internal/dedup"
	"github.com/vthunder/kernel/internal/filter"
	"github.com/vthunder/kernel/internal/logging"
	"github.com/vthunder/kernel/internal/poll"
	"github.com/vthunder/kernel/internal/report"
	"github.com/vthunder/kernel/internal/scheduler"
	"github.com/vthunder/kernel/internal/suite"
	"github.com/vthunder/kernel/internal/tools"
	"github.com/vthunder/kernel/internal/transport"
)

// Appended to the owner's personality prompt so the model knows how to use
// its tools for relative scheduling.
const toolInstructions = "\n\nYou have access to tools to manage the user's digital life. " +
	"When asked to schedule or remind, use the appropriate tool. " +
	"Always check the current time using get_current_time if you need to schedule something relatively (like 'tomorrow')."

func main() {
	log.Println("kernel - personal assistant agent")
	log.Println("=================================")

	if err := godotenv.Load(); err != nil {
		logging.Info("main", "No .env file found, using environment variables")
	} else {
		logging.Info("main", "Loaded .env file")
	}

	secretsPath := envOr("SECRETS_FILE", config.DefaultSecretsFile)
	settingsPath := envOr("SETTINGS_FILE", config.DefaultSettingsFile)
	statePath := envOr("STATE_PATH", "state")

	cfg := config.Load(secretsPath, settingsPath)

	token := cfg.Secret("discord_bot_token", "")
	if token == "" {
		log.Fatal("discord_bot_token is missing. Please set it in " + secretsPath)
	}

	// Seen-item log (durable across restarts)
	store, err := dedup.Open(statePath)
	if err != nil {
		log.Fatalf("Failed to open dedup store: %v", err)
	}
	defer store.Close()

	// Productivity services. A missing or broken token degrades every
	// operation to empty results rather than blocking startup.
	var api suite.API
	if client, err := suite.NewClient(cfg.Secret("google_token_file", "token.json")); err != nil {
		logging.Warn("main", "Google services unavailable: %v", err)
		api = suite.Unavailable{}
	} else {
		api = client
	}

	// Action registry: the fixed set of external actions
	registry := tools.NewRegistry()
	for _, d := range tools.Suite(api) {
		if err := registry.Register(d); err != nil {
			log.Fatalf("Failed to register action: %v", err)
		}
	}

	// Reasoning oracle. The system instruction is fixed here; settings
	// edits to the personality require a restart.
	ctx := context.Background()
	var oracle brain.Oracle
	gemini, err := brain.NewGemini(ctx,
		cfg.Secret("gemini_api_key", ""),
		cfg.Setting("gemini_model", brain.DefaultModel),
		cfg.Setting("system_prompt", "You are Kernel, a helpful personal assistant.")+toolInstructions)
	if err != nil {
		logging.Warn("main", "Reasoning model unavailable: %v", err)
	} else {
		oracle = gemini
		defer gemini.Close()
	}

	dispatcher := brain.NewDispatcher(oracle, registry, cfg.SettingInt("max_tool_rounds", brain.DefaultRoundLimit))

	// One-shot generation for pollers and content generators
	var gen filter.Generator
	if oracle != nil {
		gen = dispatcher
	}

	// Discord transport
	chat, err := transport.New(transport.Config{
		Token:          token,
		AllowedUserIDs: cfg.SecretStrings("allowed_discord_user_ids"),
	})
	if err != nil {
		log.Fatalf("Failed to create Discord transport: %v", err)
	}
	chat.OnUtterance = dispatcher.HandleUtterance
	if err := chat.Start(); err != nil {
		log.Fatalf("Failed to start Discord transport: %v", err)
	}

	poller := poll.New(api, store, cfg, gen)
	reporter := report.NewReporter(api, dispatcher)
	teacher := report.NewTeacher(dispatcher, cfg)

	notify := func(texts ...string) {
		owner := chat.Owner()
		if owner == "" {
			logging.Warn("main", "No owner configured; dropping %d notification(s)", len(texts))
			return
		}
		for _, text := range texts {
			if text == "" {
				continue
			}
			if err := chat.Send(owner, text); err != nil {
				logging.Warn("main", "notify failed: %v", err)
			}
		}
	}

	sched := scheduler.New(cfg)
	mustAdd(sched, &scheduler.Job{
		Name:     "poll",
		Interval: time.Duration(cfg.SettingInt("email_check_interval_minutes", 5)) * time.Minute,
		Run: func(ctx context.Context) error {
			notify(poller.PollEmails(ctx)...)
			notify(poller.PollCalendar(ctx)...)
			return nil
		},
	})
	for _, digest := range []struct {
		part       string
		settingKey string
		defaultAt  string
	}{
		{"morning", "morning_report_time", "08:00"},
		{"afternoon", "afternoon_report_time", "13:00"},
		{"evening", "evening_report_time", "19:00"},
	} {
		part := digest.part
		mustAdd(sched, &scheduler.Job{
			Name:    part + "-digest",
			DailyAt: cfg.Setting(digest.settingKey, digest.defaultAt),
			Run: func(ctx context.Context) error {
				notify(reporter.Report(ctx, part))
				return nil
			},
		})
	}
	mustAdd(sched, &scheduler.Job{
		Name:     "lesson",
		Interval: time.Duration(cfg.SettingInt("learning_interval_hours", 4)) * time.Hour,
		Run: func(ctx context.Context) error {
			notify(teacher.Lesson(ctx))
			return nil
		},
	})
	if cfg.SettingBool("word_of_day_enabled", false) {
		mustAdd(sched, &scheduler.Job{
			Name:    "word-of-day",
			DailyAt: cfg.Setting("word_of_day_time", "09:00"),
			Run: func(ctx context.Context) error {
				notify(teacher.WordOfTheDay(ctx))
				return nil
			},
		})
	}
	sched.Start()

	logging.Info("main", "All subsystems started. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logging.Info("main", "Shutting down...")
	sched.Stop()
	if err := chat.Stop(); err != nil {
		logging.Warn("main", "Discord shutdown: %v", err)
	}
	logging.Info("main", "Goodbye!")
}

func mustAdd(s *scheduler.Scheduler, job *scheduler.Job) {
	if err := s.Add(job); err != nil {
		log.Fatalf("Failed to register job: %v", err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

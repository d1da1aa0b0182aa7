// Package transport connects the assistant to Discord: inbound owner
// messages go to the dispatcher, and outbound delivery is the single Send
// used by both chat replies and scheduler alerts.
package transport

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/vthunder/kernel/internal/logging"
)

// Discord message length cap
const maxMessageLen = 2000

const helpText = "You can ask me things like:\n" +
	"- 'Schedule a meeting with John tomorrow at 2pm'\n" +
	"- 'Read my unread emails'\n" +
	"- 'Remind me to buy milk'\n" +
	"- 'Send an email to boss@example.com saying I will be late'\n" +
	"\nI also check your emails and calendar in the background!"

const greetingText = "Hello! I am Kernel, your personal AI assistant. " +
	"I can manage your emails, calendar, and tasks. How can I help you today?"

// Config holds Discord connection settings
type Config struct {
	Token string
	// AllowedUserIDs is the short allow-list of callers. Empty means
	// anyone may talk to the bot (logged loudly).
	AllowedUserIDs []string
}

// Discord is the chat transport. It both listens for owner messages and
// delivers outbound notifications.
type Discord struct {
	session *discordgo.Session
	allowed map[string]bool
	owner   string // first allowed ID; target for unsolicited notifications
	botID   string
	started time.Time

	// OnUtterance handles a free-text message and returns the reply. Set
	// before Start.
	OnUtterance func(ctx context.Context, text string) string
}

// New creates the transport
func New(cfg Config) (*Discord, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create Discord session: %w", err)
	}

	d := &Discord{
		session: session,
		allowed: make(map[string]bool),
	}
	for _, id := range cfg.AllowedUserIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		d.allowed[id] = true
		if d.owner == "" {
			d.owner = id
		}
	}
	if len(d.allowed) == 0 {
		logging.Warn("transport", "No allowed user IDs configured. Anyone can use this bot!")
	}

	session.AddHandler(d.handleMessage)
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	return d, nil
}

// Start connects to Discord
func (d *Discord) Start() error {
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("open Discord connection: %w", err)
	}
	d.botID = d.session.State.User.ID
	d.started = time.Now()
	logging.Info("transport", "Connected as %s", d.session.State.User.Username)
	return nil
}

// Stop disconnects
func (d *Discord) Stop() error {
	return d.session.Close()
}

// Owner returns the notification recipient (first allowed user ID)
func (d *Discord) Owner() string {
	return d.owner
}

// Send delivers text to a user by ID via DM. Used uniformly for dispatcher
// replies and scheduler-emitted alerts and digests.
func (d *Discord) Send(recipient, text string) error {
	if recipient == "" {
		return fmt.Errorf("no recipient configured")
	}
	channel, err := d.session.UserChannelCreate(recipient)
	if err != nil {
		return fmt.Errorf("open DM channel: %w", err)
	}
	return d.sendChunked(channel.ID, text)
}

// sendChunked splits messages over Discord's length cap
func (d *Discord) sendChunked(channelID, text string) error {
	for len(text) > 0 {
		chunk := text
		if len(chunk) > maxMessageLen {
			// Prefer breaking at a newline
			cut := strings.LastIndex(chunk[:maxMessageLen], "\n")
			if cut < maxMessageLen/2 {
				cut = maxMessageLen
			}
			chunk = chunk[:cut]
		}
		if _, err := d.session.ChannelMessageSend(channelID, chunk); err != nil {
			return err
		}
		text = strings.TrimPrefix(text[len(chunk):], "\n")
	}
	return nil
}

func (d *Discord) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == d.botID {
		return
	}

	if len(d.allowed) > 0 && !d.allowed[m.Author.ID] {
		logging.Debug("transport", "Ignoring message from unauthorized user %s", m.Author.ID)
		s.ChannelMessageSend(m.ChannelID, "Sorry, you are not authorized to use this bot.")
		return
	}

	content := strings.TrimSpace(m.Content)
	switch {
	case content == "!ping":
		s.ChannelMessageSend(m.ChannelID, d.statusLine())
		return
	case content == "!start":
		s.ChannelMessageSend(m.ChannelID, greetingText)
		return
	case content == "!help":
		s.ChannelMessageSend(m.ChannelID, helpText)
		return
	case content == "":
		return
	}

	if d.OnUtterance == nil {
		return
	}

	logging.Info("transport", "Message from %s: %s", m.Author.Username, logging.Truncate(content, 60))
	s.ChannelTyping(m.ChannelID)

	// The dispatcher serializes utterances internally; the goroutine only
	// keeps the gateway handler from blocking on oracle latency.
	go func() {
		reply := d.OnUtterance(context.Background(), content)
		if err := d.sendChunked(m.ChannelID, reply); err != nil {
			logging.Warn("transport", "reply failed: %v", err)
		}
	}()
}

// statusLine reports liveness plus process resource usage
func (d *Discord) statusLine() string {
	line := fmt.Sprintf("Pong! Kernel is running (up %s).", time.Since(d.started).Round(time.Second))

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return line
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		line += fmt.Sprintf(" mem: %d MB", mem.RSS/1024/1024)
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		line += fmt.Sprintf(", cpu: %.1f%%", cpu)
	}
	return line
}

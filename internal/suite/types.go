package suite

import "context"

// Email is a trimmed view of an unread inbox message
type Email struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// Event is a trimmed view of a calendar event
type Event struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Start   string `json:"start"`
	Link    string `json:"link"`
}

// Task is a trimmed view of a to-do item
type Task struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Notes  string `json:"notes,omitempty"`
	Due    string `json:"due,omitempty"`
	Status string `json:"status,omitempty"`
}

// API is the productivity-service surface the assistant consumes. All
// operations fail soft: on error they log and return an empty result, and
// callers treat empty results as normal.
type API interface {
	ListUnreadEmails(ctx context.Context, limit int) []Email
	SendEmail(ctx context.Context, to, subject, body string) bool
	MarkEmailRead(ctx context.Context, id string) bool
	ListUpcomingEvents(ctx context.Context, hours int) []Event
	CreateEvent(ctx context.Context, summary, startISO, endISO, description string) string
	ListTasks(ctx context.Context, limit int) []Task
	AddTask(ctx context.Context, title, notes, dueISO string) string
}

// Unavailable is the API used when no Google credentials are configured.
// Every operation returns the empty fail-soft result.
type Unavailable struct{}

func (Unavailable) ListUnreadEmails(ctx context.Context, limit int) []Email { return nil }
func (Unavailable) SendEmail(ctx context.Context, to, subject, body string) bool {
	return false
}
func (Unavailable) MarkEmailRead(ctx context.Context, id string) bool        { return false }
func (Unavailable) ListUpcomingEvents(ctx context.Context, hours int) []Event { return nil }
func (Unavailable) CreateEvent(ctx context.Context, summary, startISO, endISO, description string) string {
	return ""
}
func (Unavailable) ListTasks(ctx context.Context, limit int) []Task      { return nil }
func (Unavailable) AddTask(ctx context.Context, title, notes, dueISO string) string { return "" }

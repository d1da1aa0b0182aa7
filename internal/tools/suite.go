package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/vthunder/kernel/internal/suite"
)

// Suite builds the fixed set of productivity actions bound to the given
// client. Registered once at startup; the descriptions are written for the
// reasoning model, not for humans.
func Suite(api suite.API) []*Descriptor {
	return []*Descriptor{
		{
			Name:        "create_calendar_event",
			Description: "Creates a new event in the user's primary calendar.",
			Params: []Param{
				{Name: "summary", Type: TypeString, Description: "The title of the event.", Required: true},
				{Name: "start_time_iso", Type: TypeString, Description: "The start time in ISO 8601 format (e.g. '2023-10-27T10:00:00').", Required: true},
				{Name: "end_time_iso", Type: TypeString, Description: "The end time in ISO 8601 format. If not provided, defaults to 1 hour after start."},
				{Name: "description", Type: TypeString, Description: "A description or body for the event."},
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				link := api.CreateEvent(ctx,
					stringArg(args, "summary"),
					stringArg(args, "start_time_iso"),
					stringArg(args, "end_time_iso"),
					stringArg(args, "description"))
				if link == "" {
					return nil, fmt.Errorf("calendar service did not create the event")
				}
				return link, nil
			},
		},
		{
			Name:        "add_todo_task",
			Description: "Adds a new task to the user's to-do list.",
			Params: []Param{
				{Name: "title", Type: TypeString, Description: "The content of the task.", Required: true},
				{Name: "notes", Type: TypeString, Description: "Additional details for the task."},
				{Name: "due_date_iso", Type: TypeString, Description: "The due date in ISO 8601 format (RFC 3339)."},
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				link := api.AddTask(ctx,
					stringArg(args, "title"),
					stringArg(args, "notes"),
					stringArg(args, "due_date_iso"))
				if link == "" {
					return nil, fmt.Errorf("task service did not create the task")
				}
				return link, nil
			},
		},
		{
			Name:        "list_todo_tasks",
			Description: "Lists the user's tasks from the to-do list.",
			Params: []Param{
				{Name: "limit", Type: TypeInteger, Description: "The max number of tasks to retrieve (default 10).", Default: 10},
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				return api.ListTasks(ctx, intArg(args, "limit", 10)), nil
			},
		},
		{
			Name:        "send_email",
			Description: "Sends an email to a specific address.",
			Params: []Param{
				{Name: "to_email", Type: TypeString, Description: "The recipient's email address.", Required: true},
				{Name: "subject", Type: TypeString, Description: "The subject line of the email.", Required: true},
				{Name: "body", Type: TypeString, Description: "The main content/body of the email.", Required: true},
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				if !api.SendEmail(ctx, stringArg(args, "to_email"), stringArg(args, "subject"), stringArg(args, "body")) {
					return nil, fmt.Errorf("mail service did not accept the message")
				}
				return "Email sent.", nil
			},
		},
		{
			Name:        "list_unread_emails",
			Description: "Lists the most recent unread emails.",
			Params: []Param{
				{Name: "limit", Type: TypeInteger, Description: "The max number of emails to retrieve (default 5).", Default: 5},
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				return api.ListUnreadEmails(ctx, intArg(args, "limit", 5)), nil
			},
		},
		{
			Name:        "list_upcoming_events",
			Description: "Lists calendar events occurring in the next X hours.",
			Params: []Param{
				{Name: "hours", Type: TypeInteger, Description: "The number of hours to look ahead (default 24).", Default: 24},
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				return api.ListUpcomingEvents(ctx, intArg(args, "hours", 24)), nil
			},
		},
		{
			Name:        "get_current_time",
			Description: "Returns the current date and time.",
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				return time.Now().Format(time.RFC3339), nil
			},
		},
	}
}

func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func intArg(args map[string]any, name string, def int) int {
	if n, ok := args[name].(int); ok {
		return n
	}
	return def
}

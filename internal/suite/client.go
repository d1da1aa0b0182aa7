// Package suite is a Google mail/calendar/tasks client over plain REST with
// OAuth refresh-token authentication. No SDK: the three APIs used here are
// small enough that raw HTTP keeps the dependency surface flat.
package suite

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/vthunder/kernel/internal/logging"
)

const (
	gmailBaseURL    = "https://gmail.googleapis.com/gmail/v1"
	calendarBaseURL = "https://www.googleapis.com/calendar/v3"
	tasksBaseURL    = "https://tasks.googleapis.com/tasks/v1"
	tokenURL        = "https://oauth2.googleapis.com/token"

	// Refresh before Google's 1 hour access token expiry
	tokenLifetime = 55 * time.Minute
)

// Client talks to Gmail, Calendar and Tasks for the owning account
type Client struct {
	httpClient  *http.Client
	credentials *oauthCredentials

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// oauthCredentials holds an installed-app OAuth token with refresh grant
type oauthCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
}

// NewClient creates a client from a token file produced by the standard
// installed-app consent flow.
func NewClient(tokenFile string) (*Client, error) {
	data, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}

	var creds oauthCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}
	if creds.RefreshToken == "" {
		return nil, fmt.Errorf("token file %s has no refresh_token", tokenFile)
	}

	return &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		credentials: &creds,
	}, nil
}

// token returns a valid access token, refreshing it when close to expiry
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{
		"client_id":     {c.credentials.ClientID},
		"client_secret": {c.credentials.ClientSecret},
		"refresh_token": {c.credentials.RefreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL,
		bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token refresh: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token refresh: %s: %s", resp.Status, logging.Truncate(string(body), 200))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("parse token response: %w", err)
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(tokenLifetime)
	return c.accessToken, nil
}

// doJSON performs an authenticated request and decodes the JSON response
// into out (out may be nil when the body does not matter).
func (c *Client) doJSON(ctx context.Context, method, rawURL string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return err
	}

	tok, err := c.token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %s: %s", method, rawURL, resp.Status, logging.Truncate(string(respBody), 200))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// --- Gmail ---

// ListUnreadEmails lists the most recent unread inbox messages
func (c *Client) ListUnreadEmails(ctx context.Context, limit int) []Email {
	listURL := fmt.Sprintf("%s/users/me/messages?labelIds=UNREAD&maxResults=%d", gmailBaseURL, limit)

	var list struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, listURL, nil, &list); err != nil {
		logging.Warn("suite", "gmail list: %v", err)
		return nil
	}

	var emails []Email
	for _, msg := range list.Messages {
		var full struct {
			Snippet string `json:"snippet"`
			Payload struct {
				Headers []struct {
					Name  string `json:"name"`
					Value string `json:"value"`
				} `json:"headers"`
			} `json:"payload"`
		}
		getURL := fmt.Sprintf("%s/users/me/messages/%s?format=metadata&metadataHeaders=Subject&metadataHeaders=From", gmailBaseURL, msg.ID)
		if err := c.doJSON(ctx, http.MethodGet, getURL, nil, &full); err != nil {
			logging.Warn("suite", "gmail get %s: %v", msg.ID, err)
			continue
		}

		email := Email{
			ID:      msg.ID,
			Subject: "(No Subject)",
			Sender:  "(Unknown)",
			Snippet: full.Snippet,
			Link:    "https://mail.google.com/mail/u/0/#inbox/" + msg.ID,
		}
		for _, h := range full.Payload.Headers {
			switch h.Name {
			case "Subject":
				email.Subject = h.Value
			case "From":
				email.Sender = h.Value
			}
		}
		emails = append(emails, email)
	}
	return emails
}

// SendEmail sends a plain-text email from the owning account
func (c *Client) SendEmail(ctx context.Context, to, subject, body string) bool {
	raw := fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s", to, subject, body)
	payload := map[string]string{
		"raw": base64.URLEncoding.EncodeToString([]byte(raw)),
	}

	sendURL := gmailBaseURL + "/users/me/messages/send"
	if err := c.doJSON(ctx, http.MethodPost, sendURL, payload, nil); err != nil {
		logging.Warn("suite", "gmail send: %v", err)
		return false
	}
	logging.Info("suite", "Email sent to %s", to)
	return true
}

// MarkEmailRead removes the UNREAD label from a message
func (c *Client) MarkEmailRead(ctx context.Context, id string) bool {
	payload := map[string]any{"removeLabelIds": []string{"UNREAD"}}
	modifyURL := fmt.Sprintf("%s/users/me/messages/%s/modify", gmailBaseURL, id)
	if err := c.doJSON(ctx, http.MethodPost, modifyURL, payload, nil); err != nil {
		logging.Warn("suite", "gmail modify %s: %v", id, err)
		return false
	}
	return true
}

// --- Calendar ---

// ListUpcomingEvents lists events on the primary calendar starting within
// the next hours hours.
func (c *Client) ListUpcomingEvents(ctx context.Context, hours int) []Event {
	now := time.Now().UTC()
	q := url.Values{
		"timeMin":      {now.Format(time.RFC3339)},
		"timeMax":      {now.Add(time.Duration(hours) * time.Hour).Format(time.RFC3339)},
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
	}
	listURL := fmt.Sprintf("%s/calendars/primary/events?%s", calendarBaseURL, q.Encode())

	var list struct {
		Items []struct {
			ID      string `json:"id"`
			Summary string `json:"summary"`
			Start   struct {
				DateTime string `json:"dateTime"`
				Date     string `json:"date"`
			} `json:"start"`
			HTMLLink string `json:"htmlLink"`
		} `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, listURL, nil, &list); err != nil {
		logging.Warn("suite", "calendar list: %v", err)
		return nil
	}

	var events []Event
	for _, item := range list.Items {
		start := item.Start.DateTime
		if start == "" {
			start = item.Start.Date // all-day event
		}
		summary := item.Summary
		if summary == "" {
			summary = "No Title"
		}
		events = append(events, Event{
			ID:      item.ID,
			Summary: summary,
			Start:   start,
			Link:    item.HTMLLink,
		})
	}
	return events
}

// CreateEvent creates an event on the primary calendar and returns its link.
// An empty endISO defaults the event to one hour.
func (c *Client) CreateEvent(ctx context.Context, summary, startISO, endISO, description string) string {
	if endISO == "" {
		start, err := time.Parse(time.RFC3339, startISO)
		if err != nil {
			// Try without offset, as the model sometimes emits bare local times
			start, err = time.Parse("2006-01-02T15:04:05", startISO)
		}
		if err != nil {
			logging.Warn("suite", "calendar create: bad start time %q: %v", startISO, err)
			return ""
		}
		endISO = start.Add(time.Hour).Format("2006-01-02T15:04:05-07:00")
	}

	payload := map[string]any{
		"summary":     summary,
		"description": description,
		"start":       map[string]string{"dateTime": startISO},
		"end":         map[string]string{"dateTime": endISO},
	}

	var created struct {
		HTMLLink string `json:"htmlLink"`
	}
	insertURL := calendarBaseURL + "/calendars/primary/events"
	if err := c.doJSON(ctx, http.MethodPost, insertURL, payload, &created); err != nil {
		logging.Warn("suite", "calendar create: %v", err)
		return ""
	}
	logging.Info("suite", "Event created: %s", created.HTMLLink)
	return created.HTMLLink
}

// --- Tasks ---

// ListTasks lists open items from the default task list
func (c *Client) ListTasks(ctx context.Context, limit int) []Task {
	listURL := fmt.Sprintf("%s/lists/@default/tasks?maxResults=%s", tasksBaseURL, strconv.Itoa(limit))

	var list struct {
		Items []Task `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, listURL, nil, &list); err != nil {
		logging.Warn("suite", "tasks list: %v", err)
		return nil
	}
	return list.Items
}

// AddTask inserts a task into the default list and returns a confirmation
func (c *Client) AddTask(ctx context.Context, title, notes, dueISO string) string {
	payload := map[string]any{"title": title}
	if notes != "" {
		payload["notes"] = notes
	}
	if dueISO != "" {
		payload["due"] = dueISO
	}

	var created struct {
		Title string `json:"title"`
		Links []struct {
			Link string `json:"link"`
		} `json:"links"`
	}
	insertURL := tasksBaseURL + "/lists/@default/tasks"
	if err := c.doJSON(ctx, http.MethodPost, insertURL, payload, &created); err != nil {
		logging.Warn("suite", "tasks insert: %v", err)
		return ""
	}
	logging.Info("suite", "Task created: %s", created.Title)
	if len(created.Links) > 0 {
		return created.Links[0].Link
	}
	return "Task created"
}

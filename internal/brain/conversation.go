// Package brain turns free-text requests into tool calls and replies. The
// reasoning model is abstracted behind the Oracle interface so the dispatch
// loop can be driven by a stub in tests.
package brain

import (
	"context"
	"errors"
)

// TurnKind identifies what a conversation turn holds
type TurnKind string

const (
	TurnUser       TurnKind = "user"
	TurnAssistant  TurnKind = "assistant"
	TurnToolCall   TurnKind = "tool_call"
	TurnToolResult TurnKind = "tool_result"
)

// ToolCall is a concrete action request emitted by the oracle
type ToolCall struct {
	Name string
	Args map[string]any
}

// Turn is one entry in a conversation. Exactly one of Text, Call, or the
// Result/Err pair is meaningful depending on Kind.
type Turn struct {
	Kind   TurnKind
	Text   string
	Call   *ToolCall
	Result any
	Err    string
}

// Reply is the oracle's continuation of a conversation: either final text
// or one or more requested tool calls.
type Reply struct {
	Text  string
	Calls []ToolCall
}

// ActionSchema describes one declared action for the oracle
type ActionSchema struct {
	Name        string
	Description string
	Params      []ParamSchema
}

// ParamSchema describes one action parameter for the oracle
type ParamSchema struct {
	Name        string
	Type        string // string | integer | boolean
	Description string
	Required    bool
}

// Oracle is the external reasoning engine. It may fail (network, quota);
// failures are recoverable errors, never a crash.
type Oracle interface {
	// Continue extends the conversation, returning final text or tool calls
	Continue(ctx context.Context, history []Turn, actions []ActionSchema) (*Reply, error)
	// Generate performs a one-shot, tool-free completion
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrOracleUnavailable means no reasoning capability is configured
var ErrOracleUnavailable = errors.New("reasoning model not configured")

// Conversation is the ordered turn history for one user session. It is not
// safe for concurrent use; the dispatcher serializes access.
type Conversation struct {
	turns []Turn
}

// NewConversation creates an empty conversation
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a turn
func (c *Conversation) Append(t Turn) {
	c.turns = append(c.turns, t)
}

// Turns returns the history. Callers must not mutate the returned slice.
func (c *Conversation) Turns() []Turn {
	return c.turns
}

// Len returns the number of turns
func (c *Conversation) Len() int {
	return len(c.turns)
}

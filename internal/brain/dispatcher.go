package brain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/vthunder/kernel/internal/logging"
	"github.com/vthunder/kernel/internal/tools"
)

// DefaultRoundLimit bounds oracle round-trips per utterance so a model that
// keeps requesting tools cannot loop forever.
const DefaultRoundLimit = 8

// Canned replies for the failure modes a user can hit. The wording is
// deliberately non-technical.
const (
	replyNoOracle   = "I am not connected to my reasoning model right now, so I can't help with that."
	replyOracleFail = "I had trouble thinking about that. Please try again."
	replyLoopLimit  = "I'm sorry, I got stuck going in circles on that request. Could you rephrase it?"
)

// Dispatcher owns the standing conversation for the authorized user and
// drives the oracle/tool loop. A second utterance arriving while one is in
// flight queues behind it; conversation state is never interleaved.
type Dispatcher struct {
	oracle     Oracle
	registry   *tools.Registry
	roundLimit int

	mu   sync.Mutex
	conv *Conversation
}

// NewDispatcher creates a dispatcher with its single standing conversation.
// oracle may be nil when no reasoning model is configured; every request
// then gets a fixed degraded reply.
func NewDispatcher(oracle Oracle, registry *tools.Registry, roundLimit int) *Dispatcher {
	if roundLimit <= 0 {
		roundLimit = DefaultRoundLimit
	}
	return &Dispatcher{
		oracle:     oracle,
		registry:   registry,
		roundLimit: roundLimit,
		conv:       NewConversation(),
	}
}

// Conversation exposes the turn history for inspection (tests, MCP surface)
func (d *Dispatcher) Conversation() *Conversation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conv
}

// HandleUtterance appends the user turn, loops the oracle against the
// action registry until it produces final text, and returns that text.
// The lifecycle per utterance is:
//
//	Reasoning -> (ToolPending -> ToolExecuted -> Reasoning)* -> ReplyReady
//
// bounded by roundLimit. Every failure path returns a user-facing string;
// nothing propagates to the transport. The conversation always keeps its
// last consistent state so the oracle retains context on the next
// utterance.
func (d *Dispatcher) HandleUtterance(ctx context.Context, text string) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.oracle == nil {
		return replyNoOracle
	}

	// Short id to correlate log lines for one utterance
	reqID := uuid.NewString()[:8]
	logging.Debug("brain", "[%s] utterance received (%d chars)", reqID, len(text))

	d.conv.Append(Turn{Kind: TurnUser, Text: text})
	actions := describeActions(d.registry)

	for round := 0; round < d.roundLimit; round++ {
		reply, err := d.oracle.Continue(ctx, d.conv.Turns(), actions)
		if err != nil {
			if errors.Is(err, ErrOracleUnavailable) {
				return replyNoOracle
			}
			logging.Warn("brain", "[%s] oracle error: %v", reqID, err)
			return replyOracleFail
		}

		if len(reply.Calls) == 0 {
			d.conv.Append(Turn{Kind: TurnAssistant, Text: reply.Text})
			logging.Debug("brain", "[%s] reply ready after %d round(s)", reqID, round+1)
			return reply.Text
		}

		// Execute requested calls in emitted order. Later calls may depend
		// on earlier results already folded into the conversation, so no
		// reordering and no parallelism.
		for i := range reply.Calls {
			call := reply.Calls[i]
			d.conv.Append(Turn{Kind: TurnToolCall, Call: &call})

			result, err := d.registry.Invoke(ctx, call.Name, call.Args)
			turn := Turn{Kind: TurnToolResult, Call: &call}
			if err != nil {
				// Registry errors go back to the oracle as the call's
				// result so it can correct course or explain.
				turn.Err = err.Error()
				logging.Info("brain", "[%s] tool %s failed: %v", reqID, call.Name, err)
			} else {
				turn.Result = result
				logging.Debug("brain", "[%s] tool %s ok", reqID, call.Name)
			}
			d.conv.Append(turn)
		}
	}

	logging.Warn("brain", "[%s] round limit (%d) exceeded", reqID, d.roundLimit)
	return replyLoopLimit
}

// Generate is the stateless one-shot path used by digests, lessons, and
// importance analysis. It never touches the standing conversation and does
// not permit tool use.
func (d *Dispatcher) Generate(ctx context.Context, prompt string) (string, error) {
	if d.oracle == nil {
		return "", ErrOracleUnavailable
	}
	text, err := d.oracle.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return text, nil
}

func describeActions(r *tools.Registry) []ActionSchema {
	var schemas []ActionSchema
	for _, d := range r.Describe() {
		schema := ActionSchema{Name: d.Name, Description: d.Description}
		for _, p := range d.Params {
			schema.Params = append(schema.Params, ParamSchema{
				Name:        p.Name,
				Type:        string(p.Type),
				Description: p.Description,
				Required:    p.Required,
			})
		}
		schemas = append(schemas, schema)
	}
	return schemas
}

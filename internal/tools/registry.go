// Package tools declares the fixed set of external actions the assistant can
// take and dispatches validated calls to their handlers. A handler that is
// not registered here is unreachable no matter what the user asks for.
package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/vthunder/kernel/internal/logging"
)

// ParamType is the wire type of an action parameter
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
)

// Param describes one parameter of an action
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Default     any
}

// Handler executes an action with validated arguments
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Descriptor declares a named action: its schema for the reasoning model
// and the handler bound to it.
type Descriptor struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

// ErrDuplicateAction is returned when registering a name twice
var ErrDuplicateAction = errors.New("action already registered")

// UnknownActionError indicates a call to a name that was never registered
type UnknownActionError struct {
	Name string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action: %s", e.Name)
}

// InvalidArgumentsError indicates arguments that fail schema validation
type InvalidArgumentsError struct {
	Action string
	Reason string
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Action, e.Reason)
}

// ToolExecutionError wraps a failure raised by an action handler. The
// registry never lets a handler failure escape as anything else, so one
// failed action cannot abort the rest of a dispatch loop.
type ToolExecutionError struct {
	Action string
	Cause  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("action %s failed: %v", e.Action, e.Cause)
}

func (e *ToolExecutionError) Unwrap() error { return e.Cause }

// Registry holds the registered actions. Registration happens once at
// startup; the set is immutable afterwards.
type Registry struct {
	order   []string
	actions map[string]*Descriptor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]*Descriptor)}
}

// Register adds an action. Duplicate names fail.
func (r *Registry) Register(d *Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("action name is required")
	}
	if _, exists := r.actions[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAction, d.Name)
	}
	r.actions[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// Describe returns all descriptors in registration order. This is the schema
// set handed to the reasoning model at session start.
func (r *Registry) Describe() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.actions[name])
	}
	return out
}

// Invoke validates args against the action's schema, runs the handler, and
// returns its result. Handler errors and panics come back as a
// *ToolExecutionError; they are never re-raised.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (result any, err error) {
	d, ok := r.actions[name]
	if !ok {
		return nil, &UnknownActionError{Name: name}
	}

	resolved, verr := validateArgs(d, args)
	if verr != nil {
		return nil, verr
	}

	defer func() {
		if rec := recover(); rec != nil {
			logging.Warn("tools", "handler %s panicked: %v", name, rec)
			result = nil
			err = &ToolExecutionError{Action: name, Cause: fmt.Errorf("panic: %v", rec)}
		}
	}()

	result, err = d.Handler(ctx, resolved)
	if err != nil {
		return nil, &ToolExecutionError{Action: name, Cause: err}
	}
	return result, nil
}

// validateArgs checks required params, applies defaults, and coerces the
// loose numeric types JSON decoding produces.
func validateArgs(d *Descriptor, args map[string]any) (map[string]any, *InvalidArgumentsError) {
	resolved := make(map[string]any, len(d.Params))
	for _, p := range d.Params {
		v, present := args[p.Name]
		if !present || v == nil {
			if p.Required {
				return nil, &InvalidArgumentsError{Action: d.Name, Reason: "missing required parameter " + p.Name}
			}
			if p.Default != nil {
				resolved[p.Name] = p.Default
			}
			continue
		}

		switch p.Type {
		case TypeString:
			s, ok := v.(string)
			if !ok {
				return nil, &InvalidArgumentsError{Action: d.Name, Reason: p.Name + " must be a string"}
			}
			resolved[p.Name] = s
		case TypeInteger:
			switch n := v.(type) {
			case int:
				resolved[p.Name] = n
			case int64:
				resolved[p.Name] = int(n)
			case float64:
				resolved[p.Name] = int(n)
			default:
				return nil, &InvalidArgumentsError{Action: d.Name, Reason: p.Name + " must be an integer"}
			}
		case TypeBoolean:
			b, ok := v.(bool)
			if !ok {
				return nil, &InvalidArgumentsError{Action: d.Name, Reason: p.Name + " must be a boolean"}
			}
			resolved[p.Name] = b
		default:
			resolved[p.Name] = v
		}
	}
	return resolved, nil
}

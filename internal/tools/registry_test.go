package tools

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func echoDescriptor(name string) *Descriptor {
	return &Descriptor{
		Name:        name,
		Description: "echoes its input",
		Params: []Param{
			{Name: "text", Type: TypeString, Required: true},
			{Name: "repeat", Type: TypeInteger, Default: 1},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return fmt.Sprintf("%v x%v", args["text"], args["repeat"]), nil
		},
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoDescriptor("echo")); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	err := r.Register(echoDescriptor("echo"))
	if !errors.Is(err, ErrDuplicateAction) {
		t.Errorf("expected ErrDuplicateAction, got %v", err)
	}
}

func TestRegistry_DescribeOrder(t *testing.T) {
	r := NewRegistry()
	names := []string{"charlie", "alpha", "bravo"}
	for _, name := range names {
		if err := r.Register(echoDescriptor(name)); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	descs := r.Describe()
	if len(descs) != 3 {
		t.Fatalf("expected 3 descriptors, got %d", len(descs))
	}
	for i, name := range names {
		if descs[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, descs[i].Name)
		}
	}
}

func TestInvoke_UnknownAction(t *testing.T) {
	r := NewRegistry()
	_, err := r.Invoke(context.Background(), "missing", nil)

	var unknownErr *UnknownActionError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownActionError, got %v", err)
	}
	if unknownErr.Name != "missing" {
		t.Errorf("expected name 'missing', got %q", unknownErr.Name)
	}
}

func TestInvoke_MissingRequired(t *testing.T) {
	r := NewRegistry()
	r.Register(echoDescriptor("echo"))

	_, err := r.Invoke(context.Background(), "echo", map[string]any{})
	var invalidErr *InvalidArgumentsError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected InvalidArgumentsError, got %v", err)
	}
}

func TestInvoke_WrongType(t *testing.T) {
	r := NewRegistry()
	r.Register(echoDescriptor("echo"))

	_, err := r.Invoke(context.Background(), "echo", map[string]any{"text": 42})
	var invalidErr *InvalidArgumentsError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected InvalidArgumentsError, got %v", err)
	}
}

func TestInvoke_DefaultsAndCoercion(t *testing.T) {
	r := NewRegistry()
	var got map[string]any
	r.Register(&Descriptor{
		Name: "capture",
		Params: []Param{
			{Name: "limit", Type: TypeInteger, Default: 10},
			{Name: "hours", Type: TypeInteger},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			got = args
			return nil, nil
		},
	})

	// JSON decoding hands numbers over as float64
	if _, err := r.Invoke(context.Background(), "capture", map[string]any{"hours": float64(24)}); err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if got["limit"] != 10 {
		t.Errorf("expected default limit 10, got %v", got["limit"])
	}
	if got["hours"] != 24 {
		t.Errorf("expected hours coerced to int 24, got %v (%T)", got["hours"], got["hours"])
	}
}

func TestInvoke_HandlerError(t *testing.T) {
	r := NewRegistry()
	cause := fmt.Errorf("downstream unavailable")
	r.Register(&Descriptor{
		Name: "flaky",
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return nil, cause
		},
	})

	_, err := r.Invoke(context.Background(), "flaky", nil)
	var execErr *ToolExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ToolExecutionError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable via errors.Is")
	}
}

func TestInvoke_HandlerPanicIsCaught(t *testing.T) {
	r := NewRegistry()
	r.Register(&Descriptor{
		Name: "bomb",
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			panic("boom")
		},
	})

	_, err := r.Invoke(context.Background(), "bomb", nil)
	var execErr *ToolExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ToolExecutionError from panic, got %v", err)
	}
}

func TestInvoke_Success(t *testing.T) {
	r := NewRegistry()
	r.Register(echoDescriptor("echo"))

	result, err := r.Invoke(context.Background(), "echo", map[string]any{"text": "hi"})
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if result != "hi x1" {
		t.Errorf("expected 'hi x1', got %v", result)
	}
}

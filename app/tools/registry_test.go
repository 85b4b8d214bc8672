package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool() Tool {
	return Tool{
		Name:        "echo",
		Description: "Echo the query back.",
		Parameters: Parameter{
			Type:       "object",
			Properties: map[string]any{"query": map[string]any{"type": "string"}},
			Required:   []string{"query"},
		},
		HandlerFunc: func(_ context.Context, task ToolTask) (string, error) {
			return task.StringParameter("query")
		},
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool()))
	assert.Error(t, r.Register(Tool{Name: ""}))
	assert.Error(t, r.Register(Tool{Name: "no_handler"}))

	assert.Equal(t, []string{"echo"}, r.Names())
	tk := r.Toolkit()
	assert.Contains(t, tk, "echo")

	_, ok := r.Get("echo")
	assert.True(t, ok)
	_, ok = r.Get("missing")
	assert.False(t, ok)

	require.NoError(t, r.Register(Tool{Name: "later", HandlerFunc: echoTool().HandlerFunc}))
	assert.Equal(t, []string{"echo", "later"}, r.Names())
	assert.NotContains(t, tk, "later", "toolkit is a snapshot")
}

func TestRegistryExecute(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool()))
	require.NoError(t, r.Register(Tool{
		Name: "broken",
		HandlerFunc: func(context.Context, ToolTask) (string, error) {
			return "", errors.New("boom")
		},
	}))

	out, err := r.Execute(ctx, ToolTask{Key: "echo", Parameters: map[string]any{"query": "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	_, err = r.Execute(ctx, ToolTask{Key: "echo", Parameters: map[string]any{}})
	assert.ErrorIs(t, err, ErrMissingParameter)

	_, err = r.Execute(ctx, ToolTask{Key: "missing"})
	assert.ErrorIs(t, err, ErrUnknownTool)

	_, err = r.Execute(ctx, ToolTask{Key: "broken"})
	assert.EqualError(t, err, "boom")
	assert.False(t, IsCallError(err))
}

func TestStringParameter(t *testing.T) {
	task := ToolTask{Parameters: map[string]any{"query": "q", "n": 3.0, "blank": "  "}}

	v, err := task.StringParameter("query")
	require.NoError(t, err)
	assert.Equal(t, "q", v)

	_, err = task.StringParameter("n")
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.True(t, IsCallError(err))
	_, err = task.StringParameter("blank")
	assert.ErrorIs(t, err, ErrMissingParameter)
	_, err = task.StringParameter("absent")
	assert.ErrorIs(t, err, ErrMissingParameter)
}

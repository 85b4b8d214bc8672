package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrMissingParameter = errors.New("missing parameter")
	ErrInvalidParameter = errors.New("invalid parameter")
)

type HandlerFunc func(ctx context.Context, task ToolTask) (string, error)

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  Parameter   `json:"parameters"`
	HandlerFunc HandlerFunc `json:"-"`
}

type Parameter struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required"`
}

type ToolTask struct {
	Key        string         `json:"key"`
	Parameters map[string]any `json:"parameters"`
}

// Toolkit is the set of tools bound to a model, keyed by name.
type Toolkit map[string]Tool

// StringParameter reads a required, non-blank string argument.
func (t ToolTask) StringParameter(name string) (string, error) {
	raw, ok := t.Parameters[name]
	if !ok || raw == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingParameter, name)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidParameter, name, raw)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrMissingParameter, name)
	}
	return s, nil
}

// IsCallError reports whether err comes from a bad tool call rather than
// from running the tool.
func IsCallError(err error) bool {
	return errors.Is(err, ErrUnknownTool) || errors.Is(err, ErrMissingParameter) || errors.Is(err, ErrInvalidParameter)
}

// Validate checks that every required parameter is present.
func (t Tool) Validate(task ToolTask) error {
	for _, name := range t.Parameters.Required {
		if v, ok := task.Parameters[name]; !ok || v == nil {
			return fmt.Errorf("%w: %s", ErrMissingParameter, name)
		}
	}
	return nil
}

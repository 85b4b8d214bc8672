package tools

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
)

type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if tool.HandlerFunc == nil {
		return fmt.Errorf("tool %s has no handler", tool.Name)
	}
	if _, exists := r.tools[tool.Name]; exists {
		log.Printf("⚠️ Tool %s already registered, overwriting\n", tool.Name)
	}

	r.tools[tool.Name] = tool
	return nil
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Toolkit returns a snapshot of the registered tools.
func (r *Registry) Toolkit() Toolkit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(Toolkit, len(r.tools))
	for name, t := range r.tools {
		out[name] = t
	}
	return out
}

// Execute runs the named tool after checking its required parameters.
func (r *Registry) Execute(ctx context.Context, task ToolTask) (string, error) {
	tool, ok := r.Get(task.Key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, task.Key)
	}
	if err := tool.Validate(task); err != nil {
		return "", err
	}
	return tool.HandlerFunc(ctx, task)
}

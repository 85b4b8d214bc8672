package utils

import (
	"fmt"
	"sync"

	"github.com/xlab/treeprint"
)

// Trace records the steps of one agent turn as a tree.
type Trace struct {
	mu   sync.Mutex
	root treeprint.Tree
}

type TraceStep struct {
	mu     *sync.Mutex
	branch treeprint.Tree
}

func NewTrace(format string, v ...any) *Trace {
	root := treeprint.New()
	root.SetValue(fmt.Sprintf(format, v...))
	return &Trace{root: root}
}

func (t *Trace) Step(format string, v ...any) *TraceStep {
	t.mu.Lock()
	defer t.mu.Unlock()
	return &TraceStep{mu: &t.mu, branch: t.root.AddBranch(fmt.Sprintf(format, v...))}
}

func (t *Trace) Note(format string, v ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root.AddNode(fmt.Sprintf(format, v...))
}

func (s *TraceStep) Note(format string, v ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branch.AddNode(fmt.Sprintf(format, v...))
}

func (t *Trace) String() string {
	if t == nil {
		return ""
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.root.String()
}

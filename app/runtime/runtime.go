package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"GoRAGAgent/app/models"
	"GoRAGAgent/app/storage"
	"GoRAGAgent/app/tools"
	"GoRAGAgent/app/utils"
)

const DefaultMaxSteps = 6

var ErrStepLimit = errors.New("agent stopped without a final answer")

type Options struct {
	SystemPrompt string
	Temperature  float64
	MaxSteps     int
	Audit        *utils.AuditLogger
}

// Runtime answers user input with a tool-calling model. Each session keeps
// its own thread in storage, and turns of one session never interleave.
type Runtime struct {
	model    models.Interface
	registry *tools.Registry
	db       storage.Interface
	opts     Options
	audit    *utils.AuditLogger
	sessions sync.Map
}

func NewRuntime(model models.Interface, registry *tools.Registry, db storage.Interface, opts Options) *Runtime {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if registry == nil {
		registry = tools.NewRegistry()
	}
	audit := opts.Audit
	if audit == nil {
		audit = utils.Discard("agent")
	}
	return &Runtime{
		model:    model,
		registry: registry,
		db:       db,
		opts:     opts,
		audit:    audit,
	}
}

func (r *Runtime) AddTools(ts ...tools.Tool) error {
	for _, t := range ts {
		if err := r.registry.Register(t); err != nil {
			return err
		}
	}
	r.audit.Printf("🧰 Tools bound: %s", strings.Join(r.registry.Names(), ", "))
	return nil
}

func (r *Runtime) Toolkit() tools.Toolkit {
	return r.registry.Toolkit()
}

func (r *Runtime) lock(sessionID string) func() {
	v, _ := r.sessions.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// History returns the stored thread of a session as model messages.
func (r *Runtime) History(ctx context.Context, sessionID string) ([]models.Message, error) {
	records, err := r.db.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return recordsToMessages(records)
}

func recordsToMessages(records []storage.Record) ([]models.Message, error) {
	out := make([]models.Message, 0, len(records))
	for _, rec := range records {
		msg := models.Message{Role: rec.Role, Content: rec.Content, ToolCallID: rec.ToolCallID}
		if rec.ToolCalls != "" {
			if err := json.Unmarshal([]byte(rec.ToolCalls), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("decode tool calls of message %d: %w", rec.ID, err)
			}
		}
		out = append(out, msg)
	}
	return out, nil
}

func messageToRecord(msg models.Message, tool string) (storage.Record, error) {
	rec := storage.Record{
		Role:       msg.Role,
		Content:    msg.Content,
		Tool:       tool,
		ToolCallID: msg.ToolCallID,
	}
	if len(msg.ToolCalls) > 0 {
		raw, err := json.Marshal(msg.ToolCalls)
		if err != nil {
			return rec, fmt.Errorf("encode tool calls: %w", err)
		}
		rec.ToolCalls = string(raw)
	}
	return rec, nil
}

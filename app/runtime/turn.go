package runtime

import (
	"context"
	"fmt"
	"time"

	"GoRAGAgent/app/models"
	"GoRAGAgent/app/storage"
	"GoRAGAgent/app/tools"
	"GoRAGAgent/app/utils"
)

type State string

const (
	StateReceive State = "receive"
	StatePlan    State = "plan"
	StateAct     State = "act"
	StateRespond State = "respond"
	StateGiveUp  State = "give_up"
)

// TurnError carries the trace of the failed turn.
type TurnError struct {
	SessionID string
	State     State
	Trace     string
	Err       error
}

func (e *TurnError) Error() string {
	return e.Err.Error()
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

type turn struct {
	sessionID string
	thread    []models.Message
	pending   []storage.Record
	last      *models.Message
	steps     int
	trace     *utils.Trace
	step      *utils.TraceStep
}

func (t *turn) add(msg models.Message, tool string) error {
	rec, err := messageToRecord(msg, tool)
	if err != nil {
		return err
	}
	t.thread = append(t.thread, msg)
	t.pending = append(t.pending, rec)
	return nil
}

// Invoke runs one turn: Receive, then Plan and Act until the model answers
// without tool calls (Respond) or the step budget runs out (GiveUp).
// The thread is only extended when the turn succeeds.
func (r *Runtime) Invoke(ctx context.Context, sessionID, input string) (string, error) {
	unlock := r.lock(sessionID)
	defer unlock()

	started := time.Now()
	t := &turn{
		sessionID: sessionID,
		trace:     utils.NewTrace("session %s: %q", sessionID, utils.Truncate(input, 80)),
	}

	state := StateReceive
	for {
		var err error
		switch state {
		case StateReceive:
			state, err = r.receive(ctx, t, input)
		case StatePlan:
			state, err = r.plan(ctx, t)
		case StateAct:
			state, err = r.act(ctx, t)
		case StateRespond:
			if err = r.db.Append(ctx, sessionID, t.pending...); err != nil {
				return "", r.fail(t, state, fmt.Errorf("save thread: %w", err))
			}
			t.trace.Note("respond after %d step(s) in %s", t.steps, time.Since(started).Round(time.Millisecond))
			r.audit.Printf("🌳 Turn finished\n%s", t.trace.String())
			return t.last.Content, nil
		case StateGiveUp:
			return "", r.fail(t, state, fmt.Errorf("%w after %d steps", ErrStepLimit, t.steps))
		}
		if err != nil {
			return "", r.fail(t, state, err)
		}
	}
}

func (r *Runtime) fail(t *turn, state State, err error) error {
	t.trace.Note("❌ %s: %v", state, err)
	trace := t.trace.String()
	r.audit.Printf("🌳 Turn failed\n%s", trace)
	return &TurnError{SessionID: t.sessionID, State: state, Trace: trace, Err: err}
}

func (r *Runtime) receive(ctx context.Context, t *turn, input string) (State, error) {
	history, err := r.History(ctx, t.sessionID)
	if err != nil {
		return StateReceive, fmt.Errorf("load thread: %w", err)
	}
	if r.opts.SystemPrompt != "" {
		t.thread = append(t.thread, models.Message{Role: models.RoleSystem, Content: r.opts.SystemPrompt})
	}
	t.thread = append(t.thread, history...)
	if err = t.add(models.Message{Role: models.RoleUser, Content: input}, ""); err != nil {
		return StateReceive, err
	}
	return StatePlan, nil
}

func (r *Runtime) plan(ctx context.Context, t *turn) (State, error) {
	if err := ctx.Err(); err != nil {
		return StatePlan, err
	}
	if t.steps >= r.opts.MaxSteps {
		return StateGiveUp, nil
	}
	t.steps++
	t.step = t.trace.Step("plan #%d", t.steps)

	msg, err := r.model.Chat(ctx, t.thread, r.registry.Toolkit(), r.opts.Temperature)
	if err != nil {
		return StatePlan, fmt.Errorf("agent model: %w", err)
	}
	if msg == nil {
		return StatePlan, fmt.Errorf("agent model: %w", models.ErrEmptyResponse)
	}
	msg.Role = models.RoleAssistant
	t.last = msg
	if len(msg.ToolCalls) > 0 {
		return StateAct, nil
	}

	t.step.Note("answer: %q", utils.Truncate(msg.Content, 80))
	if err = t.add(*msg, ""); err != nil {
		return StatePlan, err
	}
	return StateRespond, nil
}

// act runs every requested tool in order. Bad calls become tool messages so
// the model can recover; a failing tool aborts the turn.
func (r *Runtime) act(ctx context.Context, t *turn) (State, error) {
	calls := t.last.ToolCalls
	if err := t.add(models.Message{Role: models.RoleAssistant, Content: t.last.Content, ToolCalls: calls}, ""); err != nil {
		return StateAct, err
	}

	for _, call := range calls {
		name := call.Function.Name
		t.step.Note("tool %s %s", name, utils.Truncate(call.Function.Arguments, 80))
		r.audit.Printf("▶️ Executing tool call %s: %s(%s)", call.ID, name, call.Function.Arguments)

		result, err := r.execute(ctx, call)
		switch {
		case err == nil:
			t.step.Note("result: %q", utils.Truncate(result, 80))
		case tools.IsCallError(err):
			r.audit.Printf("⚠️ Tool call %s rejected: %v", call.ID, err)
			t.step.Note("rejected: %v", err)
			result = fmt.Sprintf("Error: %v", err)
		default:
			r.audit.Printf("⚠️ Tool %s execution failed: %v", name, err)
			return StateAct, fmt.Errorf("tool %s: %w", name, err)
		}

		if err = t.add(models.Message{Role: models.RoleTool, Content: result, ToolCallID: call.ID}, name); err != nil {
			return StateAct, err
		}
	}
	return StatePlan, nil
}

func (r *Runtime) execute(ctx context.Context, call models.ToolCall) (string, error) {
	params, err := utils.ParseArguments(call.Function.Arguments)
	if err != nil {
		return "", fmt.Errorf("%w: %s arguments: %v", tools.ErrInvalidParameter, call.Function.Name, err)
	}
	return r.registry.Execute(ctx, tools.ToolTask{Key: call.Function.Name, Parameters: params})
}

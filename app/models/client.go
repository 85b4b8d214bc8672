package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"

	"GoRAGAgent/app/tools"
	"GoRAGAgent/app/utils/restclient"
)

const (
	endpoint          = "/v1/chat/completions"
	embeddingEndpoint = "/v1/embeddings"
)

var (
	ErrEmptyResponse     = errors.New("empty model response")
	ErrUnexpectedStatus  = errors.New("unexpected model status")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

var (
	_ Interface = &LLMClient{}
	_ Embedder  = &LLMClient{}
)

type LLMClient struct {
	restClient      restclient.Interface
	cache           sync.Map
	model           string
	embeddingsModel string
	dimension       int
	dimMu           sync.Mutex
}

func NewLLMClient(rc restclient.Interface, model, embModel string) *LLMClient {
	return &LLMClient{
		restClient:      rc,
		model:           model,
		embeddingsModel: embModel,
	}
}

func (mc *LLMClient) Model() string {
	return mc.model
}

// Think returns the plain text of one completion.
func (mc *LLMClient) Think(ctx context.Context, messages []Message, temp float64, maxTokens int) (string, error) {
	msg, err := mc.generateResponse(ctx, messages, nil, temp, maxTokens)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

// Chat runs one completion with the toolkit bound. The returned message
// carries either tool calls or the final content.
func (mc *LLMClient) Chat(ctx context.Context, messages []Message, toolkit tools.Toolkit, temp float64) (*Message, error) {
	return mc.generateResponse(ctx, messages, toolkit, temp, 0)
}

func (mc *LLMClient) generateResponse(ctx context.Context, messages []Message, toolkit tools.Toolkit,
	temp float64, maxTokens int) (*Message, error) {
	payload := requestPayload{
		Model:       mc.model,
		Tools:       functionsToPayload(toolkit),
		Messages:    messages,
		Temperature: temp,
		MaxTokens:   maxTokens,
	}

	response, err := mc.sendRequestAndParse(ctx, payload)
	if err != nil {
		return nil, err
	}
	return response.message()
}

func functionsToPayload(functions tools.Toolkit) (payload []functionPayload) {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		payload = append(payload, functionPayload{Type: "function", Function: functions[name]})
	}
	return payload
}

func (mc *LLMClient) sendRequestAndParse(ctx context.Context, payload requestPayload) (*ResponseLLM, error) {
	body, status, err := mc.restClient.Post(ctx, endpoint, payload, nil)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", mc.model, err)
	}

	var generated ResponseLLM
	if status != http.StatusOK {
		_ = json.Unmarshal(body, &generated)
		return nil, statusError(mc.model, status, body, generated.Error)
	}
	if err = json.Unmarshal(body, &generated); err != nil {
		log.Printf("⚠️ Error parsing response from %s: %v", mc.model, err)
		return nil, fmt.Errorf("model %s: parse response: %w", mc.model, err)
	}
	return &generated, nil
}

func (r *ResponseLLM) message() (*Message, error) {
	if r == nil || len(r.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	raw := r.Choices[0].Message
	msg := &Message{Role: raw.Role, Content: raw.Content}
	if msg.Role == "" {
		msg.Role = RoleAssistant
	}
	for i, call := range raw.ToolCalls {
		tc := ToolCall{
			ID:   call.ID,
			Type: call.Type,
			Function: ToolFunction{
				Name:      call.Function.Name,
				Arguments: rawArguments(call.Function.Arguments),
			},
		}
		if tc.ID == "" {
			tc.ID = fmt.Sprintf("call_%d", i)
		}
		if tc.Type == "" {
			tc.Type = "function"
		}
		msg.ToolCalls = append(msg.ToolCalls, tc)
	}
	return msg, nil
}

func rawArguments(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return trimmed
}

func statusError(model string, status int, body []byte, apiErr *apiError) error {
	detail := strings.TrimSpace(string(body))
	if apiErr != nil && apiErr.Message != "" {
		detail = apiErr.Message
	}
	if len(detail) > 300 {
		detail = detail[:300]
	}
	return fmt.Errorf("model %s: %w: HTTP %d: %s", model, ErrUnexpectedStatus, status, detail)
}

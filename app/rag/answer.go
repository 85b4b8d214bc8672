package rag

import (
	"context"
	"fmt"
	"strings"

	"GoRAGAgent/app/models"
	"GoRAGAgent/app/tools"
	"GoRAGAgent/app/utils"
)

const (
	AnswerDraftTool = "answer_draft"
	DefaultTopK     = 3
)

// AnswerTool answers a query from the top retrieved chunks only.
type AnswerTool struct {
	retriever   Retriever
	model       models.Interface
	topK        int
	temperature float64
	maxTokens   int
	audit       *utils.AuditLogger
}

func NewAnswerTool(retriever Retriever, model models.Interface, topK int, temperature float64, maxTokens int,
	audit *utils.AuditLogger) *AnswerTool {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if audit == nil {
		audit = utils.Discard(AnswerDraftTool)
	}
	return &AnswerTool{
		retriever:   retriever,
		model:       model,
		topK:        topK,
		temperature: temperature,
		maxTokens:   maxTokens,
		audit:       audit,
	}
}

func (a *AnswerTool) AnswerDraft(ctx context.Context, query string) (string, error) {
	docs, err := a.retriever.SimilaritySearch(ctx, query, a.topK)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}
	for i, d := range docs {
		a.audit.Debugf("📄 [%d] score=%.4f %q", i, d.Score, utils.Truncate(d.Content, 120))
	}

	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.Content
	}
	messages := []models.Message{
		{Role: models.RoleSystem, Content: models.AnswerSystemPrompt},
		{Role: models.RoleUser, Content: models.AnswerUserPrompt(query, strings.Join(parts, "\n\n"))},
	}

	answer, err := a.model.Think(ctx, messages, a.temperature, a.maxTokens)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return answer, nil
}

func (a *AnswerTool) Tool() tools.Tool {
	return tools.Tool{
		Name:        AnswerDraftTool,
		Description: "Generate a well-structured answer based on the provided research results and query.",
		Parameters: tools.Parameter{
			Type: "object",
			Properties: map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The question to answer from the document.",
				},
			},
			Required: []string{"query"},
		},
		HandlerFunc: func(ctx context.Context, task tools.ToolTask) (string, error) {
			query, err := task.StringParameter("query")
			if err != nil {
				return "", err
			}
			return a.AnswerDraft(ctx, query)
		},
	}
}

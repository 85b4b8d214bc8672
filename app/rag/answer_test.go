package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"GoRAGAgent/app/models"
	"GoRAGAgent/app/tools"
)

func TestAnswerDraft(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, t.TempDir(), IngestAppend)
	_, err := c.AddTexts(ctx, strings.Split(speech, "\n"), nil)
	require.NoError(t, err)

	model := &models.MockModel{}
	model.On("Think", mock.Anything, mock.MatchedBy(func(msgs []models.Message) bool {
		if len(msgs) != 2 || msgs[0].Role != models.RoleSystem || msgs[1].Role != models.RoleUser {
			return false
		}
		user := msgs[1].Content
		return msgs[0].Content == models.AnswerSystemPrompt &&
			strings.HasPrefix(user, "User query: what shall not perish?\n\nContext:\n") &&
			strings.Contains(user, "shall not perish from the earth") &&
			strings.Count(user, "\n\n") == 3
	}), 0.0, 0).Return("Government of the people.", nil).Once()

	tool := NewAnswerTool(c, model, 3, 0, 0, nil)
	answer, err := tool.AnswerDraft(ctx, "what shall not perish?")
	require.NoError(t, err)
	assert.Equal(t, "Government of the people.", answer)
	model.AssertExpectations(t)
}

func TestAnswerDraftEmptyStoreStillAsksModel(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, t.TempDir(), IngestAppend)

	model := &models.MockModel{}
	model.On("Think", mock.Anything, mock.MatchedBy(func(msgs []models.Message) bool {
		return len(msgs) == 2 && msgs[1].Content == "User query: who?\n\nContext:\n"
	}), 0.0, 0).Return("I don't know.", nil).Once()

	answer, err := NewAnswerTool(c, model, 3, 0, 0, nil).AnswerDraft(ctx, "who?")
	require.NoError(t, err)
	assert.Equal(t, "I don't know.", answer)
	model.AssertExpectations(t)
}

func TestAnswerDraftErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("model", func(t *testing.T) {
		c, _ := newTestClient(t, t.TempDir(), IngestAppend)
		boom := errors.New("model unavailable")
		model := &models.MockModel{}
		model.On("Think", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", boom)

		_, err := NewAnswerTool(c, model, 3, 0, 0, nil).AnswerDraft(ctx, "who?")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("retrieval", func(t *testing.T) {
		c, emb := newTestClient(t, t.TempDir(), IngestAppend)
		emb.err = errEmbed
		model := &models.MockModel{}

		_, err := NewAnswerTool(c, model, 3, 0, 0, nil).AnswerDraft(ctx, "who?")
		assert.ErrorIs(t, err, errEmbed)
		model.AssertNotCalled(t, "Think", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAnswerTool(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, t.TempDir(), IngestAppend)
	model := &models.MockModel{}
	model.On("Think", mock.Anything, mock.Anything, 0.0, 0).Return("answer", nil)

	tool := NewAnswerTool(c, model, 0, 0, 0, nil).Tool()
	assert.Equal(t, AnswerDraftTool, tool.Name)
	assert.Equal(t, []string{"query"}, tool.Parameters.Required)

	out, err := tool.HandlerFunc(ctx, tools.ToolTask{Key: AnswerDraftTool, Parameters: map[string]any{"query": "who?"}})
	require.NoError(t, err)
	assert.Equal(t, "answer", out)

	_, err = tool.HandlerFunc(ctx, tools.ToolTask{Key: AnswerDraftTool, Parameters: map[string]any{}})
	assert.True(t, tools.IsCallError(err))
}

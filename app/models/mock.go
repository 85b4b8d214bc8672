package models

import (
	"context"

	"github.com/stretchr/testify/mock"

	"GoRAGAgent/app/tools"
)

type MockModel struct {
	mock.Mock
}

var (
	_ Interface = (*MockModel)(nil)
	_ Embedder  = (*MockModel)(nil)
)

func (m *MockModel) Think(ctx context.Context, messages []Message, temp float64, maxTokens int) (string, error) {
	args := m.Called(ctx, messages, temp, maxTokens)
	return args.String(0), args.Error(1)
}

func (m *MockModel) Chat(ctx context.Context, messages []Message, toolkit tools.Toolkit, temp float64) (*Message, error) {
	args := m.Called(ctx, messages, toolkit, temp)
	msg, _ := args.Get(0).(*Message)
	return msg, args.Error(1)
}

func (m *MockModel) EmbedText(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	emb, _ := args.Get(0).([]float32)
	return emb, args.Error(1)
}

func (m *MockModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	embs, _ := args.Get(0).([][]float32)
	return embs, args.Error(1)
}

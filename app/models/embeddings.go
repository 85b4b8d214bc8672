package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"GoRAGAgent/app/utils"
)

func (mc *LLMClient) EmbedText(ctx context.Context, input string) ([]float32, error) {
	out, err := mc.EmbedBatch(ctx, []string{input})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts in order, sending only the inputs missing from the cache.
func (mc *LLMClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if mc.embeddingsModel == "" {
		return nil, errors.New("embeddings model is empty; configure models.embeddings")
	}

	out := make([][]float32, len(texts))
	var (
		missing []string
		slots   []int
	)
	for i, text := range texts {
		if v, ok := mc.cache.Load(utils.HashText(mc.embeddingsModel, text)); ok {
			if emb, ok2 := v.([]float32); ok2 {
				out[i] = emb
				continue
			}
		}
		missing = append(missing, text)
		slots = append(slots, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	var input any = missing
	if len(missing) == 1 {
		input = missing[0]
	}
	resp, err := mc.sendEmbeddings(ctx, embeddingRequestPayload{Model: mc.embeddingsModel, Input: input})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(missing) {
		return nil, fmt.Errorf("embeddings %s: %w: got %d vectors for %d inputs",
			mc.embeddingsModel, ErrEmptyResponse, len(resp.Data), len(missing))
	}

	for pos, item := range resp.Data {
		idx := item.Index
		if idx < 0 || idx >= len(missing) {
			idx = pos
		}
		if err = mc.checkDimension(item.Embedding); err != nil {
			return nil, err
		}
		out[slots[idx]] = item.Embedding
		mc.cache.Store(utils.HashText(mc.embeddingsModel, missing[idx]), item.Embedding)
	}
	for i, emb := range out {
		if emb == nil {
			return nil, fmt.Errorf("embeddings %s: %w: no vector for input %d", mc.embeddingsModel, ErrEmptyResponse, i)
		}
	}
	return out, nil
}

// Dimension is the vector size seen so far, zero before the first call.
func (mc *LLMClient) Dimension() int {
	mc.dimMu.Lock()
	defer mc.dimMu.Unlock()
	return mc.dimension
}

func (mc *LLMClient) checkDimension(emb []float32) error {
	mc.dimMu.Lock()
	defer mc.dimMu.Unlock()
	if len(emb) == 0 {
		return fmt.Errorf("embeddings %s: %w", mc.embeddingsModel, ErrEmptyResponse)
	}
	if mc.dimension == 0 {
		mc.dimension = len(emb)
		return nil
	}
	if len(emb) != mc.dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(emb), mc.dimension)
	}
	return nil
}

func (mc *LLMClient) sendEmbeddings(ctx context.Context, payload embeddingRequestPayload) (*embeddingResponse, error) {
	body, status, err := mc.restClient.Post(ctx, embeddingEndpoint, payload, nil)
	if err != nil {
		return nil, fmt.Errorf("embeddings %s: %w", mc.embeddingsModel, err)
	}

	var out embeddingResponse
	if status != http.StatusOK {
		_ = json.Unmarshal(body, &out)
		return nil, statusError(mc.embeddingsModel, status, body, out.Error)
	}
	if err = json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse embeddings json: %w", err)
	}
	return &out, nil
}

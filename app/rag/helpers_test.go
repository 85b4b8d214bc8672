package rag

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"GoRAGAgent/app/documents"
)

// wordEmbedder hashes words into buckets so texts sharing words end up close.
type wordEmbedder struct {
	dim   int
	calls int32
	err   error
}

func (e *wordEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(w, ".,;:!?")))
		v[h.Sum32()%uint32(e.dim)]++
	}
	v[e.dim-1] += 0.01
	return v
}

func (e *wordEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	atomic.AddInt32(&e.calls, 1)
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(text), nil
}

func (e *wordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt32(&e.calls, 1)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

var errEmbed = errors.New("embedder offline")

func newTestClient(t *testing.T, dir, mode string) (*Client, *wordEmbedder) {
	t.Helper()
	store, err := NewSQLiteStore(dir, "my_collection")
	require.NoError(t, err)
	splitter, err := documents.NewSplitter("\n", 160, 100)
	require.NoError(t, err)
	emb := &wordEmbedder{dim: 64}
	c := NewClient(store, emb, splitter, mode, nil)
	t.Cleanup(func() { c.Close() })
	return c, emb
}

const speech = `Four score and seven years ago our fathers brought forth on this continent a new nation.
Now we are engaged in a great civil war, testing whether that nation can long endure.
We are met on a great battlefield of that war.
The brave men, living and dead, who struggled here, have consecrated it.
The world will little note, nor long remember what we say here.
Government of the people, by the people, for the people, shall not perish from the earth.`

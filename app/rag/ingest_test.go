package rag

import (
	"context"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestSkipIfPopulated(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := newTestClient(t, dir, IngestSkipIfPopulated)

	report, err := c.Ingest(ctx, speech, "speech.txt")
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Positive(t, report.Chunks)
	assert.Equal(t, report.Chunks, report.Added)
	assert.Len(t, report.IDs, report.Added)

	again, err := c.Ingest(ctx, speech, "speech.txt")
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	assert.Zero(t, again.Added)

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.Chunks, n)

	docs, err := c.SimilaritySearch(ctx, "civil war", 3)
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	for _, d := range docs {
		assert.LessOrEqual(t, utf8.RuneCountInString(d.Content), 160)
		assert.Equal(t, "speech.txt", d.Metadata["source"])
	}
}

func TestIngestAppendDuplicates(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, t.TempDir(), IngestAppend)

	first, err := c.Ingest(ctx, speech, "speech.txt")
	require.NoError(t, err)
	second, err := c.Ingest(ctx, speech, "speech.txt")
	require.NoError(t, err)
	assert.False(t, second.Skipped)

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Added+second.Added, n)
}

func TestIngestEmptyText(t *testing.T) {
	ctx := context.Background()
	c, emb := newTestClient(t, t.TempDir(), IngestSkipIfPopulated)

	report, err := c.Ingest(ctx, "", "speech.txt")
	require.NoError(t, err)
	assert.Zero(t, report.Chunks)
	assert.Zero(t, report.Added)
	assert.Zero(t, emb.calls)
}

func TestIngestEmbedderError(t *testing.T) {
	ctx := context.Background()
	c, emb := newTestClient(t, t.TempDir(), IngestSkipIfPopulated)
	emb.err = errEmbed

	_, err := c.Ingest(ctx, speech, "speech.txt")
	assert.ErrorIs(t, err, errEmbed)
}

func TestIngestSkipIsKeyedOnSource(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, t.TempDir(), IngestSkipIfPopulated)

	first, err := c.Ingest(ctx, speech, "speech.txt")
	require.NoError(t, err)
	require.Positive(t, first.Added)
	assert.Zero(t, first.Foreign)

	other, err := c.Ingest(ctx, "Ask not what your country can do for you.", "inaugural.txt")
	require.NoError(t, err)
	assert.False(t, other.Skipped)
	assert.Equal(t, 1, other.Added)
	assert.Equal(t, first.Added, other.Foreign)

	again, err := c.Ingest(ctx, "Ask not what your country can do for you.", "inaugural.txt")
	require.NoError(t, err)
	assert.True(t, again.Skipped)

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Added+1, n)

	own, err := c.vectors.Count(ctx, map[string]string{"source": "inaugural.txt"})
	require.NoError(t, err)
	assert.Equal(t, 1, own)
}

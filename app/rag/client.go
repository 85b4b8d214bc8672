package rag

import (
	"context"
	"fmt"
	"log"
	"maps"

	"github.com/google/uuid"

	"GoRAGAgent/app/documents"
	"GoRAGAgent/app/models"
	"GoRAGAgent/app/utils"
)

const (
	IngestSkipIfPopulated = "skip_if_populated"
	IngestAppend          = "append"

	embedBatchSize = 32
)

var _ Retriever = (*Client)(nil)

// Client embeds texts and keeps them in a vector collection.
type Client struct {
	vectors    VectorStore
	embedder   models.Embedder
	splitter   *documents.Splitter
	ingestMode string
	audit      *utils.AuditLogger
}

type IngestReport struct {
	Source  string
	Chunks  int
	Added   int
	Skipped bool
	// Foreign counts chunks of other sources already in the collection.
	Foreign int
	IDs     []string
}

func NewClient(vectors VectorStore, embedder models.Embedder, splitter *documents.Splitter,
	ingestMode string, audit *utils.AuditLogger) *Client {
	if ingestMode == "" {
		ingestMode = IngestSkipIfPopulated
	}
	if audit == nil {
		audit = utils.Discard("rag")
	}
	return &Client{
		vectors:    vectors,
		embedder:   embedder,
		splitter:   splitter,
		ingestMode: ingestMode,
		audit:      audit,
	}
}

func (c *Client) ready() error {
	if c == nil || c.vectors == nil || c.embedder == nil {
		return ErrNotInitialized
	}
	return nil
}

// AddTexts embeds texts and appends them to the collection. Adding the same
// text twice stores it twice.
func (c *Client) AddTexts(ctx context.Context, texts []string, metadata map[string]any) ([]string, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	metas := make([]map[string]any, len(texts))
	for i := range texts {
		metas[i] = maps.Clone(metadata)
	}
	return c.add(ctx, texts, metas)
}

func (c *Client) add(ctx context.Context, texts []string, metas []map[string]any) ([]string, error) {
	ids := make([]string, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		batch := texts[start:end]

		vectors, err := c.embedder.EmbedBatch(ctx, batch)
		if err != nil {
			return ids, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vectors) != len(batch) {
			return ids, fmt.Errorf("embed chunks: got %d vectors for %d texts", len(vectors), len(batch))
		}
		if err = c.vectors.Init(ctx, len(vectors[0])); err != nil {
			return ids, err
		}

		docs := make([]VectorDoc, len(batch))
		for i, text := range batch {
			docs[i] = VectorDoc{
				ID:       uuid.New().String(),
				Content:  text,
				Metadata: metas[start+i],
				Vector:   vectors[i],
			}
		}
		if err = c.vectors.UpsertBatch(ctx, docs); err != nil {
			return ids, fmt.Errorf("store chunks: %w", err)
		}
		for _, d := range docs {
			ids = append(ids, d.ID)
		}
	}
	return ids, nil
}

// SimilaritySearch returns at most k stored texts closest to the query.
func (c *Client) SimilaritySearch(ctx context.Context, query string, k int) ([]VectorDoc, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}
	vector, err := c.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return c.vectors.Query(ctx, vector, nil, k)
}

func (c *Client) Count(ctx context.Context) (int, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	return c.vectors.Count(ctx, nil)
}

// Ingest splits text, embeds the chunks and stores them tagged with source.
// With the skip_if_populated mode a source the collection already holds is
// left as is; chunks of other sources do not prevent ingestion.
func (c *Client) Ingest(ctx context.Context, text, source string) (IngestReport, error) {
	report := IngestReport{Source: source}
	if err := c.ready(); err != nil {
		return report, err
	}
	if c.splitter == nil {
		return report, fmt.Errorf("%w: no splitter", ErrNotInitialized)
	}

	chunks := c.splitter.Split(text)
	report.Chunks = len(chunks)

	if c.ingestMode == IngestSkipIfPopulated {
		own, err := c.vectors.Count(ctx, map[string]string{"source": source})
		if err != nil {
			return report, fmt.Errorf("count collection: %w", err)
		}
		if own > 0 {
			report.Skipped = true
			c.audit.Printf("⏭️ Collection already holds %d chunks of %s, skipping ingestion", own, source)
			return report, nil
		}
		total, err := c.vectors.Count(ctx, nil)
		if err != nil {
			return report, fmt.Errorf("count collection: %w", err)
		}
		if total > 0 {
			report.Foreign = total
			log.Printf("⚠️ Collection already holds %d chunks of other sources; answers may mix them with %s", total, source)
		}
	}

	ids, err := c.AddTexts(ctx, chunks, map[string]any{"source": source})
	report.IDs = ids
	report.Added = len(ids)
	if err != nil {
		return report, err
	}
	c.audit.Printf("✅ Ingested %d chunks from %s", report.Added, source)
	return report, nil
}

func (c *Client) Close() error {
	if c == nil || c.vectors == nil {
		return nil
	}
	return c.vectors.Close()
}

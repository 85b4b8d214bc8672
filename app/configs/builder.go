package configs

import (
	"fmt"
	"log"

	"GoRAGAgent/app/documents"
	"GoRAGAgent/app/models"
	"GoRAGAgent/app/rag"
	"GoRAGAgent/app/runtime"
	"GoRAGAgent/app/storage"
	"GoRAGAgent/app/tools"
	"GoRAGAgent/app/utils"
	"GoRAGAgent/app/utils/restclient"
)

func (c *Config) BuildRestClient() *restclient.RestClient {
	var headers map[string]string
	if c.Models.APIKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + c.Models.APIKey}
	}
	rc := restclient.NewRestClient(c.Models.BaseURL, headers,
		restclient.WithTimeout(c.ModelTimeout()),
		restclient.WithRetry(c.Models.MaxAttempts, 0),
		restclient.WithRateLimit(c.Models.RequestsPerSec, 1),
	)
	log.Printf("🔌 Model endpoint %s", rc.BaseURL())
	return rc
}

// BuildModels returns the answer and agent clients. Both embed with the
// same embeddings model so ingestion and queries share one vector space.
func (c *Config) BuildModels(rc restclient.Interface) (answer, agent *models.LLMClient) {
	answer = models.NewLLMClient(rc, c.Models.Answer.Name, c.Models.Embeddings)
	agent = models.NewLLMClient(rc, c.Models.Agent.Name, c.Models.Embeddings)
	log.Printf("🤖 Answer model %s, agent model %s, embeddings %s", answer.Model(), agent.Model(), c.Models.Embeddings)
	return answer, agent
}

func (c *Config) BuildSplitter() (*documents.Splitter, error) {
	return documents.NewSplitter(c.Splitter.Separator, c.Splitter.ChunkSize, c.Splitter.ChunkOverlap)
}

func (c *Config) BuildVectorStore() (rag.VectorStore, error) {
	vs := c.VectorStore
	switch vs.Driver {
	case VectorDriverQdrant:
		log.Printf("🔌 Connecting to Qdrant at %s:%d", vs.QdrantHost, vs.QdrantPort)
		return rag.NewQdrantStore(vs.QdrantHost, vs.QdrantPort, vs.QdrantAPIKey, vs.Collection)
	case VectorDriverSQLite, "":
		return rag.NewSQLiteStore(vs.PersistDirectory, vs.Collection)
	default:
		return nil, fmt.Errorf("unknown vector store driver %q", vs.Driver)
	}
}

func (c *Config) BuildMemory() (storage.Interface, error) {
	switch c.Memory.Driver {
	case MemoryDriverSQLite:
		return storage.NewSQLiteStorage(c.Memory.Path)
	case MemoryDriverMemory, "":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown memory driver %q", c.Memory.Driver)
	}
}

func (c *Config) BuildRAG(embedder models.Embedder, audit *utils.AuditLogger) (*rag.Client, error) {
	splitter, err := c.BuildSplitter()
	if err != nil {
		return nil, err
	}
	vectors, err := c.BuildVectorStore()
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	return rag.NewClient(vectors, embedder, splitter, c.Document.IngestMode, audit), nil
}

func (c *Config) BuildAnswerTool(retriever rag.Retriever, model models.Interface, audit *utils.AuditLogger) *rag.AnswerTool {
	return rag.NewAnswerTool(retriever, model, c.VectorStore.TopK, c.Models.Answer.Temperature,
		c.Models.Answer.MaxTokens, audit)
}

func (c *Config) BuildRuntime(model models.Interface, db storage.Interface, audit *utils.AuditLogger,
	toolset ...tools.Tool) (*runtime.Runtime, error) {
	prompt := c.Agent.SystemPrompt
	if prompt == "" {
		prompt = models.AgentSystemPrompt
	}
	rt := runtime.NewRuntime(model, tools.NewRegistry(), db, runtime.Options{
		SystemPrompt: prompt,
		Temperature:  c.Models.Agent.Temperature,
		MaxSteps:     c.Agent.MaxSteps,
		Audit:        audit,
	})
	if err := rt.AddTools(toolset...); err != nil {
		return nil, err
	}
	return rt, nil
}

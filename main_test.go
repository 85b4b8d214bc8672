package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandFlags(t *testing.T) {
	for _, name := range []string{"config", "document", "session", "verbose"} {
		assert.NotNil(t, rootCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "config.yaml", rootCmd.Flags().Lookup("config").DefValue)
}

func TestRootCommandMissingDocument(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "speech.txt")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs([]string{"--config", filepath.Join(dir, "missing.yaml"), "--document", doc})

	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Equal(t, doc+" file not found!", err.Error())
	assert.Contains(t, out.String(), "Initializing system...")
	assert.NotContains(t, out.String(), "Ready!")
}

func TestRootCommandAnswersAndQuits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/embeddings":
			var req struct {
				Input json.RawMessage `json:"input"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			var inputs []string
			if json.Unmarshal(req.Input, &inputs) != nil {
				var single string
				assert.NoError(t, json.Unmarshal(req.Input, &single))
				inputs = []string{single}
			}
			data := make([]map[string]any, len(inputs))
			for i, in := range inputs {
				data[i] = map[string]any{"index": i, "embedding": []float32{float32(len(in)), 1, 0.5}}
			}
			json.NewEncoder(w).Encode(map[string]any{"data": data})
		case "/v1/chat/completions":
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": "Forty-two."}}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	doc := filepath.Join(dir, "speech.txt")
	require.NoError(t, os.WriteFile(doc, []byte("We choose to go to the moon.\nNot because it is easy.\n"), 0o644))
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`
models:
  base_url: %s
vector_store:
  persist_directory: %s
logging:
  dir: %s
`, server.URL, filepath.Join(dir, "chroma_db"), filepath.Join(dir, "logs"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader("Why the moon?\nquit\n"))
	rootCmd.SetArgs([]string{"--config", cfgPath, "--document", doc, "--session", "7"})

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	got := out.String()
	assert.Contains(t, got, "Initializing system...\n")
	assert.Contains(t, got, "Ready!\n\n")
	assert.Contains(t, got, "\nAnswer: Forty-two.\n\n")
	assert.True(t, strings.HasSuffix(got, "Goodbye!\n"))
	assert.FileExists(t, filepath.Join(dir, "chroma_db", "vectors.db"))
}

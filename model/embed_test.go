package model

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/config"
)

func TestOllamaEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req OllamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req.Model)
		assert.Equal(t, []string{"a", "b"}, req.Input)

		_ = json.NewEncoder(w).Encode(OllamaEmbeddingResponse{
			Embeddings: [][]float64{{3, 4}, {0, 2}},
		})
	}))
	defer srv.Close()

	vecs, err := NewOllamaEmbedder(srv.URL, "all-minilm").Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	require.Len(t, vecs, 2)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, vecs[0], 1e-6)
	assert.InDeltaSlice(t, []float32{0, 1}, vecs[1], 1e-6)
}

func TestOllamaEmbedder_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaEmbedder(srv.URL, "missing").Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestOllamaEmbedder_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"embeddings":[[1,0]]}`)
	}))
	defer srv.Close()

	_, err := NewOllamaEmbedder(srv.URL, "m").Embed(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		// Returned out of order on purpose.
		_, _ = io.WriteString(w, `{"object":"list","data":[
			{"object":"embedding","index":1,"embedding":[0,1]},
			{"object":"embedding","index":0,"embedding":[1,0]}
		],"model":"text-embedding-3-small"}`)
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	vecs, err := NewOpenAIEmbedderWithConfig(cfg, "text-embedding-3-small").Embed(context.Background(), []string{"x", "y"})
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestNewOpenAIEmbedder_RequiresKey(t *testing.T) {
	_, err := NewOpenAIEmbedder("", "text-embedding-3-small")
	assert.Error(t, err)
}

func TestNewEmbedder(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	e, err := NewEmbedder(config.EmbedderConfig{Type: "ollama", OllamaURL: "http://x", OllamaModel: "m"}, "", logger)
	require.NoError(t, err)
	assert.IsType(t, &RetryEmbedder{}, e)

	e, err = NewEmbedder(config.EmbedderConfig{Type: "openai", OpenAIModel: "m"}, "key", logger)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIEmbedder{}, e)

	_, err = NewEmbedder(config.EmbedderConfig{Type: "bert"}, "", logger)
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	v := normalize([]float32{1, 1, 1, 1})
	var sum float64
	for _, x := range v {
		sum += float64(x * x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)

	assert.Equal(t, []float32{0, 0}, normalize([]float32{0, 0}))
}

package model

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"docqa/config"
)

// EmbedderInterface turns texts into vectors, one per input and in order.
type EmbedderInterface interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// NewEmbedder builds the embedder selected by cfg.Type.
func NewEmbedder(cfg config.EmbedderConfig, openAIKey string, logger *slog.Logger) (EmbedderInterface, error) {
	switch cfg.Type {
	case "ollama":
		logger.Info("[EMBEDDER] uses local Ollama for embeddings", "model", cfg.OllamaModel, "url", cfg.OllamaURL)
		// Ollama может ещё загружать модель при первых запросах
		return WithRetry(NewOllamaEmbedder(cfg.OllamaURL, cfg.OllamaModel), DefaultAttempts), nil
	case "openai":
		logger.Info("[EMBEDDER] uses OpenAI for embeddings", "model", cfg.OpenAIModel)
		return NewOpenAIEmbedder(openAIKey, cfg.OpenAIModel)
	default:
		return nil, fmt.Errorf("unknown embedder type %q", cfg.Type)
	}
}

// normalize scales vec to unit length in place.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec // на случай пустого вектора
	}
	for i, x := range vec {
		vec[i] = float32(float64(x) / norm)
	}
	return vec
}

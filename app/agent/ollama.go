package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type GenerateRequest struct {
	Model   string          `json:"model"`
	System  string          `json:"system,omitempty"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options GenerateOptions `json:"options"`
}

type GenerateOptions struct {
	Temperature float32 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type GenerateResponse struct {
	Response string `json:"response"`
}

// OllamaProvider calls a local Ollama /api/generate endpoint.
type OllamaProvider struct {
	url         string
	model       string
	maxTokens   int
	temperature float32
	client      *http.Client
}

func NewOllamaProvider(url, model string, maxTokens int, temperature float32) *OllamaProvider {
	return &OllamaProvider{
		url:         url,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		client:      &http.Client{},
	}
}

func (o *OllamaProvider) Name() string { return "ollama" }

func (o *OllamaProvider) Configured() bool {
	return o.url != "" && o.model != ""
}

func (o *OllamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if !o.Configured() {
		return "", fmt.Errorf("ollama: LLM_URL and LLM_MODEL are required: %w", ErrNotConfigured)
	}

	reqBody, err := json.Marshal(GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Options: GenerateOptions{
			Temperature: o.temperature,
			NumPredict:  o.maxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var genResp GenerateResponse
	if err := json.Unmarshal(body, &genResp); err == nil && genResp.Response != "" {
		return genResp.Response, nil
	}

	// Потоковый ответ: соберём всё в строку
	var output string
	decoder := json.NewDecoder(bytes.NewReader(body))
	for decoder.More() {
		var chunk GenerateResponse
		if err := decoder.Decode(&chunk); err != nil {
			return "", fmt.Errorf("decode stream chunk: %w", err)
		}
		output += chunk.Response
	}
	return output, nil
}

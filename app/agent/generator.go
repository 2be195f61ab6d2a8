package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docqa/config"
	"docqa/types"
)

// Generator turns retrieved hits into an answer.
//
// In fallback mode the configured providers are tried in order. A failure of
// the primary (first) provider is logged and swallowed; the last failing
// fallback provider's error is returned. When nothing answered and no fallback
// failed, the top snippets are echoed back instead.
// In single mode exactly one provider is called with no fallback.
type Generator struct {
	providers   []Provider
	single      bool
	timeout     time.Duration
	countTokens bool
	logger      *slog.Logger
}

type Option func(*Generator)

// WithTimeout bounds every provider call.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) { g.timeout = d }
}

// WithTokenLogging logs the prompt size before each call.
func WithTokenLogging(enabled bool) Option {
	return func(g *Generator) { g.countTokens = enabled }
}

func NewFallback(providers []Provider, logger *slog.Logger, opts ...Option) *Generator {
	g := &Generator{providers: providers, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewSingle refuses to build a generator around an unconfigured provider.
func NewSingle(p Provider, logger *slog.Logger, opts ...Option) (*Generator, error) {
	if p == nil || !p.Configured() {
		return nil, fmt.Errorf("single mode requires GEMINI_API_KEY or GOOGLE_API_KEY: %w", ErrNotConfigured)
	}
	g := NewFallback([]Provider{p}, logger, opts...)
	g.single = true
	return g, nil
}

// NewFromConfig wires providers by name in the order given by LLM_PROVIDERS.
func NewFromConfig(cfg config.LLMConfig, logger *slog.Logger) (*Generator, error) {
	opts := []Option{WithTimeout(cfg.Timeout), WithTokenLogging(cfg.CountTokens)}

	if cfg.Mode == "single" {
		return NewSingle(NewGeminiProvider(cfg.GeminiAPIKey(), cfg.SingleModel, cfg.MaxTokens), logger, opts...)
	}

	providers := make([]Provider, 0, len(cfg.Providers))
	for _, name := range cfg.Providers {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "gemini":
			providers = append(providers, NewGeminiProvider(cfg.GeminiAPIKey(), cfg.GeminiModel, cfg.MaxTokens))
		case "openai":
			providers = append(providers, NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIModel, cfg.MaxTokens, cfg.Temperature))
		case "ollama":
			providers = append(providers, NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, cfg.MaxTokens, cfg.Temperature))
		case "":
		default:
			return nil, fmt.Errorf("unknown LLM provider %q", name)
		}
	}
	return NewFallback(providers, logger, opts...), nil
}

// Configured lists the names of providers that will actually be tried.
func (g *Generator) Configured() []string {
	var names []string
	for _, p := range g.providers {
		if p.Configured() {
			names = append(names, p.Name())
		}
	}
	return names
}

func (g *Generator) Generate(ctx context.Context, question string, hits []types.Hit) (string, error) {
	if g.single {
		p := g.providers[0]
		answer, err := g.complete(ctx, p, BuildSlidePrompt(question, hits))
		if err != nil {
			return "", &ProviderError{Provider: p.Name(), Err: err}
		}
		return strings.TrimSpace(answer), nil
	}

	prompt := BuildCitedPrompt(question, hits)
	var (
		lastErr  error
		lastName string
		tried    int
	)
	for i, p := range g.providers {
		if !p.Configured() {
			continue
		}
		tried++
		answer, err := g.complete(ctx, p, prompt)
		if err == nil {
			return answer, nil
		}
		g.logger.Warn("[GENERATOR] provider failed, falling back", "provider", p.Name(), "error", err)
		// Ошибка основного провайдера не пробрасывается
		if i == 0 {
			continue
		}
		lastErr, lastName = err, p.Name()
	}
	if lastErr != nil {
		return "", &ProviderError{Provider: lastName, Err: lastErr}
	}

	if tried == 0 {
		g.logger.Warn("[GENERATOR] no LLM provider configured, returning context snippets")
	} else {
		g.logger.Warn("[GENERATOR] primary provider failed with no fallback configured, returning context snippets")
	}
	return DegradedAnswer(hits), nil
}

func (g *Generator) complete(ctx context.Context, p Provider, prompt string) (string, error) {
	if g.countTokens {
		if n, err := CountTokens(prompt); err == nil {
			g.logger.Info("[GENERATOR] prompt size", "provider", p.Name(), "tokens", n)
		} else {
			g.logger.Debug("[GENERATOR] token count unavailable", "error", err)
		}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := p.Complete(ctx, prompt)
	g.logger.Debug("[GENERATOR] provider call", "provider", p.Name(), "duration", time.Since(start), "ok", err == nil)
	return answer, err
}

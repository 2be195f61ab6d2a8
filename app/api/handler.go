package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"docqa/types"
)

// Pipeline is what the HTTP handlers need from the application service.
type Pipeline interface {
	IndexPDF(ctx context.Context, path string) (int, error)
	Ask(ctx context.Context, question string, topK int) (string, []types.Hit, error)
	Stats(ctx context.Context) (types.StatsResponse, error)
}

type RequestHandler struct {
	svc         Pipeline
	defaultTopK int
	logger      *slog.Logger
}

// NewRequestHandler answers queries that omit top_k with defaultTopK.
func NewRequestHandler(svc Pipeline, defaultTopK int, logger *slog.Logger) *RequestHandler {
	if defaultTopK <= 0 {
		defaultTopK = types.DefaultTopK
	}
	return &RequestHandler{
		svc:         svc,
		defaultTopK: defaultTopK,
		logger:      logger,
	}
}

// HandleQuery answers {"question": ..., "top_k": ...} with the generated
// answer and the hits it was built from.
func (h *RequestHandler) HandleQuery(c *fiber.Ctx) error {
	var params types.QueryParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if params.TopK == 0 {
		params.TopK = h.defaultTopK
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	answer, hits, err := h.svc.Ask(c.UserContext(), params.Question, params.TopK)
	if err != nil {
		return err
	}
	if hits == nil {
		hits = []types.Hit{}
	}
	h.logger.Info("[QUERY] answered", "top_k", params.TopK, "hits", len(hits))

	return c.JSON(&types.QueryResponse{
		Answer: answer,
		Hits:   hits,
	})
}

func (h *RequestHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.svc.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

package retrieval

import (
	"context"

	"docqa/types"
)

// Querier is the read side of the embed/index store.
type Querier interface {
	Query(ctx context.Context, text string, topK int) ([]types.Hit, error)
}

// Retriever forwards questions to the store. It does no ranking of its own.
type Retriever struct {
	store Querier
}

func New(store Querier) *Retriever {
	return &Retriever{store: store}
}

func (r *Retriever) RetrieveTopChunks(ctx context.Context, query string, topK int) ([]types.Hit, error) {
	return r.store.Query(ctx, query, topK)
}

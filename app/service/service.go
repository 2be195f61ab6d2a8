// Package service wires fetchers, chunker, embed store, retriever and answer
// generator into one object that is built at startup and closed on shutdown.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"docqa/app/agent"
	"docqa/chunking"
	"docqa/config"
	"docqa/loader"
	"docqa/model"
	"docqa/retrieval"
	"docqa/store"
	"docqa/types"
)

// Generator is the answer side of the pipeline.
type Generator interface {
	Generate(ctx context.Context, question string, hits []types.Hit) (string, error)
}

type Service struct {
	store     *store.EmbedStore
	retriever *retrieval.Retriever
	generator Generator
	chunker   *chunking.Chunker
	fetcher   *loader.Fetcher
	logger    *slog.Logger

	collection string
}

func New(st *store.EmbedStore, gen Generator, chunker *chunking.Chunker, fetcher *loader.Fetcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if fetcher == nil {
		fetcher = loader.NewFetcher(loader.DefaultTimeout)
	}
	return &Service{
		store:     st,
		retriever: retrieval.New(st),
		generator: gen,
		chunker:   chunker,
		fetcher:   fetcher,
		logger:    logger,
	}
}

// NewFromConfig opens the configured vector store and builds every component.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	embedder, err := model.NewEmbedder(cfg.Embedder, cfg.LLM.OpenAIKey, logger)
	if err != nil {
		return nil, err
	}

	gen, err := agent.NewFromConfig(cfg.LLM, logger)
	if err != nil {
		return nil, err
	}

	vectors, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("[STORE] vector store opened", "backend", cfg.Store.Backend, "collection", cfg.Store.Collection)

	s := New(
		store.NewEmbedStore(embedder, vectors, cfg.Embedder.BatchSize, logger),
		gen,
		chunking.New(cfg.Chunking.Size, cfg.Chunking.Overlap),
		nil,
		logger,
	)
	s.collection = cfg.Store.Collection
	return s, nil
}

// IndexDocuments chunks docs and indexes the chunks. It returns the number
// of chunks written.
func (s *Service) IndexDocuments(ctx context.Context, docs []types.Document) (int, error) {
	chunks := s.chunker.Chunk(docs)
	if len(chunks) == 0 {
		return 0, nil
	}
	s.logger.Info("[INDEX] indexing chunks", "documents", len(docs), "chunks", len(chunks))
	if err := s.store.BuildIndex(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (s *Service) IndexPDF(ctx context.Context, path string) (int, error) {
	docs, err := loader.LoadPDF(path)
	if err != nil {
		return 0, err
	}
	return s.IndexDocuments(ctx, docs)
}

func (s *Service) IndexWikipedia(ctx context.Context, title string) (int, error) {
	doc, err := s.fetcher.FetchWikipedia(ctx, title)
	if err != nil {
		return 0, err
	}
	return s.IndexDocuments(ctx, []types.Document{doc})
}

func (s *Service) IndexURL(ctx context.Context, url string) (int, error) {
	doc, err := s.fetcher.FetchURL(ctx, url)
	if err != nil {
		return 0, err
	}
	return s.IndexDocuments(ctx, []types.Document{doc})
}

// Ask retrieves topK hits for the question and generates an answer from them.
func (s *Service) Ask(ctx context.Context, question string, topK int) (string, []types.Hit, error) {
	if topK <= 0 {
		topK = types.DefaultTopK
	}
	hits, err := s.retriever.RetrieveTopChunks(ctx, question, topK)
	if err != nil {
		return "", nil, fmt.Errorf("retrieve: %w", err)
	}
	s.logger.Info("[SEARCH] retrieved chunks", "count", len(hits))

	answer, err := s.generator.Generate(ctx, question, hits)
	if err != nil {
		return "", hits, err
	}
	return answer, hits, nil
}

func (s *Service) Stats(ctx context.Context) (types.StatsResponse, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return types.StatsResponse{}, err
	}
	return types.StatsResponse{Collection: s.collection, Count: n}, nil
}

func (s *Service) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

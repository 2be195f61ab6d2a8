// Package service runs the drop-folder ingestion loop: PDFs copied into the
// source directory are indexed and then archived.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"docqa/config"
	"docqa/loader/internal"
)

// Indexer indexes one PDF and reports how many chunks it produced.
type Indexer interface {
	IndexPDF(ctx context.Context, path string) (int, error)
}

type Service struct {
	logger  *slog.Logger
	indexer Indexer
	watcher *internal.Watcher
}

func New(indexer Indexer, cfg config.LoaderConfig, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := internal.NewWatcher(cfg.SourceDir, cfg.ArchiveDir, cfg.BadDir, cfg.QuietPeriod, logger)
	if err != nil {
		return nil, err
	}
	return &Service{
		logger:  logger,
		indexer: indexer,
		watcher: w,
	}, nil
}

// Run blocks until ctx is cancelled or the watcher fails, then waits up to
// five seconds for the file in progress to finish.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fileChan := make(chan string, 10) // Буферизованный канал для предотвращения блокировок
	watchErr := make(chan error, 1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(fileChan)
		watchErr <- s.watcher.Watch(ctx, fileChan)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for path := range fileChan {
			s.ProcessFile(ctx, path)
		}
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-watchErr:
		s.logger.Error("[LOADER] watcher stopped", "error", err)
	}
	s.logger.Info("[LOADER] shutting down")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("[LOADER] all goroutines stopped")
	case <-time.After(5 * time.Second):
		s.logger.Warn("[LOADER] timeout waiting for goroutines to stop")
	}
	return err
}

// ProcessFile indexes path and moves it to the archive, or to the bad
// directory when it is not a valid PDF or indexing fails.
func (s *Service) ProcessFile(ctx context.Context, path string) {
	defer s.watcher.Release(path)

	if ctx.Err() != nil {
		// Файл останется в source и будет обработан при следующем запуске
		return
	}

	s.logger.Info("[LOADER] processing file", "file", path)
	if err := internal.ValidatePDF(path); err != nil {
		s.logger.Error("[LOADER] invalid pdf", "file", path, "error", err)
		if _, err := s.watcher.MoveToArchive(path, true); err != nil {
			s.logger.Error("[LOADER] archive failed", "file", path, "error", err)
		}
		return
	}

	start := time.Now()
	n, err := s.indexer.IndexPDF(ctx, path)
	if err != nil && ctx.Err() != nil {
		s.logger.Warn("[LOADER] interrupted", "file", path, "error", err)
		return
	}

	failed := err != nil
	if failed {
		s.logger.Error("[LOADER] indexing failed", "file", path, "error", err)
	} else {
		s.logger.Info("[LOADER] file indexed", "file", path, "chunks", n, "duration", time.Since(start))
	}

	if _, err := s.watcher.MoveToArchive(path, failed); err != nil {
		s.logger.Error("[LOADER] archive failed", "file", path, "error", err)
	}
}

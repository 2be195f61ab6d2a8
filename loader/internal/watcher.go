package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports PDF files in a drop folder once they have not changed for
// the quiet period. A reported file is not reported again until Release.
type Watcher struct {
	SourceDir  string
	ArchiveDir string
	BadDir     string
	Quiet      time.Duration

	logger *slog.Logger

	mu         sync.Mutex
	lastChange map[string]time.Time
	processing map[string]bool
}

func NewWatcher(sourceDir, archiveDir, badDir string, quiet time.Duration, logger *slog.Logger) (*Watcher, error) {
	if err := createDirectories(sourceDir, archiveDir, badDir); err != nil {
		return nil, err
	}
	return &Watcher{
		SourceDir:  sourceDir,
		ArchiveDir: archiveDir,
		BadDir:     badDir,
		Quiet:      quiet,
		logger:     logger,
		lastChange: make(map[string]time.Time),
		processing: make(map[string]bool),
	}, nil
}

// Watch blocks until ctx is cancelled. Files already present are picked up
// as if they had just been created.
func (w *Watcher) Watch(ctx context.Context, out chan<- string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.SourceDir); err != nil {
		return fmt.Errorf("watch %s: %w", w.SourceDir, err)
	}
	w.logger.Info("[WATCHER] monitoring folder", "dir", w.SourceDir, "quiet", w.Quiet)

	entries, err := os.ReadDir(w.SourceDir)
	if err != nil {
		return fmt.Errorf("read %s: %w", w.SourceDir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.touch(filepath.Join(w.SourceDir, e.Name()))
		}
	}

	tick := max(w.Quiet/4, 10*time.Millisecond)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("[WATCHER] stopped")
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("[WATCHER] fsnotify error", "error", err)
		case <-ticker.C:
			for _, path := range w.ready() {
				select {
				case out <- path:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		if info, err := os.Stat(ev.Name); err == nil && !info.IsDir() {
			w.touch(ev.Name)
		}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.mu.Lock()
		if !w.processing[ev.Name] {
			delete(w.lastChange, ev.Name)
		}
		w.mu.Unlock()
	}
}

func (w *Watcher) touch(path string) {
	if !isPDF(path) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.processing[path] {
		return
	}
	if _, seen := w.lastChange[path]; !seen {
		w.logger.Info("[WATCHER] new file detected", "file", path)
	}
	w.lastChange[path] = time.Now()
}

// ready marks files that have been quiet long enough as processing.
func (w *Watcher) ready() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []string
	for path, changed := range w.lastChange {
		if w.processing[path] || time.Since(changed) < w.Quiet {
			continue
		}
		w.processing[path] = true
		out = append(out, path)
	}
	return out
}

// Release forgets a file after it has been processed.
func (w *Watcher) Release(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.processing, path)
	delete(w.lastChange, path)
}

// MoveToArchive moves a processed file into <archive>/<date>/ or, when
// failed is set, into <bad>/<date>/. Name clashes get a numeric suffix.
func (w *Watcher) MoveToArchive(path string, failed bool) (string, error) {
	root := w.ArchiveDir
	if failed {
		root = w.BadDir
	}

	destDir := filepath.Join(root, time.Now().Format("2006-01-02"))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", destDir, err)
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	dest := filepath.Join(destDir, base)
	for i := 1; ; i++ {
		if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
			break
		}
		dest = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", name, i, ext))
	}

	if err := os.Rename(path, dest); err != nil {
		// Разные файловые системы: копируем и удаляем
		if err := copyFile(path, dest); err != nil {
			return "", err
		}
		if err := os.Remove(path); err != nil {
			return "", err
		}
	}
	w.logger.Info("[WATCHER] file moved", "from", path, "to", dest)
	return dest, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func isPDF(path string) bool {
	base := filepath.Base(path)
	return !strings.HasPrefix(base, ".") && strings.EqualFold(filepath.Ext(base), ".pdf")
}

func createDirectories(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

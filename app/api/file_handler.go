package api

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docqa/types"
)

type FileHandler struct {
	svc       Pipeline
	uploadDir string
	logger    *slog.Logger
}

func NewFileHandler(svc Pipeline, uploadDir string, logger *slog.Logger) (*FileHandler, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileHandler{
		svc:       svc,
		uploadDir: uploadDir,
		logger:    logger,
	}, nil
}

// HandleUploadPDF stores the multipart "file" under the upload directory,
// indexes it and reports how many chunks were written. A file with the same
// name is overwritten; a file that fails to index is removed again.
func (h *FileHandler) HandleUploadPDF(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrMissingFile()
	}

	name := uploadName(fileHeader.Filename)
	path := filepath.Join(h.uploadDir, name)
	if err := c.SaveFile(fileHeader, path); err != nil {
		return err
	}
	h.logger.Info("[UPLOAD] file saved", "path", path, "size", fileHeader.Size)

	n, err := h.svc.IndexPDF(c.UserContext(), path)
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			h.logger.Warn("[UPLOAD] failed to remove rejected file", "path", path, "error", rmErr)
		}
		return err
	}

	return c.JSON(&types.UploadResponse{
		Status:        "indexed",
		File:          name,
		ChunksIndexed: n,
	})
}

// uploadName keeps only the base name of the client's file name. Clients
// that send no usable name get a random one.
func uploadName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." || strings.TrimSpace(name) == "" {
		return uuid.NewString() + ".pdf"
	}
	return name
}

// Package loader fetches documents from PDF files, Wikipedia and arbitrary
// web pages and turns them into types.Document values.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"docqa/loader/internal"
	"docqa/types"
)

var (
	// ErrFileNotFound is returned by LoadPDF for a path that does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidPDF is returned for files pdfcpu cannot read.
	ErrInvalidPDF = internal.ErrInvalidPDF
)

// LoadPDF returns one Document per page that has text. Pages are numbered
// from 1 and the source is the file's base name.
func LoadPDF(path string) ([]types.Document, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrFileNotFound)
		}
		return nil, err
	}
	if err := internal.ValidatePDF(path); err != nil {
		return nil, err
	}

	pages, err := pageTexts(path)
	if err != nil {
		return nil, err
	}

	source := filepath.Base(path)
	var docs []types.Document
	for i, text := range pages {
		if text == "" {
			continue
		}
		docs = append(docs, types.Document{
			Source: source,
			Page:   types.PageOf(i + 1),
			Text:   text,
		})
	}
	return docs, nil
}

// pageTexts extracts the text of every page, decoded through the page fonts
// (simple encodings, Differences and ToUnicode CMaps).
func pageTexts(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrInvalidPDF, err)
	}
	defer f.Close()

	source := filepath.Base(path)
	texts := make([]string, r.NumPage())
	for i := range texts {
		page := r.Page(i + 1)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			font := page.Font(name)
			fonts[name] = &font
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %s: %w", i+1, source, err)
		}
		texts[i] = cleanLines(text)
	}
	return texts, nil
}

// cleanLines collapses whitespace inside lines and drops empty ones.
func cleanLines(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.Map(func(r rune) rune {
			if unicode.IsControl(r) {
				return ' '
			}
			return r
		}, line)
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

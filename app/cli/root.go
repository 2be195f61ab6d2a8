// Package cli is the docqa command line: index documents, ask a question,
// run the HTTP API or the drop-folder loader.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"docqa/app/service"
	"docqa/config"
	"docqa/loader"
	"docqa/types"
)

// Pipeline is the part of the application service the ask command uses.
type Pipeline interface {
	IndexDocuments(ctx context.Context, docs []types.Document) (int, error)
	Ask(ctx context.Context, question string, topK int) (string, []types.Hit, error)
	Close() error
}

// Factory builds the pipeline once configuration has been loaded.
type Factory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Pipeline, error)

func defaultFactory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Pipeline, error) {
	return service.NewFromConfig(ctx, cfg, logger)
}

type rootOptions struct {
	configPath string
	indexPDF   string
	indexWiki  string
	indexURL   string
	question   string
	topK       int
}

// Execute runs the root command with the real pipeline.
func Execute() error {
	return NewRootCmd(defaultFactory).Execute()
}

func NewRootCmd(factory Factory) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "docqa",
		Short: "Index documents and answer questions about them",
		Long: `Index PDFs, Wikipedia articles and web pages into a vector store and
answer questions with a language model, citing the retrieved chunks.

Examples:
  docqa --index-pdf slides.pdf
  docqa --index-wiki "Cell biology" --question "What is a ribosome?"
  docqa --question "Summarise lecture 3" --top-k 8
  docqa serve
  docqa watch`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, opts, factory)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&opts.indexPDF, "index-pdf", "", "path to a PDF to index")
	cmd.Flags().StringVar(&opts.indexWiki, "index-wiki", "", "Wikipedia page title to index")
	cmd.Flags().StringVar(&opts.indexURL, "index-url", "", "web page URL to index")
	cmd.Flags().StringVar(&opts.question, "question", "", "question to ask after indexing")
	cmd.Flags().IntVar(&opts.topK, "top-k", types.DefaultTopK, "number of chunks to retrieve")

	cmd.AddCommand(newServeCmd(&opts.configPath))
	cmd.AddCommand(newWatchCmd(&opts.configPath))

	return cmd
}

func runRoot(cmd *cobra.Command, opts *rootOptions, factory Factory) error {
	if opts.topK < 1 {
		return fmt.Errorf("--top-k must be positive, got %d", opts.topK)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	logger := cfg.Logger()
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var docs []types.Document
	if opts.indexPDF != "" {
		pages, err := loader.LoadPDF(opts.indexPDF)
		if err != nil {
			return err
		}
		docs = append(docs, pages...)
	}
	if opts.indexWiki != "" {
		doc, err := loader.FetchWikipedia(ctx, opts.indexWiki)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	if opts.indexURL != "" {
		doc, err := loader.FetchURL(ctx, opts.indexURL)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	pipeline, err := factory(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing pipeline: %w", err)
	}
	defer pipeline.Close()

	if len(docs) > 0 {
		n, err := pipeline.IndexDocuments(ctx, docs)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Indexed %d chunks.\n", n)
	} else {
		fmt.Fprintln(out, "No docs provided for indexing. Using existing index if present.")
	}

	if opts.question == "" {
		return nil
	}

	answer, hits, err := pipeline.Ask(ctx, opts.question, opts.topK)
	if err != nil {
		return err
	}
	printAnswer(out, answer, hits)
	return nil
}

func printAnswer(w io.Writer, answer string, hits []types.Hit) {
	fmt.Fprintln(w, "ANSWER:")
	fmt.Fprintln(w, answer)
	fmt.Fprintln(w, "\nTop chunks:")
	for _, h := range hits {
		meta, _ := json.Marshal(h.Metadata)
		fmt.Fprintf(w, "%s %s %s...\n", h.ID, meta, strings.ReplaceAll(preview(h.Text, 200), "\n", " "))
	}
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

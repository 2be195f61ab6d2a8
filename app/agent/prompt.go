package agent

import (
	"fmt"
	"strconv"
	"strings"

	"docqa/types"
)

const systemPrompt = "You are a helpful tutor/assistant with access to educational slide content. " +
	"Use the provided context chunks to answer the user question. Cite chunk indices " +
	"like [1], [2] with source and page. If the answer is not in the material, say so and provide a short external explanation."

const (
	noLLMHeader      = "No cloud LLM configured. Here are the most relevant context snippets:\n\n"
	degradedSnippets = 3
	snippetLength    = 400
)

// BuildCitedPrompt numbers every hit and labels it with source and page.
func BuildCitedPrompt(question string, hits []types.Hit) string {
	lines := make([]string, len(hits))
	for i, h := range hits {
		source := h.Metadata.Source
		if source == "" {
			source = "unknown"
		}
		page := ""
		if h.Metadata.Page != nil {
			page = strconv.Itoa(*h.Metadata.Page)
		}
		lines[i] = fmt.Sprintf("[%d] source=%s page=%s\n%s\n", i+1, source, page, h.Text)
	}
	context := strings.Join(lines, "\n\n")

	return fmt.Sprintf("%s\n\nContext:\n%s\n\nQuestion: %s\n\nAnswer (concise, cite chunks):", systemPrompt, context, question)
}

// BuildSlidePrompt is the prompt of the single-provider generator.
func BuildSlidePrompt(question string, hits []types.Hit) string {
	blocks := make([]string, len(hits))
	for i, h := range hits {
		page := "?"
		if h.Metadata.Page != nil {
			page = strconv.Itoa(*h.Metadata.Page)
		}
		blocks[i] = fmt.Sprintf("Source (p.%s): %s", page, h.Text)
	}

	return fmt.Sprintf(`
You are an educational assistant. Answer the question using the provided context.
If relevant, cite the slide/page numbers from metadata.

Question:
%s

Context:
%s

Answer:
`, question, strings.Join(blocks, "\n\n"))
}

// DegradedAnswer echoes the first hits when no provider is configured.
func DegradedAnswer(hits []types.Hit) string {
	n := min(len(hits), degradedSnippets)
	snippets := make([]string, n)
	for i := range n {
		snippets[i] = fmt.Sprintf("[%d] %s...", i+1, truncate(hits[i].Text, snippetLength))
	}
	return noLLMHeader + strings.Join(snippets, "\n\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

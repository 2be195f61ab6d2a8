package types

// Document is a single unit of fetched text: one PDF page, one Wikipedia
// article or one web page.
type Document struct {
	Source string // Имя файла, "wikipedia:<title>" или URL
	URL    string
	Page   *int // nil когда у источника нет страниц
	Text   string
}

// Chunk is a bounded span of document text. It is never mutated after the
// chunker creates it; re-indexing overwrites by ID.
type Chunk struct {
	ID     string
	Source string
	Page   *int
	Text   string
}

// IndexRecord is what a vector store persists for one chunk.
type IndexRecord struct {
	ID        string
	Text      string
	Metadata  HitMetadata
	Embedding []float32
}

type HitMetadata struct {
	Source string `json:"source"`
	Page   *int   `json:"page"`
}

// Hit is a retrieved chunk with its distance to the query, smaller is closer.
type Hit struct {
	ID       string      `json:"id"`
	Text     string      `json:"text"`
	Metadata HitMetadata `json:"metadata"`
	Distance float64     `json:"distance"`
}

func PageOf(n int) *int {
	return &n
}

func (c Chunk) Metadata() HitMetadata {
	return HitMetadata{Source: c.Source, Page: c.Page}
}

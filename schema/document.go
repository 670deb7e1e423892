package schema

// Document is a unit of retrievable content flowing through the embedding
// and vector store layers. Score is populated by search results; Embedding
// is populated once the document has been embedded.
type Document struct {
	ID        string
	Content   string
	Metadata  map[string]any
	Score     float64
	Embedding []float32
}

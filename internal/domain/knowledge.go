package domain

// KnowledgeItem is one retrievable unit of domain documentation with an
// associated embedding. Items are created by the offline ingestion pass and
// are immutable afterwards.
type KnowledgeItem struct {
	ID        string
	Model     string
	Domain    string
	Title     string
	Content   string
	Embedding []float32
}

// ScoredItem pairs a knowledge item with its cosine similarity to a query
// vector, computed as 1 - cosine distance.
type ScoredItem struct {
	KnowledgeItem
	Similarity float64
}

// DomainScore is the best single-item similarity observed within a domain.
// One strong match promotes the whole domain.
type DomainScore struct {
	Domain     string
	Similarity float64
}

// TitleFromContent derives the conventional item title: the first 50
// characters of content.
func TitleFromContent(content string) string {
	runes := []rune(content)
	if len(runes) <= 50 {
		return content
	}
	return string(runes[:50])
}

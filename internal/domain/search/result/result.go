package result

import (
	"sort"

	"github.com/kailas-cloud/resumeqa/internal/domain/vector"
)

// Match is a single nearest-neighbour hit as returned by a vector store.
type Match struct {
	id       string
	score    float64
	metadata vector.Metadata
}

// New creates a match.
func New(id string, score float64, metadata vector.Metadata) Match {
	return Match{id: id, score: score, metadata: metadata}
}

// ID returns the vector identifier.
func (m *Match) ID() string { return m.id }

// Score returns the similarity score (higher is closer).
func (m *Match) Score() float64 { return m.score }

// Metadata returns the stored payload.
func (m *Match) Metadata() vector.Metadata { return m.metadata }

// SortByScore orders matches by descending score. Ties keep the store's order.
func SortByScore(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
}

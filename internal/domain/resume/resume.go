package resume

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/resumeqa/internal/domain/category"
)

// Limits for ingested resumes.
const (
	MaxIDLength = 256
	MaxTextSize = 262144 // 256KB
)

// Document is an indexed resume (immutable value object).
// Score is only set on documents returned by a similarity query.
type Document struct {
	id       string
	category category.Category
	text     string
	score    float64
}

// New validates and creates a Document for ingestion.
func New(id string, cat category.Category, text string) (Document, error) {
	if strings.TrimSpace(id) == "" {
		return Document{}, fmt.Errorf("resume ID is required")
	}
	if len(id) > MaxIDLength {
		return Document{}, fmt.Errorf("resume ID too long (max %d)", MaxIDLength)
	}
	if !cat.IsValid() {
		return Document{}, fmt.Errorf("resume %s: unknown category %q", id, cat)
	}
	if strings.TrimSpace(text) == "" {
		return Document{}, fmt.Errorf("resume %s: text is required", id)
	}
	if len(text) > MaxTextSize {
		return Document{}, fmt.Errorf("resume %s: text too large (max %d bytes)", id, MaxTextSize)
	}
	return Document{id: id, category: cat, text: text}, nil
}

// Reconstruct creates a Document without validation (query result hydration).
func Reconstruct(id string, cat category.Category, text string, score float64) Document {
	return Document{id: id, category: cat, text: text, score: score}
}

// ID returns the resume identifier.
func (d Document) ID() string { return d.id }

// Category returns the resume category.
func (d Document) Category() category.Category { return d.category }

// Text returns the raw resume text.
func (d Document) Text() string { return d.text }

// Score returns the similarity score; zero outside query results.
func (d Document) Score() float64 { return d.score }

type documentJSON struct {
	ID       string            `json:"id"`
	Category category.Category `json:"category"`
	Text     string            `json:"text"`
	Score    float64           `json:"score"`
}

// MarshalJSON renders the document as a plain record.
func (d Document) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(documentJSON{ID: d.id, Category: d.category, Text: d.text, Score: d.score})
	if err != nil {
		return nil, fmt.Errorf("marshal resume %s: %w", d.id, err)
	}
	return b, nil
}

// UnmarshalJSON hydrates a document from its plain record form.
func (d *Document) UnmarshalJSON(b []byte) error {
	var raw documentJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("unmarshal resume: %w", err)
	}
	*d = Reconstruct(raw.ID, raw.Category, raw.Text, raw.Score)
	return nil
}

package resume

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kailas-cloud/resumeqa/internal/domain/category"
)

func TestNew_Valid(t *testing.T) {
	doc, err := New("row_0", category.Finance, "Senior accountant, 10 years")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "row_0" {
		t.Errorf("ID() = %q", doc.ID())
	}
	if doc.Category() != category.Finance {
		t.Errorf("Category() = %q", doc.Category())
	}
	if doc.Text() != "Senior accountant, 10 years" {
		t.Errorf("Text() = %q", doc.Text())
	}
	if doc.Score() != 0 {
		t.Errorf("Score() = %v, want 0 for ingested document", doc.Score())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		id   string
		cat  category.Category
		text string
		want string
	}{
		{"empty id", "", category.HR, "text", "ID is required"},
		{"blank id", "   ", category.HR, "text", "ID is required"},
		{"long id", strings.Repeat("a", MaxIDLength+1), category.HR, "text", "too long"},
		{"unknown category", "1", category.Category("PIRATE"), "text", "unknown category"},
		{"empty text", "1", category.HR, " \n", "text is required"},
		{"huge text", "1", category.HR, strings.Repeat("x", MaxTextSize+1), "too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.id, tt.cat, tt.text)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestReconstruct_KeepsScore(t *testing.T) {
	doc := Reconstruct("42", category.Aviation, "pilot", 0.87)
	if doc.Score() != 0.87 {
		t.Errorf("Score() = %v", doc.Score())
	}
}

func TestJSON_PlainRecord(t *testing.T) {
	doc := Reconstruct("42", category.Aviation, "pilot", 0.5)

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"42","category":"AVIATION","text":"pilot","score":0.5}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}

	var back Document
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != doc {
		t.Errorf("round trip mismatch: %+v vs %+v", back, doc)
	}
}

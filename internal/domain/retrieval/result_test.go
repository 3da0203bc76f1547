package retrieval

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kailas-cloud/resumeqa/internal/domain/category"
	"github.com/kailas-cloud/resumeqa/internal/domain/resume"
	"github.com/kailas-cloud/resumeqa/internal/domain/trace"
)

func TestNewResult_CategoryInvariant(t *testing.T) {
	docs := []resume.Document{
		resume.Reconstruct("1", category.InformationTechnology, "go dev", 0.9),
		resume.Reconstruct("2", category.HR, "recruiter", 0.8),
	}
	if _, err := NewResult(category.InformationTechnology, docs, trace.New("t")); err == nil {
		t.Fatal("expected error for mixed categories")
	}
}

func TestNewResult_CopiesDocs(t *testing.T) {
	docs := []resume.Document{resume.Reconstruct("1", category.Finance, "cfo", 0.9)}
	r, err := NewResult(category.Finance, docs, trace.New("t"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	docs[0] = resume.Reconstruct("x", category.Finance, "other", 0)

	if r.Docs()[0].ID() != "1" {
		t.Error("result must not alias the caller slice")
	}
	if r.Len() != 1 || r.Category() != category.Finance {
		t.Errorf("got len=%d category=%s", r.Len(), r.Category())
	}
}

func TestResult_JSONEmptyDocs(t *testing.T) {
	r, err := NewResult(category.Aviation, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(b)
	if !strings.Contains(got, `"category":"AVIATION"`) || !strings.Contains(got, `"docs":[]`) {
		t.Errorf("got %s", got)
	}
}

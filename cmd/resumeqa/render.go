package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	domans "github.com/kailas-cloud/resumeqa/internal/domain/answer"
	"github.com/kailas-cloud/resumeqa/internal/domain/category"
	"github.com/kailas-cloud/resumeqa/internal/domain/resume"
	domret "github.com/kailas-cloud/resumeqa/internal/domain/retrieval"
	"github.com/kailas-cloud/resumeqa/internal/domain/trace"
)

// snippetLen bounds the resume excerpt shown per document.
const snippetLen = 160

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	catStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	stepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	docBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	answerStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).
			BorderForeground(lipgloss.Color("12"))
)

// report is what ask prints: the same shape as the HTTP query response.
type report struct {
	Query    string            `json:"query"`
	TraceID  string            `json:"trace_id"`
	Category category.Category `json:"category"`
	Answer   string            `json:"answer"`
	Docs     []resume.Document `json:"docs"`
	Steps    []trace.Step      `json:"steps"`
}

func newReport(query string, res domret.Result, ans domans.Result) report {
	docs := res.Docs()
	if docs == nil {
		docs = []resume.Document{}
	}
	return report{
		Query:    query,
		TraceID:  res.Trace().ID(),
		Category: res.Category(),
		Answer:   ans.Answer,
		Docs:     docs,
		Steps:    append(res.Trace().Steps(), ans.Step),
	}
}

// renderReport formats a report for a terminal.
func renderReport(r report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Query: " + r.Query))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Category: "))
	b.WriteString(catStyle.Render(r.Category.String()))
	b.WriteString(labelStyle.Render("  trace " + r.TraceID))
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render("Steps"))
	b.WriteString("\n")
	for i, s := range r.Steps {
		b.WriteString(stepStyle.Render(fmt.Sprintf("%d. %s", i+1, s.Name())))
		b.WriteString(labelStyle.Render(fmt.Sprintf("  %s, %dms", s.Tool(), s.Duration().Milliseconds())))
		if d := stepSummary(s); d != "" {
			b.WriteString(labelStyle.Render("  " + d))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(titleStyle.Render(fmt.Sprintf("Documents (%d)", len(r.Docs))))
	b.WriteString("\n")
	if len(r.Docs) == 0 {
		b.WriteString(labelStyle.Render("no resumes matched this category"))
		b.WriteString("\n")
	}
	for _, d := range r.Docs {
		body := fmt.Sprintf("ID: %s  score=%.3f\n%s", d.ID(), d.Score(), snippet(d.Text(), snippetLen))
		b.WriteString(docBoxStyle.Render(body))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("Answer"))
	b.WriteString("\n")
	b.WriteString(answerStyle.Render(r.Answer))
	return b.String()
}

func stepSummary(s trace.Step) string {
	switch s.Kind() {
	case trace.KindClassification:
		d, _ := s.Classification()
		return "model=" + d.Model + " category=" + d.Category
	case trace.KindEmbedding:
		d, _ := s.Embedding()
		return fmt.Sprintf("model=%s dim=%d", d.Model, d.Dimension)
	case trace.KindVectorSearch:
		d, _ := s.VectorSearch()
		return fmt.Sprintf("index=%s metric=%s top_k=%d filter=%s", d.Index, d.Metric, d.TopK, d.Filter[category.FieldName])
	case trace.KindResults:
		d, _ := s.Results()
		return fmt.Sprintf("count=%d", d.Count)
	case trace.KindSynthesis:
		d, _ := s.Synthesis()
		return fmt.Sprintf("model=%s input_docs=%d", d.Model, d.InputDocs)
	default:
		return ""
	}
}

// snippet collapses whitespace and cuts the text to n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "…"
}

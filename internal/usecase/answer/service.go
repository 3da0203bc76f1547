// Package answer turns retrieved resumes into a cited natural-language answer.
package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/kailas-cloud/resumeqa/internal/domain"
	domans "github.com/kailas-cloud/resumeqa/internal/domain/answer"
	"github.com/kailas-cloud/resumeqa/internal/domain/resume"
	"github.com/kailas-cloud/resumeqa/internal/domain/retrieval"
	"github.com/kailas-cloud/resumeqa/internal/domain/trace"
	"github.com/kailas-cloud/resumeqa/internal/logger"
	"github.com/kailas-cloud/resumeqa/internal/metrics"
)

// DefaultMaxContextDocs is how many retrieved resumes go into the prompt.
const DefaultMaxContextDocs = 5

// SystemPrompt instructs the model to cite documents as [ID: <id>].
const SystemPrompt = "You are an expert assistant. Answer the user's query using the provided documents. " +
	"Be concise, accurate, and reference document IDs inline when citing (e.g., [ID: 123]). " +
	"If the context documents do not contain enough information, say that the context is insufficient."

// NoDocumentsContext replaces the document list when retrieval found nothing.
const NoDocumentsContext = "No documents matched the query category."

// Service generates answers. Stateless and safe for concurrent use.
type Service struct {
	synth       Synthesizer
	maxDocs     int
	callTimeout time.Duration
}

// New creates an answer service.
func New(synth Synthesizer) *Service {
	return &Service{
		synth:       synth,
		maxDocs:     DefaultMaxContextDocs,
		callTimeout: domain.DefaultCallTimeout,
	}
}

// WithMaxContextDocs limits the documents passed to the model.
func (s *Service) WithMaxContextDocs(n int) *Service {
	if n > 0 {
		s.maxDocs = n
	}
	return s
}

// WithCallTimeout bounds the synthesis call.
func (s *Service) WithCallTimeout(d time.Duration) *Service {
	if d > 0 {
		s.callTimeout = d
	}
	return s
}

// Answer synthesizes an answer from the leading retrieved documents.
// A retrieval with no documents is answered too; the model is told so.
func (s *Service) Answer(ctx context.Context, query string, res retrieval.Result) (domans.Result, error) {
	ctx, span := otel.Tracer("resumeqa/answer").Start(ctx, "answer.synthesize")
	defer span.End()

	docs := res.Docs()
	if len(docs) > s.maxDocs {
		docs = docs[:s.maxDocs]
	}
	span.SetAttributes(attribute.Int("input_docs", len(docs)))

	start := time.Now()
	var text string
	err := domain.CallWithTimeout(ctx, s.callTimeout, "answer synthesis", func(ctx context.Context) error {
		var serr error
		text, serr = s.synth.Complete(ctx, SystemPrompt, BuildPrompt(query, docs))
		return serr
	})
	metrics.ObserveStage(metrics.StageSynthesis, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.FromContext(ctx).Error("Answer synthesis failed", zap.Error(err))
		return domans.Result{}, fmt.Errorf("synthesize answer: %w", err)
	}

	step := trace.NewSynthesis(s.synth.Tool(), trace.SynthesisDetail{
		Model:     s.synth.Model(),
		InputDocs: len(docs),
	}, time.Since(start))

	logger.FromContext(ctx).Debug("Answer generated",
		zap.Int("input_docs", len(docs)),
		zap.Int("answer_len", len(text)),
	)
	return domans.Result{Answer: text, Step: step}, nil
}

// BuildPrompt renders the user message: the query followed by one
// "ID: <id>\n<text>" block per document.
func BuildPrompt(query string, docs []resume.Document) string {
	var b strings.Builder
	b.WriteString("User Query:\n")
	b.WriteString(query)
	fmt.Fprintf(&b, "\n\nContext Documents (top %d):\n", len(docs))

	if len(docs) == 0 {
		b.WriteString(NoDocumentsContext)
	}
	for i, d := range docs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("ID: ")
		b.WriteString(d.ID())
		b.WriteByte('\n')
		b.WriteString(d.Text())
	}

	b.WriteString("\n\nAnswer the user's question using the context above.")
	return b.String()
}

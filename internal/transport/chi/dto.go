package chi

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/resumeqa/internal/domain/category"
	"github.com/kailas-cloud/resumeqa/internal/domain/resume"
	domret "github.com/kailas-cloud/resumeqa/internal/domain/retrieval"
	"github.com/kailas-cloud/resumeqa/internal/domain/trace"
	domusage "github.com/kailas-cloud/resumeqa/internal/domain/usage"
	healthuc "github.com/kailas-cloud/resumeqa/internal/usecase/health"
)

// DefaultMaxTopK caps top_k unless the server is given another limit.
const DefaultMaxTopK = 50

// QueryRequest is the body of POST /v1/query and POST /v1/retrieve.
// Query is capped at 4000 bytes; top_k 0 means the server default.
type QueryRequest struct {
	Query string `json:"query" validate:"required,max=4000"`
	TopK  int    `json:"top_k,omitempty" validate:"omitempty,min=1"`
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field constraints. The top_k ceiling is configurable, so
// it is checked here rather than in the tag.
func (r *QueryRequest) Validate(maxTopK int) error {
	if err := validate.Struct(r); err != nil {
		return err //nolint:wrapcheck // validator messages go to the client as is
	}
	if r.TopK > maxTopK {
		return fmt.Errorf("top_k must satisfy max=%d", maxTopK)
	}
	return nil
}

// QueryResponse is the answer with everything that produced it.
type QueryResponse struct {
	TraceID  string            `json:"trace_id"`
	Category category.Category `json:"category"`
	Answer   string            `json:"answer"`
	Docs     []resume.Document `json:"docs"`
	Steps    []trace.Step      `json:"steps"`
}

// RetrieveResponse is the retrieval result without an answer.
type RetrieveResponse struct {
	TraceID  string            `json:"trace_id"`
	Category category.Category `json:"category"`
	Docs     []resume.Document `json:"docs"`
	Steps    []trace.Step      `json:"steps"`
}

// CategoriesResponse lists the closed category set.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// HealthResponse mirrors the health report.
type HealthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// UsageResponse is the body of GET /v1/usage. Remaining is -1 when the
// period has no limit.
type UsageResponse struct {
	Period    string    `json:"period"`
	StartAt   time.Time `json:"period_start_at"`
	EndAt     time.Time `json:"period_end_at"`
	Tokens    int64     `json:"tokens"`
	Limit     int64     `json:"tokens_limit"`
	Remaining int64     `json:"tokens_remaining"`
	Exhausted bool      `json:"is_exhausted"`
}

func usageToResponse(r domusage.Report) UsageResponse {
	return UsageResponse{
		Period:    string(r.Period()),
		StartAt:   r.Start(),
		EndAt:     r.End(),
		Tokens:    r.TokensUsed(),
		Limit:     r.TokensLimit(),
		Remaining: r.TokensRemaining(),
		Exhausted: r.IsExhausted(),
	}
}

func retrieveToResponse(res domret.Result) RetrieveResponse {
	docs := res.Docs()
	if docs == nil {
		docs = []resume.Document{}
	}
	steps := res.Trace().Steps()
	if steps == nil {
		steps = []trace.Step{}
	}
	return RetrieveResponse{
		TraceID:  res.Trace().ID(),
		Category: res.Category(),
		Docs:     docs,
		Steps:    steps,
	}
}

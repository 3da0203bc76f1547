package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	chirouter "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/resumeqa/internal/domain"
	"github.com/kailas-cloud/resumeqa/internal/domain/category"
	domusage "github.com/kailas-cloud/resumeqa/internal/domain/usage"
	"github.com/kailas-cloud/resumeqa/internal/logger"
	"github.com/kailas-cloud/resumeqa/internal/metrics"
	healthuc "github.com/kailas-cloud/resumeqa/internal/usecase/health"
)

// ServiceName names the HTTP server span.
const ServiceName = "resumeqa"

const maxBodyBytes = 1 << 16

// Server serves the question answering API.
type Server struct {
	retriever     Retriever
	answerer      Answerer
	health        HealthChecker
	usage         UsageReporter
	maxTopK       int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(retriever Retriever, answerer Answerer, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{
		retriever:     retriever,
		answerer:      answerer,
		health:        health,
		maxTopK:       DefaultMaxTopK,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// WithMaxTopK sets the largest top_k a request may ask for. It should match
// the retrieval service limit.
func (s *Server) WithMaxTopK(n int) *Server {
	if n > 0 {
		s.maxTopK = n
	}
	return s
}

// WithUsage enables GET /v1/usage.
func (s *Server) WithUsage(u UsageReporter) *Server {
	s.usage = u
	return s
}

// Router builds the chi router with the middleware chain and wraps it in an
// OpenTelemetry server span. Empty apiKeys disables authentication.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chirouter.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(r chirouter.Router) {
		r.Post("/query", s.Query)
		r.Post("/retrieve", s.Retrieve)
		r.Get("/categories", s.Categories)
		if s.usage != nil {
			r.Get("/usage", s.GetUsage)
		}
	})

	return otelhttp.NewHandler(r, ServiceName)
}

// Query handles POST /v1/query: retrieval followed by answer synthesis.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	ctx, meter := domain.WithTokenMeter(r.Context())
	res, err := s.retriever.Retrieve(ctx, req.Query, req.TopK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ans, err := s.answerer.Answer(ctx, req.Query, res)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	base := retrieveToResponse(res)
	w.Header().Set("X-Trace-ID", base.TraceID)
	setEmbeddingHeaders(w, meter)
	writeJSON(w, http.StatusOK, QueryResponse{
		TraceID:  base.TraceID,
		Category: base.Category,
		Answer:   ans.Answer,
		Docs:     base.Docs,
		Steps:    append(base.Steps, ans.Step),
	})
}

// Retrieve handles POST /v1/retrieve: the retrieval pipeline only.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	ctx, meter := domain.WithTokenMeter(r.Context())
	res, err := s.retriever.Retrieve(ctx, req.Query, req.TopK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := retrieveToResponse(res)
	w.Header().Set("X-Trace-ID", resp.TraceID)
	setEmbeddingHeaders(w, meter)
	writeJSON(w, http.StatusOK, resp)
}

// Categories handles GET /v1/categories.
func (s *Server) Categories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, CategoriesResponse{Categories: category.Strings()})
}

// GetUsage handles GET /v1/usage?period=day|month (default month).
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period, err := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, usageToResponse(s.usage.Report(r.Context(), period)))
}

// HealthCheck handles GET /health. Only an unreachable vector store fails the probe.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: report.Status,
		Checks: report.Checks,
	})
}

func setEmbeddingHeaders(w http.ResponseWriter, meter *domain.TokenMeter) {
	if tokens, embedded := meter.Total(); embedded {
		w.Header().Set("X-Embedding-Tokens", strconv.FormatInt(tokens, 10))
	}
}

func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (QueryRequest, bool) {
	var req QueryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return QueryRequest{}, false
	}
	if err := req.Validate(s.maxTopK); err != nil {
		logger.FromContext(r.Context()).Debug("request validation failed", zap.Error(err))
		writeError(w, http.StatusBadRequest, CodeValidationFailed, validationMessage(err))
		return QueryRequest{}, false
	}
	return req, true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fe.Field() + " is required"
		case "min", "max":
			return fe.Field() + " must satisfy " + fe.Tag() + "=" + fe.Param()
		}
	}
	return err.Error()
}

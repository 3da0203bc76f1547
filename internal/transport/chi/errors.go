package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/resumeqa/internal/domain"
	"github.com/kailas-cloud/resumeqa/internal/logger"
)

// ErrorCode is the machine-readable error code in every error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeUnauthorized     ErrorCode = "unauthorized"
	CodeTimeout          ErrorCode = "timeout"
	CodeBudgetExceeded   ErrorCode = "embedding_budget_exceeded"
	CodeClassification   ErrorCode = "classification_failed"
	CodeEmbedding        ErrorCode = "embedding_failed"
	CodeVectorStore      ErrorCode = "vector_store_unavailable"
	CodeSynthesis        ErrorCode = "synthesis_failed"
	CodeConfiguration    ErrorCode = "configuration_error"
	CodeInternal         ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Порядок важен: ErrBudgetExceeded оборачивает ErrEmbedding,
// таймаут проверяется раньше вида ошибки стадии.
func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrTimeout, http.StatusGatewayTimeout, CodeTimeout),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrBudgetExceeded, http.StatusTooManyRequests, CodeBudgetExceeded),
		sentinelHandler(domain.ErrClassification, http.StatusBadGateway, CodeClassification),
		sentinelHandler(domain.ErrEmbedding, http.StatusBadGateway, CodeEmbedding),
		sentinelHandler(domain.ErrVectorStore, http.StatusServiceUnavailable, CodeVectorStore),
		sentinelHandler(domain.ErrSynthesis, http.StatusBadGateway, CodeSynthesis),
		sentinelHandler(domain.ErrConfiguration, http.StatusInternalServerError, CodeConfiguration),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrTimeout,
		domain.ErrInvalidQuery,
		domain.ErrBudgetExceeded,
		domain.ErrClassification,
		domain.ErrEmbedding,
		domain.ErrVectorStore,
		domain.ErrSynthesis,
		domain.ErrConfiguration,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}

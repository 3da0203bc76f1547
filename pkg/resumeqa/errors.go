package resumeqa

import "github.com/kailas-cloud/resumeqa/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrClassification = domain.ErrClassification
	ErrEmbedding      = domain.ErrEmbedding
	ErrVectorStore    = domain.ErrVectorStore
	ErrSynthesis      = domain.ErrSynthesis
	ErrConfiguration  = domain.ErrConfiguration
	ErrTimeout        = domain.ErrTimeout
	ErrInvalidQuery   = domain.ErrInvalidQuery
	ErrBudgetExceeded = domain.ErrBudgetExceeded
	ErrIndexNotReady  = domain.ErrIndexNotReady
)

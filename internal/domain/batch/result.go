// Package batch describes the outcome of an ingestion run.
package batch

// Status is the processing outcome of a single ingestion batch.
type Status string

// Batch status values.
const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped" // already committed by a previous run
	StatusError   Status = "error"
)

// Result is the outcome of one embed+upsert batch.
type Result struct {
	number int
	size   int
	status Status
	err    error
}

// NewOK creates a committed batch result.
func NewOK(number, size int) Result {
	return Result{number: number, size: size, status: StatusOK}
}

// NewSkipped creates a result for the records a previous run already
// committed, up to and including batch number.
func NewSkipped(number, size int) Result {
	return Result{number: number, size: size, status: StatusSkipped}
}

// NewError creates a failed batch result.
func NewError(number, size int, err error) Result {
	return Result{number: number, size: size, status: StatusError, err: err}
}

// Number returns the 1-based batch number.
func (r Result) Number() int { return r.number }

// Size returns the number of records in the batch.
func (r Result) Size() int { return r.size }

// Status returns the processing outcome.
func (r Result) Status() Status { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Report summarizes an ingestion run.
type Report struct {
	Batches int `json:"batches"` // batches embedded and upserted in this run
	Records int `json:"records"` // records upserted in this run
	Skipped int `json:"skipped"` // source rows dropped (unknown category, empty text)
	Resumed int `json:"resumed"` // records skipped because a checkpoint covered them
}

// Add folds a batch result into the report.
func (r *Report) Add(res Result) {
	switch res.status {
	case StatusOK:
		r.Batches++
		r.Records += res.size
	case StatusSkipped:
		r.Resumed += res.size
	}
}

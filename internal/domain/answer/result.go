// Package answer holds the synthesized answer and its trace step.
package answer

import (
	"github.com/kailas-cloud/resumeqa/internal/domain/trace"
)

// Result is the generated answer text and the synthesis step that produced it.
type Result struct {
	Answer string     `json:"answer"`
	Step   trace.Step `json:"step"`
}

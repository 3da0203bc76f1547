package answer

import "context"

// Synthesizer generates the answer text from a system directive and a prompt.
type Synthesizer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Model() string
	Tool() string
}

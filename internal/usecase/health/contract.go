package health

import "context"

// Pinger is a storage backend: the vector store or the embedding cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Prober is the model provider. HealthCheck makes the cheapest authenticated call it has.
type Prober interface {
	HealthCheck(ctx context.Context) error
}

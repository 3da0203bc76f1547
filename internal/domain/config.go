package domain

// KeyPrefix namespaces every key this service writes to Redis.
const KeyPrefix = "resumeqa:"

// VectorConfig holds vectorization settings shared by ingestion and query time.
type VectorConfig struct {
	Model          string
	Dimensions     int
	DistanceMetric string
}

// DefaultVectorConfig returns the defaults for text-embedding-3-small.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:          "text-embedding-3-small",
		Dimensions:     1536,
		DistanceMetric: "cosine",
	}
}

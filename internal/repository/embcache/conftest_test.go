package embcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/resumeqa/internal/domain"
)

// fakeProvider derives a one-element vector from the text length and bills
// one token per text. Every BatchEmbed call is recorded.
type fakeProvider struct {
	err   error
	short bool
	calls [][]string
}

func (f *fakeProvider) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := f.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: res.Embeddings[0], PromptTokens: 1, TotalTokens: 1}, nil
}

func (f *fakeProvider) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.calls = append(f.calls, append([]string(nil), texts...))
	if f.err != nil {
		return domain.BatchEmbeddingResult{}, f.err
	}
	n := len(texts)
	if f.short {
		n--
	}
	out := domain.BatchEmbeddingResult{PromptTokens: n, TotalTokens: n}
	for _, t := range texts[:n] {
		out.Embeddings = append(out.Embeddings, []float32{float32(len(t))})
	}
	return out, nil
}

// fakeKV is an in-memory store with switchable failures.
type fakeKV struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (kv *fakeKV) GetMulti(_ context.Context, keys []string) ([][]byte, error) {
	if kv.getErr != nil {
		return nil, kv.getErr
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = kv.data[k]
	}
	return out, nil
}

func (kv *fakeKV) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if kv.setErr != nil {
		return kv.setErr
	}
	kv.data[key] = value
	kv.ttls[key] = ttl
	return nil
}

func newCached(t *testing.T, p *fakeProvider, kv *fakeKV) *CachedEmbedder {
	t.Helper()
	return New(p, kv, "text-embedding-3-small", 24*time.Hour, nil, zap.NewNop())
}

// seed stores vec under the key ce would use for text.
func seed(kv *fakeKV, ce *CachedEmbedder, text string, vec []float32) {
	kv.data[ce.cacheKey(text)] = vectorToCacheBytes(vec)
}

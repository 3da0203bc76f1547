// Package qdrant is the Qdrant-backed vector store gateway.
package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/kailas-cloud/resumeqa/internal/domain"
	"github.com/kailas-cloud/resumeqa/internal/domain/search/filter"
	"github.com/kailas-cloud/resumeqa/internal/domain/search/result"
	"github.com/kailas-cloud/resumeqa/internal/domain/vector"
	"github.com/kailas-cloud/resumeqa/internal/logger"
)

// idField keeps the caller's id; Qdrant point ids must be uint64 or UUID.
const idField = "id"

// pointIDNamespace derives stable point UUIDs from resume ids.
var pointIDNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("resumeqa"))

type collectionsClient interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Get(ctx context.Context, in *pb.GetCollectionInfoRequest, opts ...grpc.CallOption) (*pb.GetCollectionInfoResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
	Delete(ctx context.Context, in *pb.DeleteCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

type pointsClient interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
	CreateFieldIndex(
		ctx context.Context, in *pb.CreateFieldIndexCollection, opts ...grpc.CallOption,
	) (*pb.PointsOperationResponse, error)
}

type healthClient interface {
	HealthCheck(ctx context.Context, in *pb.HealthCheckRequest, opts ...grpc.CallOption) (*pb.HealthCheckReply, error)
}

// Readiness bounds the post-create polling loop.
type Readiness struct {
	Attempts int
	Interval time.Duration
}

// Repo implements the vector store gateway on Qdrant collections.
type Repo struct {
	conn        *grpc.ClientConn
	collections collectionsClient
	points      pointsClient
	health      healthClient
	readiness   Readiness
}

// New connects to Qdrant at the given gRPC address.
func New(addr string) (*Repo, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("%w: dial qdrant %s: %w", domain.ErrConfiguration, addr, err)
	}
	r := NewWithClients(pb.NewCollectionsClient(conn), pb.NewPointsClient(conn), pb.NewQdrantClient(conn))
	r.conn = conn
	return r, nil
}

// NewWithClients builds a Repo over existing clients (tests, shared connections).
func NewWithClients(c collectionsClient, p pointsClient, h healthClient) *Repo {
	return &Repo{
		collections: c,
		points:      p,
		health:      h,
		readiness:   Readiness{Attempts: 30, Interval: 2 * time.Second},
	}
}

// WithReadiness configures how long EnsureIndex waits for a new collection.
func (r *Repo) WithReadiness(cfg Readiness) *Repo {
	if cfg.Attempts > 0 {
		r.readiness.Attempts = cfg.Attempts
	}
	if cfg.Interval > 0 {
		r.readiness.Interval = cfg.Interval
	}
	return r
}

// Close closes the underlying gRPC connection.
func (r *Repo) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

// Tool names the backend in query traces.
func (r *Repo) Tool() string { return "qdrant" }

// Metric names the similarity metric in query traces.
func (r *Repo) Metric() string { return domain.DefaultVectorConfig().DistanceMetric }

// Ping runs the Qdrant health check.
func (r *Repo) Ping(ctx context.Context) error {
	if _, err := r.health.HealthCheck(ctx, &pb.HealthCheckRequest{}); err != nil {
		return fmt.Errorf("%w: qdrant health check: %w", domain.ErrVectorStore, err)
	}
	return nil
}

// DropIndex deletes the collection with all its points.
func (r *Repo) DropIndex(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name is required", domain.ErrConfiguration)
	}
	// Qdrant answers false, not an error, for a missing collection.
	if _, err := r.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: name}); err != nil {
		return fmt.Errorf("%w: delete collection %s: %w", domain.ErrVectorStore, name, err)
	}
	logger.FromContext(ctx).Info("qdrant collection dropped", zap.String("collection", name))
	return nil
}

// EnsureIndex creates a cosine collection with a keyword index on category if
// absent, then waits for it to turn green.
func (r *Repo) EnsureIndex(ctx context.Context, name string, dim int) error {
	if name == "" {
		return fmt.Errorf("%w: collection name is required", domain.ErrConfiguration)
	}
	if dim <= 0 {
		return fmt.Errorf("%w: index dimension must be positive, got %d", domain.ErrConfiguration, dim)
	}

	exists, err := r.exists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return r.checkDimension(ctx, name, dim)
	}

	_, err = r.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dim),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: create collection %s: %w", domain.ErrVectorStore, name, err)
	}

	wait := true
	keyword := pb.FieldType_FieldTypeKeyword
	_, err = r.points.CreateFieldIndex(ctx, &pb.CreateFieldIndexCollection{
		CollectionName: name,
		Wait:           &wait,
		FieldName:      vector.FieldCategory,
		FieldType:      &keyword,
	})
	if err != nil {
		return fmt.Errorf("%w: index %s.%s: %w", domain.ErrVectorStore, name, vector.FieldCategory, err)
	}

	logger.FromContext(ctx).Info("qdrant collection created",
		zap.String("collection", name), zap.Int("dim", dim))

	return r.waitReady(ctx, name)
}

func (r *Repo) exists(ctx context.Context, name string) (bool, error) {
	list, err := r.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return false, fmt.Errorf("%w: list collections: %w", domain.ErrVectorStore, err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repo) info(ctx context.Context, name string) (*pb.CollectionInfo, error) {
	resp, err := r.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: name})
	if err != nil {
		return nil, fmt.Errorf("%w: get collection %s: %w", domain.ErrVectorStore, name, err)
	}
	return resp.GetResult(), nil
}

func (r *Repo) checkDimension(ctx context.Context, name string, dim int) error {
	info, err := r.info(ctx, name)
	if err != nil {
		return err
	}
	// Named-vector collections have no single Params; their size is unknown here.
	existing := int(info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize())
	if existing == 0 {
		logger.FromContext(ctx).Warn("could not read vector dimension of existing collection",
			zap.String("collection", name))
		return nil
	}
	if existing != dim {
		return domain.NewDimensionMismatch(name, existing, dim)
	}
	return nil
}

func (r *Repo) waitReady(ctx context.Context, name string) error {
	for attempt := 1; attempt <= r.readiness.Attempts; attempt++ {
		info, err := r.info(ctx, name)
		if err == nil && info.GetStatus() == pb.CollectionStatus_Green {
			return nil
		}
		if attempt == r.readiness.Attempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for collection %s: %w", name, ctx.Err())
		case <-time.After(r.readiness.Interval):
		}
	}
	return fmt.Errorf("%w: %s after %d attempts", domain.ErrIndexNotReady, name, r.readiness.Attempts)
}

// Upsert writes points keyed by a UUID derived from the record id.
// Re-upserting an id replaces the point.
func (r *Repo) Upsert(ctx context.Context, name string, records []vector.Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(records))
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			return fmt.Errorf("%w: record %d has empty id", domain.ErrVectorStore, i)
		}
		if len(rec.Values) == 0 {
			return fmt.Errorf("%w: record %s has empty vector", domain.ErrVectorStore, rec.ID)
		}
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: pointID(rec.ID)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{
						Vector: &pb.Vector_Dense{Dense: &pb.DenseVector{Data: rec.Values}},
					},
				},
			},
			Payload: map[string]*pb.Value{
				idField:              stringValue(rec.ID),
				vector.FieldCategory: stringValue(rec.Metadata.Category),
				vector.FieldText:     stringValue(rec.Metadata.Text),
				vector.FieldRowID:    stringValue(rec.Metadata.RowID),
			},
		}
	}

	wait := true
	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: name,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("%w: upsert %d points into %s: %w", domain.ErrVectorStore, len(points), name, err)
	}
	return nil
}

// Query returns up to q.TopK matches, nearest first.
func (r *Repo) Query(ctx context.Context, q vector.Query) ([]result.Match, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	req := &pb.SearchPoints{
		CollectionName: q.Index,
		Vector:         q.Vector,
		Limit:          uint64(q.TopK),
		Filter:         buildFilter(q.Filter),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}

	resp, err := r.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: search %s: %w", domain.ErrVectorStore, q.Index, err)
	}

	hits := resp.GetResult()
	matches := make([]result.Match, 0, min(len(hits), q.TopK))
	for _, p := range hits {
		if len(matches) == q.TopK {
			break
		}
		payload := p.GetPayload()
		id := payload[idField].GetStringValue()
		if id == "" {
			id = p.GetId().GetUuid()
		}
		matches = append(matches, result.New(id, float64(p.GetScore()), vector.Metadata{
			Category: payload[vector.FieldCategory].GetStringValue(),
			Text:     payload[vector.FieldText].GetStringValue(),
			RowID:    payload[vector.FieldRowID].GetStringValue(),
		}))
	}
	return matches, nil
}

func buildFilter(expr filter.Expression) *pb.Filter {
	if expr.IsEmpty() {
		return nil
	}
	must := make([]*pb.Condition, 0, len(expr.Must()))
	for _, c := range expr.Must() {
		must = append(must, fieldMatch(c.Key(), c.Match()))
	}
	return &pb.Filter{Must: must}
}

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func pointID(id string) string {
	return uuid.NewSHA1(pointIDNamespace, []byte(id)).String()
}

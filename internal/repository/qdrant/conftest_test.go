package qdrant

import (
	"context"
	"testing"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

type mockCollections struct {
	names     []string
	listErr   error
	info      []*pb.CollectionInfo // returned in order, last one repeats
	getErr    error
	getCalls  int
	createErr error
	created   *pb.CreateCollection
	deleteErr error
	deleted   string
}

func (m *mockCollections) List(
	_ context.Context, _ *pb.ListCollectionsRequest, _ ...grpc.CallOption,
) (*pb.ListCollectionsResponse, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	resp := &pb.ListCollectionsResponse{}
	for _, n := range m.names {
		resp.Collections = append(resp.Collections, &pb.CollectionDescription{Name: n})
	}
	return resp, nil
}

func (m *mockCollections) Get(
	_ context.Context, _ *pb.GetCollectionInfoRequest, _ ...grpc.CallOption,
) (*pb.GetCollectionInfoResponse, error) {
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	if len(m.info) == 0 {
		return &pb.GetCollectionInfoResponse{}, nil
	}
	i := min(m.getCalls-1, len(m.info)-1)
	return &pb.GetCollectionInfoResponse{Result: m.info[i]}, nil
}

func (m *mockCollections) Create(
	_ context.Context, in *pb.CreateCollection, _ ...grpc.CallOption,
) (*pb.CollectionOperationResponse, error) {
	m.created = in
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &pb.CollectionOperationResponse{Result: true}, nil
}

func (m *mockCollections) Delete(
	_ context.Context, in *pb.DeleteCollection, _ ...grpc.CallOption,
) (*pb.CollectionOperationResponse, error) {
	m.deleted = in.GetCollectionName()
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	return &pb.CollectionOperationResponse{Result: true}, nil
}

type mockPoints struct {
	upserted    *pb.UpsertPoints
	upsertErr   error
	searched    *pb.SearchPoints
	searchResp  *pb.SearchResponse
	searchErr   error
	fieldIndex  *pb.CreateFieldIndexCollection
	fieldIdxErr error
}

func (m *mockPoints) Upsert(
	_ context.Context, in *pb.UpsertPoints, _ ...grpc.CallOption,
) (*pb.PointsOperationResponse, error) {
	m.upserted = in
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	return &pb.PointsOperationResponse{}, nil
}

func (m *mockPoints) Search(
	_ context.Context, in *pb.SearchPoints, _ ...grpc.CallOption,
) (*pb.SearchResponse, error) {
	m.searched = in
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.searchResp == nil {
		return &pb.SearchResponse{}, nil
	}
	return m.searchResp, nil
}

func (m *mockPoints) CreateFieldIndex(
	_ context.Context, in *pb.CreateFieldIndexCollection, _ ...grpc.CallOption,
) (*pb.PointsOperationResponse, error) {
	m.fieldIndex = in
	if m.fieldIdxErr != nil {
		return nil, m.fieldIdxErr
	}
	return &pb.PointsOperationResponse{}, nil
}

type mockHealth struct {
	err error
}

func (m *mockHealth) HealthCheck(
	_ context.Context, _ *pb.HealthCheckRequest, _ ...grpc.CallOption,
) (*pb.HealthCheckReply, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &pb.HealthCheckReply{Title: "qdrant"}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockCollections, *mockPoints) {
	t.Helper()
	c := &mockCollections{}
	p := &mockPoints{}
	r := NewWithClients(c, p, &mockHealth{}).WithReadiness(Readiness{Attempts: 3, Interval: time.Millisecond})
	return r, c, p
}

func collectionInfo(status pb.CollectionStatus, dim uint64) *pb.CollectionInfo {
	return &pb.CollectionInfo{
		Status: status,
		Config: &pb.CollectionConfig{
			Params: &pb.CollectionParams{
				VectorsConfig: &pb.VectorsConfig{
					Config: &pb.VectorsConfig_Params{
						Params: &pb.VectorParams{Size: dim, Distance: pb.Distance_Cosine},
					},
				},
			},
		},
	}
}

func stringPayload(kv ...string) map[string]*pb.Value {
	m := make(map[string]*pb.Value, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = stringValue(kv[i+1])
	}
	return m
}

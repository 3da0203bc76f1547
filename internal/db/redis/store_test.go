package redis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/resumeqa/internal/db"
	"github.com/kailas-cloud/resumeqa/internal/domain/category"
	"github.com/kailas-cloud/resumeqa/internal/domain/search/filter"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestWaitForReady_RetriesUntilPong(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
			Return(mock.Result(mock.RedisError("LOADING Redis is loading the dataset in memory"))),
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
			Return(mock.Result(mock.RedisString("PONG"))),
	)

	s := NewStoreForTest(c)
	if err := s.WaitForReady(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForReady_TimeoutReportsLastError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("connection refused"))).
		AnyTimes()

	s := NewStoreForTest(c)
	err := s.WaitForReady(context.Background(), 30*time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected timeout with last ping error, got %v", err)
	}
}

func TestContainsIgnoreCase(t *testing.T) {
	tests := []struct {
		s, sub string
		want   bool
	}{
		{"Index Already Exists", "index already exists", true},
		{"UNKNOWN INDEX NAME", "unknown index name", true},
		{"hello world", "world", true},
		{"short", "longer than input", false},
		{"exact", "exact", true},
		{"", "", true},
		{"notempty", "", true},
	}
	for _, tc := range tests {
		got := containsIgnoreCase(tc.s, tc.sub)
		if got != tc.want {
			t.Errorf("containsIgnoreCase(%q, %q) = %v, want %v", tc.s, tc.sub, got, tc.want)
		}
	}
}

// --- hash.go tests ---

func TestHSetMulti_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(4)),
			mock.Result(mock.RedisInt64(0)), // overwrite: no new fields
		})

	s := NewStoreForTest(c)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "resumeqa:idx:1", Fields: map[string]string{"category": "HR"}},
		{Key: "resumeqa:idx:1", Fields: map[string]string{"category": "ARTS"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSetMulti_PartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(4)),
			mock.ErrorResult(context.DeadlineExceeded),
		})

	s := NewStoreForTest(c)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "k1", Fields: map[string]string{"f": "v"}},
		{Key: "k2", Fields: map[string]string{"f": "v"}},
	})
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
	if !strings.Contains(err.Error(), "k2") {
		t.Errorf("error should name the failing key: %v", err)
	}
}

func TestHSetMulti_SortedFieldsAndAllFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("HSET", "k1", "category", "HR", "row_id", "row_1", "text", "t"),
			mock.Match("HSET", "k2", "category", "HR"),
		).
		Return([]rueidis.RedisResult{
			mock.ErrorResult(errors.New("OOM")),
			mock.ErrorResult(errors.New("OOM")),
		})

	s := NewStoreForTest(c)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "k1", Fields: map[string]string{"text": "t", "row_id": "row_1", "category": "HR"}},
		{Key: "k2", Fields: map[string]string{"category": "HR"}},
	})
	if err == nil || !strings.Contains(err.Error(), "k1") || !strings.Contains(err.Error(), "k2") {
		t.Fatalf("expected both keys in error, got %v", err)
	}
}

func TestHSetMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil)
	if err := s.HSetMulti(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- kv.go tests ---

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.Result(mock.RedisBlobString("value")))

	s := NewStoreForTest(c)
	data, err := s.Get(context.Background(), "mykey")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "value" {
		t.Errorf("unexpected data: %s", data)
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "mykey")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestGet_NetworkError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "mykey")
	if errors.Is(err, db.ErrKeyNotFound) {
		t.Error("should not be ErrKeyNotFound for network errors")
	}
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %T", err)
	}
}

func TestGetMulti_MixedHitsAndMisses(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisBlobString("a")),
			mock.Result(mock.RedisNil()),
			mock.Result(mock.RedisBlobString("c")),
		})

	s := NewStoreForTest(c)
	out, err := s.GetMulti(context.Background(), []string{"k1", "k2", "k3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(out))
	}
	if string(out[0]) != "a" || out[1] != nil || string(out[2]) != "c" {
		t.Errorf("unexpected values: %q", out)
	}
}

func TestGetMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil)
	out, err := s.GetMulti(context.Background(), nil)
	if err != nil || out != nil {
		t.Fatalf("expected nil, nil; got %v, %v", out, err)
	}
}

func TestSetWithTTL_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "mykey", "myvalue", "EX", "60")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.SetWithTTL(context.Background(), "mykey", []byte("myvalue"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIncrByWithTTL_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	key := "resumeqa:budget:openai:daily:2026-01-02"
	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("INCRBY", key, "1500"),
			mock.Match("EXPIRE", key, "172800", "NX"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(2000)),
			mock.Result(mock.RedisInt64(0)), // TTL already set
		})

	s := NewStoreForTest(c)
	total, err := s.IncrByWithTTL(context.Background(), key, 1500, 48*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2000 {
		t.Errorf("total = %d, want 2000", total)
	}
}

func TestIncrByWithTTL_Errors(t *testing.T) {
	tests := []struct {
		name    string
		results []rueidis.RedisResult
		wantOp  string
	}{
		{"incr fails", []rueidis.RedisResult{
			mock.ErrorResult(errors.New("WRONGTYPE")),
			mock.Result(mock.RedisInt64(1)),
		}, db.OpIncrBy},
		{"expire fails", []rueidis.RedisResult{
			mock.Result(mock.RedisInt64(7)),
			mock.ErrorResult(context.DeadlineExceeded),
		}, db.OpExpire},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)
			c.EXPECT().
				DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(tt.results)

			s := NewStoreForTest(c)
			_, err := s.IncrByWithTTL(context.Background(), "k", 1, time.Minute)
			var dbErr *db.Error
			if !errors.As(err, &dbErr) || dbErr.Op != tt.wantOp {
				t.Fatalf("expected db.Error{Op: %s}, got %v", tt.wantOp, err)
			}
		})
	}
}

// --- index.go tests ---

func TestCreateIndex_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.CREATE", "resumeqa:r:idx", "ON", "HASH",
			"PREFIX", "1", "resumeqa:r:",
			"SCHEMA",
			"category", "TAG",
			"vector", "VECTOR", "HNSW", "6", "TYPE", "FLOAT32", "DIM", "1536", "DISTANCE_METRIC", "COSINE",
		)).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	idx, err := db.NewIndex("resumeqa:r:idx").
		Prefix("resumeqa:r:").
		Tag("category").
		Vector("vector", db.VectorSpec{Dim: 1536, Distance: db.DistanceCosine}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := s.CreateIndex(context.Background(), idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c)
	idx := &db.IndexDefinition{
		Name:   "test:idx",
		Fields: []db.IndexField{{Name: "f", Kind: db.FieldTag}},
	}
	err := s.CreateIndex(context.Background(), idx)
	if !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestCreateIndex_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	idx := &db.IndexDefinition{
		Name:   "test:idx",
		Fields: []db.IndexField{{Name: "f", Kind: db.FieldTag}},
	}
	if err := s.CreateIndex(context.Background(), idx); !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestDropIndex_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "test:idx")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c)
	err := s.DropIndex(context.Background(), "test:idx", false)
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestDropIndex_DeleteDocs(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "test:idx", "DD")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.DropIndex(context.Background(), "test:idx", true); err != nil {
		t.Fatalf("DropIndex: %v", err)
	}
}

func TestIndexExists_True(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "test:idx")).
		Return(mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("test:idx"))))

	s := NewStoreForTest(c)
	exists, err := s.IndexExists(context.Background(), "test:idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected true")
	}
}

func TestIndexExists_False(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "test:idx")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c)
	exists, err := s.IndexExists(context.Background(), "test:idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("expected false")
	}
}

func TestIndexInfo_RedisStackLayout(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "test:idx")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisString("index_name"), mock.RedisString("test:idx"),
			mock.RedisString("attributes"), mock.RedisArray(
				mock.RedisArray(
					mock.RedisString("identifier"), mock.RedisString("category"),
					mock.RedisString("type"), mock.RedisString("TAG"),
				),
				mock.RedisArray(
					mock.RedisString("identifier"), mock.RedisString("vector"),
					mock.RedisString("type"), mock.RedisString("VECTOR"),
					mock.RedisString("algorithm"), mock.RedisString("HNSW"),
					mock.RedisString("dim"), mock.RedisInt64(1536),
				),
			),
			mock.RedisString("num_docs"), mock.RedisString("250"),
			mock.RedisString("indexing"), mock.RedisInt64(0),
			mock.RedisString("percent_indexed"), mock.RedisString("1"),
		)))

	s := NewStoreForTest(c)
	info, err := s.IndexInfo(context.Background(), "test:idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.VectorDim != 1536 {
		t.Errorf("VectorDim = %d, want 1536", info.VectorDim)
	}
	if info.NumDocs != 250 {
		t.Errorf("NumDocs = %d, want 250", info.NumDocs)
	}
	if !info.Ready() {
		t.Errorf("expected ready, got %+v", info)
	}
}

func TestIndexInfo_NestedVectorParamsStillIndexing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "test:idx")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisString("attributes"), mock.RedisArray(
				mock.RedisArray(
					mock.RedisString("identifier"), mock.RedisString("vector"),
					mock.RedisString("type"), mock.RedisString("VECTOR"),
					mock.RedisString("attribute"), mock.RedisArray(
						mock.RedisString("algorithm"), mock.RedisString("HNSW"),
						mock.RedisString("dim"), mock.RedisString("768"),
					),
				),
			),
			mock.RedisString("indexing"), mock.RedisString("1"),
			mock.RedisString("percent_indexed"), mock.RedisString("0.42"),
		)))

	s := NewStoreForTest(c)
	info, err := s.IndexInfo(context.Background(), "test:idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.VectorDim != 768 {
		t.Errorf("VectorDim = %d, want 768", info.VectorDim)
	}
	if info.Ready() {
		t.Error("index still indexing must not be ready")
	}
}

func TestIndexInfo_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "missing")).
		Return(mock.Result(mock.RedisError("Unknown index name")))

	s := NewStoreForTest(c)
	if _, err := s.IndexInfo(context.Background(), "missing"); !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestBuildCreateArgs_Validation(t *testing.T) {
	tests := []struct {
		name string
		def  db.IndexDefinition
	}{
		{"empty name", db.IndexDefinition{Fields: []db.IndexField{{Name: "f", Kind: db.FieldTag}}}},
		{"no fields", db.IndexDefinition{Name: "test"}},
		{"vector without spec", db.IndexDefinition{Name: "test", Fields: []db.IndexField{{Name: "v", Kind: db.FieldVector}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := buildCreateArgs(&tt.def); !errors.Is(err, db.ErrBadIndex) {
				t.Errorf("expected ErrBadIndex, got %v", err)
			}
		})
	}
}

func TestBuildFieldArgs(t *testing.T) {
	tests := []struct {
		name  string
		field db.IndexField
		want  []string
	}{
		{"tag", db.IndexField{Name: "f", Kind: db.FieldTag}, []string{"f", "TAG"}},
		{"tag case sensitive", db.IndexField{Name: "f", Kind: db.FieldTag, CaseSensitive: true},
			[]string{"f", "TAG", "CASESENSITIVE"}},
		{"flat", db.IndexField{Name: "f", Kind: db.FieldVector, Vector: &db.VectorSpec{
			Algo: db.VectorFlat, Dim: 128, BlockSize: 1024,
		}}, []string{"f", "VECTOR", "FLAT", "8",
			"TYPE", "FLOAT32", "DIM", "128", "DISTANCE_METRIC", "COSINE", "BLOCK_SIZE", "1024"}},
		{"hnsw", db.IndexField{Name: "f", Kind: db.FieldVector, Vector: &db.VectorSpec{
			Algo: db.VectorHNSW, Dim: 256, M: 16, EFConstruct: 200,
		}}, []string{"f", "VECTOR", "HNSW", "10",
			"TYPE", "FLOAT32", "DIM", "256", "DISTANCE_METRIC", "COSINE", "M", "16", "EF_CONSTRUCTION", "200"}},
		{"defaults", db.IndexField{Name: "f", Kind: db.FieldVector, Vector: &db.VectorSpec{Dim: 8}},
			[]string{"f", "VECTOR", "HNSW", "6", "TYPE", "FLOAT32", "DIM", "8", "DISTANCE_METRIC", "COSINE"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildFieldArgs(&tt.field)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(got, " ") != strings.Join(tt.want, " ") {
				t.Errorf("args = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildFieldArgs_Errors(t *testing.T) {
	tests := []struct {
		name  string
		field db.IndexField
	}{
		{"unknown kind", db.IndexField{Name: "f", Kind: db.FieldKind(99)}},
		{"zero dim", db.IndexField{Name: "f", Kind: db.FieldVector, Vector: &db.VectorSpec{}}},
		{"nil spec", db.IndexField{Name: "f", Kind: db.FieldVector}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := buildFieldArgs(&tt.field); !errors.Is(err, db.ErrBadIndex) {
				t.Errorf("expected ErrBadIndex, got %v", err)
			}
		})
	}
}

// --- search.go tests ---

func TestSearchKNN_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[1] == "idx"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2), // total
			mock.RedisString("resumeqa:r:1"),
			mock.RedisArray(
				mock.RedisString("__vector_score"),
				mock.RedisString("0.1"), // distance 0.1 → similarity 0.9
				mock.RedisString("category"),
				mock.RedisString("FINANCE"),
			),
			mock.RedisString("resumeqa:r:2"),
			mock.RedisArray(
				mock.RedisString("__vector_score"),
				mock.RedisString("1.5"), // beyond orthogonal → negative similarity
			),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "idx",
		Vector:    []float32{0.1, 0.2},
		K:         5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 2 || len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got total=%d len=%d", result.Total, len(result.Entries))
	}
	e := result.Entries[0]
	if e.Key != "resumeqa:r:1" {
		t.Errorf("expected key resumeqa:r:1, got %s", e.Key)
	}
	if e.Score < 0.89 || e.Score > 0.91 {
		t.Errorf("expected score ~0.9, got %f", e.Score)
	}
	if _, ok := e.Fields["__vector_score"]; ok {
		t.Error("score field must be stripped from Fields")
	}
	if e.Fields["category"] != "FINANCE" {
		t.Errorf("category = %q", e.Fields["category"])
	}
	if result.Entries[1].Score != -0.5 {
		t.Errorf("expected score -0.5, got %f", result.Entries[1].Score)
	}
}

func TestSearchKNN_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "idx",
		Vector:    []float32{0.1},
		K:         10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(result.Entries))
	}
}

func TestSearchKNN_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "idx",
		Vector:    []float32{0.1},
		K:         10,
	})
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestSearchKNN_Validation(t *testing.T) {
	tests := []struct {
		name string
		q    db.KNNQuery
	}{
		{"no index", db.KNNQuery{Vector: []float32{0.1}, K: 10}},
		{"no vector", db.KNNQuery{IndexName: "idx", K: 10}},
		{"zero k", db.KNNQuery{IndexName: "idx", Vector: []float32{0.1}}},
	}

	s := &Store{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SearchKNN(context.Background(), &tt.q)
			if !errors.Is(err, db.ErrBadQuery) {
				t.Errorf("expected ErrBadQuery, got %v", err)
			}
		})
	}
}

func TestBuildKNNArgs_CustomVectorField(t *testing.T) {
	args := buildKNNArgs(&db.KNNQuery{IndexName: "idx", VectorField: "emb", Vector: []float32{1}, K: 2})
	if args[1] != "*=>[KNN 2 @emb $BLOB AS __vector_score]" {
		t.Errorf("query = %q", args[1])
	}
}

func TestBuildKNNArgs_CategoryFilter(t *testing.T) {
	expr, _ := filter.ByCategory(category.InformationTechnology)
	args := buildKNNArgs(&db.KNNQuery{
		IndexName:    "idx",
		Filters:      expr,
		Vector:       []float32{1},
		K:            5,
		ReturnFields: []string{"category", "text"},
	})

	want := `(@category:{INFORMATION\-TECHNOLOGY})=>[KNN 5 @vector $BLOB AS __vector_score]`
	if args[1] != want {
		t.Errorf("query = %q, want %q", args[1], want)
	}
	joined := strings.Join(args, " ")
	for _, part := range []string{
		"RETURN 3 category text __vector_score",
		"SORTBY __vector_score ASC",
		"LIMIT 0 5",
		"DIALECT 2",
	} {
		if !strings.Contains(joined, part) {
			t.Errorf("args missing %q: %v", part, args)
		}
	}
}

func TestBuildKNNArgs_NoFilter(t *testing.T) {
	args := buildKNNArgs(&db.KNNQuery{IndexName: "idx", Vector: []float32{1}, K: 3})
	if args[1] != "*=>[KNN 3 @vector $BLOB AS __vector_score]" {
		t.Errorf("query = %q", args[1])
	}
	for _, a := range args {
		if a == "RETURN" {
			t.Error("RETURN must be omitted without return fields")
		}
	}
}

// --- Filter building tests ---

func TestBuildFilter_Empty(t *testing.T) {
	result := buildFilter(filter.Expression{})
	if result != "" {
		t.Errorf("expected empty string, got %q", result)
	}
}

func TestBuildFilter_Conjunction(t *testing.T) {
	a, _ := filter.NewMatch("category", "HR")
	b, _ := filter.NewMatch("row_id", "row_1")
	expr, _ := filter.NewExpression(a, b)

	result := buildFilter(expr)
	if result != `@category:{HR} @row_id:{row_1}` {
		t.Errorf("unexpected filter: %q", result)
	}
}

func TestBuildTagFilter_Escaping(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"PUBLIC-RELATIONS", `@category:{PUBLIC\-RELATIONS}`},
		{"BPO", `@category:{BPO}`},
		{"row_12", `@category:{row_12}`},
		{"a b.c", `@category:{a\ b\.c}`},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := buildTagFilter("category", tt.value); got != tt.want {
				t.Errorf("buildTagFilter = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	// opposite vectors keep their negative score
	for dist, want := range map[float64]float64{0: 1, 0.25: 0.75, 1: 0, 1.5: -0.5, 2: -1} {
		if got := similarity(dist); got != want {
			t.Errorf("similarity(%v) = %v, want %v", dist, got, want)
		}
	}
}

// --- helpers ---

// isDBError is a test helper for checking wrapped db.Error.
func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}

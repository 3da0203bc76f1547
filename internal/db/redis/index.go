package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/resumeqa/internal/db"
)

// CreateIndex creates an FT index from the given definition.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Key: def.Name, Err: err}
	}
	return nil
}

// DropIndex removes an FT index by name. With deleteDocs the indexed hashes go too (DD).
func (s *Store) DropIndex(ctx context.Context, name string, deleteDocs bool) error {
	args := []string{name}
	if deleteDocs {
		args = append(args, "DD")
	}
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Key: name, Err: err}
	}
	return nil
}

// IndexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Key: name, Err: err}
	}
	return true, nil
}

// IndexInfo reads document count, indexing progress and vector dimension via FT.INFO.
func (s *Store) IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpIndexInfo, Key: name, Err: err}
	}
	return parseIndexInfo(name, raw), nil
}

// parseIndexInfo walks the RESP2 key/value list of FT.INFO.
// Unknown or malformed entries are ignored.
func parseIndexInfo(name string, raw []rueidis.RedisMessage) *db.IndexInfo {
	info := &db.IndexInfo{Name: name, PercentIndexed: 1}

	for i := 0; i+1 < len(raw); i += 2 {
		key, ok := scalarString(raw[i])
		if !ok {
			continue
		}
		val := raw[i+1]

		switch strings.ToLower(key) {
		case "index_name":
			if v, ok := scalarString(val); ok {
				info.Name = v
			}
		case "num_docs":
			if v, ok := scalarString(val); ok {
				if n, err := strconv.ParseFloat(v, 64); err == nil {
					info.NumDocs = int64(n)
				}
			}
		case "indexing":
			if v, ok := scalarString(val); ok {
				info.Indexing = v != "0" && !strings.EqualFold(v, "false")
			}
		case "percent_indexed":
			if v, ok := scalarString(val); ok {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					info.PercentIndexed = f
				}
			}
		case "attributes":
			if attrs, err := val.ToArray(); err == nil {
				info.VectorDim = findDim(attrs)
			}
		}
	}

	return info
}

// findDim searches nested attribute arrays for a "dim" key.
// Redis 8 nests vector params one level deeper than Redis Stack 7.
func findDim(msgs []rueidis.RedisMessage) int {
	for i := range msgs {
		if arr, err := msgs[i].ToArray(); err == nil {
			if d := findDim(arr); d > 0 {
				return d
			}
			continue
		}
		key, ok := scalarString(msgs[i])
		if !ok || !strings.EqualFold(key, "dim") || i+1 >= len(msgs) {
			continue
		}
		if v, ok := scalarString(msgs[i+1]); ok {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				return n
			}
		}
	}
	return 0
}

// scalarString renders a bulk string, simple string or integer reply as text.
func scalarString(m rueidis.RedisMessage) (string, bool) {
	if s, err := m.ToString(); err == nil {
		return s, true
	}
	if n, err := m.ToInt64(); err == nil {
		return strconv.FormatInt(n, 10), true
	}
	if f, err := m.ToFloat64(); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

// buildCreateArgs renders the FT.CREATE arguments after the command name:
// <name> ON HASH [PREFIX n p...] SCHEMA <field args>...
func buildCreateArgs(def *db.IndexDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	args := []string{def.Name, "ON", "HASH"}
	if n := len(def.Prefixes); n > 0 {
		args = append(args, "PREFIX", strconv.Itoa(n))
		args = append(args, def.Prefixes...)
	}
	args = append(args, "SCHEMA")
	for i := range def.Fields {
		fa, err := buildFieldArgs(&def.Fields[i])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", def.Fields[i].Name, err)
		}
		args = append(args, fa...)
	}
	return args, nil
}

func buildFieldArgs(f *db.IndexField) ([]string, error) {
	switch f.Kind {
	case db.FieldTag:
		if f.CaseSensitive {
			return []string{f.Name, "TAG", "CASESENSITIVE"}, nil
		}
		return []string{f.Name, "TAG"}, nil
	case db.FieldVector:
		if f.Vector == nil || f.Vector.Dim <= 0 {
			return nil, fmt.Errorf("%w: vector field needs a positive dimension", db.ErrBadIndex)
		}
		return append([]string{f.Name}, vectorArgs(f.Vector)...), nil
	default:
		return nil, fmt.Errorf("%w: unknown field kind %d", db.ErrBadIndex, f.Kind)
	}
}

// vectorArgs renders VECTOR <algo> <nattrs> TYPE FLOAT32 DIM d DISTANCE_METRIC m [...].
func vectorArgs(v *db.VectorSpec) []string {
	algo, dist := v.Algo, v.Distance
	if algo == "" {
		algo = db.VectorHNSW
	}
	if dist == "" {
		dist = db.DistanceCosine
	}

	attrs := []string{"TYPE", "FLOAT32", "DIM", strconv.Itoa(v.Dim), "DISTANCE_METRIC", string(dist)}
	optional := func(name string, val int) {
		if val > 0 {
			attrs = append(attrs, name, strconv.Itoa(val))
		}
	}
	switch algo {
	case db.VectorHNSW:
		optional("M", v.M)
		optional("EF_CONSTRUCTION", v.EFConstruct)
	case db.VectorFlat:
		optional("BLOCK_SIZE", v.BlockSize)
	}

	return append([]string{"VECTOR", string(algo), strconv.Itoa(len(attrs))}, attrs...)
}

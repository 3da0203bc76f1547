package redis

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/resumeqa/internal/db"
	"github.com/kailas-cloud/resumeqa/internal/domain/search/filter"
)

// scoreField is the alias FT.SEARCH puts the cosine distance under.
const scoreField = "__vector_score"

// SearchKNN runs FT.SEARCH with a KNN clause. Entries come back nearest first.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(buildKNNArgs(q)...).Build()
	reply, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Key: q.IndexName, Err: err}
	}
	return parseKNNResult(reply)
}

// buildKNNArgs renders:
//
//	<index> "<prefilter>=>[KNN k @field $BLOB AS __vector_score]"
//	[RETURN n f...] SORTBY __vector_score ASC LIMIT 0 k PARAMS 2 BLOB <vec> DIALECT 2
func buildKNNArgs(q *db.KNNQuery) []string {
	prefilter := buildFilter(q.Filters)
	if prefilter == "" {
		prefilter = "*"
	} else {
		prefilter = "(" + prefilter + ")"
	}
	k := strconv.Itoa(q.K)
	query := prefilter + "=>[KNN " + k + " @" + q.Field() + " $BLOB AS " + scoreField + "]"

	args := []string{q.IndexName, query}
	if len(q.ReturnFields) > 0 {
		fields := slices.Clone(q.ReturnFields)
		if !slices.Contains(fields, scoreField) {
			fields = append(fields, scoreField)
		}
		args = append(args, "RETURN", strconv.Itoa(len(fields)))
		args = append(args, fields...)
	}
	return append(args,
		"SORTBY", scoreField, "ASC",
		"LIMIT", "0", k,
		"PARAMS", "2", "BLOB", db.VectorBlob(q.Vector),
		"DIALECT", "2",
	)
}

// parseKNNResult reads [total, key1, [f, v, ...], key2, [...], ...].
// Malformed pairs are skipped rather than failing the whole search.
func parseKNNResult(reply []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(reply) == 0 {
		return &db.SearchResult{}, nil
	}
	total, err := reply[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	res := &db.SearchResult{Total: int(total)}
	for rest := reply[1:]; len(rest) >= 2; rest = rest[2:] {
		if entry, ok := parseEntry(rest[0], rest[1]); ok {
			res.Entries = append(res.Entries, entry)
		}
	}
	return res, nil
}

func parseEntry(keyMsg, fieldsMsg rueidis.RedisMessage) (db.SearchEntry, bool) {
	key, err := keyMsg.ToString()
	if err != nil {
		return db.SearchEntry{}, false
	}
	pairs, err := fieldsMsg.ToArray()
	if err != nil {
		return db.SearchEntry{}, false
	}

	fields := make(map[string]string, len(pairs)/2)
	for ; len(pairs) >= 2; pairs = pairs[2:] {
		name, nerr := pairs[0].ToString()
		value, verr := pairs[1].ToString()
		if nerr == nil && verr == nil {
			fields[name] = value
		}
	}

	entry := db.SearchEntry{Key: key, Fields: fields}
	if raw, ok := fields[scoreField]; ok {
		delete(fields, scoreField)
		if dist, err := strconv.ParseFloat(raw, 64); err == nil {
			entry.Score = similarity(dist)
		}
	}
	return entry, true
}

// similarity converts cosine distance (0..2) to cosine similarity (-1..1),
// the same score the Qdrant backend reports.
func similarity(dist float64) float64 {
	return 1 - dist
}

// buildFilter ANDs the tag conditions (space-separated clauses).
func buildFilter(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}
	clauses := make([]string, 0, len(expr.Must()))
	for _, cond := range expr.Must() {
		clauses = append(clauses, buildTagFilter(cond.Key(), cond.Match()))
	}
	return strings.Join(clauses, " ")
}

func buildTagFilter(key, value string) string {
	return "@" + key + ":{" + escapeTag(value) + "}"
}

// escapeTag backslash-escapes everything RediSearch treats as a tag separator
// or query syntax: any rune that is not a letter, digit or underscore.
func escapeTag(v string) string {
	var b strings.Builder
	b.Grow(len(v) + 4)
	for _, r := range v {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

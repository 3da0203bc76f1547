package resumeindex

import (
	"strings"

	"github.com/kailas-cloud/resumeqa/internal/db"
	"github.com/kailas-cloud/resumeqa/internal/domain/search/result"
	"github.com/kailas-cloud/resumeqa/internal/domain/vector"
)

// buildHashFields converts a record into a flat map[string]string for HSET.
func buildHashFields(rec *vector.Record) map[string]string {
	return map[string]string{
		vector.FieldCategory: rec.Metadata.Category,
		vector.FieldText:     rec.Metadata.Text,
		vector.FieldRowID:    rec.Metadata.RowID,
		vectorField:          db.VectorBlob(rec.Values),
	}
}

// parseMatches converts FT.SEARCH entries into matches, keeping store order.
func parseMatches(sr *db.SearchResult, name string, topK int) []result.Match {
	if sr == nil || len(sr.Entries) == 0 {
		return []result.Match{}
	}

	prefix := docPrefix(name)
	n := min(len(sr.Entries), topK)
	matches := make([]result.Match, 0, n)

	for _, entry := range sr.Entries[:n] {
		matches = append(matches, result.New(
			strings.TrimPrefix(entry.Key, prefix),
			entry.Score,
			vector.Metadata{
				Category: entry.Fields[vector.FieldCategory],
				Text:     entry.Fields[vector.FieldText],
				RowID:    entry.Fields[vector.FieldRowID],
			},
		))
	}
	return matches
}

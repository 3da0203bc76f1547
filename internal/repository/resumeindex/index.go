package resumeindex

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/resumeqa/internal/db"
	"github.com/kailas-cloud/resumeqa/internal/domain"
	"github.com/kailas-cloud/resumeqa/internal/domain/vector"
)

// vectorField is the hash field holding the embedding; KNN queries address it as @vector.
const vectorField = "vector"

// buildIndex creates the FT definition for a resume index: category as a
// case-sensitive TAG for the pre-filter, vector as HNSW or FLAT with COSINE.
// text and row_id are stored in the hash but not indexed.
func buildIndex(name string, dim int, p IndexParams) (*db.IndexDefinition, error) {
	return db.NewIndex(indexName(name)).
		Prefix(docPrefix(name)).
		ExactTag(vector.FieldCategory).
		Vector(vectorField, db.VectorSpec{
			Algo:        db.VectorAlgorithm(strings.ToUpper(p.Algorithm)),
			Dim:         dim,
			Distance:    db.DistanceCosine,
			M:           p.M,
			EFConstruct: p.EFConstruct,
		}).
		Build()
}

// Key layout: resumeqa:<index>:<id> for vectors, resumeqa:<index>:idx for the FT index.
func docPrefix(name string) string  { return fmt.Sprintf("%s%s:", domain.KeyPrefix, name) }
func docKey(name, id string) string { return docPrefix(name) + id }
func indexName(name string) string  { return docPrefix(name) + "idx" }

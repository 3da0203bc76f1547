package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/resumeqa/internal/domain/category"
)

// MaxConditions is the maximum number of equality conditions per expression.
const MaxConditions = 8

// Expression is a conjunction of exact-match metadata conditions.
type Expression struct {
	must []Condition
}

// NewExpression validates and creates a filter Expression. Keys must be unique.
func NewExpression(must ...Condition) (Expression, error) {
	if len(must) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	seen := make(map[string]struct{}, len(must))
	for _, c := range must {
		if _, dup := seen[c.key]; dup {
			return Expression{}, fmt.Errorf("duplicate filter key %q", c.key)
		}
		seen[c.key] = struct{}{}
	}
	return Expression{must: must}, nil
}

// ByCategory builds the single-condition filter used by retrieval.
func ByCategory(c category.Category) (Expression, error) {
	if !c.IsValid() {
		return Expression{}, fmt.Errorf("filter on unknown category %q", c)
	}
	cond, err := NewMatch(category.FieldName, string(c))
	if err != nil {
		return Expression{}, err
	}
	return NewExpression(cond)
}

// Must returns the conditions, all of which have to hold.
func (e Expression) Must() []Condition { return e.must }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.must) == 0 }

// Map returns the conditions as key → value, for tracing and logging.
func (e Expression) Map() map[string]string {
	m := make(map[string]string, len(e.must))
	for _, c := range e.must {
		m[c.key] = c.match
	}
	return m
}

// String renders the expression as "k1 == v1 AND k2 == v2" with keys sorted.
func (e Expression) String() string {
	parts := make([]string, 0, len(e.must))
	for _, c := range e.must {
		parts = append(parts, c.key+" == "+c.match)
	}
	sort.Strings(parts)
	return strings.Join(parts, " AND ")
}

// Condition is a single exact-match clause.
type Condition struct {
	key   string
	match string
}

// NewMatch creates an exact match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: match}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }

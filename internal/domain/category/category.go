// Package category defines the closed resume category taxonomy.
// It is the only place the label list exists: the classifier's allowed values,
// its structured-output schema and the vector search filter all derive from it.
package category

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category is one label of the fixed resume taxonomy.
type Category string

// Taxonomy labels, in the order they are offered to the classifier.
const (
	HR                    Category = "HR"
	Designer              Category = "DESIGNER"
	InformationTechnology Category = "INFORMATION-TECHNOLOGY"
	Teacher               Category = "TEACHER"
	Advocate              Category = "ADVOCATE"
	BusinessDevelopment   Category = "BUSINESS-DEVELOPMENT"
	Healthcare            Category = "HEALTHCARE"
	Fitness               Category = "FITNESS"
	Agriculture           Category = "AGRICULTURE"
	BPO                   Category = "BPO"
	Sales                 Category = "SALES"
	Consultant            Category = "CONSULTANT"
	DigitalMedia          Category = "DIGITAL-MEDIA"
	Automobile            Category = "AUTOMOBILE"
	Chef                  Category = "CHEF"
	Finance               Category = "FINANCE"
	Apparel               Category = "APPAREL"
	Engineering           Category = "ENGINEERING"
	Accountant            Category = "ACCOUNTANT"
	Construction          Category = "CONSTRUCTION"
	PublicRelations       Category = "PUBLIC-RELATIONS"
	Banking               Category = "BANKING"
	Arts                  Category = "ARTS"
	Aviation              Category = "AVIATION"
)

// FieldName is the metadata key categories are stored and filtered under.
const FieldName = "category"

var all = []Category{
	HR, Designer, InformationTechnology, Teacher, Advocate, BusinessDevelopment,
	Healthcare, Fitness, Agriculture, BPO, Sales, Consultant, DigitalMedia,
	Automobile, Chef, Finance, Apparel, Engineering, Accountant, Construction,
	PublicRelations, Banking, Arts, Aviation,
}

var index = func() map[Category]struct{} {
	m := make(map[Category]struct{}, len(all))
	for _, c := range all {
		m[c] = struct{}{}
	}
	return m
}()

// All returns every category in declaration order. The slice is a copy.
func All() []Category {
	out := make([]Category, len(all))
	copy(out, all)
	return out
}

// Strings returns every label as a plain string.
func Strings() []string {
	out := make([]string, len(all))
	for i, c := range all {
		out[i] = string(c)
	}
	return out
}

// Parse normalizes s (trim, upper-case, spaces and underscores to hyphens) and
// returns the matching category.
func Parse(s string) (Category, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "-", "_", "-").Replace(norm)
	c := Category(norm)
	if !c.IsValid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// IsValid reports whether c is a member of the taxonomy.
func (c Category) IsValid() bool {
	_, ok := index[c]
	return ok
}

func (c Category) String() string { return string(c) }

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown labels are rejected.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Schema returns the JSON Schema for the classifier's structured output:
// an object with a single required "category" field restricted to the taxonomy.
func Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			FieldName: map[string]any{
				"type": "string",
				"enum": Strings(),
			},
		},
		"required":             []string{FieldName},
		"additionalProperties": false,
	}
	b, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("category schema: %v", err))
	}
	return b
}

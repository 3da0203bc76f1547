package db

import "fmt"

// DistanceMetric is the DISTANCE_METRIC of a vector field.
type DistanceMetric string

// DistanceCosine is the only metric resume vectors are indexed with.
const DistanceCosine DistanceMetric = "COSINE"

// VectorAlgorithm is the index type of a vector field.
type VectorAlgorithm string

const (
	VectorHNSW VectorAlgorithm = "HNSW"
	VectorFlat VectorAlgorithm = "FLAT" // brute force, exact results
)

// FieldKind is the schema type of an indexed hash field.
type FieldKind int

const (
	FieldTag FieldKind = iota
	FieldVector
)

// VectorSpec describes a VECTOR field. M and EFConstruct apply to HNSW,
// BlockSize to FLAT; zero keeps the server default.
type VectorSpec struct {
	Algo        VectorAlgorithm
	Dim         int
	Distance    DistanceMetric
	M           int
	EFConstruct int
	BlockSize   int
}

// IndexField is one SCHEMA entry. Vector is set only for FieldVector.
type IndexField struct {
	Name          string
	Kind          FieldKind
	CaseSensitive bool
	Vector        *VectorSpec
}

// IndexDefinition is an FT index over hashes whose keys start with one of Prefixes.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate reports the first problem that FT.CREATE would reject.
func (d *IndexDefinition) Validate() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("%w: name is required", ErrBadIndex)
	case !IsValidIdentifier(d.Name):
		return fmt.Errorf("%w: name %q has invalid characters", ErrBadIndex, d.Name)
	case len(d.Fields) == 0:
		return fmt.Errorf("%w: %s has no fields", ErrBadIndex, d.Name)
	}

	seen := make(map[string]struct{}, len(d.Fields))
	for i, f := range d.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: field %d has no name", ErrBadIndex, i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: duplicate field %s", ErrBadIndex, f.Name)
		}
		seen[f.Name] = struct{}{}

		if f.Kind == FieldVector {
			if err := f.Vector.validate(f.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *VectorSpec) validate(field string) error {
	switch {
	case v == nil:
		return fmt.Errorf("%w: vector field %s has no spec", ErrBadIndex, field)
	case v.Dim <= 0:
		return fmt.Errorf("%w: vector field %s needs a positive dimension", ErrBadIndex, field)
	case v.Algo != VectorHNSW && v.Algo != VectorFlat:
		return fmt.Errorf("%w: vector field %s: unknown algorithm %q", ErrBadIndex, field, v.Algo)
	}
	return nil
}

// IndexInfo is the part of FT.INFO readiness and dimension checks need.
type IndexInfo struct {
	Name           string
	NumDocs        int64
	Indexing       bool
	PercentIndexed float64 // 0..1
	VectorDim      int     // 0 if no vector field could be read
}

// Ready reports whether the initial background scan is over.
func (i *IndexInfo) Ready() bool {
	return !i.Indexing && i.PercentIndexed >= 1
}

// IsValidIdentifier accepts [A-Za-z0-9_:-]+, which is safe to splice into
// FT commands and key names unquoted.
func IsValidIdentifier(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == ':', r == '-':
		default:
			return false
		}
	}
	return s != ""
}

package db

// IndexBuilder assembles an IndexDefinition field by field.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a definition for the FT index name.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Prefix restricts the index to hashes under the given key prefixes.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Tag adds a case-insensitive TAG field.
func (b *IndexBuilder) Tag(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Kind: FieldTag})
}

// ExactTag adds a case-sensitive TAG field.
func (b *IndexBuilder) ExactTag(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Kind: FieldTag, CaseSensitive: true})
}

// Vector adds a VECTOR field. An empty Algo means HNSW; parameters of the
// other algorithm are dropped.
func (b *IndexBuilder) Vector(name string, spec VectorSpec) *IndexBuilder {
	if spec.Algo == "" {
		spec.Algo = VectorHNSW
	}
	switch spec.Algo {
	case VectorHNSW:
		spec.BlockSize = 0
	case VectorFlat:
		spec.M, spec.EFConstruct = 0, 0
	}
	return b.add(IndexField{Name: name, Kind: FieldVector, Vector: &spec})
}

func (b *IndexBuilder) add(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// Build validates the definition. The builder must not be reused afterwards.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

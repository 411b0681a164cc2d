package db

// MappingBuilder is a fluent builder for collection mappings.
type MappingBuilder struct {
	def Mapping
}

// NewMapping starts building a mapping.
func NewMapping() *MappingBuilder {
	return &MappingBuilder{}
}

// Date adds a date field.
func (b *MappingBuilder) Date(path string) *MappingBuilder {
	return b.add(FieldMapping{Path: path, Type: FieldDate})
}

// Text adds an analyzed text field.
func (b *MappingBuilder) Text(path string) *MappingBuilder {
	return b.add(FieldMapping{Path: path, Type: FieldText})
}

// Sortable adds a text field with a keyword sub-field.
func (b *MappingBuilder) Sortable(path string) *MappingBuilder {
	return b.add(FieldMapping{Path: path, Type: FieldText, Keyword: true})
}

// Keyword adds an exact-match field.
func (b *MappingBuilder) Keyword(path string) *MappingBuilder {
	return b.add(FieldMapping{Path: path, Type: FieldKeyword})
}

// Double adds a floating point field.
func (b *MappingBuilder) Double(path string) *MappingBuilder {
	return b.add(FieldMapping{Path: path, Type: FieldDouble})
}

// Long adds an integer field.
func (b *MappingBuilder) Long(path string) *MappingBuilder {
	return b.add(FieldMapping{Path: path, Type: FieldLong})
}

func (b *MappingBuilder) add(f FieldMapping) *MappingBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// Build validates and returns the mapping.
func (b *MappingBuilder) Build() (*Mapping, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

// MustBuild calls Build and panics on error.
func (b *MappingBuilder) MustBuild() *Mapping {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

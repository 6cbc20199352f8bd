package db

// IndexBuilder assembles an IndexDefinition. As, Weight and Sortable apply to
// the field added last and are ignored before the first field.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a HASH index named name.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name, StorageType: StorageHash}}
}

func (b *IndexBuilder) OnJSON() *IndexBuilder {
	b.def.StorageType = StorageJSON
	return b
}

func (b *IndexBuilder) OnHash() *IndexBuilder {
	b.def.StorageType = StorageHash
	return b
}

func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// StopWords sets the index stop-word list. Called with no words it disables stop words.
func (b *IndexBuilder) StopWords(words ...string) *IndexBuilder {
	b.def.StopWords = append([]string{}, words...)
	return b
}

func (b *IndexBuilder) Numeric(name string) *IndexBuilder { return b.field(name, IndexFieldNumeric) }
func (b *IndexBuilder) Tag(name string) *IndexBuilder     { return b.field(name, IndexFieldTag) }
func (b *IndexBuilder) Text(name string) *IndexBuilder    { return b.field(name, IndexFieldText) }

// TagWithOpts adds a TAG field with a custom separator and case handling.
func (b *IndexBuilder) TagWithOpts(name, separator string, caseSensitive bool) *IndexBuilder {
	return b.field(name, IndexFieldTag).modify(func(f *IndexField) {
		f.TagSeparator = separator
		f.TagCaseSensitive = caseSensitive
	})
}

func (b *IndexBuilder) As(alias string) *IndexBuilder {
	return b.modify(func(f *IndexField) { f.Alias = alias })
}

func (b *IndexBuilder) Weight(w float64) *IndexBuilder {
	return b.modify(func(f *IndexField) { f.TextWeight = w })
}

// NoStem indexes the last TEXT field without stemming.
func (b *IndexBuilder) NoStem() *IndexBuilder {
	return b.modify(func(f *IndexField) { f.NoStem = true })
}

func (b *IndexBuilder) Sortable() *IndexBuilder {
	return b.modify(func(f *IndexField) { f.Sortable = true })
}

// Build returns a copy of the definition once it validates.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	return &def, nil
}

// MustBuild is Build for definitions fixed at compile time.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

func (b *IndexBuilder) field(name string, t FieldType) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: t})
	return b
}

func (b *IndexBuilder) modify(fn func(*IndexField)) *IndexBuilder {
	if n := len(b.def.Fields); n > 0 {
		fn(&b.def.Fields[n-1])
	}
	return b
}

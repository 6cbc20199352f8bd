package db

import (
	"fmt"
	"strconv"
	"strings"
)

// Storage is the key type an FT index covers.
type Storage string

const (
	StorageHash Storage = "HASH"
	StorageJSON Storage = "JSON"
)

// FieldType is an FT schema field type, spelled as FT.CREATE expects it.
type FieldType string

const (
	IndexFieldNumeric FieldType = "NUMERIC"
	IndexFieldTag     FieldType = "TAG"
	IndexFieldText    FieldType = "TEXT"
)

// IndexField is one SCHEMA entry. For JSON indexes Name is a JSONPath and
// Alias is how queries refer to it.
type IndexField struct {
	Name     string
	Alias    string
	Type     FieldType
	Sortable bool

	TagSeparator     string
	TagCaseSensitive bool

	TextWeight float64 // 0 keeps the server default of 1
	NoStem     bool
}

// AttributeName is how the field is referenced in queries.
func (f *IndexField) AttributeName() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

func (f *IndexField) appendArgs(args []string) []string {
	args = append(args, f.Name)
	if f.Alias != "" {
		args = append(args, "AS", f.Alias)
	}
	args = append(args, string(f.Type))
	switch f.Type {
	case IndexFieldText:
		if f.NoStem {
			args = append(args, "NOSTEM")
		}
		if f.TextWeight > 0 {
			args = append(args, "WEIGHT", strconv.FormatFloat(f.TextWeight, 'f', -1, 64))
		}
	case IndexFieldTag:
		if f.TagSeparator != "" {
			args = append(args, "SEPARATOR", f.TagSeparator)
		}
		if f.TagCaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
	}
	if f.Sortable {
		args = append(args, "SORTABLE")
	}
	return args
}

// IndexDefinition describes an FT.CREATE call.
type IndexDefinition struct {
	Name        string
	StorageType Storage
	Prefixes    []string
	// StopWords replaces the server's stop-word list. Nil keeps the default,
	// an empty non-nil slice disables stop words.
	StopWords []string
	Fields    []IndexField
}

// Validate reports the first problem with the definition.
func (idx *IndexDefinition) Validate() error {
	switch {
	case idx.Name == "":
		return fmt.Errorf("index name is required")
	case !IsValidIdentifier(idx.Name):
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	case len(idx.Fields) == 0:
		return fmt.Errorf("index %s: at least one field is required", idx.Name)
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		name := f.AttributeName()
		switch {
		case f.Name == "":
			return fmt.Errorf("field %d: name is required", i)
		case f.Type != IndexFieldNumeric && f.Type != IndexFieldTag && f.Type != IndexFieldText:
			return fmt.Errorf("field %s: unknown type %q", name, f.Type)
		case f.TextWeight < 0:
			return fmt.Errorf("field %s: text weight must not be negative", name)
		case f.TextWeight > 0 && f.Type != IndexFieldText:
			return fmt.Errorf("field %s: weight is only valid on TEXT fields", name)
		case f.NoStem && f.Type != IndexFieldText:
			return fmt.Errorf("field %s: NOSTEM is only valid on TEXT fields", name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate field name: %s", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Args renders the FT.CREATE arguments that follow the command name.
func (idx *IndexDefinition) Args() ([]string, error) {
	if err := idx.Validate(); err != nil {
		return nil, err
	}

	storage := idx.StorageType
	if storage == "" {
		storage = StorageHash
	}
	args := []string{idx.Name, "ON", string(storage)}
	if len(idx.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(idx.Prefixes)))
		args = append(args, idx.Prefixes...)
	}
	if idx.StopWords != nil {
		args = append(args, "STOPWORDS", strconv.Itoa(len(idx.StopWords)))
		args = append(args, idx.StopWords...)
	}
	args = append(args, "SCHEMA")
	for i := range idx.Fields {
		args = idx.Fields[i].appendArgs(args)
	}
	return args, nil
}

// String is the FT.CREATE command line, or the validation error.
func (idx *IndexDefinition) String() string {
	args, err := idx.Args()
	if err != nil {
		return "invalid index: " + err.Error()
	}
	return "FT.CREATE " + strings.Join(args, " ")
}

// IsValidIdentifier reports whether s is non-empty and limited to
// letters, digits, '_', ':' and '-'.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		case r == '_' || r == ':' || r == '-':
			return false
		}
		return true
	}) < 0
}

package author

// Author is a document contributor as known by the user directory.
type Author struct {
	ID    string
	Name  string
	Email string
}

// Unknown returns a placeholder for an id missing from the directory.
func Unknown(id string) Author {
	return Author{ID: id}
}

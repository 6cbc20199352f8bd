// Package seed reads the JSON corpus snapshot used to populate a store.
package seed

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/knowhub/internal/domain/author"
	"github.com/kailas-cloud/knowhub/internal/domain/document"
)

// File is the on-disk snapshot format.
type File struct {
	Users     []User     `json:"users"`
	Documents []Document `json:"documents"`
}

// User is a directory entry.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Document is a stored document. Zero timestamps default to the load time
// and a missing id is generated.
type Document struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Summary      string    `json:"summary,omitempty"`
	Tags         []string  `json:"tags"`
	Embedding    []float32 `json:"embedding,omitempty"`
	CreatedBy    string    `json:"createdBy"`
	LastEditedBy string    `json:"lastEditedBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Deleted      bool      `json:"deleted,omitempty"`
}

// Dataset is a decoded and validated snapshot.
type Dataset struct {
	Authors   []author.Author
	Documents []document.Document
}

// LoadFile reads a snapshot from path.
func LoadFile(path string, now time.Time) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Load(f, now)
}

// Load decodes a snapshot and validates every document.
func Load(r io.Reader, now time.Time) (Dataset, error) {
	var file File
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return Dataset{}, fmt.Errorf("decode seed: %w", err)
	}

	ds := Dataset{
		Authors:   make([]author.Author, 0, len(file.Users)),
		Documents: make([]document.Document, 0, len(file.Documents)),
	}
	for _, u := range file.Users {
		if u.ID == "" {
			return Dataset{}, fmt.Errorf("seed user without id (%q)", u.Name)
		}
		ds.Authors = append(ds.Authors, author.Author{ID: u.ID, Name: u.Name, Email: u.Email})
	}

	seen := make(map[string]struct{}, len(file.Documents))
	for i, d := range file.Documents {
		doc, err := d.toDomain(now)
		if err != nil {
			return Dataset{}, fmt.Errorf("seed document %d: %w", i, err)
		}
		if _, dup := seen[doc.ID()]; dup {
			return Dataset{}, fmt.Errorf("seed document %d: duplicate id %q", i, doc.ID())
		}
		seen[doc.ID()] = struct{}{}
		ds.Documents = append(ds.Documents, doc)
	}
	return ds, nil
}

func (d *Document) toDomain(now time.Time) (document.Document, error) {
	id := d.ID
	if id == "" {
		id = uuid.NewString()
	}
	created := d.CreatedAt
	if created.IsZero() {
		created = now
	}
	// New validates title, content and id.
	doc, err := document.New(id, d.Title, d.Content, d.Summary, d.Tags, d.CreatedBy, created)
	if err != nil {
		return document.Document{}, err
	}

	st := doc.State()
	st.Embedding = d.Embedding
	st.Deleted = d.Deleted
	st.CreatedAt = created.UTC()
	st.UpdatedAt = created.UTC()
	if !d.UpdatedAt.IsZero() {
		st.UpdatedAt = d.UpdatedAt.UTC()
	}
	if d.LastEditedBy != "" {
		st.LastEditedBy = d.LastEditedBy
	}
	return document.Reconstruct(st), nil
}

package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/knowhub/internal/domain"
	"github.com/kailas-cloud/knowhub/internal/domain/document/patch"
)

// MaxContentSize is the maximum document content size in bytes.
const MaxContentSize = patch.MaxContentSize

// MaxTitleLength is the maximum title length in runes.
const MaxTitleLength = 500

// Document is the document aggregate (immutable value object).
type Document struct {
	id           string
	title        string
	content      string
	summary      string
	tags         []string
	embedding    []float32
	createdBy    string
	lastEditedBy string
	createdAt    time.Time
	updatedAt    time.Time
	versions     []Version
	deleted      bool
}

// State is the flat storage representation used to hydrate a Document.
type State struct {
	ID           string
	Title        string
	Content      string
	Summary      string
	Tags         []string
	Embedding    []float32
	CreatedBy    string
	LastEditedBy string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Versions     []Version
	Deleted      bool
}

// New validates and creates a Document authored by author at the given time.
// Title and content are required; tags are normalized.
func New(id, title, content, summary string, tags []string, author string, at time.Time) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("%w: document ID is required", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(title) == "" {
		return Document{}, fmt.Errorf("%w: title is required", domain.ErrInvalidRequest)
	}
	if len([]rune(title)) > MaxTitleLength {
		return Document{}, fmt.Errorf("%w: title too long (max %d)", domain.ErrInvalidRequest, MaxTitleLength)
	}
	if strings.TrimSpace(content) == "" {
		return Document{}, fmt.Errorf("%w: content is required", domain.ErrInvalidRequest)
	}
	if len(content) > MaxContentSize {
		return Document{}, fmt.Errorf("%w: content too large (max %d bytes)", domain.ErrInvalidRequest, MaxContentSize)
	}

	return Document{
		id:           id,
		title:        strings.TrimSpace(title),
		content:      content,
		summary:      summary,
		tags:         NormalizeTags(tags),
		createdBy:    author,
		lastEditedBy: author,
		createdAt:    at,
		updatedAt:    at,
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(s State) Document {
	versions := s.Versions
	if len(versions) > MaxVersions {
		versions = versions[len(versions)-MaxVersions:]
	}
	return Document{
		id: s.ID, title: s.Title, content: s.Content, summary: s.Summary,
		tags: s.Tags, embedding: s.Embedding,
		createdBy: s.CreatedBy, lastEditedBy: s.LastEditedBy,
		createdAt: s.CreatedAt, updatedAt: s.UpdatedAt,
		versions: versions, deleted: s.Deleted,
	}
}

// State returns the flat representation for persistence.
func (d *Document) State() State {
	return State{
		ID: d.id, Title: d.title, Content: d.content, Summary: d.summary,
		Tags: d.tags, Embedding: d.embedding,
		CreatedBy: d.createdBy, LastEditedBy: d.lastEditedBy,
		CreatedAt: d.createdAt, UpdatedAt: d.updatedAt,
		Versions: d.versions, Deleted: d.deleted,
	}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the document title.
func (d *Document) Title() string { return d.title }

// Content returns the document body.
func (d *Document) Content() string { return d.content }

// Summary returns the generated summary, empty when absent.
func (d *Document) Summary() string { return d.summary }

// Tags returns the normalized tags.
func (d *Document) Tags() []string { return d.tags }

// Embedding returns the embedding vector, nil when absent.
func (d *Document) Embedding() []float32 { return d.embedding }

// HasEmbedding reports whether the document carries a vector.
func (d *Document) HasEmbedding() bool { return len(d.embedding) > 0 }

// CreatedBy returns the author id of the creator.
func (d *Document) CreatedBy() string { return d.createdBy }

// LastEditedBy returns the author id of the last editor.
func (d *Document) LastEditedBy() string { return d.lastEditedBy }

// CreatedAt returns the creation time.
func (d *Document) CreatedAt() time.Time { return d.createdAt }

// UpdatedAt returns the time of the last modification.
func (d *Document) UpdatedAt() time.Time { return d.updatedAt }

// Versions returns the bounded edit history, oldest first.
func (d *Document) Versions() []Version { return d.versions }

// IsDeleted reports the soft-delete flag.
func (d *Document) IsDeleted() bool { return d.deleted }

// EmbeddingText is the text a document vector is computed from.
func (d *Document) EmbeddingText() string {
	return strings.TrimSpace(d.title + " " + d.content + " " + d.summary)
}

// WithEmbedding returns a copy with the given vector set.
func (d *Document) WithEmbedding(v []float32) Document {
	c := *d
	c.embedding = v
	return c
}

// WithoutEmbedding returns a copy with the raw vector stripped, for output.
func (d *Document) WithoutEmbedding() Document {
	c := *d
	c.embedding = nil
	return c
}

// Revise applies p as editor at the given time and returns the revised document.
// If title, content, summary or tags change, a snapshot of the new values is appended
// to the history. textChanged reports whether the stored embedding is now stale.
func (d *Document) Revise(p patch.Patch, editor string, at time.Time) (revised Document, textChanged bool) {
	c := *d
	changed := false

	if t := p.Title(); t != nil && *t != c.title {
		c.title = *t
		changed, textChanged = true, true
	}
	if v := p.Content(); v != nil && *v != c.content {
		c.content = *v
		changed, textChanged = true, true
	}
	if s := p.Summary(); s != nil && *s != c.summary {
		c.summary = *s
		changed, textChanged = true, true
	}
	if tags := p.Tags(); tags != nil {
		normalized := NormalizeTags(*tags)
		if !equalTags(normalized, c.tags) {
			c.tags = normalized
			changed = true
		}
	}

	c.lastEditedBy = editor
	c.updatedAt = at
	if changed {
		c.versions = appendVersion(c.versions, Version{
			Title:     c.title,
			Content:   c.content,
			Summary:   c.summary,
			Tags:      c.tags,
			CreatedBy: editor,
			CreatedAt: at,
		})
	}
	return c, textChanged
}

// SoftDelete returns a copy flagged as deleted.
func (d *Document) SoftDelete(editor string, at time.Time) Document {
	c := *d
	c.deleted = true
	c.lastEditedBy = editor
	c.updatedAt = at
	return c
}

// NormalizeTags lowercases and trims tags, dropping empties and duplicates.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

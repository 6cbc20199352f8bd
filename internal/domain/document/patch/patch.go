package patch

import (
	"fmt"
	"strings"
)

// MaxContentSize is the maximum allowed content size in bytes.
const MaxContentSize = 163840 // 160KB

// Patch is a partial document update.
// Nil fields are unchanged. A non-nil Tags replaces the whole tag list.
type Patch struct {
	title   *string
	content *string
	summary *string
	tags    *[]string
}

// New validates and creates a Patch. At least one field must be provided.
// Title and content cannot be cleared; summary can.
func New(title, content, summary *string, tags *[]string) (Patch, error) {
	if title == nil && content == nil && summary == nil && tags == nil {
		return Patch{}, fmt.Errorf("at least one field must be provided")
	}
	if title != nil && strings.TrimSpace(*title) == "" {
		return Patch{}, fmt.Errorf("title cannot be empty")
	}
	if content != nil && strings.TrimSpace(*content) == "" {
		return Patch{}, fmt.Errorf("content cannot be empty")
	}
	if content != nil && len(*content) > MaxContentSize {
		return Patch{}, fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}
	return Patch{title: title, content: content, summary: summary, tags: tags}, nil
}

// Title returns the new title, or nil if unchanged.
func (p Patch) Title() *string { return p.title }

// Content returns the new content, or nil if unchanged.
func (p Patch) Content() *string { return p.content }

// Summary returns the new summary, or nil if unchanged.
func (p Patch) Summary() *string { return p.summary }

// Tags returns the replacement tag list, or nil if unchanged.
func (p Patch) Tags() *[]string { return p.tags }

package document

import (
	"strings"
	"time"

	domdoc "github.com/kailas-cloud/knowhub/internal/domain/document"
)

// TAG values for boolean attributes. JSON booleans are not indexable as TAG on every
// RediSearch build, so flags are stored as strings.
const (
	flagTrue  = "true"
	flagFalse = "false"
)

type versionJSON struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Summary   string   `json:"summary,omitempty"`
	Tags      []string `json:"tags"`
	CreatedBy string   `json:"created_by"`
	CreatedAt int64    `json:"created_at"`
}

// docJSON is the stored JSON shape of a document.
type docJSON struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Content      string        `json:"content"`
	Summary      string        `json:"summary,omitempty"`
	Tags         []string      `json:"tags"`
	TagText      string        `json:"tag_text"`
	Embedding    []float32     `json:"embedding,omitempty"`
	HasEmbedding string        `json:"has_embedding"`
	CreatedBy    string        `json:"created_by"`
	LastEditedBy string        `json:"last_edited_by"`
	CreatedAt    int64         `json:"created_at"`
	UpdatedAt    int64         `json:"updated_at"`
	Deleted      string        `json:"deleted"`
	Versions     []versionJSON `json:"versions,omitempty"`
}

func toJSON(doc *domdoc.Document) docJSON {
	st := doc.State()
	out := docJSON{
		ID:           st.ID,
		Title:        st.Title,
		Content:      st.Content,
		Summary:      st.Summary,
		Tags:         st.Tags,
		TagText:      strings.Join(st.Tags, " "),
		Embedding:    st.Embedding,
		HasEmbedding: flag(len(st.Embedding) > 0),
		CreatedBy:    st.CreatedBy,
		LastEditedBy: st.LastEditedBy,
		CreatedAt:    st.CreatedAt.UnixMilli(),
		UpdatedAt:    st.UpdatedAt.UnixMilli(),
		Deleted:      flag(st.Deleted),
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if len(st.Versions) > 0 {
		out.Versions = make([]versionJSON, len(st.Versions))
		for i, v := range st.Versions {
			out.Versions[i] = versionJSON{
				Title:     v.Title,
				Content:   v.Content,
				Summary:   v.Summary,
				Tags:      v.Tags,
				CreatedBy: v.CreatedBy,
				CreatedAt: v.CreatedAt.UnixMilli(),
			}
		}
	}
	return out
}

func (d *docJSON) toDomain() domdoc.Document {
	st := domdoc.State{
		ID:           d.ID,
		Title:        d.Title,
		Content:      d.Content,
		Summary:      d.Summary,
		Tags:         d.Tags,
		Embedding:    d.Embedding,
		CreatedBy:    d.CreatedBy,
		LastEditedBy: d.LastEditedBy,
		CreatedAt:    fromMillis(d.CreatedAt),
		UpdatedAt:    fromMillis(d.UpdatedAt),
		Deleted:      d.Deleted == flagTrue,
	}
	if len(d.Versions) > 0 {
		st.Versions = make([]domdoc.Version, len(d.Versions))
		for i, v := range d.Versions {
			st.Versions[i] = domdoc.Version{
				Title:     v.Title,
				Content:   v.Content,
				Summary:   v.Summary,
				Tags:      v.Tags,
				CreatedBy: v.CreatedBy,
				CreatedAt: fromMillis(v.CreatedAt),
			}
		}
	}
	return domdoc.Reconstruct(st)
}

func flag(b bool) string {
	if b {
		return flagTrue
	}
	return flagFalse
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

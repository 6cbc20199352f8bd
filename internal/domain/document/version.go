package document

import "time"

// MaxVersions bounds the edit history kept per document.
const MaxVersions = 10

// Version is a snapshot of a document's editable fields after an edit.
type Version struct {
	Title     string
	Content   string
	Summary   string
	Tags      []string
	CreatedBy string
	CreatedAt time.Time
}

// appendVersion appends v and drops the oldest entries beyond MaxVersions.
func appendVersion(history []Version, v Version) []Version {
	out := make([]Version, 0, min(len(history)+1, MaxVersions))
	if skip := len(history) + 1 - MaxVersions; skip > 0 {
		history = history[skip:]
	}
	out = append(out, history...)
	return append(out, v)
}

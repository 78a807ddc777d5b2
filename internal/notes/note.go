// Package notes loads the notes that retrieval reads. Notes are owned by
// whatever edits them; this package only reads and writes their exported
// forms.
package notes

import "time"

// Note is a single page of user content.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"` // HTML; plain text is entity-escaped
	Trashed   bool      `json:"trashed,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
	Path      string    `json:"path,omitempty"` // Source file for notes loaded from a directory
}

// Active returns the notes that are not in the trash.
func Active(notes []Note) []Note {
	active := make([]Note, 0, len(notes))
	for _, n := range notes {
		if !n.Trashed {
			active = append(active, n)
		}
	}
	return active
}

// ByID indexes notes by ID. Later duplicates win.
func ByID(notes []Note) map[string]Note {
	m := make(map[string]Note, len(notes))
	for _, n := range notes {
		m[n.ID] = n
	}
	return m
}

// FindByID searches for a note by ID.
func FindByID(notes []Note, id string) (int, bool) {
	for i, n := range notes {
		if n.ID == id {
			return i, true
		}
	}
	return -1, false
}

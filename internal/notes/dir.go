package notes

import (
	"errors"
	"fmt"
	"html"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedFile is returned by LoadFile for files that are not notes.
var ErrUnsupportedFile = errors.New("unsupported note file")

// Extensions lists the file types LoadDir treats as notes.
var Extensions = []string{".md", ".markdown", ".txt", ".html", ".htm"}

// IsNoteFile reports whether path has a note extension and is not hidden.
func IsNoteFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(base)))
}

// IDForPath returns the stable note ID for a file. The same absolute path
// always maps to the same ID, so renaming a file makes it a new note.
func IDForPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs))).String()
}

// LoadDir reads every note file under dir, recursing into subdirectories
// and skipping hidden ones. Notes are returned in path order.
func LoadDir(dir string) ([]Note, error) {
	var notes []Note
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsNoteFile(path) {
			return nil
		}
		n, err := LoadFile(path)
		if err != nil {
			return err
		}
		notes = append(notes, n)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading notes from %s: %w", dir, err)
	}
	return notes, nil
}

// LoadFile reads a single note file. The title is the first markdown
// heading when there is one, otherwise the file name without extension.
// Bodies of text and markdown files are entity-escaped so that Body is
// always HTML and a literal "<" is never read as a tag.
func LoadFile(path string) (Note, error) {
	if !IsNoteFile(path) {
		return Note{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Note{}, fmt.Errorf("reading note: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Note{}, fmt.Errorf("reading note: %w", err)
	}

	title, body := splitTitle(string(data))
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if !isHTMLFile(path) {
		body = html.EscapeString(body)
	}

	return Note{
		ID:        IDForPath(path),
		Title:     title,
		Body:      body,
		UpdatedAt: info.ModTime().UTC(),
		Path:      path,
	}, nil
}

func isHTMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// splitTitle pulls a leading "# " heading off markdown content. Blank
// lines before the heading are ignored.
func splitTitle(content string) (title, body string) {
	rest := content
	for rest != "" {
		line, after, _ := strings.Cut(rest, "\n")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			rest = after
			continue
		}
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# ")), after
		}
		break
	}
	return "", content
}

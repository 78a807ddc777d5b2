// Package upload turns user-supplied files into text for chat context.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/quillnote/recall/internal/rag"
	"github.com/quillnote/recall/internal/textnorm"
)

// ErrNoText is returned when a file yields no usable text.
var ErrNoText = errors.New("no text found in file")

// Load reads the file at path. PDFs are reduced to the plain text of their
// first MaxPDFPages pages, HTML is stripped of markup, and anything else
// is read as UTF-8 text.
func Load(path string) (rag.UploadedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rag.UploadedFile{}, fmt.Errorf("reading upload: %w", err)
	}
	return FromBytes(filepath.Base(path), data)
}

// FromBytes converts file content named name, choosing the decoder by
// extension.
func FromBytes(name string, data []byte) (rag.UploadedFile, error) {
	var text string
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		extracted, err := extractPDF(bytes.NewReader(data), int64(len(data)), MaxPDFPages)
		if err != nil {
			return rag.UploadedFile{}, fmt.Errorf("%s: %w", name, err)
		}
		text = strings.TrimSpace(extracted)
	case ".html", ".htm":
		text = textnorm.ToPlainText(string(data))
	default:
		if !utf8.Valid(data) {
			return rag.UploadedFile{}, fmt.Errorf("%s: not valid UTF-8 text", name)
		}
		text = strings.TrimSpace(string(data))
	}

	if text == "" {
		return rag.UploadedFile{}, fmt.Errorf("%s: %w", name, ErrNoText)
	}
	return rag.UploadedFile{Name: name, Content: text}, nil
}

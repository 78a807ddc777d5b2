package notes

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quillnote/recall/internal/textnorm"
)

func TestActive(t *testing.T) {
	all := []Note{
		{ID: "a"},
		{ID: "b", Trashed: true},
		{ID: "c"},
	}
	got := Active(all)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("Active() = %v, want [a c]", got)
	}
	if len(Active(nil)) != 0 {
		t.Error("Active(nil) should be empty")
	}
}

func TestByID(t *testing.T) {
	m := ByID([]Note{{ID: "a", Title: "first"}, {ID: "a", Title: "second"}, {ID: "b"}})
	if len(m) != 2 {
		t.Errorf("len(ByID()) = %d, want 2", len(m))
	}
	if m["a"].Title != "second" {
		t.Errorf("ByID()[a].Title = %q, want %q", m["a"].Title, "second")
	}
}

func TestFindByID(t *testing.T) {
	all := []Note{{ID: "a"}, {ID: "b"}}
	if i, ok := FindByID(all, "b"); !ok || i != 1 {
		t.Errorf("FindByID(b) = %d, %v, want 1, true", i, ok)
	}
	if _, ok := FindByID(all, "z"); ok {
		t.Error("FindByID(z) should not be found")
	}
}

func TestReadJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.jsonl")
	data := `{"id":"a","title":"Alpha","body":"<p>first</p>","updated_at":"2026-01-02T03:04:05Z"}

{"id":"b","title":"Beta","body":"second","trashed":true}
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadJSONL(path)
	if err != nil {
		t.Fatalf("ReadJSONL() error = %v", err)
	}
	want := []Note{
		{ID: "a", Title: "Alpha", Body: "<p>first</p>", UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{ID: "b", Title: "Beta", Body: "second", Trashed: true},
	}
	if len(got) != len(want) {
		t.Fatalf("ReadJSONL() returned %d notes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Title != want[i].Title || got[i].Body != want[i].Body || got[i].Trashed != want[i].Trashed {
			t.Errorf("note %d = %+v, want %+v", i, got[i], want[i])
		}
		if !got[i].UpdatedAt.Equal(want[i].UpdatedAt) {
			t.Errorf("note %d UpdatedAt = %v, want %v", i, got[i].UpdatedAt, want[i].UpdatedAt)
		}
	}
}

func TestReadJSONL_Missing(t *testing.T) {
	got, err := ReadJSONL(filepath.Join(t.TempDir(), "missing.jsonl"))
	if err != nil {
		t.Fatalf("ReadJSONL() error = %v", err)
	}
	if got != nil {
		t.Errorf("ReadJSONL(missing) = %v, want nil", got)
	}
}

func TestReadJSONL_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad json", "{not json}\n"},
		{"missing id", `{"title":"x"}` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "notes.jsonl")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := ReadJSONL(path); err == nil {
				t.Error("ReadJSONL() should fail")
			}
		})
	}
}

func TestReadJSONL_SkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.jsonl")
	content := `{"id":"a","title":"A"}` + "\n\n" + `{"id":"b","title":"B"}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadJSONL(path)
	if err != nil {
		t.Fatalf("ReadJSONL() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ReadJSONL() returned %d notes, want 2", len(got))
	}
}

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantTitle string
		wantBody  string
	}{
		{"heading", "# Groceries\nmilk\neggs", "Groceries", "milk\neggs"},
		{"leading blank lines", "\n\n# Plan\nbody", "Plan", "body"},
		{"crlf", "\r\n# Plan\r\nbody", "Plan", "body"},
		{"no heading", "just text\n# later", "", "just text\n# later"},
		{"subheading is not a title", "## Sub\ntext", "", "## Sub\ntext"},
		{"heading only", "# Lonely", "Lonely", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := splitTitle(tt.content)
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"alpha.md":           "# Alpha note\nAbout alpha.",
		"beta.txt":           "plain beta text",
		"sub/gamma.html":     "<p>gamma</p>",
		"image.png":          "binary",
		".hidden.md":         "# Hidden",
		".git/config.md":     "# Not a note",
		"sub/delta.MARKDOWN": "delta",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("LoadDir() returned %d notes, want 4: %+v", len(got), got)
	}

	byTitle := map[string]Note{}
	for _, n := range got {
		byTitle[n.Title] = n
	}
	alpha, ok := byTitle["Alpha note"]
	if !ok {
		t.Fatalf("missing note titled from heading: %+v", got)
	}
	if alpha.Body != "About alpha." {
		t.Errorf("alpha body = %q", alpha.Body)
	}
	if alpha.ID != IDForPath(filepath.Join(dir, "alpha.md")) {
		t.Errorf("alpha ID = %s, want path-derived ID", alpha.ID)
	}
	if _, ok := byTitle["beta"]; !ok {
		t.Error("beta.txt should be titled from its file name")
	}
	if _, ok := byTitle["gamma"]; !ok {
		t.Error("sub/gamma.html should be loaded")
	}
}

func TestIDForPath_Stable(t *testing.T) {
	a := IDForPath("/notes/a.md")
	if a != IDForPath("/notes/a.md") {
		t.Error("IDForPath() should be deterministic")
	}
	if a == IDForPath("/notes/b.md") {
		t.Error("different paths should get different IDs")
	}
}

func TestLoadFile_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.jpg")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); !errors.Is(err, ErrUnsupportedFile) {
		t.Errorf("LoadFile() error = %v, want ErrUnsupportedFile", err)
	}
}

func TestLoadFile_PlainTextKeepsAngleBrackets(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"cmp.md", "# Compare\nx<y is true; y>z too", "x<y is true; y>z too"},
		{"cmp.txt", "if a < b and c > d then swap", "if a < b and c > d then swap"},
		{"link.md", "# Link\nSee <https://example.com> & <b>this</b>.", "See <https://example.com> & <b>this</b>."},
		{"page.html", "<p>x &lt; y</p><p>done</p>", "x < y done"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			n, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if got := textnorm.ToPlainText(n.Body); got != tt.want {
				t.Errorf("ToPlainText(LoadFile().Body) = %q, want %q", got, tt.want)
			}
		})
	}
}

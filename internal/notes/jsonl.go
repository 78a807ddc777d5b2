package notes

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ReadJSONL reads all notes from a JSONL file. A missing file yields no
// notes.
func ReadJSONL(path string) ([]Note, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening notes file: %w", err)
	}
	defer f.Close()

	var notes []Note
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var n Note
		if err := json.Unmarshal(line, &n); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		if n.ID == "" {
			return nil, fmt.Errorf("parsing line %d: note has no id", lineNum)
		}
		notes = append(notes, n)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading notes file: %w", err)
	}

	return notes, nil
}

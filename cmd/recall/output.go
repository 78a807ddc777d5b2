package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/quillnote/recall/internal/semantic"
	"github.com/quillnote/recall/internal/textnorm"
)

// SearchTitleMaxLen is the title width in human search output.
const SearchTitleMaxLen = 70

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitWithCoreError exits with the code exitCodeFor picks for err. Errors
// meant for users are printed without a prefix.
func exitWithCoreError(prefix string, err error) {
	code := exitCodeFor(err)
	if code == ExitRetrievalUnavailable {
		exitWithError(code, "%v", err)
	}
	exitWithError(code, "%s: %v", prefix, err)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SearchResponse is the response for the search and related commands.
type SearchResponse struct {
	Query   string         `json:"query,omitempty"`
	PageID  string         `json:"id,omitempty"`
	Results []semantic.Hit `json:"results"`
	Total   int            `json:"total"`
}

// printHitsHuman prints hits in human-readable format.
func printHitsHuman(hits []semantic.Hit) {
	if len(hits) == 0 {
		fmt.Println("No matching notes.")
		return
	}
	for i, h := range hits {
		fmt.Printf("%d. [%.2f] %s\n", i+1, h.Similarity, h.PageID)
		fmt.Printf("   %s\n", textnorm.Truncate(semantic.DisplayTitle(h.Title), SearchTitleMaxLen, textnorm.Ellipsis))
		if h.Preview != "" {
			fmt.Printf("   %s\n", wrapText(h.Preview, 68, "   "))
		}
		fmt.Println()
	}
}

// wrapText wraps text to the specified width with indentation on subsequent lines.
func wrapText(text string, width int, indent string) string {
	if len(text) <= width {
		return text
	}

	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		switch {
		case current.Len() == 0:
			current.WriteString(word)
		case current.Len()+1+len(word) <= width:
			current.WriteString(" ")
			current.WriteString(word)
		default:
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(word)
		}
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return strings.Join(lines, "\n"+indent)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

// Package tui is an interactive search screen over the notes.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quillnote/recall/internal/connectivity"
	"github.com/quillnote/recall/internal/notes"
	"github.com/quillnote/recall/internal/semantic"
)

// DefaultLimit is the number of hits requested per query.
const DefaultLimit = semantic.DefaultSearchLimit

// Searcher runs a semantic search.
type Searcher interface {
	Search(ctx context.Context, query string, all []notes.Note, limit int) ([]semantic.Hit, error)
}

// Connection reports the last known reachability of the inference server.
type Connection interface {
	Last() connectivity.Result
}

// resultsMsg carries a finished search back into Update.
type resultsMsg struct {
	query string
	hits  []semantic.Hit
	err   error
}

// Model is the Bubble Tea model for the search screen.
type Model struct {
	ctx      context.Context
	searcher Searcher
	conn     Connection
	notes    []notes.Note
	limit    int

	input    textinput.Model
	viewport viewport.Model
	hits     []semantic.Hit
	cursor   int
	status   string
	query    string
	busy     bool
	ready    bool
}

// New creates the model. all is the note list searched on every query.
func New(ctx context.Context, searcher Searcher, all []notes.Note) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Search notes and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		ctx:      ctx,
		searcher: searcher,
		notes:    all,
		limit:    DefaultLimit,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   fmt.Sprintf("%d notes loaded. Type to search.", len(notes.Active(all))),
	}
}

// WithConnection shows conn's last result in the header. It never
// probes, so rendering stays cheap.
func (m Model) WithConnection(conn Connection) Model {
	m.conn = conn
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and search result messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + rh // header, status
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.viewport.SetContent(m.renderHits())
		return m, nil

	case resultsMsg:
		m.busy = false
		if msg.err != nil {
			m.status = msg.err.Error()
			m.hits = nil
		} else {
			m.hits = msg.hits
			m.cursor = 0
			m.query = msg.query
			m.status = fmt.Sprintf("%d results for %q", len(msg.hits), msg.query)
		}
		m.viewport.SetContent(m.renderHits())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Searching..."
			return m, m.search(q)
		case tea.KeyDown:
			if len(m.hits) > 0 {
				m.cursor = (m.cursor + 1) % len(m.hits)
				m.viewport.SetContent(m.renderHits())
			}
			return m, nil
		case tea.KeyUp:
			if len(m.hits) > 0 {
				m.cursor = (m.cursor - 1 + len(m.hits)) % len(m.hits)
				m.viewport.SetContent(m.renderHits())
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) search(query string) tea.Cmd {
	ctx, searcher, all, limit := m.ctx, m.searcher, m.notes, m.limit
	return func() tea.Msg {
		hits, err := searcher.Search(ctx, query, all, limit)
		return resultsMsg{query: query, hits: hits, err: err}
	}
}

// View renders the screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("recall")
	if m.conn != nil {
		header += "  " + connectionStyle(m.conn.Last().Status)
	}
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + results + "\n" + input + "\n" + status
}

// Status returns the status line text.
func (m Model) Status() string { return m.status }

// Hits returns the hits currently shown.
func (m Model) Hits() []semantic.Hit { return m.hits }

// Cursor returns the index of the selected hit.
func (m Model) Cursor() int { return m.cursor }

func (m Model) renderHits() string {
	if len(m.hits) == 0 {
		if m.query != "" {
			return "No matching notes."
		}
		return "No results yet."
	}
	var b strings.Builder
	for i, h := range m.hits {
		line := fmt.Sprintf("%5.1f%%  %s", h.Similarity*100, semantic.DisplayTitle(h.Title))
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
			if h.Preview != "" {
				b.WriteString("\n")
				b.WriteString(previewStyle.Render("    " + h.Preview))
			}
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func connectionStyle(status connectivity.Status) string {
	color := lipgloss.Color("8")
	switch status {
	case connectivity.StatusConnected:
		color = lipgloss.Color("10")
	case connectivity.StatusDisconnected:
		color = lipgloss.Color("9")
	}
	return lipgloss.NewStyle().Foreground(color).Render("● " + string(status))
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	previewStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

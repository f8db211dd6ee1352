// Package search provides the document search view for the TUI.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
)

// View represents the search view with query input and a results list.
// It searches by keyword match by default; tab switches to semantic mode.
type View struct {
	styles *styles.Styles
	input  textinput.Model

	index driving.IndexService
	ctx   context.Context

	semantic bool
	keyword  []domain.KeywordResult
	ranked   []domain.SemanticResult

	selected   int
	focusInput bool
	searching  bool
	searched   bool
	err        error

	width  int
	height int
	ready  bool
}

// NewView creates a new search view.
func NewView(s *styles.Styles, index driving.IndexService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a query and press Enter"
	ti.CharLimit = 0
	ti.Focus()

	return &View{
		styles:     s,
		input:      ti,
		index:      index,
		ctx:        context.Background(),
		focusInput: true,
		width:      80,
		height:     24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.searching = false
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	// Esc always signals to go back to menu
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	// Tab toggles between keyword and semantic mode
	if msg.Type == tea.KeyTab {
		v.semantic = !v.semantic
		return v, nil
	}

	// Enter in input mode submits the search
	if msg.Type == tea.KeyEnter && v.focusInput {
		query := strings.TrimSpace(v.input.Value())
		if query == "" {
			return v, nil
		}
		v.searching = true
		v.focusInput = false
		v.input.Blur()
		return v, v.performSearch(query, v.semantic)
	}

	// Input mode: all other keys go to the text input
	if v.focusInput {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	// Results mode: navigation and new search
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
		return v, nil
	case "down", "j":
		if v.selected < v.resultCount()-1 {
			v.selected++
		}
		return v, nil
	case "n":
		v.focusInput = true
		v.input.Focus()
		v.input.SetValue("")
		return v, textinput.Blink
	}

	return v, nil
}

// performSearch executes a search off the update loop and reports back.
func (v *View) performSearch(query string, semantic bool) tea.Cmd {
	return func() tea.Msg {
		if semantic {
			results, err := v.index.SemanticSearch(v.ctx, query, 0)
			return messages.SearchCompleted{Query: query, Semantic: true, Ranked: results, Err: err}
		}
		results := v.index.KeywordSearch(query, false)
		return messages.SearchCompleted{Query: query, Keyword: results}
	}
}

// handleSearchCompleted processes search results.
func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	v.searching = false
	v.searched = true
	v.selected = 0

	if msg.Err != nil {
		v.err = msg.Err
		v.keyword = nil
		v.ranked = nil
		return
	}

	v.err = nil
	if msg.Semantic {
		v.ranked = msg.Ranked
		v.keyword = nil
	} else {
		v.keyword = msg.Keyword
		v.ranked = nil
	}
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)

	sections = append(sections, v.styles.Title.Render("Search"), "")

	mode := "keyword"
	if v.semantic {
		mode = "semantic"
	}
	sections = append(sections, v.styles.Muted.Render("Mode: "+mode+"  [Tab] switch"))

	sections = append(sections, v.styles.InputField.Render(v.input.View()), "")

	switch {
	case v.err != nil:
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()))
	case v.searching:
		sections = append(sections, v.styles.Muted.Render("Searching..."))
	default:
		sections = append(sections, v.renderResults())
	}

	sections = append(sections, "", v.styles.Help.Render("[Enter] Search  [j/k] Navigate  [n] New query  [Esc] Menu"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderResults renders the current result list with a selection cursor.
func (v *View) renderResults() string {
	count := v.resultCount()
	if count == 0 {
		if v.searched {
			return v.styles.Muted.Render("No results.")
		}
		return ""
	}

	lines := make([]string, 0, count*3)
	for i := 0; i < count; i++ {
		cursor := "  "
		if i == v.selected {
			cursor = "> "
		}

		var header, snippet, citation string
		if v.semantic {
			r := v.ranked[i]
			score := v.styles.Score.Render(fmt.Sprintf("%.3f", r.Similarity))
			header = fmt.Sprintf("%s%s  %s", cursor, v.styles.Subtitle.Render(r.Filename), score)
			snippet = r.Snippet
			citation = r.Citation
		} else {
			r := v.keyword[i]
			header = cursor + v.styles.Subtitle.Render(r.Filename)
			snippet = r.Snippet
			citation = r.Citation
		}

		lines = append(lines,
			header,
			"    "+v.styles.Normal.Render(snippet),
			"    "+v.styles.Citation.Render(citation),
		)
	}

	return strings.Join(lines, "\n")
}

// resultCount returns the number of results in the active mode.
func (v *View) resultCount() int {
	if v.semantic {
		return len(v.ranked)
	}
	return len(v.keyword)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.Width = width - 8
}

// Reset restores the view to initial input mode.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.keyword = nil
	v.ranked = nil
	v.selected = 0
	v.searched = false
	v.searching = false
	v.err = nil
}

// Query returns the current query text.
func (v *View) Query() string {
	return v.input.Value()
}

// Semantic reports whether semantic mode is active.
func (v *View) Semantic() bool {
	return v.semantic
}

// Selected returns the index of the selected result.
func (v *View) Selected() int {
	return v.selected
}

// KeywordResults returns the current keyword results.
func (v *View) KeywordResults() []domain.KeywordResult {
	return v.keyword
}

// SemanticResults returns the current semantic results.
func (v *View) SemanticResults() []domain.SemanticResult {
	return v.ranked
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

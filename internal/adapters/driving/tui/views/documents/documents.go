// Package documents provides the document listing view for the TUI.
package documents

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
)

// View represents the document listing view.
type View struct {
	styles  *styles.Styles
	library driving.LibraryService
	ctx     context.Context

	documents []domain.DocumentInfo
	selected  int
	loading   bool
	loaded    bool
	err       error

	width  int
	height int
	ready  bool
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, library driving.LibraryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles:  s,
		library: library,
		ctx:     context.Background(),
		width:   80,
		height:  24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts loading the document list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadDocuments()
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
			return v, nil
		case "down", "j":
			if v.selected < len(v.documents)-1 {
				v.selected++
			}
			return v, nil
		case "r":
			v.loading = true
			return v, v.loadDocuments()
		}
		return v, nil

	case messages.DocumentsLoaded:
		v.loading = false
		v.loaded = true
		if msg.Err != nil {
			v.err = msg.Err
			v.documents = nil
		} else {
			v.err = nil
			v.documents = msg.Documents
			if v.selected >= len(v.documents) {
				v.selected = 0
			}
		}
		return v, nil
	}

	return v, nil
}

// loadDocuments fetches the document listing off the update loop.
func (v *View) loadDocuments() tea.Cmd {
	return func() tea.Msg {
		infos, err := v.library.ListDocuments(v.ctx)
		return messages.DocumentsLoaded{Documents: infos, Err: err}
	}
}

// View renders the documents view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 6)
	sections = append(sections, v.styles.Title.Render("Documents"), "")

	switch {
	case v.err != nil:
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()))
	case v.loading:
		sections = append(sections, v.styles.Muted.Render("Loading..."))
	case len(v.documents) == 0:
		sections = append(sections, v.styles.Muted.Render("No documents in the folder."))
	default:
		sections = append(sections, v.renderList())
	}

	sections = append(sections, "", v.styles.Help.Render("[j/k] Navigate  [r] Reload  [Esc] Menu"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderList renders one line per document.
func (v *View) renderList() string {
	lines := make([]string, 0, len(v.documents))
	for i, doc := range v.documents {
		cursor := "  "
		name := v.styles.Normal.Render(doc.Filename)
		if i == v.selected {
			cursor = "> "
			name = v.styles.Subtitle.Render(doc.Filename)
		}

		detail := fmt.Sprintf("%s  %s  %d chunks", doc.FileType, formatSize(doc.FileSize), doc.ChunksCount)
		if doc.CharacterCount < 0 {
			detail = fmt.Sprintf("%s  %s  extraction failed", doc.FileType, formatSize(doc.FileSize))
		}

		lines = append(lines, cursor+name+"  "+v.styles.Muted.Render(detail))
	}

	return strings.Join(lines, "\n")
}

// formatSize renders a byte count in human readable form.
func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Documents returns the loaded document list.
func (v *View) Documents() []domain.DocumentInfo {
	return v.documents
}

// Selected returns the selected document index.
func (v *View) Selected() int {
	return v.selected
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

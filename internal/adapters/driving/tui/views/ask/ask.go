// Package ask provides the question answering view for the TUI.
package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
)

// ErrChatUnavailable is returned when no chat service is configured.
var ErrChatUnavailable = errors.New("chat is not available")

// View represents the ask view: a question input and a scrollable answer.
type View struct {
	styles   *styles.Styles
	input    textinput.Model
	viewport viewport.Model

	chat driving.ChatService
	ctx  context.Context

	answer  *domain.Answer
	waiting bool
	err     error

	width  int
	height int
	ready  bool
}

// NewView creates a new ask view. chat may be nil.
func NewView(s *styles.Styles, chat driving.ChatService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Prompt = "? "
	ti.Placeholder = "Ask a question about your documents"
	ti.CharLimit = 0
	ti.Focus()

	return &View{
		styles:   s,
		input:    ti,
		viewport: viewport.New(80, 16),
		chat:     chat,
		ctx:      context.Background(),
		width:    80,
		height:   24,
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

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
		if msg.Type == tea.KeyEnter && !v.waiting {
			question := strings.TrimSpace(v.input.Value())
			if question == "" {
				return v, nil
			}
			v.waiting = true
			v.err = nil
			return v, v.performAsk(question)
		}
		// PgUp/PgDown scroll the answer; everything else edits the input
		if msg.Type == tea.KeyPgUp || msg.Type == tea.KeyPgDown {
			var cmd tea.Cmd
			v.viewport, cmd = v.viewport.Update(msg)
			return v, cmd
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd

	case messages.AskCompleted:
		v.waiting = false
		if msg.Err != nil {
			v.err = msg.Err
			v.answer = nil
		} else {
			v.err = nil
			v.answer = msg.Answer
		}
		v.viewport.SetContent(v.renderAnswer())
		v.viewport.GotoTop()
		return v, nil

	case messages.ErrorOccurred:
		v.waiting = false
		v.err = msg.Err
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// performAsk sends the question to the chat service off the update loop.
func (v *View) performAsk(question string) tea.Cmd {
	return func() tea.Msg {
		if v.chat == nil {
			return messages.AskCompleted{Err: ErrChatUnavailable}
		}
		answer, err := v.chat.Ask(v.ctx, question, 0)
		return messages.AskCompleted{Answer: answer, Err: err}
	}
}

// renderAnswer renders the answer text followed by its sources.
func (v *View) renderAnswer() string {
	if v.answer == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(v.styles.Normal.Render(v.answer.Text))

	if len(v.answer.Context) > 0 {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Subtitle.Render("Sources"))
		b.WriteString("\n")
		for _, src := range v.answer.Context {
			line := fmt.Sprintf("%s  %s", src.Citation, v.styles.Score.Render(fmt.Sprintf("%.3f", src.Similarity)))
			b.WriteString("  " + v.styles.Citation.Render(line))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("Ask"), "")
	sections = append(sections, v.styles.InputField.Render(v.input.View()), "")

	switch {
	case v.err != nil:
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()))
	case v.waiting:
		sections = append(sections, v.styles.Muted.Render("Thinking..."))
	case v.answer != nil:
		sections = append(sections, v.styles.Border.Render(v.viewport.View()))
	default:
		sections = append(sections, v.styles.Muted.Render("Answers cite the documents they came from."))
	}

	sections = append(sections, "", v.styles.Help.Render("[Enter] Ask  [PgUp/PgDn] Scroll  [Esc] Menu"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.Width = width - 8

	vh := height - 10
	if vh < 3 {
		vh = 3
	}
	v.viewport.Width = width - 4
	v.viewport.Height = vh
}

// Reset clears the question and answer.
func (v *View) Reset() {
	v.input.SetValue("")
	v.input.Focus()
	v.answer = nil
	v.waiting = false
	v.err = nil
}

// Answer returns the current answer, if any.
func (v *View) Answer() *domain.Answer {
	return v.answer
}

// Waiting reports whether a question is in flight.
func (v *View) Waiting() bool {
	return v.waiting
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

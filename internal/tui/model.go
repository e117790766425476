// Package tui is the interactive question-answering terminal frontend.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/domain"
)

// AnswerPort is the TUI-facing subset of the answering service.
type AnswerPort interface {
	Stream(ctx context.Context, question string) (domain.AnswerStream, error)
}

type streamStartedMsg struct{ stream domain.AnswerStream }
type fragmentMsg struct{ text string }
type streamDoneMsg struct{}
type streamErrMsg struct{ err error }

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service  AnswerPort
	input    textinput.Model
	viewport viewport.Model
	stream   domain.AnswerStream
	answer   string
	question string
	modeName string
	status   string
	started  time.Time
	busy     bool
	ready    bool
}

// New creates a new TUI model instance.
func New(service AnswerPort, modeName string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		input:    ti,
		viewport: vp,
		modeName: modeName,
		status:   "Ready. Type a question.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) askCmd(question string) tea.Cmd {
	return func() tea.Msg {
		stream, err := m.service.Stream(context.Background(), question)
		if err != nil {
			return streamErrMsg{err}
		}
		return streamStartedMsg{stream}
	}
}

func recvCmd(stream domain.AnswerStream) tea.Cmd {
	return func() tea.Msg {
		fragment, err := stream.Recv()
		if err == io.EOF {
			return streamDoneMsg{}
		}
		if err != nil {
			return streamErrMsg{err}
		}
		return fragmentMsg{fragment}
	}
}

// Update handles key, stream, and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ah := answerBoxStyle.GetFrameSize()
		_, qh := questionBoxStyle.GetFrameSize()
		totalHeaderLines := 1
		totalFooterLines := 1
		reserved := totalHeaderLines + totalFooterLines + qh + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-ah)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil

	case streamStartedMsg:
		m.stream = msg.stream
		return m, recvCmd(m.stream)

	case fragmentMsg:
		m.answer += msg.text
		m.viewport.SetContent(m.renderAnswer())
		m.viewport.GotoBottom()
		return m, recvCmd(m.stream)

	case streamDoneMsg:
		m.closeStream()
		m.busy = false
		m.status = fmt.Sprintf("Answered in %s", time.Since(m.started).Round(time.Millisecond))
		return m, nil

	case streamErrMsg:
		m.closeStream()
		m.busy = false
		m.status = "Error: " + msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			m.closeStream()
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.busy {
				m.question = q
				m.answer = ""
				m.busy = true
				m.started = time.Now()
				m.status = "Thinking..."
				m.input.SetValue("")
				m.viewport.SetContent(m.renderAnswer())
				return m, m.askCmd(q)
			}
		case "esc":
			if m.busy {
				m.closeStream()
				m.busy = false
				m.status = "Cancelled."
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closeStream() {
	if m.stream != nil {
		m.stream.Close()
		m.stream = nil
	}
}

// View renders the TUI layout and current answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("docqa") +
		lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("  mode: "+m.modeName)
	input := questionBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	answer := answerBoxStyle.Render(m.viewport.View())
	return header + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if m.question == "" {
		return "No question yet."
	}
	title := questionStyle.Render("Q: " + m.question)
	body := m.answer
	if body == "" {
		body = "..."
	}
	return title + "\n\n" + body
}

var (
	answerBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

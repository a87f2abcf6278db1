// Package tui is the terminal chat front end for the chat agent.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mohammad-safakhou/briefer/internal/agent"
)

// Chatter is the TUI-facing subset of the chat agent.
type Chatter interface {
	Reply(ctx context.Context, message string, history []agent.Turn) (string, error)
}

type replyMsg struct {
	user  string
	reply string
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	chat     Chatter
	timeout  time.Duration
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	history  []agent.Turn
	pending  string
	status   string
	ready    bool
}

func New(chat Chatter, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "질문을 입력하고 Enter (Ctrl+L 대화 지우기)"
	ti.Focus()
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return Model{chat: chat, timeout: timeout, input: ti, viewport: viewport.New(0, 0), spinner: sp, status: "Ready."}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

// History returns the turns exchanged so far.
func (m Model) History() []agent.Turn { return m.history }

func (m Model) ask(msg string, history []agent.Turn) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		reply, err := m.chat.Reply(ctx, msg, history)
		if err != nil {
			reply = agent.ErrorReply(err)
		}
		return replyMsg{user: msg, reply: reply}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := boxStyle.GetFrameSize()
		vh := msg.Height - 4 - fh
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = vh
		m.refresh()
		return m, nil
	case replyMsg:
		m.history = append(m.history, agent.Turn{User: msg.user, Assistant: msg.reply})
		m.pending = ""
		m.status = "Ready."
		m.refresh()
		return m, nil
	case spinner.TickMsg:
		if m.pending == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlL:
			m.history = nil
			m.status = "Cleared."
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.pending != "" {
				return m, nil
			}
			m.input.SetValue("")
			m.pending = q
			m.status = "Thinking..."
			m.refresh()
			history := append([]agent.Turn(nil), m.history...)
			return m, tea.Batch(m.ask(q, history), m.spinner.Tick)
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.transcript())
	m.viewport.GotoBottom()
}

func (m Model) transcript() string {
	if len(m.history) == 0 && m.pending == "" {
		return dimStyle.Render("No messages yet.")
	}
	var b strings.Builder
	for _, t := range m.history {
		b.WriteString(userStyle.Render("🙋 " + t.User))
		b.WriteString("\n")
		b.WriteString("🤖 " + t.Assistant)
		b.WriteString("\n\n")
	}
	if m.pending != "" {
		b.WriteString(userStyle.Render("🙋 " + m.pending))
		b.WriteString("\n")
		b.WriteString(m.spinner.View())
	}
	return b.String()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("AI 브리핑 챗봇")
	return header + "\n" + boxStyle.Render(m.viewport.View()) + "\n" + m.input.View() + "\n" + dimStyle.Render(m.status)
}

// Run starts the full-screen program and blocks until the user quits.
func Run(chat Chatter, timeout time.Duration) error {
	_, err := tea.NewProgram(New(chat, timeout), tea.WithAltScreen()).Run()
	return err
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mohammad-safakhou/briefer/internal/agent"
)

type echoChat struct {
	err  error
	seen [][]agent.Turn
}

func (e *echoChat) Reply(ctx context.Context, message string, history []agent.Turn) (string, error) {
	e.seen = append(e.seen, history)
	if e.err != nil {
		return "", e.err
	}
	return "re: " + message, nil
}

func send(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if cmd == nil {
		t.Fatalf("expected a command after enter")
	}
	msg := m.ask(m.pending, m.History())()
	next, _ = m.Update(msg)
	return next.(Model)
}

func TestChatRoundTrip(t *testing.T) {
	c := &echoChat{}
	m := New(c, 0)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = next.(Model)

	m = send(t, m, "hello")
	m = send(t, m, "again")
	h := m.History()
	if len(h) != 2 || h[1].Assistant != "re: again" {
		t.Fatalf("unexpected history: %+v", h)
	}
	if len(c.seen[len(c.seen)-1]) != 1 {
		t.Fatalf("second call should carry the first turn")
	}
	if !strings.Contains(m.View(), "re: hello") {
		t.Fatalf("transcript missing reply:\n%s", m.View())
	}
}

func TestChatErrorShownAsReply(t *testing.T) {
	m := New(&echoChat{err: errors.New("boom")}, 0)
	m = send(t, m, "hi")
	if got := m.History()[0].Assistant; got != agent.ErrorReply(errors.New("boom")) {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestClearAndIgnoreEmpty(t *testing.T) {
	m := New(&echoChat{}, 0)
	m = send(t, m, "hi")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatalf("empty input should not trigger a request")
	}
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if len(next.(Model).History()) != 0 {
		t.Fatalf("ctrl+l should clear history")
	}
}

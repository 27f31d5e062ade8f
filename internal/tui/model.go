// Package tui is the terminal view that follows a running daemon.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/doomscroll/doomscroll/pkg/models"
)

// Model is the Bubble Tea model for `doomscroll watch`.
type Model struct {
	client *Client
	ctx    context.Context
	cancel context.CancelFunc
	appID  string

	keys KeyMap
	help help.Model

	reading     models.Reading
	received    int
	connected   bool
	lastErr     error
	showDetails bool
	width       int
}

// New creates the model. client may be nil, in which case the view only
// renders what it is fed.
func New(client *Client, appID string) Model {
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		client: client,
		ctx:    ctx,
		cancel: cancel,
		appID:  appID,
		keys:   DefaultKeyMap(),
		help:   help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	if m.client == nil {
		return nil
	}
	return m.client.Listen(m.ctx)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancel()
			if m.client != nil {
				m.client.Close()
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.Details):
			m.showDetails = !m.showDetails
		}
		return m, nil

	case ConnectedMsg:
		m.connected = true
		m.lastErr = nil
		return m, m.readNext()

	case DisconnectedMsg:
		m.connected = false
		m.lastErr = msg.Err
		if m.client == nil {
			return m, nil
		}
		return m, m.client.Listen(m.ctx)

	case ReadingMsg:
		m.reading = msg.Reading
		m.received++
		return m, m.readNext()
	}
	return m, nil
}

func (m Model) readNext() tea.Cmd {
	if m.client == nil {
		return nil
	}
	return m.client.ReadLoop()
}

func (m Model) View() string {
	var b strings.Builder

	status := offlineStyle.Render("● disconnected")
	if m.connected {
		status = onlineStyle.Render("● live")
	}
	b.WriteString(titleStyle.Render("doomscroll") + "  " + status + "\n\n")

	r := m.reading
	landmark := r.Landmark
	if landmark == "" {
		landmark = "no scrolling yet"
	}
	body := fmt.Sprintf("%s scrolls\n%s\n%s",
		countStyle.Render(fmt.Sprintf("%d", r.Count)),
		fmt.Sprintf("%.1f ft", r.Feet),
		landmark,
	)
	if r.Exceeded {
		body += "\n" + exceededStyle.Render("past every landmark")
	}
	b.WriteString(panelStyle.Render(body))
	b.WriteString("\n")

	if m.showDetails {
		var d []string
		if m.appID != "" {
			d = append(d, "app: "+m.appID)
		}
		if m.client != nil {
			d = append(d, "endpoint: "+m.client.URL())
		}
		d = append(d, fmt.Sprintf("updates: %d", m.received))
		if !r.At.IsZero() {
			d = append(d, "last: "+r.At.Local().Format(time.Kitchen))
		}
		if m.lastErr != nil {
			d = append(d, "error: "+m.lastErr.Error())
		}
		b.WriteString(dimStyle.Render(lipgloss.JoinVertical(lipgloss.Left, d...)))
		b.WriteString("\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport = viewport.New(m.width, m.height-1)
		m.ready = true
		m.contentDirty = true

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			cmds = append(cmds, fetchAll(m.client, m.token)...)
		}

	case refreshMsg:
		cmds = append(cmds, fetchAll(m.client, m.token)...)
		cmds = append(cmds, scheduleRefresh())

	case dashMsg:
		if msg.err != nil {
			m.connected = false
			m.fetchErr = msg.err
		} else {
			m.connected = true
			m.fetchErr = nil
			dash := msg.dash
			m.dash = &dash
		}
		m.contentDirty = true

	case targetsMsg:
		if msg.err == nil {
			m.targets = msg.targets
			m.contentDirty = true
		}
	}

	if m.ready {
		if m.contentDirty {
			m.rebuildContent()
			m.contentDirty = false
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

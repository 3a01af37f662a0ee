// Package tui renders the live company board: valuation, ledger,
// credit standing, subsidiaries and the acquisition market, refreshed
// from the API on a timer.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"magnate/internal/cli"
	"magnate/internal/corp"
)

const (
	refreshInterval = 5 * time.Second
	fetchTimeout    = 10 * time.Second
)

type Model struct {
	client *cli.Client
	token  string

	// Data
	connected bool
	dash      *corp.Dashboard
	targets   []corp.AcquisitionTarget
	fetchErr  error

	// UI state
	width        int
	height       int
	ready        bool
	contentDirty bool

	viewport viewport.Model
}

// Messages

type dashMsg struct {
	dash corp.Dashboard
	err  error
}

type targetsMsg struct {
	targets []corp.AcquisitionTarget
	err     error
}

type refreshMsg struct{}

func NewModel(client *cli.Client, token string) Model {
	return Model{client: client, token: token}
}

// Run starts the board program in the alternate screen.
func Run(client *cli.Client, token string) error {
	p := tea.NewProgram(NewModel(client, token), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "board failed: %v\n", err)
		return err
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	cmds := fetchAll(m.client, m.token)
	cmds = append(cmds, scheduleRefresh())
	return tea.Batch(cmds...)
}

// Commands

func fetchAll(c *cli.Client, token string) []tea.Cmd {
	return []tea.Cmd{
		fetchDashboard(c, token),
		fetchTargets(c, token),
	}
}

func fetchDashboard(c *cli.Client, token string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		raw, err := c.Dashboard(ctx, token)
		if err != nil {
			return dashMsg{err: err}
		}
		dash, err := decodeInto[corp.Dashboard](raw)
		return dashMsg{dash: dash, err: err}
	}
}

func fetchTargets(c *cli.Client, token string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		raw, err := c.Targets(ctx, token)
		if err != nil {
			return targetsMsg{err: err}
		}
		payload, err := decodeInto[struct {
			Targets []corp.AcquisitionTarget `json:"targets"`
		}](raw)
		return targetsMsg{targets: payload.Targets, err: err}
	}
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}

// decodeInto re-marshals a generic JSON payload into a typed value.
func decodeInto[T any](in any) (T, error) {
	var out T
	raw, err := json.Marshal(in)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

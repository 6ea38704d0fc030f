package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/scoop/internal/flavor"
	"github.com/five82/scoop/internal/logtail"
)

// Messages

type tickMsg time.Time

type signedInMsg struct {
	identity string
	err      error
}

type loadedMsg struct{ err error }

type addRequestMsg struct{ name string }

type addedMsg struct {
	item flavor.Item
	err  error
}

type removeRequestMsg struct{ id string }

type removedMsg struct {
	id  string
	err error
}

type logLinesMsg struct {
	lines []string
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func signInCmd(ctx context.Context, s Synchronizer, identity string) tea.Cmd {
	return func() tea.Msg {
		_, err := s.SignIn(ctx, identity)
		return signedInMsg{identity: identity, err: err}
	}
}

func loadCmd(ctx context.Context, s Synchronizer) tea.Cmd {
	return func() tea.Msg {
		_, err := s.Load(ctx)
		return loadedMsg{err: err}
	}
}

func addCmd(ctx context.Context, s Synchronizer, name string) tea.Cmd {
	return func() tea.Msg {
		item, err := s.Add(ctx, name)
		return addedMsg{item: item, err: err}
	}
}

func removeCmd(ctx context.Context, s Synchronizer, id string) tea.Cmd {
	return func() tea.Msg {
		return removedMsg{id: id, err: s.Remove(ctx, id)}
	}
}

func (m Model) readLogsCmd() tea.Cmd {
	if m.config == nil || m.config.LogFile == "" {
		return nil
	}
	path := m.config.LogFile
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogTailLines)
		if err != nil {
			return logLinesMsg{err: err}
		}
		return logLinesMsg{lines: logtail.FormatLines(lines)}
	}
}

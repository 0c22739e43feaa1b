package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"tower/internal/report"
	"tower/internal/ui"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "", "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

func shouldUseTUI(mode uiMode) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return isTerminal(os.Stderr)
	}
}

type resolveOutcome struct {
	runs []*report.Run
	err  error
}

// resolveWithUI runs the fixtures while a progress view renders on stderr.
func resolveWithUI(ctx context.Context, cmd *cobra.Command, paths []string, resolve func(notify func(ui.Event)) ([]*report.Run, error)) ([]*report.Run, error) {
	events := make(chan ui.Event, 256)
	outcomeCh := make(chan resolveOutcome, 1)

	go func() {
		runs, err := resolve(func(ev ui.Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		})
		outcomeCh <- resolveOutcome{runs: runs, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(cmd.Name(), paths, events)
	program := tea.NewProgram(model, tea.WithOutput(cmd.ErrOrStderr()), tea.WithInput(nil), tea.WithContext(ctx))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep draining so the resolver can finish
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if outcome.err != nil {
		return outcome.runs, outcome.err
	}
	return outcome.runs, uiErr
}

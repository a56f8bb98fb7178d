package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"doccheck/internal/driver"
	"doccheck/internal/ui"
)

type checkOutcome struct {
	result *driver.Result
	err    error
}

// runCheckWithUI runs the check while a progress view is drawn on stderr.
// The report itself is printed by the caller once the view has closed.
func runCheckWithUI(parent context.Context, title string, paths []string, opts driver.Options) (*driver.Result, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		opts.Events = driver.ChannelSink(events)
		res, err := driver.CheckPaths(ctx, paths, opts)
		close(events)
		outcomeCh <- checkOutcome{result: res, err: err}
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(parent))
	_, uiErr := program.Run()

	// the view quits early on ctrl-c; stop the run and keep the sink unblocked
	cancel()
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil && parent.Err() == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}

// Package review shows generated G-code in a terminal for review and
// editing before it is written.
package review

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Editor is a gpost.ReviewSink that runs a full screen terminal editor.
// Accepting returns the (possibly edited) text; discarding returns the text
// as generated.
type Editor struct {
	Title  string
	Input  io.Reader
	Output io.Writer
}

func (ed *Editor) Review(ctx context.Context, text string) (string, error) {
	title := ed.Title
	if title == "" {
		title = "gpost"
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if ed.Input != nil {
		opts = append(opts, tea.WithInput(ed.Input))
	}
	if ed.Output != nil {
		opts = append(opts, tea.WithOutput(ed.Output))
	}

	p := tea.NewProgram(newModel(title, text), opts...)
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("review %s: %w", title, err)
	}
	m, ok := final.(model)
	if !ok {
		return text, nil
	}
	return m.result(), nil
}

package review

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	codeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)

	feedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208"))

	commentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type keyMap struct {
	Edit    key.Binding
	Accept  key.Binding
	Cancel  key.Binding
	Preview key.Binding
}

var keys = keyMap{
	Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Accept:  key.NewBinding(key.WithKeys("ctrl+s", "enter"), key.WithHelp("enter/ctrl+s", "accept")),
	Cancel:  key.NewBinding(key.WithKeys("esc", "q", "ctrl+c"), key.WithHelp("esc/q", "discard edits")),
	Preview: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "preview")),
}

var saveKey = key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "accept"))

type model struct {
	title    string
	original string
	text     string

	editing  bool
	accepted bool

	preview viewport.Model
	editor  textarea.Model
	width   int
	height  int
}

func newModel(title, text string) model {
	ta := textarea.New()
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.MaxWidth = 0
	ta.ShowLineNumbers = true
	ta.SetValue(text)

	m := model{
		title:    title,
		original: text,
		text:     text,
		preview:  viewport.New(80, 20),
		editor:   ta,
	}
	m.preview.SetContent(highlight(text))
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.preview.Width = msg.Width
		m.preview.Height = max(msg.Height-2, 1)
		m.editor.SetWidth(msg.Width)
		m.editor.SetHeight(max(msg.Height-2, 1))
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			switch {
			case key.Matches(msg, saveKey):
				m.text = m.editor.Value()
				m.accepted = true
				return m, tea.Quit
			case key.Matches(msg, keys.Preview):
				m.editing = false
				m.editor.Blur()
				m.text = m.editor.Value()
				m.preview.SetContent(highlight(m.text))
				return m, nil
			}
			m.editor, cmd = m.editor.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, keys.Accept):
			m.accepted = true
			return m, tea.Quit
		case key.Matches(msg, keys.Cancel):
			m.accepted = false
			return m, tea.Quit
		case key.Matches(msg, keys.Edit):
			m.editing = true
			m.editor.SetValue(m.text)
			return m, m.editor.Focus()
		}
	}

	m.preview, cmd = m.preview.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteByte('\n')
	if m.editing {
		b.WriteString(m.editor.View())
		b.WriteByte('\n')
		b.WriteString(statusStyle.Render("ctrl+s accept • esc preview"))
	} else {
		b.WriteString(m.preview.View())
		b.WriteByte('\n')
		b.WriteString(statusStyle.Render("e edit • enter/ctrl+s accept • esc/q discard edits"))
	}
	return b.String()
}

// result is the text to keep: the edited text if it was accepted, otherwise
// the original.
func (m model) result() string {
	if !m.accepted {
		return m.original
	}
	text := m.text
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text
}

func highlightWord(w string) string {
	if w == "" {
		return w
	}
	switch w[0] {
	case 'G', 'M', 'g', 'm':
		return codeStyle.Render(w)
	case 'F', 'f':
		return feedStyle.Render(w)
	}
	return w
}

func highlightLine(line string) string {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "(") || strings.HasPrefix(trimmed, ";") {
		return commentStyle.Render(line)
	}

	words := strings.Split(line, " ")
	for i, w := range words {
		words[i] = highlightWord(w)
	}
	return strings.Join(words, " ")
}

// highlight renders G and M words, feeds and comment lines of text in
// their own colors.
func highlight(text string) string {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = highlightLine(line)
	}
	return strings.Join(lines, "\n")
}

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// inputModel prompts for a single line of text.
type inputModel struct {
	title   string
	input   textinput.Model
	styles  styles
	done    bool
	aborted bool
}

func newInputModel(title string, placeholder string) inputModel {
	field := textinput.New()
	field.Placeholder = placeholder
	field.Focus()
	return inputModel{title: title, input: field, styles: defaultStyles()}
}

func (model inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (model inputModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	if keyMessage, isKey := message.(tea.KeyMsg); isKey {
		switch keyMessage.String() {
		case "ctrl+c", "esc":
			model.aborted = true
			return model, tea.Quit
		case "enter":
			if strings.TrimSpace(model.input.Value()) != "" {
				model.done = true
				return model, tea.Quit
			}
			return model, nil
		}
	}
	var command tea.Cmd
	model.input, command = model.input.Update(message)
	return model, command
}

func (model inputModel) View() string {
	if model.done || model.aborted {
		return ""
	}
	return model.styles.title.Render(model.title) + "\n" +
		model.input.View() + "\n" +
		model.styles.help.Render("enter to confirm, esc to quit") + "\n"
}

// Value returns the trimmed entered text.
func (model inputModel) Value() string {
	return strings.TrimSpace(model.input.Value())
}

package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// pickerModel selects exactly one option from a list.
type pickerModel struct {
	title   string
	options []string
	cursor  int
	styles  styles
	done    bool
	aborted bool
}

func newPickerModel(title string, options []string) pickerModel {
	return pickerModel{title: title, options: options, styles: defaultStyles()}
}

func (model pickerModel) Init() tea.Cmd {
	return nil
}

func (model pickerModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	keyMessage, isKey := message.(tea.KeyMsg)
	if !isKey {
		return model, nil
	}
	switch keyMessage.String() {
	case "ctrl+c", "esc", "q":
		model.aborted = true
		return model, tea.Quit
	case "up", "k":
		if model.cursor > 0 {
			model.cursor--
		}
	case "down", "j":
		if model.cursor < len(model.options)-1 {
			model.cursor++
		}
	case "enter":
		model.done = true
		return model, tea.Quit
	}
	return model, nil
}

func (model pickerModel) View() string {
	if model.done || model.aborted {
		return ""
	}
	var view strings.Builder
	view.WriteString(model.styles.title.Render(model.title))
	view.WriteString("\n")
	for optionIndex, option := range model.options {
		if optionIndex == model.cursor {
			view.WriteString(model.styles.cursor.Render(fmt.Sprintf("> %s", option)))
		} else {
			view.WriteString(fmt.Sprintf("  %s", option))
		}
		view.WriteString("\n")
	}
	view.WriteString(model.styles.help.Render("up/down to move, enter to select, esc to quit"))
	view.WriteString("\n")
	return view.String()
}

// Selected returns the option under the cursor.
func (model pickerModel) Selected() string {
	if len(model.options) == 0 {
		return ""
	}
	return model.options[model.cursor]
}

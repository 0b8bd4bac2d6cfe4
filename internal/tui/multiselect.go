package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// multiSelectModel selects a subset of options. Confirming with nothing
// toggled is a valid outcome; the caller decides what an empty subset means.
type multiSelectModel struct {
	title   string
	options []string
	checked map[int]struct{}
	cursor  int
	styles  styles
	done    bool
	aborted bool
}

func newMultiSelectModel(title string, options []string) multiSelectModel {
	return multiSelectModel{
		title:   title,
		options: options,
		checked: make(map[int]struct{}),
		styles:  defaultStyles(),
	}
}

func (model multiSelectModel) Init() tea.Cmd {
	return nil
}

func (model multiSelectModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
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
	case " ":
		if _, toggled := model.checked[model.cursor]; toggled {
			delete(model.checked, model.cursor)
		} else {
			model.checked[model.cursor] = struct{}{}
		}
	case "a":
		if len(model.checked) == len(model.options) {
			model.checked = make(map[int]struct{})
		} else {
			for optionIndex := range model.options {
				model.checked[optionIndex] = struct{}{}
			}
		}
	case "enter":
		model.done = true
		return model, tea.Quit
	}
	return model, nil
}

func (model multiSelectModel) View() string {
	if model.done || model.aborted {
		return ""
	}
	var view strings.Builder
	view.WriteString(model.styles.title.Render(model.title))
	view.WriteString("\n")
	for optionIndex, option := range model.options {
		marker := "[ ]"
		line := fmt.Sprintf("%s %s", marker, option)
		if _, toggled := model.checked[optionIndex]; toggled {
			line = model.styles.selected.Render(fmt.Sprintf("[x] %s", option))
		}
		if optionIndex == model.cursor {
			view.WriteString(model.styles.cursor.Render("> "))
		} else {
			view.WriteString("  ")
		}
		view.WriteString(line)
		view.WriteString("\n")
	}
	view.WriteString(model.styles.help.Render("space to toggle, a for all, enter to confirm (none = all), esc to quit"))
	view.WriteString("\n")
	return view.String()
}

// SelectedOptions returns the toggled options in their listing order.
func (model multiSelectModel) SelectedOptions() []string {
	var selected []string
	for optionIndex, option := range model.options {
		if _, toggled := model.checked[optionIndex]; toggled {
			selected = append(selected, option)
		}
	}
	return selected
}

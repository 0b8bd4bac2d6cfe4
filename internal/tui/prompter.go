package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/osokin/repomerge/internal/flow"
	"github.com/osokin/repomerge/internal/types"
)

const (
	urlPromptTitle        = "Repository URL"
	urlPromptPlaceholder  = "https://github.com/owner/repository.git"
	branchPromptFormat    = "Select a branch (%s)"
	defaultBranchOption   = "(default branch)"
	extensionsPromptTitle = "Select extensions to include (none = all)"
	retryOptionYes        = "yes"
	retryOptionNo         = "no"
)

// Prompter implements flow.Prompter with terminal prompts.
type Prompter struct{}

// NewPrompter constructs a terminal Prompter.
func NewPrompter() *Prompter {
	return &Prompter{}
}

var _ flow.Prompter = (*Prompter)(nil)

// AskURL prompts for the source repository URL.
func (prompter *Prompter) AskURL(executionContext context.Context) (string, error) {
	finalModel, runError := runProgram(executionContext, newInputModel(urlPromptTitle, urlPromptPlaceholder))
	if runError != nil {
		return "", runError
	}
	result := finalModel.(inputModel)
	if result.aborted {
		return "", flow.ErrAborted
	}
	return result.Value(), nil
}

// SelectBranch offers the discovered branch names plus a default-branch
// option. Choosing the default returns an empty branch name.
func (prompter *Prompter) SelectBranch(executionContext context.Context, discovered types.BranchSet) (string, error) {
	options := append([]string{defaultBranchOption}, discovered.Names...)
	title := fmt.Sprintf(branchPromptFormat, discovered.Tier)
	finalModel, runError := runProgram(executionContext, newPickerModel(title, options))
	if runError != nil {
		return "", runError
	}
	result := finalModel.(pickerModel)
	if result.aborted {
		return "", flow.ErrAborted
	}
	selected := result.Selected()
	if selected == defaultBranchOption {
		return "", nil
	}
	return selected, nil
}

// SelectExtensions offers the scanned extensions as a multi-select. An empty
// confirmation means every extension.
func (prompter *Prompter) SelectExtensions(executionContext context.Context, available []string) ([]string, error) {
	finalModel, runError := runProgram(executionContext, newMultiSelectModel(extensionsPromptTitle, available))
	if runError != nil {
		return nil, runError
	}
	result := finalModel.(multiSelectModel)
	if result.aborted {
		return nil, flow.ErrAborted
	}
	return result.SelectedOptions(), nil
}

// ConfirmRetry asks a yes/no question.
func (prompter *Prompter) ConfirmRetry(executionContext context.Context, message string) (bool, error) {
	finalModel, runError := runProgram(executionContext, newPickerModel(message, []string{retryOptionYes, retryOptionNo}))
	if runError != nil {
		return false, runError
	}
	result := finalModel.(pickerModel)
	if result.aborted {
		return false, flow.ErrAborted
	}
	return result.Selected() == retryOptionYes, nil
}

func runProgram(executionContext context.Context, model tea.Model) (tea.Model, error) {
	program := tea.NewProgram(model, tea.WithContext(executionContext))
	return program.Run()
}

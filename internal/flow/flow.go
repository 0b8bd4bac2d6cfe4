// Package flow drives the interactive merge session as an explicit state
// machine, keeping retry and abort decisions testable independent of any
// prompt implementation.
package flow

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/osokin/repomerge/internal/gitrepo"
	"github.com/osokin/repomerge/internal/merge"
	"github.com/osokin/repomerge/internal/tree"
	"github.com/osokin/repomerge/internal/types"
	"github.com/osokin/repomerge/internal/workspace"
)

// State names one phase of the interactive session.
type State string

const (
	StateAwaitingURL         State = "awaiting-url"
	StateCheckingRepo        State = "checking-repo"
	StateDiscoveringBranches State = "discovering-branches"
	StateScanningExtensions  State = "scanning-extensions"
	StateMerging             State = "merging"
	StateDone                State = "done"
	StateAborted             State = "aborted"
)

// emptyResultRetryMessage explains the retry offered after an empty merge.
const emptyResultRetryMessage = "no files matched the selected filters; choose different extensions?"

// Prompter gathers the user decisions the state machine depends on. Every
// method may return ErrAborted to end the session gracefully.
type Prompter interface {
	AskURL(executionContext context.Context) (string, error)
	SelectBranch(executionContext context.Context, discovered types.BranchSet) (string, error)
	SelectExtensions(executionContext context.Context, available []string) ([]string, error)
	ConfirmRetry(executionContext context.Context, message string) (bool, error)
}

// Discoverer resolves the branch set of a remote repository.
type Discoverer interface {
	Discover(executionContext context.Context, url string, scratchDirectory string) (types.BranchSet, error)
}

// Runner executes one merge operation.
type Runner interface {
	Run(executionContext context.Context, url string, configuration types.MergeConfig, events chan<- merge.Event) (merge.Result, error)
}

// Cloner clones a repository for the extension scan pass.
type Cloner interface {
	Clone(executionContext context.Context, url string, destination string, branch string) error
}

// ErrAborted signals a deliberate user decision to end the session.
var ErrAborted = errors.New("session aborted")

// Machine is the interactive session state machine.
type Machine struct {
	workspaces        *workspace.Manager
	discovery         Discoverer
	merger            Runner
	cloner            Cloner
	prompter          Prompter
	logger            *zap.Logger
	baseConfiguration types.MergeConfig

	state          State
	url            string
	selectedBranch string
	branchSet      types.BranchSet
	result         merge.Result
}

// NewMachine constructs a Machine in the awaiting-url state.
func NewMachine(
	workspaces *workspace.Manager,
	discovery Discoverer,
	merger Runner,
	cloner Cloner,
	prompter Prompter,
	baseConfiguration types.MergeConfig,
	logger *zap.Logger,
) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		workspaces:        workspaces,
		discovery:         discovery,
		merger:            merger,
		cloner:            cloner,
		prompter:          prompter,
		logger:            logger,
		baseConfiguration: baseConfiguration,
		state:             StateAwaitingURL,
	}
}

// State returns the machine's current state.
func (machine *Machine) State() State {
	return machine.state
}

// Result returns the merge result once the machine reached the done state.
func (machine *Machine) Result() merge.Result {
	return machine.result
}

// Run advances the machine until it reaches done or aborted. A user abort
// surfaces as ErrAborted; every other error carries the failing operation.
func (machine *Machine) Run(executionContext context.Context) error {
	for {
		var stepError error
		switch machine.state {
		case StateAwaitingURL:
			stepError = machine.stepAwaitingURL(executionContext)
		case StateCheckingRepo:
			stepError = machine.stepCheckingRepo(executionContext)
		case StateDiscoveringBranches:
			stepError = machine.stepDiscoveringBranches(executionContext)
		case StateScanningExtensions:
			stepError = machine.stepScanningExtensions(executionContext)
		case StateMerging:
			stepError = machine.stepMerging(executionContext)
		case StateDone:
			return nil
		case StateAborted:
			return ErrAborted
		default:
			return fmt.Errorf("unknown session state %q", machine.state)
		}
		if stepError != nil {
			machine.transition(StateAborted, "error")
			return stepError
		}
	}
}

// transition moves the machine to the next state, logging the named edge.
func (machine *Machine) transition(next State, reason string) {
	machine.logger.Debug("session transition",
		zap.String("from", string(machine.state)),
		zap.String("to", string(next)),
		zap.String("reason", reason))
	machine.state = next
}

func (machine *Machine) stepAwaitingURL(executionContext context.Context) error {
	url, askError := machine.prompter.AskURL(executionContext)
	if askError != nil {
		if errors.Is(askError, ErrAborted) {
			machine.transition(StateAborted, "user-abort")
			return nil
		}
		return askError
	}
	machine.url = url
	machine.transition(StateCheckingRepo, "url-provided")
	return nil
}

// stepCheckingRepo verifies the repository is reachable by running branch
// discovery against it. A confirmed missing repository returns the session to
// the URL prompt instead of aborting.
func (machine *Machine) stepCheckingRepo(executionContext context.Context) error {
	scratch, allocateError := machine.workspaces.Allocate()
	if allocateError != nil {
		return allocateError
	}
	defer machine.workspaces.Release(scratch)

	discovered, discoverError := machine.discovery.Discover(executionContext, machine.url, scratch.Path)
	if discoverError != nil {
		if errors.Is(discoverError, gitrepo.ErrRepositoryNotFound) {
			machine.logger.Warn("repository not found", zap.String("url", machine.url))
			machine.transition(StateAwaitingURL, "repository-not-found")
			return nil
		}
		return discoverError
	}
	machine.branchSet = discovered
	machine.transition(StateDiscoveringBranches, "repository-reachable")
	return nil
}

func (machine *Machine) stepDiscoveringBranches(executionContext context.Context) error {
	selected, selectError := machine.prompter.SelectBranch(executionContext, machine.branchSet)
	if selectError != nil {
		if errors.Is(selectError, ErrAborted) {
			machine.transition(StateAborted, "user-abort")
			return nil
		}
		return selectError
	}
	machine.selectedBranch = selected
	machine.transition(StateScanningExtensions, "branch-selected")
	return nil
}

// stepScanningExtensions clones the repository once to enumerate its file
// extensions, then asks the user for a subset. An empty selection means all
// extensions, not none.
func (machine *Machine) stepScanningExtensions(executionContext context.Context) error {
	scratch, allocateError := machine.workspaces.Allocate()
	if allocateError != nil {
		return allocateError
	}
	defer machine.workspaces.Release(scratch)

	if cloneError := machine.cloner.Clone(executionContext, machine.url, scratch.Path, machine.selectedBranch); cloneError != nil {
		return fmt.Errorf("cloning %s for extension scan: %w", machine.url, cloneError)
	}

	builder := &tree.Builder{ExcludeDirs: machine.baseConfiguration.ExcludeDirs}
	available, scanError := builder.ScanExtensions(scratch.Path)
	if scanError != nil {
		return scanError
	}

	selected := available
	if len(available) > 0 {
		chosen, selectError := machine.prompter.SelectExtensions(executionContext, available)
		if selectError != nil {
			if errors.Is(selectError, ErrAborted) {
				machine.transition(StateAborted, "user-abort")
				return nil
			}
			return selectError
		}
		selected = chosen
	}

	machine.baseConfiguration.IncludeExtensions = nil
	if len(selected) > 0 && len(selected) < len(available) {
		machine.baseConfiguration.IncludeExtensions = types.StringSet(selected)
	}
	machine.transition(StateMerging, "extensions-selected")
	return nil
}

func (machine *Machine) stepMerging(executionContext context.Context) error {
	configuration := machine.baseConfiguration
	configuration.Branch = machine.selectedBranch

	result, runError := machine.merger.Run(executionContext, machine.url, configuration, nil)
	if runError != nil {
		if errors.Is(runError, merge.ErrEmptyResult) {
			retry, confirmError := machine.prompter.ConfirmRetry(executionContext, emptyResultRetryMessage)
			if confirmError != nil && !errors.Is(confirmError, ErrAborted) {
				return confirmError
			}
			if retry {
				machine.transition(StateScanningExtensions, "empty-result-retry")
				return nil
			}
			machine.transition(StateAborted, "empty-result")
			return nil
		}
		return runError
	}
	machine.result = result
	machine.transition(StateDone, "merge-complete")
	return nil
}

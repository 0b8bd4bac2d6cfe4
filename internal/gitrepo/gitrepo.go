// Package gitrepo wraps invocations of the git binary and classifies their failures.
package gitrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	gitExecutable = "git"

	remoteHeadsPrefix  = "refs/heads/"
	remoteOriginPrefix = "origin/"
	remoteHeadPointer  = "->"
	remoteHeadName     = "HEAD"
)

// Failure sentinels produced by classifying git stderr output.
var (
	// ErrRepositoryNotFound indicates the remote repository is unreachable or does not exist.
	ErrRepositoryNotFound = errors.New("repository not found")
	// ErrBranchNotFound indicates the requested branch does not exist on the remote.
	ErrBranchNotFound = errors.New("branch not found")
	// ErrDestinationExists indicates the clone destination already holds content.
	ErrDestinationExists = errors.New("destination already exists")
)

// notFoundIndicators are stderr fragments marking an unreachable or missing repository.
var notFoundIndicators = []string{
	"repository not found",
	"not found",
	"could not read from remote repository",
	"does not appear to be a git repository",
	"access denied",
	"authentication failed",
}

// branchMissingIndicators are stderr fragments marking a missing branch.
var branchMissingIndicators = []string{
	"remote branch",
	"not found in upstream",
	"couldn't find remote ref",
}

// destinationExistsIndicators are stderr fragments marking an occupied clone target.
var destinationExistsIndicators = []string{
	"already exists and is not an empty directory",
	"destination path",
}

// Client issues git operations against remotes and local clones.
type Client struct {
	logger *zap.Logger
}

// NewClient constructs a git Client logging through the provided logger.
func NewClient(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{logger: logger}
}

// run executes git with the provided arguments, returning stdout. On failure
// the returned error carries the stderr text for classification.
func (client *Client) run(executionContext context.Context, workingDirectory string, arguments ...string) (string, error) {
	command := exec.CommandContext(executionContext, gitExecutable, arguments...)
	if workingDirectory != "" {
		command.Dir = workingDirectory
	}

	var standardOutput, standardError bytes.Buffer
	command.Stdout = &standardOutput
	command.Stderr = &standardError

	client.logger.Debug("running git", zap.Strings("arguments", arguments))
	if runError := command.Run(); runError != nil {
		errorText := strings.TrimSpace(standardError.String())
		if errorText == "" {
			errorText = runError.Error()
		}
		return "", fmt.Errorf("git %s: %s", arguments[0], errorText)
	}
	return standardOutput.String(), nil
}

// ListRemoteHeads lists branch names advertised by the remote at url. Names
// are distinct and sorted lexicographically. A zero-length result with a nil
// error means the remote answered but advertised no heads.
func (client *Client) ListRemoteHeads(executionContext context.Context, url string) ([]string, error) {
	output, runError := client.run(executionContext, "", "ls-remote", "--heads", url)
	if runError != nil {
		return nil, ClassifyRemoteError(runError)
	}

	seen := make(map[string]struct{})
	var names []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		reference := fields[len(fields)-1]
		if !strings.HasPrefix(reference, remoteHeadsPrefix) {
			continue
		}
		name := strings.TrimPrefix(reference, remoteHeadsPrefix)
		if _, duplicate := seen[name]; duplicate || name == "" {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CloneBare clones the repository at url into destination in bare mode.
func (client *Client) CloneBare(executionContext context.Context, url string, destination string) error {
	_, runError := client.run(executionContext, "", "clone", "--bare", url, destination)
	if runError != nil {
		return ClassifyRemoteError(runError)
	}
	return nil
}

// ListBareBranches lists remote branch references of a bare clone. The literal
// origin/ prefix is stripped, the HEAD pointer entry is discarded, and the
// result is sorted lexicographically.
func (client *Client) ListBareBranches(executionContext context.Context, cloneDirectory string) ([]string, error) {
	output, runError := client.run(executionContext, cloneDirectory, "branch", "-r")
	if runError != nil {
		return nil, runError
	}
	return ParseBareBranchListing(output), nil
}

// ParseBareBranchListing extracts branch names from `git branch -r` output.
func ParseBareBranchListing(output string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, line := range strings.Split(output, "\n") {
		entry := strings.TrimSpace(line)
		if entry == "" || strings.Contains(entry, remoteHeadPointer) {
			continue
		}
		entry = strings.TrimPrefix(entry, remoteOriginPrefix)
		if entry == remoteHeadName {
			continue
		}
		if _, duplicate := seen[entry]; duplicate {
			continue
		}
		seen[entry] = struct{}{}
		names = append(names, entry)
	}
	sort.Strings(names)
	return names
}

// Clone clones the repository at url into destination, scoped to branch when
// branch is non-empty. Failures are classified into the sentinel taxonomy.
func (client *Client) Clone(executionContext context.Context, url string, destination string, branch string) error {
	arguments := []string{"clone"}
	if branch != "" {
		arguments = append(arguments, "--branch", branch)
	}
	arguments = append(arguments, url, destination)
	_, runError := client.run(executionContext, "", arguments...)
	if runError != nil {
		return ClassifyCloneError(runError)
	}
	return nil
}

// ClassifyRemoteError maps a remote invocation error onto the failure taxonomy.
// Only the not-found class is distinguished for remote listings.
func ClassifyRemoteError(invocationError error) error {
	if matchesAnyIndicator(invocationError, notFoundIndicators) {
		return fmt.Errorf("%w: %v", ErrRepositoryNotFound, invocationError)
	}
	return invocationError
}

// ClassifyCloneError maps a clone invocation error onto the failure taxonomy.
// Branch and destination indicators are checked before the broader not-found
// class because git reports missing branches with "not found" phrasing too.
func ClassifyCloneError(invocationError error) error {
	if matchesAnyIndicator(invocationError, branchMissingIndicators) {
		return fmt.Errorf("%w: %v", ErrBranchNotFound, invocationError)
	}
	if matchesAnyIndicator(invocationError, destinationExistsIndicators) {
		return fmt.Errorf("%w: %v", ErrDestinationExists, invocationError)
	}
	if matchesAnyIndicator(invocationError, notFoundIndicators) {
		return fmt.Errorf("%w: %v", ErrRepositoryNotFound, invocationError)
	}
	return invocationError
}

func matchesAnyIndicator(invocationError error, indicators []string) bool {
	message := strings.ToLower(invocationError.Error())
	for _, indicator := range indicators {
		if strings.Contains(message, indicator) {
			return true
		}
	}
	return false
}

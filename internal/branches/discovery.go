// Package branches discovers remote branch names using an ordered chain of
// fallback strategies.
package branches

import (
	"context"
	"errors"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/osokin/repomerge/internal/gitrepo"
	"github.com/osokin/repomerge/internal/types"
)

// bareCloneDirectoryName is the subdirectory of the scratch workspace that
// receives the fallback bare clone.
const bareCloneDirectoryName = "bare.git"

// Lister is the subset of git operations branch discovery depends on.
type Lister interface {
	ListRemoteHeads(executionContext context.Context, url string) ([]string, error)
	CloneBare(executionContext context.Context, url string, destination string) error
	ListBareBranches(executionContext context.Context, cloneDirectory string) ([]string, error)
}

// outcomeKind tags the result of one discovery strategy.
type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeTryNext
	outcomeFail
)

// strategyOutcome is the tagged result a strategy returns to the fold.
type strategyOutcome struct {
	kind    outcomeKind
	set     types.BranchSet
	failure error
}

// strategy is one tier of the ordered fallback chain.
type strategy struct {
	tier    string
	execute func(executionContext context.Context) strategyOutcome
}

// Discovery queries remotes for branch names with tiered fallback.
type Discovery struct {
	lister Lister
	logger *zap.Logger
}

// NewDiscovery constructs a Discovery using the provided git operations.
func NewDiscovery(lister Lister, logger *zap.Logger) *Discovery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discovery{lister: lister, logger: logger}
}

// Discover resolves the branch names of the remote at url. scratchDirectory
// receives the fallback bare clone when the remote advertises no heads.
//
// The chain folds over its strategies, stopping at the first success or
// failure and falling through on tryNext. A confirmed nonexistent repository
// fails outright; any other remote listing error degrades to the literal
// default branch names so the run can proceed.
func (discovery *Discovery) Discover(executionContext context.Context, url string, scratchDirectory string) (types.BranchSet, error) {
	chain := []strategy{
		{
			tier: types.TierRemoteHeads,
			execute: func(strategyContext context.Context) strategyOutcome {
				return discovery.discoverRemoteHeads(strategyContext, url)
			},
		},
		{
			tier: types.TierBareCloneFallback,
			execute: func(strategyContext context.Context) strategyOutcome {
				return discovery.discoverViaBareClone(strategyContext, url, scratchDirectory)
			},
		},
		{
			tier: types.TierDefaultConstants,
			execute: func(context.Context) strategyOutcome {
				return strategyOutcome{kind: outcomeSuccess, set: types.BranchSet{
					Names: append([]string(nil), types.DefaultBranchNames...),
					Tier:  types.TierDefaultConstants,
				}}
			},
		},
	}

	for _, tierStrategy := range chain {
		outcome := tierStrategy.execute(executionContext)
		switch outcome.kind {
		case outcomeSuccess:
			return outcome.set, nil
		case outcomeFail:
			return types.BranchSet{}, outcome.failure
		case outcomeTryNext:
			discovery.logger.Debug("branch discovery tier exhausted", zap.String("tier", tierStrategy.tier))
		}
	}

	// Unreachable: the default-constants tier always succeeds.
	return types.BranchSet{Names: append([]string(nil), types.DefaultBranchNames...), Tier: types.TierDefaultConstants}, nil
}

// discoverRemoteHeads implements the remote-heads tier. An invocation error is
// terminal for the chain: a confirmed missing repository fails, and any other
// error substitutes the default branch names without attempting the bare
// clone. Only an empty successful listing falls through.
func (discovery *Discovery) discoverRemoteHeads(executionContext context.Context, url string) strategyOutcome {
	names, listError := discovery.lister.ListRemoteHeads(executionContext, url)
	if listError != nil {
		if errors.Is(listError, gitrepo.ErrRepositoryNotFound) {
			return strategyOutcome{kind: outcomeFail, failure: listError}
		}
		discovery.logger.Warn("branch discovery degraded, using default branch names", zap.Error(listError))
		return strategyOutcome{kind: outcomeSuccess, set: types.BranchSet{
			Names: append([]string(nil), types.DefaultBranchNames...),
			Tier:  types.TierDefaultConstants,
		}}
	}
	if len(names) == 0 {
		return strategyOutcome{kind: outcomeTryNext}
	}
	return strategyOutcome{kind: outcomeSuccess, set: types.BranchSet{Names: names, Tier: types.TierRemoteHeads}}
}

// discoverViaBareClone implements the bare-clone-fallback tier. Every failure
// mode falls through to the default constants.
func (discovery *Discovery) discoverViaBareClone(executionContext context.Context, url string, scratchDirectory string) strategyOutcome {
	cloneDirectory := filepath.Join(scratchDirectory, bareCloneDirectoryName)
	if cloneError := discovery.lister.CloneBare(executionContext, url, cloneDirectory); cloneError != nil {
		discovery.logger.Debug("bare clone fallback failed", zap.Error(cloneError))
		return strategyOutcome{kind: outcomeTryNext}
	}
	names, listError := discovery.lister.ListBareBranches(executionContext, cloneDirectory)
	if listError != nil || len(names) == 0 {
		return strategyOutcome{kind: outcomeTryNext}
	}
	return strategyOutcome{kind: outcomeSuccess, set: types.BranchSet{Names: names, Tier: types.TierBareCloneFallback}}
}

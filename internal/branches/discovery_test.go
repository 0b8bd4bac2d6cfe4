package branches_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/osokin/repomerge/internal/branches"
	"github.com/osokin/repomerge/internal/gitrepo"
	"github.com/osokin/repomerge/internal/types"
)

// fakeLister scripts the git operations branch discovery depends on.
type fakeLister struct {
	remoteHeads      []string
	remoteHeadsError error
	bareCloneError   error
	bareBranches     []string
	bareListError    error
	bareCloneCalled  bool
}

func (lister *fakeLister) ListRemoteHeads(context.Context, string) ([]string, error) {
	return lister.remoteHeads, lister.remoteHeadsError
}

func (lister *fakeLister) CloneBare(context.Context, string, string) error {
	lister.bareCloneCalled = true
	return lister.bareCloneError
}

func (lister *fakeLister) ListBareBranches(context.Context, string) ([]string, error) {
	return lister.bareBranches, lister.bareListError
}

func discoverWith(testingInstance *testing.T, lister *fakeLister) (types.BranchSet, error) {
	testingInstance.Helper()
	discovery := branches.NewDiscovery(lister, nil)
	return discovery.Discover(context.Background(), "https://example.com/owner/repo.git", testingInstance.TempDir())
}

// TestDiscoverRemoteHeadsTier verifies the first tier wins when the remote advertises heads.
func TestDiscoverRemoteHeadsTier(testingInstance *testing.T) {
	lister := &fakeLister{remoteHeads: []string{"dev", "main"}}
	discovered, discoverError := discoverWith(testingInstance, lister)
	if discoverError != nil {
		testingInstance.Fatalf("unexpected error: %v", discoverError)
	}
	if discovered.Tier != types.TierRemoteHeads {
		testingInstance.Errorf("expected tier %s, got %s", types.TierRemoteHeads, discovered.Tier)
	}
	if len(discovered.Names) != 2 || discovered.Names[0] != "dev" || discovered.Names[1] != "main" {
		testingInstance.Errorf("unexpected names %v", discovered.Names)
	}
	if lister.bareCloneCalled {
		testingInstance.Error("bare clone attempted despite successful remote heads listing")
	}
}

// TestDiscoverBareCloneFallbackTier verifies an empty heads listing falls
// through to the bare clone, never directly to the default constants.
func TestDiscoverBareCloneFallbackTier(testingInstance *testing.T) {
	lister := &fakeLister{remoteHeads: nil, bareBranches: []string{"dev"}}
	discovered, discoverError := discoverWith(testingInstance, lister)
	if discoverError != nil {
		testingInstance.Fatalf("unexpected error: %v", discoverError)
	}
	if discovered.Tier != types.TierBareCloneFallback {
		testingInstance.Errorf("expected tier %s, got %s", types.TierBareCloneFallback, discovered.Tier)
	}
	if len(discovered.Names) != 1 || discovered.Names[0] != "dev" {
		testingInstance.Errorf("unexpected names %v", discovered.Names)
	}
}

// TestDiscoverDefaultConstantsTier verifies exhaustion of both remote tiers.
func TestDiscoverDefaultConstantsTier(testingInstance *testing.T) {
	testCases := []struct {
		testName string
		lister   *fakeLister
	}{
		{testName: "bare clone fails", lister: &fakeLister{bareCloneError: errors.New("clone failed")}},
		{testName: "bare listing fails", lister: &fakeLister{bareListError: errors.New("listing failed")}},
		{testName: "bare listing empty", lister: &fakeLister{}},
	}
	for _, testCase := range testCases {
		discovered, discoverError := discoverWith(testingInstance, testCase.lister)
		if discoverError != nil {
			testingInstance.Fatalf("%s: unexpected error: %v", testCase.testName, discoverError)
		}
		if discovered.Tier != types.TierDefaultConstants {
			testingInstance.Errorf("%s: expected tier %s, got %s", testCase.testName, types.TierDefaultConstants, discovered.Tier)
		}
		if len(discovered.Names) != 2 || discovered.Names[0] != "main" || discovered.Names[1] != "master" {
			testingInstance.Errorf("%s: unexpected names %v", testCase.testName, discovered.Names)
		}
	}
}

// TestDiscoverRepositoryNotFoundFails verifies a confirmed missing repository
// never degrades to guessed branch names.
func TestDiscoverRepositoryNotFoundFails(testingInstance *testing.T) {
	lister := &fakeLister{
		remoteHeadsError: fmt.Errorf("%w: repository vanished", gitrepo.ErrRepositoryNotFound),
	}
	_, discoverError := discoverWith(testingInstance, lister)
	if !errors.Is(discoverError, gitrepo.ErrRepositoryNotFound) {
		testingInstance.Fatalf("expected repository-not-found, got %v", discoverError)
	}
	if lister.bareCloneCalled {
		testingInstance.Error("bare clone attempted after confirmed missing repository")
	}
}

// TestDiscoverDegradedListingUsesDefaults verifies a transient listing error
// substitutes the default names without attempting the bare clone.
func TestDiscoverDegradedListingUsesDefaults(testingInstance *testing.T) {
	lister := &fakeLister{remoteHeadsError: errors.New("network timeout")}
	discovered, discoverError := discoverWith(testingInstance, lister)
	if discoverError != nil {
		testingInstance.Fatalf("unexpected error: %v", discoverError)
	}
	if discovered.Tier != types.TierDefaultConstants {
		testingInstance.Errorf("expected tier %s, got %s", types.TierDefaultConstants, discovered.Tier)
	}
	if lister.bareCloneCalled {
		testingInstance.Error("bare clone attempted after degraded listing")
	}
}

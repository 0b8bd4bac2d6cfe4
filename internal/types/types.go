// Package types defines every cross-package data structure used by the repomerge CLI.
package types

import "sort"

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"

	// TierRemoteHeads identifies branch names obtained from a remote heads listing.
	TierRemoteHeads = "remote-heads"
	// TierBareCloneFallback identifies branch names obtained from a bare clone of the remote.
	TierBareCloneFallback = "bare-clone-fallback"
	// TierDefaultConstants identifies the literal fallback branch names.
	TierDefaultConstants = "default-constants"

	// DefaultOutputFileName is the merge artifact path used when none is configured.
	DefaultOutputFileName = "merged-output.txt"

	// FallbackRepositoryName is used when no repository name can be derived from a URL.
	FallbackRepositoryName = "repository"
)

// DefaultBranchNames are the literal branch names returned by the last discovery tier.
var DefaultBranchNames = []string{"main", "master"}

// DefaultExcludedDirectories lists directory names skipped by every walk unless overridden.
var DefaultExcludedDirectories = []string{"node_modules", ".git", "dist", "build", ".github", ".vscode"}

// DefaultExcludedFiles lists file names skipped during content merging unless overridden.
var DefaultExcludedFiles = []string{".env", ".gitignore", "package-lock.json", "yarn.lock", ".DS_Store"}

// TreeNode is one node of the filtered repository tree. Directory children are
// ordered directories-first, each group lexicographic by name.
type TreeNode struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Children []*TreeNode `json:"children,omitempty"`
}

// IsDirectory reports whether the node represents a directory.
func (node *TreeNode) IsDirectory() bool {
	return node.Type == NodeTypeDirectory
}

// BranchSet is an ordered, deduplicated collection of branch names tagged with
// the discovery tier that produced it.
type BranchSet struct {
	Names []string
	Tier  string
}

// MergeConfig captures every setting of a single merge operation. A nil
// IncludeExtensions set means every extension qualifies.
type MergeConfig struct {
	ExcludeDirs       map[string]struct{}
	ExcludeFiles      map[string]struct{}
	IncludeExtensions map[string]struct{}
	IncludeGlobs      []string
	UseGitignore      bool
	OutputPath        string
	Branch            string
}

// NewMergeConfig returns a MergeConfig populated with the default exclusion
// sets and output path.
func NewMergeConfig() MergeConfig {
	return MergeConfig{
		ExcludeDirs:  StringSet(DefaultExcludedDirectories),
		ExcludeFiles: StringSet(DefaultExcludedFiles),
		OutputPath:   DefaultOutputFileName,
	}
}

// StringSet converts a slice of values into a membership set.
func StringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}

// SortedKeys returns the keys of the provided set in lexicographic order.
func SortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

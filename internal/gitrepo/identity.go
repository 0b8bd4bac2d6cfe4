package gitrepo

import (
	"strings"

	"github.com/osokin/repomerge/internal/types"
)

const gitSuffix = ".git"

// RepositoryNameFromURL derives a short repository name from a source URL by
// taking the final path segment and stripping an optional .git suffix.
// Returns the literal fallback name when no segment can be extracted.
func RepositoryNameFromURL(url string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(url), "/")
	if trimmed == "" {
		return types.FallbackRepositoryName
	}

	segment := trimmed
	if slashIndex := strings.LastIndex(segment, "/"); slashIndex >= 0 {
		segment = segment[slashIndex+1:]
	} else if colonIndex := strings.LastIndex(segment, ":"); colonIndex >= 0 {
		// scp-like syntax: git@host:owner/name.git
		segment = segment[colonIndex+1:]
	}

	segment = strings.TrimSuffix(segment, gitSuffix)
	if segment == "" {
		return types.FallbackRepositoryName
	}
	return segment
}

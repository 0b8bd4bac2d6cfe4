// Package tree builds the filtered repository tree, enumerates file
// extensions, and renders the box-drawing diagram embedded in merge artifacts.
package tree

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/osokin/repomerge/internal/types"
	"github.com/osokin/repomerge/internal/utils"
)

// Builder walks a cloned repository applying directory exclusion and file
// inclusion predicates. A nil IncludeExtensions set admits every extension.
type Builder struct {
	ExcludeDirs       map[string]struct{}
	IncludeExtensions map[string]struct{}
	IncludeGlobs      []glob.Glob
	Ignore            *ignore.GitIgnore
}

// buildFrame is one explicit traversal frame. The walk keeps its own stack so
// pathological directory depths cannot exhaust the call stack.
type buildFrame struct {
	directoryPath string
	relativePath  string
	node          *types.TreeNode
	parent        *types.TreeNode
	entries       []os.DirEntry
	entryIndex    int
}

// Build constructs the filtered tree rooted at rootDirectory, labeled
// rootLabel. Directory children precede file children, each group sorted
// lexicographically by name. Directories left empty after filtering are
// pruned recursively. Unreadable entries are skipped; an unreadable directory
// aborts only its own subtree.
func (builder *Builder) Build(rootDirectory string, rootLabel string) (*types.TreeNode, error) {
	rootEntries, readError := os.ReadDir(rootDirectory)
	if readError != nil {
		return nil, readError
	}

	rootNode := &types.TreeNode{Name: rootLabel, Type: types.NodeTypeDirectory}
	stack := []*buildFrame{{
		directoryPath: rootDirectory,
		relativePath:  "",
		node:          rootNode,
		entries:       sortEntries(rootEntries),
	}}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		if frame.entryIndex >= len(frame.entries) {
			stack = stack[:len(stack)-1]
			if frame.parent != nil && len(frame.node.Children) == 0 {
				// The frame's node is the most recently attached child of its
				// parent; drop it when the subtree filtered down to nothing.
				frame.parent.Children = frame.parent.Children[:len(frame.parent.Children)-1]
			}
			continue
		}

		entry := frame.entries[frame.entryIndex]
		frame.entryIndex++

		entryRelativePath := joinRelative(frame.relativePath, entry.Name())
		if entry.IsDir() {
			if builder.excludesDirectory(entry.Name(), entryRelativePath) {
				continue
			}
			childEntries, childReadError := os.ReadDir(filepath.Join(frame.directoryPath, entry.Name()))
			if childReadError != nil {
				continue
			}
			childNode := &types.TreeNode{Name: entry.Name(), Type: types.NodeTypeDirectory}
			frame.node.Children = append(frame.node.Children, childNode)
			stack = append(stack, &buildFrame{
				directoryPath: filepath.Join(frame.directoryPath, entry.Name()),
				relativePath:  entryRelativePath,
				node:          childNode,
				parent:        frame.node,
				entries:       sortEntries(childEntries),
			})
			continue
		}

		if !builder.admitsFile(entry.Name(), entryRelativePath) {
			continue
		}
		frame.node.Children = append(frame.node.Children, &types.TreeNode{Name: entry.Name(), Type: types.NodeTypeFile})
	}

	return rootNode, nil
}

// ScanExtensions collects every distinct non-empty lowercase extension present
// in the non-excluded subtree of rootDirectory, sorted lexicographically.
func (builder *Builder) ScanExtensions(rootDirectory string) ([]string, error) {
	if _, readError := os.ReadDir(rootDirectory); readError != nil {
		return nil, readError
	}

	type scanFrame struct {
		directoryPath string
		relativePath  string
	}

	extensions := make(map[string]struct{})
	stack := []scanFrame{{directoryPath: rootDirectory}}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, listError := os.ReadDir(frame.directoryPath)
		if listError != nil {
			continue
		}

		for _, entry := range entries {
			entryRelativePath := joinRelative(frame.relativePath, entry.Name())
			if entry.IsDir() {
				if builder.excludesDirectory(entry.Name(), entryRelativePath) {
					continue
				}
				stack = append(stack, scanFrame{
					directoryPath: filepath.Join(frame.directoryPath, entry.Name()),
					relativePath:  entryRelativePath,
				})
				continue
			}
			if builder.ignoresPath(entryRelativePath) {
				continue
			}
			if extension := utils.NormalizedExtension(entry.Name()); extension != "" {
				extensions[extension] = struct{}{}
			}
		}
	}

	return types.SortedKeys(extensions), nil
}

// excludesDirectory reports whether the directory must be skipped entirely.
func (builder *Builder) excludesDirectory(name string, relativePath string) bool {
	if _, excluded := builder.ExcludeDirs[name]; excluded {
		return true
	}
	return builder.ignoresPath(relativePath + "/")
}

// admitsFile applies the extension, glob, and gitignore predicates.
func (builder *Builder) admitsFile(name string, relativePath string) bool {
	if builder.ignoresPath(relativePath) {
		return false
	}
	if builder.IncludeExtensions != nil {
		if _, included := builder.IncludeExtensions[utils.NormalizedExtension(name)]; !included {
			return false
		}
	}
	if len(builder.IncludeGlobs) > 0 && !matchesAnyGlob(relativePath, builder.IncludeGlobs) {
		return false
	}
	return true
}

func (builder *Builder) ignoresPath(relativePath string) bool {
	return builder.Ignore != nil && builder.Ignore.MatchesPath(relativePath)
}

func matchesAnyGlob(relativePath string, globs []glob.Glob) bool {
	for _, candidate := range globs {
		if candidate.Match(relativePath) {
			return true
		}
	}
	return false
}

// sortEntries orders directory entries directories-first, each group
// case-sensitively lexicographic by name, independent of listing order.
func sortEntries(entries []os.DirEntry) []os.DirEntry {
	sorted := append([]os.DirEntry(nil), entries...)
	sort.SliceStable(sorted, func(left, right int) bool {
		if sorted[left].IsDir() != sorted[right].IsDir() {
			return sorted[left].IsDir()
		}
		return sorted[left].Name() < sorted[right].Name()
	})
	return sorted
}

func joinRelative(parent string, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// Package merge produces the merge artifact: a rendered tree diagram followed
// by the concatenated contents of every qualifying file of a cloned repository.
package merge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"

	"github.com/osokin/repomerge/internal/gitrepo"
	"github.com/osokin/repomerge/internal/tree"
	"github.com/osokin/repomerge/internal/types"
	"github.com/osokin/repomerge/internal/utils"
	"github.com/osokin/repomerge/internal/workspace"
)

const (
	sourceHeaderFormat           = "// Source: %s\n"
	sourceHeaderWithBranchFormat = "// Source: %s (branch: %s)\n"
	mergedOnHeaderFormat         = "// Merged on: %s\n"
	fileMarkerFormat             = "\n// File: %s\n"
	binaryPlaceholderFormat      = "[binary file omitted: %s]"

	errorInvalidGlobFormat = "invalid include glob %q: %w"
	errorCloneFormat       = "cloning %s: %w"
	errorWriteFormat       = "writing merge artifact %s: %w"
)

// ErrEmptyResult indicates no files survived filtering; no artifact is written.
var ErrEmptyResult = errors.New("no files matched the configured filters")

// Cloner is the subset of git operations the merger depends on.
type Cloner interface {
	Clone(executionContext context.Context, url string, destination string, branch string) error
}

// Result summarizes a successful merge.
type Result struct {
	RepositoryName string
	OutputPath     string
	FileCount      int
	TotalBytes     int64
	Content        string
}

// Merger clones a repository into a transient workspace and assembles the
// merge artifact. The workspace is released on every path, success or failure.
type Merger struct {
	workspaces *workspace.Manager
	cloner     Cloner
	logger     *zap.Logger
	now        func() time.Time
}

// NewMerger constructs a Merger using the provided workspace manager and cloner.
func NewMerger(workspaces *workspace.Manager, cloner Cloner, logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{
		workspaces: workspaces,
		cloner:     cloner,
		logger:     logger,
		now:        time.Now,
	}
}

// Run clones url at configuration.Branch (the default branch when empty),
// assembles the artifact, and writes it to configuration.OutputPath. The
// artifact is written at most once, and only when at least one file qualifies.
// Progress events are emitted on events when non-nil.
func (merger *Merger) Run(executionContext context.Context, url string, configuration types.MergeConfig, events chan<- Event) (Result, error) {
	includeGlobs, globError := compileIncludeGlobs(configuration.IncludeGlobs)
	if globError != nil {
		return Result{}, globError
	}

	allocated, allocateError := merger.workspaces.Allocate()
	if allocateError != nil {
		return Result{}, allocateError
	}
	defer merger.workspaces.Release(allocated)

	emit(executionContext, events, Event{Kind: EventKindStart, Path: url})

	if cloneError := merger.cloner.Clone(executionContext, url, allocated.Path, configuration.Branch); cloneError != nil {
		return Result{}, fmt.Errorf(errorCloneFormat, url, cloneError)
	}

	repositoryName := gitrepo.RepositoryNameFromURL(url)
	builder := &tree.Builder{
		ExcludeDirs:       configuration.ExcludeDirs,
		IncludeExtensions: configuration.IncludeExtensions,
		IncludeGlobs:      includeGlobs,
		Ignore:            loadCloneGitignore(allocated.Path, configuration.UseGitignore),
	}

	rootNode, buildError := builder.Build(allocated.Path, repositoryName)
	if buildError != nil {
		return Result{}, buildError
	}
	if len(rootNode.Children) == 0 {
		return Result{}, ErrEmptyResult
	}

	var artifact strings.Builder
	merger.writeHeader(&artifact, url, configuration.Branch, rootNode)

	fileCount, totalBytes := merger.appendFileContents(executionContext, &artifact, rootNode, allocated.Path, repositoryName, configuration.ExcludeFiles, events)

	content := artifact.String()
	if writeError := os.WriteFile(configuration.OutputPath, []byte(content), 0o644); writeError != nil {
		return Result{}, fmt.Errorf(errorWriteFormat, configuration.OutputPath, writeError)
	}

	emit(executionContext, events, Event{Kind: EventKindDone, Path: configuration.OutputPath, FileCount: fileCount, TotalBytes: totalBytes})
	merger.logger.Debug("merge artifact written",
		zap.String("path", configuration.OutputPath),
		zap.Int("files", fileCount),
		zap.String("size", utils.FormatFileSize(totalBytes)))

	return Result{
		RepositoryName: repositoryName,
		OutputPath:     configuration.OutputPath,
		FileCount:      fileCount,
		TotalBytes:     totalBytes,
		Content:        content,
	}, nil
}

// writeHeader renders the source line, the merge timestamp, and the tree
// diagram wrapped in a block comment.
func (merger *Merger) writeHeader(artifact *strings.Builder, url string, branch string, rootNode *types.TreeNode) {
	if branch != "" {
		fmt.Fprintf(artifact, sourceHeaderWithBranchFormat, url, branch)
	} else {
		fmt.Fprintf(artifact, sourceHeaderFormat, url)
	}
	fmt.Fprintf(artifact, mergedOnHeaderFormat, merger.now().UTC().Format(time.RFC3339))
	artifact.WriteString("\n/*\n")
	artifact.WriteString(tree.Render(rootNode))
	artifact.WriteString("*/\n")
}

// contentFrame is one explicit frame of the content walk over the built tree.
type contentFrame struct {
	node          *types.TreeNode
	directoryPath string
	markerPath    string
	childIndex    int
}

// appendFileContents walks the built tree in its existing order (directories
// before files, lexicographic) and appends a path-marker line plus raw content
// for every file that also passes the exclusion-by-name predicate. Unreadable
// files are skipped. The marker path renames the root segment to the resolved
// repository name.
func (merger *Merger) appendFileContents(
	executionContext context.Context,
	artifact *strings.Builder,
	rootNode *types.TreeNode,
	rootDirectory string,
	repositoryName string,
	excludeFiles map[string]struct{},
	events chan<- Event,
) (int, int64) {
	var fileCount int
	var totalBytes int64

	stack := []*contentFrame{{node: rootNode, directoryPath: rootDirectory, markerPath: repositoryName}}
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		if frame.childIndex >= len(frame.node.Children) {
			stack = stack[:len(stack)-1]
			continue
		}

		child := frame.node.Children[frame.childIndex]
		frame.childIndex++

		childDirectoryPath := filepath.Join(frame.directoryPath, child.Name)
		childMarkerPath := frame.markerPath + "/" + child.Name

		if child.IsDirectory() {
			stack = append(stack, &contentFrame{node: child, directoryPath: childDirectoryPath, markerPath: childMarkerPath})
			continue
		}
		if _, excluded := excludeFiles[child.Name]; excluded {
			continue
		}

		fileData, readError := os.ReadFile(childDirectoryPath)
		if readError != nil {
			merger.logger.Debug("skipping unreadable file", zap.String("path", childDirectoryPath), zap.Error(readError))
			continue
		}

		fmt.Fprintf(artifact, fileMarkerFormat, childMarkerPath)
		if utils.IsBinary(fileData) {
			fmt.Fprintf(artifact, binaryPlaceholderFormat, utils.FormatFileSize(int64(len(fileData))))
			artifact.WriteString("\n")
		} else {
			artifact.Write(fileData)
			artifact.WriteString("\n")
		}

		fileCount++
		totalBytes += int64(len(fileData))
		emit(executionContext, events, Event{Kind: EventKindFile, Path: childMarkerPath, TotalBytes: int64(len(fileData))})
	}

	return fileCount, totalBytes
}

// loadCloneGitignore compiles the clone's .gitignore when enabled. A missing
// or unreadable file simply disables the predicate.
func loadCloneGitignore(cloneDirectory string, enabled bool) *ignore.GitIgnore {
	if !enabled {
		return nil
	}
	compiled, compileError := ignore.CompileIgnoreFile(filepath.Join(cloneDirectory, ".gitignore"))
	if compileError != nil {
		return nil
	}
	return compiled
}

// compileIncludeGlobs compiles path inclusion patterns with / as the separator.
func compileIncludeGlobs(patterns []string) ([]glob.Glob, error) {
	var compiled []glob.Glob
	for _, pattern := range patterns {
		candidate, compileError := glob.Compile(pattern, '/')
		if compileError != nil {
			return nil, fmt.Errorf(errorInvalidGlobFormat, pattern, compileError)
		}
		compiled = append(compiled, candidate)
	}
	return compiled, nil
}

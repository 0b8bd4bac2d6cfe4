// Package workspace manages transient clone directories and guarantees their
// removal on success, failure, and interrupt-driven shutdown.
package workspace

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	// rootDirectoryName is the directory created under the system temp root
	// that holds every workspace of one process.
	rootDirectoryName = "repomerge"

	// workspacePrefix prefixes each allocated workspace directory name.
	workspacePrefix = "clone"

	// randomSuffixBound bounds the random component of workspace names.
	randomSuffixBound = 1_000_000

	// errorCreateRootFormat reports a failure to create the process temp root.
	errorCreateRootFormat = "creating workspace root %s: %w"
	// errorCreateWorkspaceFormat reports a failure to create a workspace directory.
	errorCreateWorkspaceFormat = "creating workspace %s: %w"
)

// Workspace is one process-owned temporary directory holding a cloned repository.
type Workspace struct {
	Path string
}

// Manager allocates and tracks workspaces. Registry mutation is safe against
// re-entrant calls from a signal handler racing a normal-path release:
// deletion is idempotent and removal failures are swallowed.
type Manager struct {
	baseDirectory string
	mutex         sync.Mutex
	registry      map[string]struct{}
	logger        *zap.Logger
	randomSource  *rand.Rand
}

// NewManager constructs a Manager rooted under baseDirectory (the system temp
// directory when empty). The root directory is created idempotently.
func NewManager(baseDirectory string, logger *zap.Logger) (*Manager, error) {
	if baseDirectory == "" {
		baseDirectory = os.TempDir()
	}
	rootPath := filepath.Join(baseDirectory, rootDirectoryName)
	if createError := os.MkdirAll(rootPath, 0o755); createError != nil {
		return nil, fmt.Errorf(errorCreateRootFormat, rootPath, createError)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		baseDirectory: rootPath,
		registry:      make(map[string]struct{}),
		logger:        logger,
		randomSource:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Allocate creates a registered workspace directory with a collision-resistant
// unique suffix combining the current time and a random component.
func (manager *Manager) Allocate() (Workspace, error) {
	manager.mutex.Lock()
	suffix := manager.randomSource.Intn(randomSuffixBound)
	manager.mutex.Unlock()

	directoryName := fmt.Sprintf("%s-%d-%06d", workspacePrefix, time.Now().UnixNano(), suffix)
	workspacePath := filepath.Join(manager.baseDirectory, directoryName)
	if createError := os.MkdirAll(workspacePath, 0o755); createError != nil {
		return Workspace{}, fmt.Errorf(errorCreateWorkspaceFormat, workspacePath, createError)
	}

	manager.mutex.Lock()
	manager.registry[workspacePath] = struct{}{}
	manager.mutex.Unlock()

	return Workspace{Path: workspacePath}, nil
}

// Release deletes the workspace directory tree and unregisters it. Safe to
// call multiple times: releasing an unknown or already-removed workspace is a
// no-op, and deletion failures are suppressed.
func (manager *Manager) Release(target Workspace) {
	manager.mutex.Lock()
	_, registered := manager.registry[target.Path]
	delete(manager.registry, target.Path)
	manager.mutex.Unlock()

	if target.Path == "" {
		return
	}
	if removeError := os.RemoveAll(target.Path); removeError != nil && registered {
		manager.logger.Warn("failed to remove workspace",
			zap.String("path", target.Path),
			zap.Error(removeError))
	}
}

// ReleaseAll releases every registered workspace. Invoked on interrupt and at
// top-level shutdown. The registry snapshot is taken under the lock so the
// iteration tolerates concurrent releases from the normal path.
func (manager *Manager) ReleaseAll() {
	manager.mutex.Lock()
	paths := make([]string, 0, len(manager.registry))
	for workspacePath := range manager.registry {
		paths = append(paths, workspacePath)
	}
	manager.mutex.Unlock()

	for _, workspacePath := range paths {
		manager.Release(Workspace{Path: workspacePath})
	}
}

// Registered reports whether the workspace path is currently tracked.
func (manager *Manager) Registered(target Workspace) bool {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	_, registered := manager.registry[target.Path]
	return registered
}

// InstallInterruptHandler registers a SIGINT/SIGTERM handler that releases
// every workspace and terminates the process with a zero exit status.
// Interrupt-driven shutdown is graceful, not a failure report.
func (manager *Manager) InstallInterruptHandler() {
	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChannel
		manager.logger.Info("interrupted, cleaning up workspaces")
		manager.ReleaseAll()
		os.Exit(0)
	}()
}

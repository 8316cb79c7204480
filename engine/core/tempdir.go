package core

import (
	"fmt"
	"sync"

	"github.com/spf13/afero"
)

// TempDir owns the scratch space a single compilation run uses to stage
// stand-alone source bundles before they are embedded into an Application's
// details. It is created lazily on first use and removed on Close. TempDir
// does not register Close as a shutdown action itself; RegisterShutdown is
// the hook that runs such actions at shutdown.
type TempDir struct {
	fs   afero.Fs
	root string
	mu   sync.Mutex
}

// NewTempDir returns a TempDir backed by fs. Passing an in-memory
// afero.NewMemMapFs lets tests exercise the compiler without touching disk.
func NewTempDir(fs afero.Fs) *TempDir {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &TempDir{fs: fs}
}

// Dir returns the root scratch directory, creating it on first call.
func (t *TempDir) Dir() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root != "" {
		return t.root, nil
	}
	root, err := afero.TempDir(t.fs, "", "wfc-compile-")
	if err != nil {
		return "", fmt.Errorf("failed to create compilation temp dir: %w", err)
	}
	t.root = root
	return t.root, nil
}

// Close removes the scratch directory if it was ever created. Safe to call
// multiple times and safe to call when Dir was never invoked.
func (t *TempDir) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root == "" {
		return nil
	}
	err := t.fs.RemoveAll(t.root)
	t.root = ""
	if err != nil {
		return fmt.Errorf("failed to remove compilation temp dir: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Process-wide shutdown registry
// -----------------------------------------------------------------------------

var (
	shutdownMu      sync.Mutex
	shutdownActions []func()
)

// RegisterShutdown records fn to run when RunShutdown is called. Compilers
// register their TempDir.Close here so the scratch directory is removed on
// every exit path, including errors, per the shared-resource rule in §5.
func RegisterShutdown(fn func()) {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	shutdownActions = append(shutdownActions, fn)
}

// RunShutdown executes every registered shutdown action in LIFO order and
// clears the registry. It never panics: a failing action is skipped.
func RunShutdown() {
	shutdownMu.Lock()
	actions := shutdownActions
	shutdownActions = nil
	shutdownMu.Unlock()
	for i := len(actions) - 1; i >= 0; i-- {
		func() {
			defer func() { _ = recover() }()
			actions[i]()
		}()
	}
}

package git

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// CommandRunner abstracts process execution so clone behavior is testable
// without a network.
type CommandRunner interface {
	Run(dir string, name string, args ...string) error
	Output(dir string, name string, args ...string) ([]byte, error)
}

// RealCommandRunner executes commands with os/exec.
type RealCommandRunner struct {
	Verbose bool
}

// Run executes a command in dir, inheriting stderr.
func (r *RealCommandRunner) Run(dir string, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stderr = os.Stderr
	if r.Verbose {
		cmd.Stdout = os.Stdout
	}
	return cmd.Run()
}

// Output executes a command in dir and returns its stdout.
func (r *RealCommandRunner) Output(dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	return cmd.Output()
}

// CloneManager ensures local working copies of remote repositories exist.
type CloneManager struct {
	Verbose bool
	runner  CommandRunner
}

// NewCloneManager creates a CloneManager with default settings.
func NewCloneManager(verbose bool) *CloneManager {
	return &CloneManager{
		Verbose: verbose,
		runner:  &RealCommandRunner{Verbose: verbose},
	}
}

// NewCloneManagerWithRunner creates a CloneManager with a custom
// CommandRunner (for testing).
func NewCloneManagerWithRunner(verbose bool, runner CommandRunner) *CloneManager {
	return &CloneManager{Verbose: verbose, runner: runner}
}

// Clone ensures root/<name> contains a clone of url and returns its path.
// It is idempotent: when the target directory already exists it is
// returned as-is without touching the network.
func (cm *CloneManager) Clone(url, name, root string) (string, error) {
	if url == "" || name == "" {
		return "", errors.New("clone requires a URL and a repository name")
	}

	repoPath := filepath.Join(root, name)
	if _, err := os.Stat(repoPath); err == nil {
		if cm.Verbose {
			fmt.Printf("Repository already exists at %s\n", repoPath)
		}
		return repoPath, nil
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create clone root %s", root)
	}

	if cm.Verbose {
		fmt.Printf("Cloning %s to %s...\n", url, repoPath)
	}
	if err := cm.runner.Run(root, "git", "clone", url, name); err != nil {
		return "", errors.Wrapf(err, "git clone failed for %s", url)
	}

	return repoPath, nil
}

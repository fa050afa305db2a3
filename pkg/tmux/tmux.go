// Package tmux creates and attaches tmux sessions for selected entries.
package tmux

import (
	"os"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
)

// Runner abstracts tmux invocation so session logic is testable.
type Runner interface {
	Run(name string, args ...string) error
	Output(name string, args ...string) ([]byte, error)
	RunInteractive(name string, args ...string) error
}

// execRunner runs real tmux commands.
type execRunner struct{}

func (execRunner) Run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (execRunner) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

func (execRunner) RunInteractive(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// SessionManager creates and attaches sessions.
type SessionManager struct {
	Prefix string
	runner Runner
	inTmux func() bool
}

// NewSessionManager creates a manager with the given session name prefix.
func NewSessionManager(prefix string) *SessionManager {
	return &SessionManager{
		Prefix: prefix,
		runner: execRunner{},
		inTmux: func() bool { return os.Getenv("TMUX") != "" },
	}
}

// NewSessionManagerWithRunner creates a manager with a custom runner (for
// testing).
func NewSessionManagerWithRunner(prefix string, runner Runner, inTmux func() bool) *SessionManager {
	return &SessionManager{Prefix: prefix, runner: runner, inTmux: inTmux}
}

// SessionName derives the tmux session name for an entry name. tmux
// forbids "." and ":" in session names.
func (m *SessionManager) SessionName(name string) string {
	sanitized := strings.NewReplacer(".", "_", ":", "_").Replace(name)
	if m.Prefix != "" {
		return m.Prefix + sanitized
	}
	return sanitized
}

// Has reports whether a session with the given name exists.
func (m *SessionManager) Has(session string) bool {
	return m.runner.Run("tmux", "has-session", "-t", "="+session) == nil
}

// Open ensures a session named for name exists rooted at dir, then
// attaches to it: switch-client when already inside tmux, attach-session
// otherwise.
func (m *SessionManager) Open(name, dir string) error {
	session := m.SessionName(name)

	if !m.Has(session) {
		if err := m.runner.Run("tmux", "new-session", "-d", "-s", session, "-c", dir); err != nil {
			return errors.Wrapf(err, "failed to create session %s", session)
		}
	}

	if m.inTmux() {
		if err := m.runner.Run("tmux", "switch-client", "-t", session); err != nil {
			return errors.Wrapf(err, "failed to switch to session %s", session)
		}
		return nil
	}

	if err := m.runner.RunInteractive("tmux", "attach-session", "-t", session); err != nil {
		return errors.Wrapf(err, "failed to attach to session %s", session)
	}
	return nil
}

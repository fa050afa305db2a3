// Package ui runs the interactive picker on top of fzf.
package ui

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/alisonjenkins/tmux-sessionizer/pkg/discovery"
)

var (
	// ErrCancelled is returned when the user cancels the selection
	ErrCancelled = errors.New("selection cancelled")
	// ErrNoEntries is returned when the stream finished with nothing to select
	ErrNoEntries = errors.New("no entries found")
)

// pollInterval is how often new stream entries are forwarded to fzf.
const pollInterval = 50 * time.Millisecond

// fzfBinary is resolved through PATH; swapped out in tests.
var fzfBinary = "fzf"

// Options configures the picker.
type Options struct {
	DisplayFullPath bool
	Prompt          string
	// ExpectKeys are forwarded to fzf --expect; pressing one ends the
	// picker and reports the key in the Selection.
	ExpectKeys []string
}

// Selection is the outcome of one picker run.
type Selection struct {
	Entry *discovery.Entry // nil when a key alone ended the picker
	Key   string           // the ExpectKeys entry that was pressed, if any
}

// IsInteractive reports whether stdout is a terminal. Without one the
// picker cannot run.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// SelectEntry runs fzf against a live stream: entries are forwarded as
// they are discovered, so the user can pick before the scan finishes.
// The stream is left running when fzf exits, so a selection made
// mid-scan still lets the producer drain and persist its snapshot;
// abandoning the run (mode switch, refresh) is the caller's cancel.
func SelectEntry(stream *discovery.Stream, opts Options) (*Selection, error) {
	fzfPath, err := exec.LookPath(fzfBinary)
	if err != nil {
		return nil, fmt.Errorf("fzf not found in PATH: %w", err)
	}

	pr, pw := io.Pipe()

	// Forward entries until the producer finishes, then close fzf's stdin
	// so it can tell "no more results coming" apart from "still searching".
	go func() {
		defer pw.Close()
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if !writeEntries(pw, stream.Drain(), opts.DisplayFullPath) {
					return
				}
			case <-stream.Done():
				// Final drain so nothing published right before Done is lost.
				writeEntries(pw, stream.Drain(), opts.DisplayFullPath)
				return
			}
		}
	}()

	args := []string{
		"--height=40%",
		"--layout=reverse",
		"--delimiter=\t",
		"--with-nth=1",
		"--cycle",
	}
	if opts.Prompt != "" {
		args = append(args, "--prompt="+opts.Prompt)
	}
	expectKeys := make([]string, 0, len(opts.ExpectKeys))
	for _, k := range opts.ExpectKeys {
		if k != "" {
			expectKeys = append(expectKeys, k)
		}
	}
	if len(expectKeys) > 0 {
		args = append(args, "--expect="+strings.Join(expectKeys, ","))
	}

	// #nosec G204 - fzf binary is looked up in PATH, no user-controlled arguments are passed directly
	cmd := exec.Command(fzfPath, args...)
	cmd.Stdin = pr
	cmd.Stderr = os.Stderr // fzf uses stderr for UI rendering
	var output bytes.Buffer
	cmd.Stdout = &output

	runErr := cmd.Run()

	// Closing the pipe stops the forwarding goroutine on its next write;
	// the stream itself keeps running.
	_ = pr.Close()

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			switch exitErr.ExitCode() {
			case 130:
				// fzf returns 130 on cancellation (ESC, Ctrl-C, Ctrl-G)
				return nil, ErrCancelled
			case 1:
				// No match for the query, or an empty list.
				return nil, ErrNoEntries
			}
		}
		return nil, fmt.Errorf("fzf failed: %w", runErr)
	}

	return parseOutput(stream.All(), output.String(), len(expectKeys) > 0)
}

// parseOutput interprets fzf's stdout. With --expect the first line is
// the key that ended the picker (empty for plain enter) and the second is
// the selection.
func parseOutput(entries []discovery.Entry, raw string, expectKeys bool) (*Selection, error) {
	var key, line string
	if expectKeys {
		parts := strings.SplitN(strings.TrimRight(raw, "\n"), "\n", 2)
		key = strings.TrimSpace(parts[0])
		if len(parts) > 1 {
			line = parts[1]
		}
	} else {
		line = raw
	}

	if strings.TrimSpace(line) == "" {
		if key != "" {
			return &Selection{Key: key}, nil
		}
		return nil, ErrCancelled
	}

	entry, err := matchSelection(entries, line)
	if err != nil {
		return nil, err
	}
	return &Selection{Entry: entry, Key: key}, nil
}

// writeEntries appends formatted entries to the pipe. It reports false on
// a write error, which means fzf has exited.
func writeEntries(w io.Writer, entries []discovery.Entry, fullPath bool) bool {
	if len(entries) == 0 {
		return true
	}
	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteString(formatEntry(e, fullPath))
		buf.WriteByte('\n')
	}
	_, err := w.Write(buf.Bytes())
	return err == nil
}

// formatEntry renders one fzf input line: display label, then the
// canonical path as a hidden match key.
func formatEntry(e discovery.Entry, fullPath bool) string {
	label := e.Name
	if fullPath {
		label = e.Path
	}
	if e.Origin == discovery.OriginBookmark {
		label += " *"
	}
	return label + "\t" + e.Path
}

// matchSelection maps fzf's output line back to the entry it came from.
func matchSelection(entries []discovery.Entry, selected string) (*discovery.Entry, error) {
	line := strings.TrimSpace(selected)
	if line == "" {
		return nil, ErrCancelled
	}

	parts := strings.Split(line, "\t")
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid selection output: %q", line)
	}
	path := parts[len(parts)-1]

	for i := range entries {
		if entries[i].Path == path {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("selected path %q not found in result set", path)
}

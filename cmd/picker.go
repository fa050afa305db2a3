package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alisonjenkins/tmux-sessionizer/pkg/config"
	"github.com/alisonjenkins/tmux-sessionizer/pkg/discovery"
	tmserrors "github.com/alisonjenkins/tmux-sessionizer/pkg/errors"
	"github.com/alisonjenkins/tmux-sessionizer/pkg/git"
	"github.com/alisonjenkins/tmux-sessionizer/pkg/github"
	"github.com/alisonjenkins/tmux-sessionizer/pkg/state"
	"github.com/alisonjenkins/tmux-sessionizer/pkg/tmux"
	"github.com/alisonjenkins/tmux-sessionizer/pkg/ui"
)

// runPicker is the main flow: start discovery for the active mode, run
// the picker against the live stream, then attach (cloning first for
// remote entries). The switch-mode and refresh keys loop back into a new
// discovery run; the engine cancels the abandoned one.
func runPicker(cmd *cobra.Command, profileFlag string, refresh bool) error {
	cfg := appConfig
	if cfg == nil {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
	}

	if !ui.IsInteractive() {
		return errors.New("tms requires an interactive terminal")
	}

	states, err := state.NewManager()
	if err != nil {
		return err
	}
	appState := states.Load()

	mode := appState.ActiveProfile
	if profileFlag != "" {
		mode = profileFlag
	}
	// A persisted profile that has since been removed from config falls
	// back to local rather than failing the run.
	if mode != state.LocalProfile && cfg.Profile(mode) == nil {
		slog.Warn("unknown profile, falling back to local", "profile", mode)
		mode = state.LocalProfile
	}

	localCache := discovery.NewLocalCache(states.LocalCachePath(), cfg.LocalTTL())
	remote := github.NewSource(cfg, states.GitHubCachePath)
	engine := discovery.NewEngine(cfg, localCache, remote, slog.Default())

	ctx := cmd.Context()
	switchKey := cfg.Picker.SwitchModeKey
	refreshKey := cfg.Picker.RefreshKey

	for {
		stream, err := engine.Start(ctx, mode, refresh)
		if err != nil {
			return err
		}
		refresh = false

		sel, err := ui.SelectEntry(stream, ui.Options{
			DisplayFullPath: cfg.DisplayFullPath,
			Prompt:          mode + "> ",
			ExpectKeys:      []string{switchKey, refreshKey},
		})
		switch {
		case errors.Is(err, ui.ErrCancelled):
			return nil
		case errors.Is(err, ui.ErrNoEntries):
			if streamErr := stream.Err(); streamErr != nil && !tmserrors.IsCancelled(streamErr) {
				return streamErr
			}
			fmt.Fprintln(os.Stderr, "No entries found. Check search_dirs in your config.")
			return nil
		case err != nil:
			return err
		}

		if sel.Key != "" {
			switch sel.Key {
			case switchKey:
				mode = nextMode(cfg, mode)
			case refreshKey:
				refresh = true
			}
			continue
		}

		appState.ActiveProfile = mode
		if err := states.Save(appState); err != nil {
			slog.Warn("failed to persist active profile", "error", err)
		}

		return attach(cfg, sel.Entry)
	}
}

// nextMode cycles local -> profile1 -> ... -> profileN -> local.
func nextMode(cfg *config.Config, current string) string {
	modes := []string{state.LocalProfile}
	for _, p := range cfg.GitHubProfiles {
		modes = append(modes, p.Name)
	}
	for i, m := range modes {
		if m == current {
			return modes[(i+1)%len(modes)]
		}
	}
	return state.LocalProfile
}

// attach opens a tmux session for the entry. Remote entries are cloned
// into the profile's clone root first; the clone is a no-op when the
// working copy already exists.
func attach(cfg *config.Config, entry *discovery.Entry) error {
	dir := entry.Path

	if entry.Origin != discovery.OriginLocal && entry.Origin != discovery.OriginBookmark {
		profile := cfg.Profile(entry.Origin)
		if profile == nil {
			return tmserrors.NewConfigError("github_profiles", "unknown profile "+entry.Origin)
		}
		root, err := config.ExpandPath(profile.CloneRootPath)
		if err != nil {
			return err
		}

		cm := git.NewCloneManager(verbose)
		dir, err = cm.Clone(entry.Path, entry.Name, root)
		if err != nil {
			return err
		}
	}

	sm := tmux.NewSessionManager(cfg.Tmux.SessionPrefix)
	return sm.Open(entry.Name, dir)
}

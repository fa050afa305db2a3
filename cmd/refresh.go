package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alisonjenkins/tmux-sessionizer/pkg/config"
	"github.com/alisonjenkins/tmux-sessionizer/pkg/discovery"
	"github.com/alisonjenkins/tmux-sessionizer/pkg/github"
	"github.com/alisonjenkins/tmux-sessionizer/pkg/state"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh [profile...]",
	Short: "Invalidate cached results",
	Long: `Without arguments, invalidates the local scan snapshot and every
profile's repository cache. With profile names, invalidates only those
profiles. The next picker run rebuilds whatever was invalidated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		states, err := state.NewManager()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			local := discovery.NewLocalCache(states.LocalCachePath(), cfg.LocalTTL())
			if err := local.Invalidate(); err != nil {
				return err
			}
			fmt.Println("Invalidated local scan cache")

			for _, p := range cfg.GitHubProfiles {
				args = append(args, p.Name)
			}
		}

		source := github.NewSource(cfg, states.GitHubCachePath)
		for _, name := range args {
			if cfg.Profile(name) == nil {
				return fmt.Errorf("unknown profile %q", name)
			}
			if err := source.Invalidate(name); err != nil {
				return err
			}
			fmt.Printf("Invalidated cache for profile %s\n", name)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alisonjenkins/tmux-sessionizer/pkg/config"
)

var bookmarkCmd = &cobra.Command{
	Use:   "bookmark",
	Short: "Manage bookmarked directories",
	Long: `Bookmarks are directories that always appear in the picker, whether or
not they are repositories. Without a path argument the current working
directory is bookmarked.`,
}

var bookmarkAddCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Add a bookmark (default: current directory)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		path, err := bookmarkTarget(args)
		if err != nil {
			return err
		}

		cfg.AddBookmark(path)
		if err := cfg.Save(cfgFile); err != nil {
			return err
		}
		fmt.Printf("Bookmarked %s\n", path)
		return nil
	},
}

var bookmarkDeleteCmd = &cobra.Command{
	Use:     "delete [path]",
	Aliases: []string{"rm"},
	Short:   "Remove a bookmark (default: current directory)",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		path, err := bookmarkTarget(args)
		if err != nil {
			return err
		}

		if !cfg.DeleteBookmark(path) {
			return fmt.Errorf("no bookmark for %s", path)
		}
		if err := cfg.Save(cfgFile); err != nil {
			return err
		}
		fmt.Printf("Removed bookmark %s\n", path)
		return nil
	},
}

var bookmarkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookmarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, b := range cfg.Bookmarks {
			fmt.Println(b)
		}
		return nil
	},
}

// bookmarkTarget resolves the path argument, defaulting to the current
// working directory.
func bookmarkTarget(args []string) (string, error) {
	if len(args) == 1 {
		expanded, err := config.ExpandPath(args[0])
		if err != nil {
			return "", err
		}
		return filepath.Abs(expanded)
	}
	return os.Getwd()
}

func init() {
	bookmarkCmd.AddCommand(bookmarkAddCmd)
	bookmarkCmd.AddCommand(bookmarkDeleteCmd)
	bookmarkCmd.AddCommand(bookmarkListCmd)
	rootCmd.AddCommand(bookmarkCmd)
}

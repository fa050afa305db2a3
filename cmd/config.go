package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alisonjenkins/tmux-sessionizer/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the tms configuration",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			fmt.Println(cfgFile)
			return nil
		}
		path, err := config.DefaultPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var searchDirDepth int

var configAddDirCmd = &cobra.Command{
	Use:   "add-dir <path>",
	Short: "Add a search directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, d := range cfg.SearchDirs {
			if d.Path == args[0] {
				return fmt.Errorf("%s is already a search directory", args[0])
			}
		}

		cfg.SearchDirs = append(cfg.SearchDirs, config.SearchDir{Path: args[0], Depth: searchDirDepth})
		if err := cfg.Save(cfgFile); err != nil {
			return err
		}
		fmt.Printf("Added search directory %s (depth %d)\n", args[0], searchDirDepth)
		return nil
	},
}

var configRemoveDirCmd = &cobra.Command{
	Use:   "remove-dir <path>",
	Short: "Remove a search directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for i, d := range cfg.SearchDirs {
			if d.Path == args[0] {
				cfg.SearchDirs = append(cfg.SearchDirs[:i], cfg.SearchDirs[i+1:]...)
				if err := cfg.Save(cfgFile); err != nil {
					return err
				}
				fmt.Printf("Removed search directory %s\n", args[0])
				return nil
			}
		}
		return fmt.Errorf("%s is not a search directory", args[0])
	},
}

var configListDirsCmd = &cobra.Command{
	Use:   "list-dirs",
	Short: "List search directories",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, d := range cfg.SearchDirs {
			fmt.Println(d.Path + "\t" + strconv.Itoa(d.Depth))
		}
		return nil
	},
}

func init() {
	configAddDirCmd.Flags().IntVar(&searchDirDepth, "depth", 5, "maximum traversal depth under this directory")

	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configAddDirCmd)
	configCmd.AddCommand(configRemoveDirCmd)
	configCmd.AddCommand(configListDirsCmd)
	rootCmd.AddCommand(configCmd)
}

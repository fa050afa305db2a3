package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alisonjenkins/tmux-sessionizer/pkg/bootstrap"
	"github.com/alisonjenkins/tmux-sessionizer/pkg/config"
)

var cfgFile string
var verbose bool
var appConfig *config.Config

var (
	flagRefresh bool
	flagProfile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tms",
	Short: "tms - jump into a project tmux session",
	Long: `tms scans your configured search directories for repositories, lists
them (plus bookmarks and remote GitHub repositories) in a fuzzy picker,
and drops you into a tmux session rooted at the selection.

Scan results and remote repository lists are cached; use --refresh or the
refresh key inside the picker to bypass the caches.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPicker(cmd, flagProfile, flagRefresh)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	// Pre-parse global flags so config is available before cobra runs.
	cfgFile, verbose = bootstrap.PreParseGlobalFlags(os.Args)

	if err := initConfig(); err != nil {
		cobra.CheckErr(err)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(func() {
		_ = initConfig()
	})

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "C", "", "config file (default is $HOME/.config/tms/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.Flags().BoolVarP(&flagRefresh, "refresh", "r", false, "bypass caches and rescan")
	rootCmd.Flags().StringVarP(&flagProfile, "profile", "p", "", "start in the given profile mode instead of the last used one")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	var err error
	appConfig, verbose, err = bootstrap.InitConfig(cfgFile, verbose)
	setupLogging(verbose)
	return err
}

// setupLogging routes slog to stderr; debug level only with --verbose so
// the picker UI stays clean.
func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// resetConfig clears the cached configuration. Used by tests.
func resetConfig() {
	appConfig = nil
	bootstrap.Reset()
	viper.Reset()
}

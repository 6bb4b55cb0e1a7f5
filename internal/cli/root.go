package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/promptreg/internal/branding"
	"github.com/agentx-labs/promptreg/internal/config"
	"github.com/agentx-labs/promptreg/internal/updater"
	"github.com/agentx-labs/promptreg/internal/userdata"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	flagConfigDir   string
	flagLogLevel    string
	flagInstallRoot string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` indexes catalogs of AI workflow artifacts (chat modes, instructions,
prompts, tasks, profiles) published as JSON manifests in git repositories, and
installs them with their dependencies into a project tree.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configDir())
		level := flagLogLevel
		if level == "" && err == nil {
			level = cfg.LogLevel
		}
		setupLogging(level)

		// Skip banners for commands that report updates themselves.
		switch cmd.Name() {
		case "update", "outdated", "version", "watch", "validate", "touch":
			return
		}
		if err != nil {
			return
		}
		dataDir, err := userdata.DataDir(cfg.DataDir)
		if err != nil {
			return
		}
		// Non-blocking banner from the cached update check.
		updater.PrintBanner(os.Stderr, userdata.CachePath(dataDir))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "Configuration directory (default ~/"+branding.HomeDir()+")")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagInstallRoot, "install-root", "", "Workspace to install artifacts into (default: current directory)")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	err := rootCmd.Execute()
	if err != nil {
		rootCmd.PrintErrln("Error:", err)
	}
	return err
}

func configDir() string {
	if flagConfigDir != "" {
		return flagConfigDir
	}
	return config.Dir()
}

// setupLogging installs a text handler on stderr at the given level.
func setupLogging(level string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(level)})))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("Invalid log level, using INFO", "value", level)
		return slog.LevelInfo
	}
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/promptreg/internal/auth"
	"github.com/agentx-labs/promptreg/internal/branding"
	"github.com/agentx-labs/promptreg/internal/catalog"
	"github.com/agentx-labs/promptreg/internal/config"
	"github.com/agentx-labs/promptreg/internal/store"
)

var (
	catalogAddDisabled bool
	catalogAddAuth     config.AuthConfig
	catalogListJSON    bool
)

func init() {
	catalogAddCmd.Flags().BoolVar(&catalogAddDisabled, "disabled", false, "Register the catalog without enabling it")
	catalogAddCmd.Flags().StringVar(&catalogAddAuth.Type, "auth", "", "Authentication type (none, bearer, basic, env, keyring)")
	catalogAddCmd.Flags().StringVar(&catalogAddAuth.Token, "token", "", "Bearer token")
	catalogAddCmd.Flags().StringVar(&catalogAddAuth.Username, "username", "", "Basic auth username")
	catalogAddCmd.Flags().StringVar(&catalogAddAuth.Password, "password", "", "Basic auth password")
	catalogAddCmd.Flags().StringVar(&catalogAddAuth.EnvVar, "env-var", "", "Environment variable holding the token (env auth)")
	catalogListCmd.Flags().BoolVar(&catalogListJSON, "json", false, "Output in JSON format")

	catalogCmd.AddCommand(catalogAddCmd)
	catalogCmd.AddCommand(catalogRemoveCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogRefreshCmd)
	catalogCmd.AddCommand(catalogEnableCmd)
	catalogCmd.AddCommand(catalogDisableCmd)
	catalogCmd.AddCommand(catalogStatusCmd)
	catalogCmd.AddCommand(catalogLoginCmd)
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage artifact catalogs",
	Long: `Manage the catalogs artifacts are installed from.

A catalog is a JSON manifest published in a git repository. Catalogs are
configured in ~/` + branding.HomeDir() + `/config.yaml and indexed into a local store for search.`,
}

var catalogAddCmd = &cobra.Command{
	Use:   "add <id> <url>",
	Short: "Register a catalog and index it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		cc := config.CatalogConfig{ID: args[0], URL: args[1], Enabled: !catalogAddDisabled}
		if catalogAddAuth.Type != "" && catalogAddAuth.Type != config.AuthNone {
			authCfg := catalogAddAuth
			cc.Auth = &authCfg
		}

		addErr := a.catalogs.Add(cmd.Context(), cc)
		var conflict *store.ConflictError
		if errors.Is(addErr, config.ErrCatalogExists) || errors.As(addErr, &conflict) {
			return addErr
		}
		// The catalog stays registered when its first refresh fails.
		if err := a.saveConfig(); err != nil {
			return err
		}
		if addErr != nil {
			return fmt.Errorf("catalog %s added but indexing failed: %w", cc.ID, addErr)
		}

		n, err := a.store.CountArtifacts(cmd.Context(), cc.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added catalog %s (%d artifacts).\n", cc.ID, n)
		return nil
	},
}

var catalogRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Unregister a catalog",
	Long: `Unregister a catalog. Its indexed artifacts and installation records are
removed; installed files stay on disk.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.catalogs.Remove(cmd.Context(), args[0]); err != nil {
			return err
		}
		if err := a.saveConfig(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed catalog %s.\n", args[0])
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered catalogs",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		summaries, err := a.catalogs.List(cmd.Context())
		if err != nil {
			return err
		}
		if catalogListJSON {
			data, err := json.MarshalIndent(summaries, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}
		if len(summaries) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No catalogs registered. Run '%s catalog add <id> <url>'.\n", branding.CLIName())
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tENABLED\tSTATUS\tARTIFACTS\tINSTALLED\tLAST FETCHED")
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%t\t%s\t%d\t%d\t%s\n",
				s.ID, s.Enabled, s.Status, s.Artifacts, s.Installations, formatFetched(s.LastFetched))
		}
		return w.Flush()
	},
}

var catalogRefreshCmd = &cobra.Command{
	Use:   "refresh [id]",
	Short: "Re-fetch and re-index catalogs",
	Long:  `Re-fetch one catalog, or every enabled catalog when no id is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			if err := a.catalogs.Refresh(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Refreshed %s.\n", args[0])
		} else {
			result := a.catalogs.RefreshAll(cmd.Context())
			printSweep(cmd, result)
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d catalog(s) failed to refresh", len(result.Failed))
			}
		}

		if _, err := a.checkUpdates(cmd.Context()); err != nil {
			a.logger.Warn("Update check failed", "error", err)
		}
		return nil
	},
}

var catalogEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable a catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCatalogEnabled(cmd, args[0], true)
	},
}

var catalogDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a catalog",
	Long:  `Disable a catalog. Its artifacts are hidden from search, dependency lookup and update checks.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCatalogEnabled(cmd, args[0], false)
	},
}

func setCatalogEnabled(cmd *cobra.Command, id string, enabled bool) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.catalogs.SetEnabled(cmd.Context(), id, enabled); err != nil {
		return err
	}
	if err := a.saveConfig(); err != nil {
		return err
	}
	state := "Disabled"
	if enabled {
		state = "Enabled"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s catalog %s.\n", state, id)
	return nil
}

var catalogStatusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Show catalog status and metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.store.GetCatalog(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		n, err := a.store.CountArtifacts(cmd.Context(), c.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:           %s\n", c.ID)
		fmt.Fprintf(out, "URL:          %s\n", c.URL)
		fmt.Fprintf(out, "Enabled:      %t\n", c.Enabled)
		if c.Metadata.Name != "" {
			fmt.Fprintf(out, "Name:         %s\n", c.Metadata.Name)
		}
		if c.Metadata.Repository.URL != "" {
			fmt.Fprintf(out, "Repository:   %s (%s)\n", c.Metadata.Repository.URL, c.Metadata.Repository.Type)
		}
		fmt.Fprintf(out, "Artifacts:    %d\n", n)
		fmt.Fprintf(out, "Last fetched: %s\n", formatFetched(c.LastFetched))

		switch {
		case c.Status == store.StatusError && c.Error != nil:
			fmt.Fprintf(out, "Status:       error (%s)\n", *c.Error)
		case a.catalogs.IsStale(*c, catalog.DefaultMaxAge):
			fmt.Fprintf(out, "Status:       stale (run '%s catalog refresh %s')\n", branding.CLIName(), c.ID)
		default:
			fmt.Fprintf(out, "Status:       %s\n", c.Status)
		}
		return nil
	},
}

var catalogLoginCmd = &cobra.Command{
	Use:   "login <id>",
	Short: "Store a catalog token in the OS keychain",
	Long: `Read a token from standard input, store it in the OS keychain and switch
the catalog to keyring authentication.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := configDir()
		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}
		cc, ok := cfg.Catalog(args[0])
		if !ok {
			return fmt.Errorf("catalog %s is not configured", args[0])
		}

		token, err := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).ask("Token: ")
		if err != nil {
			return fmt.Errorf("reading token: %w", err)
		}
		if token == "" {
			return errors.New("empty token")
		}
		if err := auth.StoreKeyring(cc.ID, token); err != nil {
			return err
		}
		cc.Auth = &config.AuthConfig{Type: config.AuthKeyring}
		if err := config.Save(dir, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored token for %s in the keychain.\n", cc.ID)
		return nil
	},
}

func printSweep(cmd *cobra.Command, result *catalog.SweepResult) {
	out := cmd.OutOrStdout()
	for _, id := range result.Refreshed {
		fmt.Fprintf(out, "  ✓ %s\n", id)
	}
	failed := make([]string, 0, len(result.Failed))
	for id := range result.Failed {
		failed = append(failed, id)
	}
	sort.Strings(failed)
	for _, id := range failed {
		fmt.Fprintf(out, "  ✗ %s: %v\n", id, result.Failed[id])
	}
}

func formatFetched(t *time.Time) string {
	if t == nil {
		return "never"
	}
	age := time.Since(*t).Truncate(time.Minute)
	return fmt.Sprintf("%s (%s ago)", t.Local().Format(time.RFC3339), age)
}

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/promptreg/internal/catalog"
	"github.com/agentx-labs/promptreg/internal/config"
	"github.com/agentx-labs/promptreg/internal/platform"
	"github.com/agentx-labs/promptreg/internal/store"
	"github.com/agentx-labs/promptreg/internal/userdata"
)

var doctorFix bool

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Repair permissions and drop installation records whose files are gone")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for the local catalog store and installations",
	Long: `Run diagnostic checks on the configuration, the data directory, the
catalog store, registered catalogs and installed artifacts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		problems := checkConfig(out, configDir(), doctorFix)

		cfg, err := config.Load(configDir())
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		dataDir, err := userdata.DataDir(cfg.DataDir)
		if err != nil {
			return err
		}
		problems += userdata.CheckDataDir(out, dataDir, doctorFix)

		a, err := openApp(cmd.Context())
		if err != nil {
			fmt.Fprintf(out, "  [FAIL] Could not open store: %v\n", err)
			return fmt.Errorf("%d problem(s) found", problems+1)
		}
		defer a.Close()

		problems += checkSchema(cmd, a)
		problems += checkCatalogs(cmd, a)
		problems += checkInstallations(cmd, a, doctorFix)

		if problems > 0 {
			return fmt.Errorf("%d problem(s) found", problems)
		}
		fmt.Fprintln(out, "\nNo problems found.")
		return nil
	},
}

func checkConfig(w io.Writer, dir string, fix bool) int {
	fmt.Fprintln(w, "Config check:")
	path := config.FilePath(dir)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(w, "  [INFO] %s does not exist (defaults in use)\n", path)
		return 0
	}
	if _, err := config.Load(dir); err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return 1
	}
	fmt.Fprintf(w, "  [ OK ] %s parses\n", path)

	// Both files can hold catalog credentials.
	problems := userdata.CheckSecretFile(w, path, fix)
	problems += userdata.CheckSecretFile(w, filepath.Join(dir, userdata.EnvFile), fix)
	return problems
}

func checkSchema(cmd *cobra.Command, a *app) int {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Store check:")
	v, err := a.store.SchemaVersion(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] Reading schema version: %v\n", err)
		return 1
	}
	if latest := store.LatestSchemaVersion(); v != latest {
		fmt.Fprintf(out, "  [FAIL] Schema version %d, expected %d\n", v, latest)
		return 1
	}
	fmt.Fprintf(out, "  [ OK ] Schema version %d\n", v)
	return 0
}

func checkCatalogs(cmd *cobra.Command, a *app) int {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Catalogs check:")
	catalogs, err := a.store.ListCatalogs(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] Listing catalogs: %v\n", err)
		return 1
	}
	if len(catalogs) == 0 {
		fmt.Fprintln(out, "  [INFO] No catalogs registered")
		return 0
	}

	problems := 0
	for _, c := range catalogs {
		switch {
		case !c.Enabled:
			fmt.Fprintf(out, "  [INFO] %s: disabled\n", c.ID)
		case c.Status == store.StatusError:
			msg := "unknown error"
			if c.Error != nil {
				msg = *c.Error
			}
			fmt.Fprintf(out, "  [FAIL] %s: %s\n", c.ID, msg)
			problems++
		case a.catalogs.IsStale(c, catalog.DefaultMaxAge):
			fmt.Fprintf(out, "  [WARN] %s: stale, last fetched %s\n", c.ID, formatFetched(c.LastFetched))
		default:
			fmt.Fprintf(out, "  [ OK ] %s\n", c.ID)
		}
	}
	return problems
}

func checkInstallations(cmd *cobra.Command, a *app, fix bool) int {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Installations check:")
	installs, err := a.store.ListInstallations(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] Listing installations: %v\n", err)
		return 1
	}

	problems := 0
	for _, inst := range installs {
		if platform.Exists(platform.OSFS{}, inst.InstalledPath) {
			continue
		}
		fmt.Fprintf(out, "  [MISS] %s: %s is gone\n", inst.Ref(), inst.InstalledPath)
		if !fix {
			problems++
			continue
		}
		if err := a.store.DeleteInstallation(cmd.Context(), inst.CatalogID, inst.ArtifactID); err != nil {
			fmt.Fprintf(out, "  [FAIL] Could not drop record for %s: %v\n", inst.Ref(), err)
			problems++
			continue
		}
		fmt.Fprintf(out, "  [FIX ] Dropped installation record for %s\n", inst.Ref())
	}
	if problems == 0 {
		fmt.Fprintf(out, "  [ OK ] %d installation(s) checked\n", len(installs))
	}
	return problems
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/promptreg/internal/updater"
)

var updateAll bool

func init() {
	updateCmd.Flags().BoolVar(&updateAll, "all", false, "Update every installed artifact with a newer catalog version")
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update [catalog/artifact | artifact]",
	Short: "Update installed artifacts to their catalog version",
	Long: `Re-download installed artifacts whose catalog version differs from the
installed one. The installed file is overwritten in place.

  promptreg update code-review       # update one artifact
  promptreg update --all             # update everything outdated`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !updateAll {
			return errors.New("specify an artifact or use --all")
		}
		if len(args) == 1 && updateAll {
			return errors.New("--all cannot be combined with an artifact")
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			inst, err := a.resolveInstallation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result := a.installer.Update(cmd.Context(), inst.CatalogID, inst.ArtifactID, a.installRoot)
			printResultLine(out, result)
			if _, err := a.checkUpdates(cmd.Context()); err != nil {
				a.logger.Warn("Update check failed", "error", err)
			}
			if !result.Success {
				return result.Err
			}
			return nil
		}

		infos, err := a.checker.Check(cmd.Context(), a.cfg.Catalogs)
		if err != nil {
			return fmt.Errorf("checking for updates: %w", err)
		}
		available := updater.Available(infos)
		if len(available) == 0 {
			fmt.Fprintln(out, "All installed artifacts are up to date.")
			return nil
		}

		fmt.Fprintf(out, "Updating %d artifact(s)...\n", len(available))
		failed := 0
		for _, info := range available {
			inst := info.Installation
			result := a.installer.Update(cmd.Context(), inst.CatalogID, inst.ArtifactID, a.installRoot)
			printResultLine(out, result)
			if !result.Success {
				failed++
			}
		}

		if _, err := a.checkUpdates(cmd.Context()); err != nil {
			a.logger.Warn("Update check failed", "error", err)
		}
		if failed > 0 {
			return fmt.Errorf("%d update(s) failed", failed)
		}
		return nil
	},
}

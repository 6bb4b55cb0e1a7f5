package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/promptreg/internal/registry"
)

var uninstallYes bool

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <catalog/artifact | artifact>",
	Short: "Remove an installed artifact",
	Long: `Remove an installed artifact's files from the workspace and forget its
installation record. Asks for confirmation unless --yes is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runUninstall,
}

func init() {
	uninstallCmd.Flags().BoolVarP(&uninstallYes, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	inst, err := a.resolveInstallation(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	confirm := func() (bool, error) {
		if uninstallYes {
			return true, nil
		}
		return newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).
			confirm(fmt.Sprintf("? Remove %s (%s)?", inst.Ref(), inst.InstalledPath))
	}

	err = a.installer.Uninstall(cmd.Context(), inst.CatalogID, inst.ArtifactID, registry.UninstallOptions{
		InstallRoot: a.installRoot,
		Confirm:     confirm,
	})
	if errors.Is(err, registry.ErrUninstallNotConfirmed) {
		fmt.Fprintln(cmd.OutOrStdout(), "Uninstall cancelled.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", inst.Ref())
	return nil
}

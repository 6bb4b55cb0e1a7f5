package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(touchCmd)
}

// touchCmd is called by editor integrations when an installed artifact is
// used, so `list` can show when it was last used.
var touchCmd = &cobra.Command{
	Use:    "touch <catalog/artifact | artifact>",
	Short:  "Record that an installed artifact was used",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		inst, err := a.resolveInstallation(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return a.store.TouchInstallation(cmd.Context(), inst.CatalogID, inst.ArtifactID, time.Now())
	},
}

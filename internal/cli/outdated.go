package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/promptreg/internal/branding"
	"github.com/agentx-labs/promptreg/internal/updater"
)

var outdatedJSON bool

func init() {
	outdatedCmd.Flags().BoolVar(&outdatedJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(outdatedCmd)
}

var outdatedCmd = &cobra.Command{
	Use:   "outdated",
	Short: "List installed artifacts with a different catalog version",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		infos, err := a.checkUpdates(cmd.Context())
		if err != nil {
			return err
		}
		available := updater.Available(infos)

		if outdatedJSON {
			if available == nil {
				available = []updater.UpdateInfo{}
			}
			data, err := json.MarshalIndent(available, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}

		if len(available) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "All installed artifacts are up to date.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ARTIFACT\tINSTALLED\tLATEST\tNOTE")
		for _, info := range available {
			note := ""
			if info.Downgrade {
				note = "downgrade"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				info.Installation.Ref(), info.Installation.Version, info.LatestVersion, note)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nRun '%s update --all' to update them.\n", branding.CLIName())
		return nil
	},
}

package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <catalog/artifact | artifact>",
	Short: "Show an artifact's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		art, err := a.resolveArtifact(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if showJSON {
			data, err := json.MarshalIndent(art, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s)\n", art.Name, art.Ref())
		fmt.Fprintf(out, "  Type:         %s\n", art.Type)
		fmt.Fprintf(out, "  Version:      %s\n", art.Version)
		fmt.Fprintf(out, "  Category:     %s\n", art.Category)
		fmt.Fprintf(out, "  Description:  %s\n", art.Description)
		if len(art.Tags) > 0 {
			fmt.Fprintf(out, "  Tags:         %s\n", strings.Join(art.Tags, ", "))
		}
		for _, field := range []struct{ label, value string }{
			{"Language", art.Language},
			{"Framework", art.Framework},
			{"Difficulty", art.Difficulty},
			{"Author", art.Author},
		} {
			if field.value != "" {
				fmt.Fprintf(out, "  %-13s %s\n", field.label+":", field.value)
			}
		}
		if art.Rating > 0 || art.Downloads > 0 {
			fmt.Fprintf(out, "  Rating:       %.1f (%d downloads)\n", art.Rating, art.Downloads)
		}
		if len(art.Dependencies) > 0 {
			fmt.Fprintf(out, "  Depends on:   %s\n", strings.Join(art.Dependencies, ", "))
		}
		if len(art.SupportingFiles) > 0 {
			fmt.Fprintf(out, "  Files:        %d supporting\n", len(art.SupportingFiles))
		}
		fmt.Fprintf(out, "  Source:       %s\n", art.SourceURL)

		if inst, err := a.store.GetInstallation(cmd.Context(), art.CatalogID, art.ID); err == nil {
			fmt.Fprintf(out, "  Installed:    %s at %s\n", inst.Version, inst.InstalledPath)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(showCmd)
}

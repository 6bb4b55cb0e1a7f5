package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/promptreg/internal/store"
)

var (
	listTypeFilter    string
	listCatalogFilter string
	listJSON          bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed artifacts",
	Long:  `List all artifacts recorded as installed, across every catalog.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listTypeFilter, "type", "", "Filter by type (chatmode, instructions, prompt, task, profile)")
	listCmd.Flags().StringVar(&listCatalogFilter, "catalog", "", "Filter by catalog id")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry represents an installed artifact for display.
type listEntry struct {
	Ref         string     `json:"ref"`
	Type        string     `json:"type,omitempty"`
	Version     string     `json:"version"`
	Path        string     `json:"path"`
	InstalledAt time.Time  `json:"installedAt"`
	LastUsed    *time.Time `json:"lastUsed,omitempty"`

	// Orphaned is set when the catalog no longer lists the artifact.
	Orphaned bool `json:"orphaned,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	installs, err := a.store.ListInstallations(cmd.Context())
	if err != nil {
		return err
	}

	entries := []listEntry{}
	for _, inst := range installs {
		if listCatalogFilter != "" && inst.CatalogID != listCatalogFilter {
			continue
		}
		entry := listEntry{
			Ref:         inst.Ref(),
			Version:     inst.Version,
			Path:        inst.InstalledPath,
			InstalledAt: inst.InstalledAt,
			LastUsed:    inst.LastUsed,
		}
		art, err := a.store.GetArtifact(cmd.Context(), inst.CatalogID, inst.ArtifactID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			entry.Orphaned = true
		case err != nil:
			return err
		default:
			entry.Type = art.Type
		}
		if listTypeFilter != "" && entry.Type != listTypeFilter {
			continue
		}
		entries = append(entries, entry)
	}

	if listJSON {
		return printListJSON(cmd, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No artifacts installed yet.")
		return nil
	}
	return printListTable(cmd, entries)
}

func printListTable(cmd *cobra.Command, entries []listEntry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TYPE\tARTIFACT\tVERSION\tLAST USED\tPATH")
	for _, e := range entries {
		typ := e.Type
		if e.Orphaned {
			typ = "-"
		}
		lastUsed := "never"
		if e.LastUsed != nil {
			lastUsed = e.LastUsed.Local().Format(time.DateOnly)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", typ, e.Ref, e.Version, lastUsed, e.Path)
	}
	return w.Flush()
}

func printListJSON(cmd *cobra.Command, entries []listEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/promptreg/internal/store"
)

var (
	searchQuery store.SearchQuery
	searchTags  string
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search artifacts across enabled catalogs",
	Long: `Search artifacts (chat modes, instructions, prompts, tasks, profiles) across
all enabled catalogs.

The query is matched as word prefixes against names, descriptions, tags,
keywords and categories. Filters are AND-combined; --tag matches any of the
given tags.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchQuery.Type, "type", "", "Filter by type (chatmode, instructions, prompt, task, profile)")
	f.StringVar(&searchQuery.Language, "language", "", "Filter by language")
	f.StringVar(&searchQuery.Framework, "framework", "", "Filter by framework")
	f.StringVar(&searchQuery.Category, "category", "", "Filter by category")
	f.StringVar(&searchQuery.Difficulty, "difficulty", "", "Filter by difficulty")
	f.StringVar(&searchQuery.CatalogID, "catalog", "", "Only search one catalog")
	f.StringVar(&searchTags, "tag", "", "Filter by tags (comma-separated, matches any)")
	f.StringVar(&searchQuery.SortBy, "sort", store.SortRelevance, "Sort by relevance, rating, downloads or recent")
	f.IntVar(&searchQuery.Page, "page", 1, "Result page")
	f.IntVar(&searchQuery.PageSize, "page-size", store.DefaultPageSize, "Results per page")
	f.BoolVar(&searchJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	q := searchQuery
	if len(args) > 0 {
		q.Text = args[0]
	}
	q.Tags = splitTags(searchTags)

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.store.Search(cmd.Context(), q)
	if err != nil {
		return err
	}

	if searchJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	if len(res.Artifacts) == 0 {
		msg := "No artifacts found"
		if q.Text != "" {
			msg += fmt.Sprintf(" matching %q", q.Text)
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	}
	if err := printArtifactTable(cmd, res.Artifacts); err != nil {
		return err
	}
	if res.HasMore {
		fmt.Fprintf(cmd.OutOrStdout(), "\nShowing page %d (%d of %d results). Use --page %d for more.\n",
			res.Page, len(res.Artifacts), res.Total, res.Page+1)
	}
	return nil
}

// splitTags parses a comma-separated tag list.
func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if tag := strings.TrimSpace(t); tag != "" {
			tags = append(tags, strings.ToLower(tag))
		}
	}
	return tags
}

func printArtifactTable(cmd *cobra.Command, artifacts []store.Artifact) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TYPE\tARTIFACT\tVERSION\tDESCRIPTION")
	for _, a := range artifacts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Type, a.Ref(), a.Version, truncate(a.Description, 60))
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

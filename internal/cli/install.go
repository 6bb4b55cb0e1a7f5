package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/promptreg/internal/registry"
)

var (
	installNoDeps     bool
	installDryRun     bool
	installOnConflict string
	installRenameTo   string
)

var installCmd = &cobra.Command{
	Use:   "install <catalog/artifact | artifact>",
	Short: "Install an artifact and its dependencies",
	Long: `Install an artifact into the workspace (.github/<type>s/ under the install root).
Dependencies are resolved and installed first. Use --no-deps to skip them.

When a target file already exists you are asked whether to replace it, keep
it or install under a new name, unless --on-conflict decides up front.`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVar(&installNoDeps, "no-deps", false, "Install only the specified artifact, skip dependencies")
	installCmd.Flags().BoolVar(&installDryRun, "dry-run", false, "Print the install plan without installing")
	installCmd.Flags().StringVar(&installOnConflict, "on-conflict", "ask", "What to do with existing files: ask, replace, keep or rename")
	installCmd.Flags().StringVar(&installRenameTo, "rename-to", "", "New base name used with --on-conflict=rename")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	onConflict, err := conflictHandler(installOnConflict, installRenameTo, newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()))
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	art, err := a.resolveArtifact(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if installDryRun {
		plan, err := a.installer.Resolver().BuildPlan(cmd.Context(), art, installNoDeps)
		if err != nil {
			return err
		}
		registry.PrintPlan(cmd.OutOrStdout(), plan)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Installing...")
	result := a.installer.Install(cmd.Context(), art, registry.InstallOptions{
		InstallRoot: a.installRoot,
		OnConflict:  onConflict,
		NoDeps:      installNoDeps,
	})
	printInstallResult(cmd.OutOrStdout(), result)

	if !result.Success && !result.Skipped {
		return result.Err
	}
	return nil
}

// printInstallResult prints one line per dependency and the artifact
// itself, followed by any warnings.
func printInstallResult(w io.Writer, result *registry.InstallResult) {
	for _, dep := range result.Dependencies {
		printResultLine(w, dep)
	}
	printResultLine(w, result)

	var warnings []string
	for _, dep := range result.Dependencies {
		warnings = append(warnings, dep.Warnings...)
	}
	warnings = append(warnings, result.Warnings...)
	for _, warning := range warnings {
		fmt.Fprintf(w, "  ⚠ %s\n", warning)
	}
}

func printResultLine(w io.Writer, r *registry.InstallResult) {
	switch {
	case r.Success:
		fmt.Fprintf(w, "  ✓ %s@%s -> %s\n", r.Ref(), r.Version, r.Path)
	case r.Skipped:
		fmt.Fprintf(w, "  - %s kept existing %s\n", r.Ref(), r.Path)
	default:
		fmt.Fprintf(w, "  ✗ %s: %s\n", r.Ref(), r.Error)
	}
}

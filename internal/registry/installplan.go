package registry

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/agentx-labs/promptreg/internal/store"
)

// BuildPlan resolves what installing a would do. If noDeps is true, only a
// itself is included.
func (r *Resolver) BuildPlan(ctx context.Context, a *store.Artifact, noDeps bool) (*InstallPlan, error) {
	if noDeps {
		return &InstallPlan{
			Root:      &DependencyNode{ID: a.ID, Artifact: a},
			Artifacts: []store.Artifact{*a},
			Counts:    map[string]int{a.Type: 1},
		}, nil
	}

	res, err := r.Resolve(ctx, a)
	if err != nil {
		return nil, err
	}
	all := res.Plan()
	return &InstallPlan{
		Root:      res.Root,
		Artifacts: all,
		Counts:    countByType(all),
		SkipCount: countInstalled(res.Root),
		Warnings:  res.Warnings,
	}, nil
}

func countByType(artifacts []store.Artifact) map[string]int {
	counts := make(map[string]int)
	for _, a := range artifacts {
		counts[a.Type]++
	}
	return counts
}

func countInstalled(node *DependencyNode) int {
	if node == nil {
		return 0
	}
	count := 0
	if node.Installed {
		count = 1
	}
	for _, child := range node.Children {
		count += countInstalled(child)
	}
	return count
}

// PrintTree prints the dependency tree with box-drawing characters.
func PrintTree(w io.Writer, node *DependencyNode, prefix string, isLast bool) {
	if node == nil {
		return
	}

	connector := "├── "
	if isLast {
		connector = "└── "
	}

	label := node.ID
	if node.Artifact != nil {
		label = fmt.Sprintf("%s: %s@%s", node.Artifact.Type, node.Artifact.Ref(), node.Artifact.Version)
	}
	switch {
	case node.Cycle:
		label += " (cycle)"
	case node.Deduped:
		label += " (deduped)"
	case node.Installed:
		label += " (already installed)"
	}

	if prefix == "" {
		fmt.Fprintf(w, "  %s\n", label)
	} else {
		fmt.Fprintf(w, "  %s%s%s\n", prefix, connector, label)
	}

	childPrefix := prefix
	if prefix != "" {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	} else {
		childPrefix = " "
	}

	for i, child := range node.Children {
		PrintTree(w, child, childPrefix, i == len(node.Children)-1)
	}
}

// PrintPlan prints the full install plan summary.
func PrintPlan(w io.Writer, plan *InstallPlan) {
	fmt.Fprintln(w, "Resolving dependencies...")
	fmt.Fprintln(w)

	PrintTree(w, plan.Root, "", true)
	fmt.Fprintln(w)

	var parts []string
	total := 0
	for _, typ := range []string{"profile", "chatmode", "instructions", "prompt", "task"} {
		if count := plan.Counts[typ]; count > 0 {
			noun := typ
			if count != 1 {
				noun = pluralize(typ)
			}
			parts = append(parts, fmt.Sprintf("%d %s", count, noun))
			total += count
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(w, "  Install: %s (%d %s)\n", strings.Join(parts, ", "), total, pluralizeCount(total, "artifact"))
	}

	if plan.SkipCount > 0 {
		fmt.Fprintf(w, "  (%d %s already installed, will be skipped)\n", plan.SkipCount, pluralizeCount(plan.SkipCount, "artifact"))
	}
	for _, warning := range plan.Warnings {
		fmt.Fprintf(w, "\n  Warning: %s\n", warning)
	}

	fmt.Fprintln(w)
}

// pluralize returns the plural form of an artifact type.
func pluralize(typ string) string {
	switch typ {
	case "instructions":
		return typ
	default:
		return typ + "s"
	}
}

func pluralizeCount(n int, noun string) string {
	if n == 1 {
		return noun
	}
	return pluralize(noun)
}

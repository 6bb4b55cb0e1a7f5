package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/agentx-labs/promptreg/internal/store"
)

// Resolution is the outcome of resolving an artifact's dependencies.
type Resolution struct {
	Root      *DependencyNode
	Artifacts []store.Artifact // not yet installed, dependencies before dependents
	Warnings  []string
}

// Plan returns the resolved dependencies followed by the root artifact.
func (r *Resolution) Plan() []store.Artifact {
	out := make([]store.Artifact, 0, len(r.Artifacts)+1)
	out = append(out, r.Artifacts...)
	if r.Root != nil && r.Root.Artifact != nil {
		out = append(out, *r.Root.Artifact)
	}
	return out
}

type visitState int

const (
	visiting visitState = iota + 1
	done
)

// Resolver turns an artifact's declared dependencies into an install order.
type Resolver struct {
	store Store
}

// NewResolver returns a Resolver that looks dependencies up in st.
func NewResolver(st Store) *Resolver {
	return &Resolver{store: st}
}

// resolveRun carries the state of a single Resolve call.
type resolveRun struct {
	ctx      context.Context
	r        *Resolver
	state    map[string]visitState
	stack    []string
	out      []store.Artifact
	warnings []string
}

// Resolve walks the dependencies of root depth-first. Each dependency id is
// looked up in root's catalog first and then across all catalogs, taking the
// best search hit. Already installed dependencies are left out together
// with their own dependencies. A dependency that refers back to one of its
// ancestors is reported in Warnings and not followed again.
func (r *Resolver) Resolve(ctx context.Context, root *store.Artifact) (*Resolution, error) {
	run := &resolveRun{
		ctx:   ctx,
		r:     r,
		state: map[string]visitState{root.ID: visiting},
		stack: []string{root.ID},
	}
	node := &DependencyNode{ID: root.ID, Artifact: root}
	if err := run.visitChildren(node); err != nil {
		return nil, err
	}
	return &Resolution{Root: node, Artifacts: run.out, Warnings: run.warnings}, nil
}

func (run *resolveRun) visitChildren(parent *DependencyNode) error {
	for _, depID := range parent.Artifact.Dependencies {
		child := &DependencyNode{ID: depID}
		parent.Children = append(parent.Children, child)

		switch run.state[depID] {
		case visiting:
			child.Cycle = true
			run.warnings = append(run.warnings, cycleWarning(run.stack, depID))
			continue
		case done:
			child.Deduped = true
			continue
		}

		dep, err := run.r.lookup(run.ctx, parent.Artifact, depID)
		if err != nil {
			return err
		}
		child.Artifact = dep

		installed, err := run.r.store.IsInstalled(run.ctx, dep.CatalogID, dep.ID)
		if err != nil {
			return err
		}
		if installed {
			child.Installed = true
			run.state[depID] = done
			continue
		}

		run.state[depID] = visiting
		run.stack = append(run.stack, depID)
		if err := run.visitChildren(child); err != nil {
			return err
		}
		run.stack = run.stack[:len(run.stack)-1]
		run.state[depID] = done
		run.out = append(run.out, *dep)
	}
	return nil
}

// lookup finds dependency id for dependent: in the dependent's own catalog
// first, then as the top hit of a search across enabled catalogs.
func (r *Resolver) lookup(ctx context.Context, dependent *store.Artifact, id string) (*store.Artifact, error) {
	a, err := r.store.GetArtifact(ctx, dependent.CatalogID, id)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if !hasSearchTerms(id) {
		return nil, &DependencyNotFoundError{ID: id, RequiredBy: dependent.Ref()}
	}
	res, err := r.store.Search(ctx, store.SearchQuery{Text: id, PageSize: 1})
	if err != nil {
		return nil, fmt.Errorf("searching for dependency %q: %w", id, err)
	}
	if len(res.Artifacts) == 0 {
		return nil, &DependencyNotFoundError{ID: id, RequiredBy: dependent.Ref()}
	}
	return &res.Artifacts[0], nil
}

// hasSearchTerms reports whether id holds a letter or digit to search for.
func hasSearchTerms(id string) bool {
	return strings.IndexFunc(id, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

func cycleWarning(stack []string, id string) string {
	start := 0
	for i, s := range stack {
		if s == id {
			start = i
			break
		}
	}
	chain := append(append([]string{}, stack[start:]...), id)
	return "dependency cycle: " + strings.Join(chain, " -> ")
}

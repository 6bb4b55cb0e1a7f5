package registry

import (
	"context"

	"github.com/agentx-labs/promptreg/internal/auth"
	"github.com/agentx-labs/promptreg/internal/store"
)

// Store is the subset of the catalog store used by the resolver and
// installer. *store.Store satisfies it.
type Store interface {
	GetCatalog(ctx context.Context, id string) (*store.Catalog, error)
	GetArtifact(ctx context.Context, catalogID, artifactID string) (*store.Artifact, error)
	Search(ctx context.Context, q store.SearchQuery) (*store.SearchResult, error)
	IsInstalled(ctx context.Context, catalogID, artifactID string) (bool, error)
	GetInstallation(ctx context.Context, catalogID, artifactID string) (*store.Installation, error)
	RecordInstallation(ctx context.Context, inst *store.Installation) error
	DeleteInstallation(ctx context.Context, catalogID, artifactID string) error
}

// Credentials resolves the credential to use when downloading from a
// catalog. *catalog.Service satisfies it.
type Credentials interface {
	Credential(catalogID string) (auth.Credential, error)
}

// DependencyNode is one node of a rendered dependency tree.
type DependencyNode struct {
	ID        string
	Artifact  *store.Artifact
	Children  []*DependencyNode
	Deduped   bool // already placed earlier in the tree
	Installed bool // already installed, not descended into
	Cycle     bool // refers back to an ancestor
}

// InstallPlan summarizes what an install would do.
type InstallPlan struct {
	Root      *DependencyNode
	Artifacts []store.Artifact // dependencies first, target last
	Counts    map[string]int   // per artifact type
	SkipCount int              // already installed
	Warnings  []string
}

// ConflictAction is the user's answer to an existing target file.
type ConflictAction string

const (
	ConflictReplace ConflictAction = "replace"
	ConflictKeep    ConflictAction = "keep"
	ConflictRename  ConflictAction = "rename"
)

// ConflictDecision is returned by a ConflictFunc. NewName is the new base
// name (without extension) when Action is ConflictRename.
type ConflictDecision struct {
	Action  ConflictAction
	NewName string
}

// ConflictFunc is asked what to do when the target path of an artifact
// already exists.
type ConflictFunc func(a *store.Artifact, path string) (ConflictDecision, error)

// ConfirmFunc is called to confirm a destructive operation. Returns true to
// proceed.
type ConfirmFunc func() (bool, error)

// InstallOptions controls Install.
type InstallOptions struct {
	InstallRoot string
	OnConflict  ConflictFunc
	NoDeps      bool
}

// UninstallOptions controls Uninstall.
type UninstallOptions struct {
	InstallRoot string
	Confirm     ConfirmFunc
}

// InstallResult captures the outcome of installing one artifact and, when
// dependencies were processed, of each of them.
type InstallResult struct {
	CatalogID    string           `json:"catalogId"`
	ArtifactID   string           `json:"artifactId"`
	Version      string           `json:"version,omitempty"`
	Success      bool             `json:"success"`
	Skipped      bool             `json:"skipped,omitempty"`
	Path         string           `json:"path,omitempty"`
	Error        string           `json:"error,omitempty"`
	Err          error            `json:"-"`
	Warnings     []string         `json:"warnings,omitempty"`
	Dependencies []*InstallResult `json:"dependencies,omitempty"`
}

// Ref returns the "<catalogId>/<artifactId>" form of the result's artifact.
func (r *InstallResult) Ref() string { return r.CatalogID + "/" + r.ArtifactID }

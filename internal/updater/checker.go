package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agentx-labs/promptreg/internal/config"
	"github.com/agentx-labs/promptreg/internal/store"
)

// Store is the subset of the catalog store read by the Checker.
type Store interface {
	ListInstallationsForCatalog(ctx context.Context, catalogID string) ([]store.Installation, error)
	GetArtifact(ctx context.Context, catalogID, artifactID string) (*store.Artifact, error)
}

// UpdateInfo describes one installation against its catalog's current entry.
type UpdateInfo struct {
	Installation  store.Installation `json:"installation"`
	LatestVersion string             `json:"latestVersion,omitempty"`
	// Artifact is nil when the catalog no longer lists the artifact.
	Artifact        *store.Artifact `json:"artifact,omitempty"`
	UpdateAvailable bool            `json:"updateAvailable"`
	// Downgrade is set when the catalog version orders before the installed
	// one. Such entries still count as available updates.
	Downgrade bool `json:"downgrade,omitempty"`
}

// Checker compares installation records with catalog contents.
type Checker struct {
	store  Store
	logger *slog.Logger
}

// NewChecker returns a Checker reading from st. A nil logger uses
// slog.Default().
func NewChecker(st Store, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{store: st, logger: logger}
}

// Check lists every installation of the enabled catalogs in catalogs. An
// update is available whenever the catalog's version string differs from
// the installed one.
func (c *Checker) Check(ctx context.Context, catalogs []config.CatalogConfig) ([]UpdateInfo, error) {
	var out []UpdateInfo
	for _, cc := range catalogs {
		if !cc.Enabled {
			continue
		}
		installs, err := c.store.ListInstallationsForCatalog(ctx, cc.ID)
		if err != nil {
			return nil, fmt.Errorf("listing installations of %s: %w", cc.ID, err)
		}
		for _, inst := range installs {
			info := UpdateInfo{Installation: inst}
			a, err := c.store.GetArtifact(ctx, inst.CatalogID, inst.ArtifactID)
			switch {
			case errors.Is(err, store.ErrNotFound):
				c.logger.Debug("installed artifact no longer in catalog", "artifact", inst.Ref())
			case err != nil:
				return nil, err
			default:
				info.Artifact = a
				info.LatestVersion = a.Version
				info.UpdateAvailable = a.Version != inst.Version
				info.Downgrade = info.UpdateAvailable && IsDowngrade(inst.Version, a.Version)
			}
			out = append(out, info)
		}
	}
	return out, nil
}

// Available filters infos down to the entries with an update available.
func Available(infos []UpdateInfo) []UpdateInfo {
	var out []UpdateInfo
	for _, info := range infos {
		if info.UpdateAvailable {
			out = append(out, info)
		}
	}
	return out
}

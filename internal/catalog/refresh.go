package catalog

import (
	"context"
	"fmt"

	"github.com/agentx-labs/promptreg/internal/manifest"
	"github.com/agentx-labs/promptreg/internal/sourceurl"
	"github.com/agentx-labs/promptreg/internal/store"
)

// SweepResult lists the outcome of a refresh sweep.
type SweepResult struct {
	Refreshed []string
	Failed    map[string]error
}

// Refresh re-fetches one catalog and atomically replaces its artifacts.
// On failure the catalog's status becomes error with the message recorded,
// and the error is returned.
func (s *Service) Refresh(ctx context.Context, id string) error {
	_, err, _ := s.group.Do("refresh:"+id, func() (any, error) {
		return nil, s.refresh(ctx, id)
	})
	return err
}

func (s *Service) refresh(ctx context.Context, id string) error {
	c, err := s.store.GetCatalog(ctx, id)
	if err != nil {
		return err
	}

	s.logger.Info("Refreshing catalog", "catalog", id, "url", c.URL)
	if err := s.store.UpdateCatalogStatus(ctx, id, store.StatusUpdating, ""); err != nil {
		return err
	}

	m, err := s.fetchManifest(ctx, c)
	if err != nil {
		return s.fail(ctx, id, err)
	}
	if m.Catalog.ID != id {
		s.logger.Debug("Manifest catalog id differs from configured id",
			"catalog", id, "manifest_id", m.Catalog.ID)
	}

	rows := BuildArtifacts(id, m)
	if err := s.store.ApplyRefresh(ctx, id, store.MetadataFromManifest(m.Catalog), rows); err != nil {
		return s.fail(ctx, id, err)
	}

	s.logger.Info("Refreshed catalog", "catalog", id, "artifacts", len(rows))
	return nil
}

func (s *Service) fetchManifest(ctx context.Context, c *store.Catalog) (*manifest.Manifest, error) {
	cred, err := s.Credential(c.ID)
	if err != nil {
		return nil, err
	}
	body, err := s.fetcher.Get(ctx, sourceurl.ManifestURL(c.URL), cred)
	if err != nil {
		return nil, fmt.Errorf("fetching manifest: %w", err)
	}
	m, err := manifest.Parse(body)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// fail records err on the catalog row. The status write must survive a
// cancelled ctx.
func (s *Service) fail(ctx context.Context, id string, err error) error {
	s.logger.Error("Catalog refresh failed", "catalog", id, "error", err)
	if statusErr := s.store.UpdateCatalogStatus(context.WithoutCancel(ctx), id, store.StatusError, err.Error()); statusErr != nil {
		s.logger.Error("Recording catalog error failed", "catalog", id, "error", statusErr)
	}
	return fmt.Errorf("refreshing catalog %s: %w", id, err)
}

// BuildArtifacts converts manifest entries to store rows with their source
// URLs resolved against the catalog repository.
func BuildArtifacts(catalogID string, m *manifest.Manifest) []store.Artifact {
	rows := make([]store.Artifact, 0, len(m.Artifacts))
	for _, a := range m.Artifacts {
		row := store.ArtifactFromManifest(catalogID, a)
		row.SourceURL = sourceurl.Resolve(m.Catalog.Repository, a.Path)
		rows = append(rows, row)
	}
	return rows
}

// RefreshAll refreshes every enabled catalog, one at a time. Failures are
// logged and collected; they never stop the sweep. Concurrent callers share
// one sweep.
func (s *Service) RefreshAll(ctx context.Context) *SweepResult {
	v, _, _ := s.group.Do("sweep", func() (any, error) {
		return s.sweep(ctx), nil
	})
	return v.(*SweepResult)
}

func (s *Service) sweep(ctx context.Context) *SweepResult {
	result := &SweepResult{Failed: map[string]error{}}

	catalogs, err := s.store.ListCatalogs(ctx)
	if err != nil {
		s.logger.Error("Listing catalogs for refresh failed", "error", err)
		result.Failed["*"] = err
		return result
	}

	for _, c := range catalogs {
		if !c.Enabled {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		if err := s.Refresh(ctx, c.ID); err != nil {
			result.Failed[c.ID] = err
			continue
		}
		result.Refreshed = append(result.Refreshed, c.ID)
	}

	s.logger.Info("Catalog sweep finished",
		"refreshed", len(result.Refreshed), "failed", len(result.Failed))
	return result
}

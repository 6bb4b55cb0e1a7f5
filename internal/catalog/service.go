package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/agentx-labs/promptreg/internal/auth"
	"github.com/agentx-labs/promptreg/internal/config"
	"github.com/agentx-labs/promptreg/internal/httpclient"
	"github.com/agentx-labs/promptreg/internal/store"
)

// DefaultMaxAge is the staleness threshold used by `catalog status`.
const DefaultMaxAge = 7 * 24 * time.Hour

// CredentialResolver returns the credential for a catalog's requests.
type CredentialResolver interface {
	Resolve(catalogID string, cfg *config.AuthConfig) (auth.Credential, error)
}

// Service owns the catalog lifecycle. The configuration is the source of
// truth for which catalogs exist; the store mirrors it plus sync state.
type Service struct {
	store   *store.Store
	cfg     *config.Config
	fetcher httpclient.Fetcher
	creds   CredentialResolver
	logger  *slog.Logger
	group   singleflight.Group
	now     func() time.Time
}

// NewService wires a Service. A nil logger means slog.Default().
func NewService(st *store.Store, cfg *config.Config, fetcher httpclient.Fetcher, creds CredentialResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   st,
		cfg:     cfg,
		fetcher: fetcher,
		creds:   creds,
		logger:  logger,
		now:     time.Now,
	}
}

// Summary is a catalog row plus counts for listing.
type Summary struct {
	store.Catalog
	Artifacts     int64 `json:"artifacts"`
	Installations int   `json:"installations"`
}

// Sync makes the store mirror the configured catalogs: missing rows are
// created, url and enabled changes are applied, unconfigured rows are
// removed together with their artifacts and installation records.
func (s *Service) Sync(ctx context.Context) error {
	existing, err := s.store.ListCatalogs(ctx)
	if err != nil {
		return err
	}
	byID := make(map[string]store.Catalog, len(existing))
	for _, c := range existing {
		byID[c.ID] = c
	}

	for _, cc := range s.cfg.Catalogs {
		row, ok := byID[cc.ID]
		delete(byID, cc.ID)
		if ok && row.URL == cc.URL && row.Enabled == cc.Enabled {
			continue
		}
		if ok {
			row.URL = cc.URL
			row.Enabled = cc.Enabled
		} else {
			row = store.Catalog{ID: cc.ID, URL: cc.URL, Enabled: cc.Enabled, Status: store.StatusHealthy}
		}
		if err := s.store.UpsertCatalog(ctx, &row); err != nil {
			return fmt.Errorf("syncing catalog %s: %w", cc.ID, err)
		}
	}

	for id := range byID {
		s.logger.Info("Removing unconfigured catalog", "catalog", id)
		if err := s.store.DeleteCatalog(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}

// Add registers a catalog and performs its first refresh. The catalog stays
// registered when that refresh fails; the error is returned and recorded.
func (s *Service) Add(ctx context.Context, cc config.CatalogConfig) error {
	if err := s.cfg.AddCatalog(cc); err != nil {
		return err
	}
	row := &store.Catalog{ID: cc.ID, URL: cc.URL, Enabled: cc.Enabled, Status: store.StatusHealthy}
	if err := s.store.CreateCatalog(ctx, row); err != nil {
		s.cfg.RemoveCatalog(cc.ID)
		return err
	}
	s.logger.Info("Added catalog", "catalog", cc.ID, "url", cc.URL)

	if !cc.Enabled {
		return nil
	}
	return s.Refresh(ctx, cc.ID)
}

// Remove unregisters a catalog; its artifacts and installation records go
// with it. Installed files are left on disk.
func (s *Service) Remove(ctx context.Context, id string) error {
	inConfig := s.cfg.RemoveCatalog(id)
	err := s.store.DeleteCatalog(ctx, id)
	if errors.Is(err, store.ErrNotFound) && inConfig {
		err = nil
	}
	if err != nil {
		return err
	}
	s.logger.Info("Removed catalog", "catalog", id)
	return nil
}

// SetEnabled enables or disables a catalog. Disabled catalogs are skipped
// by search, dependency lookup, update checks and the refresh sweep.
func (s *Service) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if err := s.cfg.SetCatalogEnabled(id, enabled); err != nil {
		return err
	}
	return s.store.SetCatalogEnabled(ctx, id, enabled)
}

// List returns every catalog with artifact and installation counts.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	catalogs, err := s.store.ListCatalogs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(catalogs))
	for _, c := range catalogs {
		n, err := s.store.CountArtifacts(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		insts, err := s.store.ListInstallationsForCatalog(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{Catalog: c, Artifacts: n, Installations: len(insts)})
	}
	return out, nil
}

// IsStale reports whether c has never been fetched or was last fetched more
// than maxAge ago.
func (s *Service) IsStale(c store.Catalog, maxAge time.Duration) bool {
	if c.LastFetched == nil {
		return true
	}
	return s.now().Sub(*c.LastFetched) > maxAge
}

// Credential resolves the configured credential for a catalog.
func (s *Service) Credential(id string) (auth.Credential, error) {
	cc, ok := s.cfg.Catalog(id)
	if !ok || cc.Auth == nil || s.creds == nil {
		return auth.None, nil
	}
	return s.creds.Resolve(id, cc.Auth)
}

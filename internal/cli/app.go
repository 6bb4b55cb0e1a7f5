package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/agentx-labs/promptreg/internal/auth"
	"github.com/agentx-labs/promptreg/internal/catalog"
	"github.com/agentx-labs/promptreg/internal/config"
	"github.com/agentx-labs/promptreg/internal/httpclient"
	"github.com/agentx-labs/promptreg/internal/registry"
	"github.com/agentx-labs/promptreg/internal/store"
	"github.com/agentx-labs/promptreg/internal/updater"
	"github.com/agentx-labs/promptreg/internal/userdata"
)

const (
	lockTimeout    = 10 * time.Second
	maxSuggestions = 3
)

// app holds the wired components for one command invocation.
type app struct {
	cfgDir      string
	cfg         *config.Config
	dataDir     string
	installRoot string

	lock      *userdata.Lock
	store     *store.Store
	catalogs  *catalog.Service
	installer *registry.Installer
	checker   *updater.Checker
	logger    *slog.Logger
}

// openApp loads the configuration, takes the data directory lock, opens the
// store and makes it mirror the configured catalogs.
func openApp(ctx context.Context) (*app, error) {
	logger := slog.Default()
	dir := configDir()
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	dataDir, err := userdata.DataDir(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	installRoot, err := resolveInstallRoot(cfg)
	if err != nil {
		return nil, err
	}

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	lock, err := userdata.AcquireLock(lockCtx, dataDir)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, userdata.StorePath(dataDir), store.WithLogger(logger))
	if err != nil {
		_ = lock.Release()
		return nil, err
	}

	fetcher := httpclient.New(httpclient.WithLogger(logger))
	svc := catalog.NewService(st, cfg, fetcher, auth.NewResolver(dir), logger)
	a := &app{
		cfgDir:      dir,
		cfg:         cfg,
		dataDir:     dataDir,
		installRoot: installRoot,
		lock:        lock,
		store:       st,
		catalogs:    svc,
		installer:   registry.NewInstaller(st, fetcher, svc, nil, logger),
		checker:     updater.NewChecker(st, logger),
		logger:      logger,
	}
	if err := svc.Sync(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if cfg.Refresh.OnStartup {
		a.refreshStale(ctx)
	}
	a.refreshUpdateCache(ctx)
	return a, nil
}

// refreshUpdateCache re-runs the update check when the banner cache is
// missing, unreadable or older than updater.DefaultCacheMaxAge.
func (a *app) refreshUpdateCache(ctx context.Context) {
	cache, err := updater.LoadCache(userdata.CachePath(a.dataDir))
	if err == nil && !updater.IsCacheStale(cache, updater.DefaultCacheMaxAge) {
		return
	}
	if _, err := a.checkUpdates(ctx); err != nil {
		a.logger.Debug("Update check failed", "error", err)
	}
}

// Close releases the store and the lock.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Closing store failed", "error", err)
	}
	if err := a.lock.Release(); err != nil {
		a.logger.Warn("Releasing lock failed", "error", err)
	}
}

func (a *app) saveConfig() error {
	return config.Save(a.cfgDir, a.cfg)
}

// refreshStale refreshes enabled catalogs that were never fetched or are
// older than catalog.DefaultMaxAge. Failures are logged only.
func (a *app) refreshStale(ctx context.Context) {
	catalogs, err := a.store.ListCatalogs(ctx)
	if err != nil {
		a.logger.Warn("Listing catalogs failed", "error", err)
		return
	}
	for _, c := range catalogs {
		if !c.Enabled || !a.catalogs.IsStale(c, catalog.DefaultMaxAge) {
			continue
		}
		if err := a.catalogs.Refresh(ctx, c.ID); err != nil {
			a.logger.Warn("Startup refresh failed", "catalog", c.ID, "error", err)
		}
	}
}

// checkUpdates runs the update check and refreshes the banner cache.
func (a *app) checkUpdates(ctx context.Context) ([]updater.UpdateInfo, error) {
	infos, err := a.checker.Check(ctx, a.cfg.Catalogs)
	if err != nil {
		return nil, err
	}
	if err := updater.SaveCache(userdata.CachePath(a.dataDir), updater.NewCache(infos, time.Now())); err != nil {
		a.logger.Debug("Saving update cache failed", "error", err)
	}
	return infos, nil
}

func resolveInstallRoot(cfg *config.Config) (string, error) {
	switch {
	case flagInstallRoot != "":
		return flagInstallRoot, nil
	case cfg.InstallRoot != "":
		return cfg.InstallRoot, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving install root: %w", err)
	}
	return wd, nil
}

// splitRef splits "<catalogId>/<artifactId>". A bare id has no catalog.
func splitRef(ref string) (catalogID, artifactID string) {
	if c, id, ok := strings.Cut(ref, "/"); ok {
		return c, id
	}
	return "", ref
}

// resolveArtifact finds the artifact addressed by ref. A bare id must match
// exactly one enabled catalog.
func (a *app) resolveArtifact(ctx context.Context, ref string) (*store.Artifact, error) {
	catalogID, id := splitRef(ref)
	if catalogID != "" {
		art, err := a.store.GetArtifact(ctx, catalogID, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, a.unknownArtifact(ctx, ref, id)
		}
		return art, err
	}

	matches, err := a.store.FindArtifacts(ctx, id)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, a.unknownArtifact(ctx, ref, id)
	case 1:
		return &matches[0], nil
	}
	refs := make([]string, len(matches))
	for i := range matches {
		refs[i] = matches[i].Ref()
	}
	return nil, fmt.Errorf("%q is ambiguous, use one of: %s", ref, strings.Join(refs, ", "))
}

// resolveInstallation finds the installation addressed by ref.
func (a *app) resolveInstallation(ctx context.Context, ref string) (*store.Installation, error) {
	catalogID, id := splitRef(ref)
	if catalogID != "" {
		inst, err := a.store.GetInstallation(ctx, catalogID, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, &registry.NotInstalledError{CatalogID: catalogID, ArtifactID: id}
		}
		return inst, err
	}

	all, err := a.store.ListInstallations(ctx)
	if err != nil {
		return nil, err
	}
	var matches []store.Installation
	for _, inst := range all {
		if inst.ArtifactID == id {
			matches = append(matches, inst)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%q is not installed", ref)
	case 1:
		return &matches[0], nil
	}
	refs := make([]string, len(matches))
	for i := range matches {
		refs[i] = matches[i].Ref()
	}
	return nil, fmt.Errorf("%q is ambiguous, use one of: %s", ref, strings.Join(refs, ", "))
}

func (a *app) unknownArtifact(ctx context.Context, ref, id string) error {
	msg := fmt.Sprintf("artifact %q not found", ref)
	ids, err := a.store.ArtifactIDs(ctx)
	if err != nil {
		return errors.New(msg)
	}
	if s := suggest(id, ids); len(s) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(s, ", "))
	}
	return errors.New(msg)
}

// suggest returns up to maxSuggestions candidates fuzzily matching id.
func suggest(id string, candidates []string) []string {
	matches := fuzzy.Find(id, candidates)
	var out []string
	for _, m := range matches {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

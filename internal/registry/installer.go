package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/agentx-labs/promptreg/internal/auth"
	"github.com/agentx-labs/promptreg/internal/httpclient"
	"github.com/agentx-labs/promptreg/internal/platform"
	"github.com/agentx-labs/promptreg/internal/sourceurl"
	"github.com/agentx-labs/promptreg/internal/store"
)

// Installer materializes catalog artifacts into a workspace and records
// them in the store.
type Installer struct {
	store    Store
	fetcher  httpclient.Fetcher
	creds    Credentials
	fs       platform.FileSystem
	resolver *Resolver
	logger   *slog.Logger
}

// NewInstaller wires an Installer. creds may be nil for anonymous catalogs;
// a nil fs uses the OS filesystem and a nil logger uses slog.Default().
func NewInstaller(st Store, fetcher httpclient.Fetcher, creds Credentials, fs platform.FileSystem, logger *slog.Logger) *Installer {
	if fs == nil {
		fs = platform.OSFS{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Installer{
		store:    st,
		fetcher:  fetcher,
		creds:    creds,
		fs:       fs,
		resolver: NewResolver(st),
		logger:   logger,
	}
}

// Resolver returns the dependency resolver used by the installer.
func (i *Installer) Resolver() *Resolver { return i.resolver }

// Install installs a and, unless opts.NoDeps is set, its not yet installed
// dependencies first. The result is never nil; failures are reported in it.
func (i *Installer) Install(ctx context.Context, a *store.Artifact, opts InstallOptions) *InstallResult {
	result := &InstallResult{CatalogID: a.CatalogID, ArtifactID: a.ID, Version: a.Version}

	inst, err := i.store.GetInstallation(ctx, a.CatalogID, a.ID)
	switch {
	case err == nil:
		return i.fail(result, &AlreadyInstalledError{CatalogID: a.CatalogID, ArtifactID: a.ID, Version: inst.Version})
	case !errors.Is(err, store.ErrNotFound):
		return i.fail(result, err)
	}

	if !opts.NoDeps {
		res, err := i.resolver.Resolve(ctx, a)
		if err != nil {
			return i.fail(result, err)
		}
		result.Warnings = append(result.Warnings, res.Warnings...)

		depOpts := opts
		depOpts.NoDeps = true
		for idx := range res.Artifacts {
			dep := &res.Artifacts[idx]
			depResult := i.Install(ctx, dep, depOpts)
			result.Dependencies = append(result.Dependencies, depResult)
			if !depResult.Success && !depResult.Skipped {
				return i.fail(result, &DependencyFailedError{Dependency: dep.Ref(), Err: depResult.Err})
			}
		}
	}

	target, err := TargetPath(opts.InstallRoot, a)
	if err != nil {
		return i.fail(result, err)
	}
	target, keep, err := i.resolveConflict(a, target, opts.OnConflict)
	if err != nil {
		return i.fail(result, err)
	}
	if keep {
		i.logger.Info("kept existing file", "artifact", a.Ref(), "path", target)
		result.Skipped = true
		result.Path = target
		return result
	}

	if err := i.writeArtifact(ctx, a, target, result); err != nil {
		return i.fail(result, err)
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		abs = target
	}
	if err := i.store.RecordInstallation(ctx, &store.Installation{
		ArtifactID:    a.ID,
		CatalogID:     a.CatalogID,
		Version:       a.Version,
		InstalledPath: abs,
	}); err != nil {
		return i.fail(result, err)
	}

	i.logger.Info("installed artifact", "artifact", a.Ref(), "version", a.Version, "path", abs)
	result.Success = true
	result.Path = abs
	return result
}

// resolveConflict asks onConflict about an existing target until it names a
// free path or decides to replace or keep.
func (i *Installer) resolveConflict(a *store.Artifact, target string, onConflict ConflictFunc) (string, bool, error) {
	for platform.Exists(i.fs, target) {
		if onConflict == nil {
			return "", false, &FileConflictError{Path: target}
		}
		decision, err := onConflict(a, target)
		if err != nil {
			return "", false, err
		}
		switch decision.Action {
		case ConflictReplace:
			return target, false, nil
		case ConflictKeep:
			return target, true, nil
		case ConflictRename:
			renamed, err := RenamedPath(target, decision.NewName)
			if err != nil {
				return "", false, err
			}
			target = renamed
		default:
			return "", false, fmt.Errorf("unknown conflict resolution %q", decision.Action)
		}
	}
	return target, false, nil
}

// writeArtifact downloads and writes the main file of a to target, then its
// supporting files. Supporting-file failures become warnings on result.
func (i *Installer) writeArtifact(ctx context.Context, a *store.Artifact, target string, result *InstallResult) error {
	cred, err := i.credential(a.CatalogID)
	if err != nil {
		return err
	}

	content, err := i.fetcher.Get(ctx, a.SourceURL, cred)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", a.Ref(), err)
	}
	if err := i.fs.MkdirAll(filepath.Dir(target)); err != nil {
		return fmt.Errorf("creating directory for %s: %w", a.Ref(), err)
	}
	if err := i.fs.WriteFile(target, content); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}

	if len(a.SupportingFiles) == 0 {
		return nil
	}
	c, err := i.store.GetCatalog(ctx, a.CatalogID)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("supporting files skipped: %v", err))
		return nil
	}
	dir := SupportingDir(target, a.ID)
	for _, file := range a.SupportingFiles {
		if err := i.writeSupporting(ctx, c, a, dir, file, cred); err != nil {
			i.logger.Warn("supporting file failed", "artifact", a.Ref(), "file", file, "error", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("supporting file %s: %v", file, err))
		}
	}
	return nil
}

func (i *Installer) writeSupporting(ctx context.Context, c *store.Catalog, a *store.Artifact, dir, file string, cred auth.Credential) error {
	rel, err := supportingRel(a.Path, file)
	if err != nil {
		return err
	}
	content, err := i.fetcher.Get(ctx, sourceurl.Resolve(c.Metadata.Repository, file), cred)
	if err != nil {
		return err
	}
	dest := filepath.Join(dir, filepath.FromSlash(rel))
	if err := i.fs.MkdirAll(filepath.Dir(dest)); err != nil {
		return err
	}
	return i.fs.WriteFile(dest, content)
}

// Uninstall removes an installed artifact's files and its record. The
// installation must exist and opts.Confirm must approve.
func (i *Installer) Uninstall(ctx context.Context, catalogID, artifactID string, opts UninstallOptions) error {
	inst, err := i.store.GetInstallation(ctx, catalogID, artifactID)
	if errors.Is(err, store.ErrNotFound) {
		return &NotInstalledError{CatalogID: catalogID, ArtifactID: artifactID}
	}
	if err != nil {
		return err
	}

	if opts.Confirm == nil {
		return ErrUninstallNotConfirmed
	}
	ok, err := opts.Confirm()
	if err != nil {
		return err
	}
	if !ok {
		return ErrUninstallNotConfirmed
	}

	if platform.Exists(i.fs, inst.InstalledPath) {
		if err := i.fs.Remove(inst.InstalledPath, false); err != nil {
			i.logger.Warn("removing installed file failed", "artifact", inst.Ref(), "path", inst.InstalledPath, "error", err)
		}
	}
	dirs := []string{SupportingDir(inst.InstalledPath, artifactID)}
	if opts.InstallRoot != "" {
		dirs = append(dirs, LegacySupportingDir(opts.InstallRoot, artifactID))
	}
	for _, dir := range dirs {
		if !platform.Exists(i.fs, dir) {
			continue
		}
		if err := i.fs.Remove(dir, true); err != nil {
			i.logger.Warn("removing supporting files failed", "artifact", inst.Ref(), "dir", dir, "error", err)
		}
	}

	if err := i.store.DeleteInstallation(ctx, catalogID, artifactID); err != nil {
		return err
	}
	i.logger.Info("uninstalled artifact", "artifact", inst.Ref(), "path", inst.InstalledPath)
	return nil
}

// Update rewrites an installed artifact in place with the catalog's current
// version and records the new version.
func (i *Installer) Update(ctx context.Context, catalogID, artifactID, installRoot string) *InstallResult {
	result := &InstallResult{CatalogID: catalogID, ArtifactID: artifactID}

	inst, err := i.store.GetInstallation(ctx, catalogID, artifactID)
	if errors.Is(err, store.ErrNotFound) {
		return i.fail(result, &NotInstalledError{CatalogID: catalogID, ArtifactID: artifactID})
	}
	if err != nil {
		return i.fail(result, err)
	}

	a, err := i.store.GetArtifact(ctx, catalogID, artifactID)
	if errors.Is(err, store.ErrNotFound) {
		return i.fail(result, &NotFoundInCatalogError{CatalogID: catalogID, ArtifactID: artifactID})
	}
	if err != nil {
		return i.fail(result, err)
	}
	result.Version = a.Version

	target := inst.InstalledPath
	if target == "" {
		if target, err = TargetPath(installRoot, a); err != nil {
			return i.fail(result, err)
		}
	}
	if err := i.writeArtifact(ctx, a, target, result); err != nil {
		return i.fail(result, err)
	}

	if err := i.store.RecordInstallation(ctx, &store.Installation{
		ArtifactID:    artifactID,
		CatalogID:     catalogID,
		Version:       a.Version,
		InstalledPath: target,
	}); err != nil {
		return i.fail(result, err)
	}

	i.logger.Info("updated artifact", "artifact", a.Ref(), "from", inst.Version, "to", a.Version)
	result.Success = true
	result.Path = target
	return result
}

func (i *Installer) credential(catalogID string) (auth.Credential, error) {
	if i.creds == nil {
		return auth.None, nil
	}
	return i.creds.Credential(catalogID)
}

func (i *Installer) fail(result *InstallResult, err error) *InstallResult {
	i.logger.Debug("operation failed", "artifact", result.Ref(), "error", err)
	result.Success = false
	result.Err = err
	result.Error = err.Error()
	return result
}

package registry

import (
	"errors"
	"fmt"
)

// ErrUninstallNotConfirmed is returned when an uninstall was not confirmed.
var ErrUninstallNotConfirmed = errors.New("uninstall not confirmed")

// AlreadyInstalledError is returned when installing an artifact that has an
// installation record.
type AlreadyInstalledError struct {
	CatalogID  string
	ArtifactID string
	Version    string
}

func (e *AlreadyInstalledError) Error() string {
	return fmt.Sprintf("%s/%s is already installed (version %s)", e.CatalogID, e.ArtifactID, e.Version)
}

// NotInstalledError is returned when uninstalling or updating an artifact
// without an installation record.
type NotInstalledError struct {
	CatalogID  string
	ArtifactID string
}

func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("%s/%s is not installed", e.CatalogID, e.ArtifactID)
}

// NotFoundInCatalogError is returned when an installed artifact is no longer
// listed by its catalog.
type NotFoundInCatalogError struct {
	CatalogID  string
	ArtifactID string
}

func (e *NotFoundInCatalogError) Error() string {
	return fmt.Sprintf("artifact %s not found in catalog %s", e.ArtifactID, e.CatalogID)
}

// DependencyNotFoundError is returned when a declared dependency cannot be
// found in any catalog.
type DependencyNotFoundError struct {
	ID         string
	RequiredBy string
}

func (e *DependencyNotFoundError) Error() string {
	return fmt.Sprintf("dependency %q required by %s not found in any catalog", e.ID, e.RequiredBy)
}

// DependencyFailedError wraps the failure of a dependency install that
// aborted its dependent.
type DependencyFailedError struct {
	Dependency string
	Err        error
}

func (e *DependencyFailedError) Error() string {
	return fmt.Sprintf("installing dependency %s: %v", e.Dependency, e.Err)
}

func (e *DependencyFailedError) Unwrap() error { return e.Err }

// FileConflictError is returned when the target file exists and no conflict
// handler was supplied.
type FileConflictError struct {
	Path string
}

func (e *FileConflictError) Error() string {
	return fmt.Sprintf("file already exists: %s", e.Path)
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordInstallation inserts an installation record, or updates version,
// path and install time when (artifactId, catalogId) is already recorded.
func (s *Store) RecordInstallation(ctx context.Context, inst *Installation) error {
	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}
	if inst.InstalledAt.IsZero() {
		inst.InstalledAt = time.Now().UTC()
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "artifact_id"}, {Name: "catalog_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "installed_path", "installed_at"}),
	}).Create(inst).Error
	if isForeignKeyViolation(err) {
		return &NotFoundError{Entity: "catalog", Key: inst.CatalogID}
	}
	if err != nil {
		return fmt.Errorf("recording installation of %s: %w", inst.Ref(), err)
	}
	return nil
}

// DeleteInstallation removes the installation record of an artifact.
func (s *Store) DeleteInstallation(ctx context.Context, catalogID, artifactID string) error {
	res := s.db.WithContext(ctx).
		Where("catalog_id = ? AND artifact_id = ?", catalogID, artifactID).
		Delete(&Installation{})
	if res.Error != nil {
		return fmt.Errorf("deleting installation of %s: %w", catalogKey(catalogID, artifactID), res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "installation", Key: catalogKey(catalogID, artifactID)}
	}
	return nil
}

// GetInstallation returns the installation record of an artifact.
func (s *Store) GetInstallation(ctx context.Context, catalogID, artifactID string) (*Installation, error) {
	var inst Installation
	err := s.db.WithContext(ctx).
		Where("catalog_id = ? AND artifact_id = ?", catalogID, artifactID).
		Take(&inst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "installation", Key: catalogKey(catalogID, artifactID)}
	}
	if err != nil {
		return nil, fmt.Errorf("reading installation of %s: %w", catalogKey(catalogID, artifactID), err)
	}
	return &inst, nil
}

// IsInstalled reports whether an installation record exists.
func (s *Store) IsInstalled(ctx context.Context, catalogID, artifactID string) (bool, error) {
	_, err := s.GetInstallation(ctx, catalogID, artifactID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ListInstallations returns every installation, oldest first.
func (s *Store) ListInstallations(ctx context.Context) ([]Installation, error) {
	var insts []Installation
	if err := s.db.WithContext(ctx).Order("installed_at, catalog_id, artifact_id").Find(&insts).Error; err != nil {
		return nil, fmt.Errorf("listing installations: %w", err)
	}
	return insts, nil
}

// ListInstallationsForCatalog returns the installations of one catalog.
func (s *Store) ListInstallationsForCatalog(ctx context.Context, catalogID string) ([]Installation, error) {
	var insts []Installation
	err := s.db.WithContext(ctx).
		Where("catalog_id = ?", catalogID).
		Order("artifact_id").
		Find(&insts).Error
	if err != nil {
		return nil, fmt.Errorf("listing installations of catalog %s: %w", catalogID, err)
	}
	return insts, nil
}

// TouchInstallation sets the last-used time of an installation.
func (s *Store) TouchInstallation(ctx context.Context, catalogID, artifactID string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&Installation{}).
		Where("catalog_id = ? AND artifact_id = ?", catalogID, artifactID).
		Update("last_used", at.UTC())
	if res.Error != nil {
		return fmt.Errorf("touching installation of %s: %w", catalogKey(catalogID, artifactID), res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "installation", Key: catalogKey(catalogID, artifactID)}
	}
	return nil
}

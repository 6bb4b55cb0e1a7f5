package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

const insertBatchSize = 100

// ReplaceArtifactsForCatalog deletes every artifact of the catalog and
// inserts the given set, atomically. Installation records are untouched.
func (s *Store) ReplaceArtifactsForCatalog(ctx context.Context, catalogID string, artifacts []Artifact) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Catalog{}).Where("id = ?", catalogID).Count(&n).Error; err != nil {
			return fmt.Errorf("checking catalog %s: %w", catalogID, err)
		}
		if n == 0 {
			return &NotFoundError{Entity: "catalog", Key: catalogID}
		}
		return replaceArtifacts(tx, catalogID, artifacts)
	})
}

func replaceArtifacts(tx *gorm.DB, catalogID string, artifacts []Artifact) error {
	if err := tx.Where("catalog_id = ?", catalogID).Delete(&Artifact{}).Error; err != nil {
		return fmt.Errorf("clearing artifacts of catalog %s: %w", catalogID, err)
	}
	if len(artifacts) == 0 {
		return nil
	}

	rows := make([]Artifact, len(artifacts))
	for i, a := range artifacts {
		a.CatalogID = catalogID
		normalizeArtifact(&a)
		rows[i] = a
	}
	if err := tx.CreateInBatches(&rows, insertBatchSize).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("catalog %s lists an artifact id twice: %w", catalogID, err)
		}
		return fmt.Errorf("inserting artifacts of catalog %s: %w", catalogID, err)
	}
	return nil
}

// ListArtifacts returns every artifact of a catalog ordered by id.
func (s *Store) ListArtifacts(ctx context.Context, catalogID string) ([]Artifact, error) {
	var artifacts []Artifact
	err := s.db.WithContext(ctx).Where("catalog_id = ?", catalogID).Order("id").Find(&artifacts).Error
	if err != nil {
		return nil, fmt.Errorf("listing artifacts of catalog %s: %w", catalogID, err)
	}
	return artifacts, nil
}

// GetArtifact returns one artifact by its composite key.
func (s *Store) GetArtifact(ctx context.Context, catalogID, artifactID string) (*Artifact, error) {
	var a Artifact
	err := s.db.WithContext(ctx).
		Where("catalog_id = ? AND id = ?", catalogID, artifactID).
		Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "artifact", Key: catalogKey(catalogID, artifactID)}
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", catalogKey(catalogID, artifactID), err)
	}
	return &a, nil
}

// FindArtifacts returns every artifact with the given id across enabled
// catalogs, ordered by catalog id.
func (s *Store) FindArtifacts(ctx context.Context, artifactID string) ([]Artifact, error) {
	var artifacts []Artifact
	err := s.db.WithContext(ctx).
		Table("artifacts AS a").
		Select("a.*").
		Joins("JOIN catalogs c ON c.id = a.catalog_id").
		Where("a.id = ? AND c.enabled = ?", artifactID, true).
		Order("a.catalog_id").
		Find(&artifacts).Error
	if err != nil {
		return nil, fmt.Errorf("finding artifact %s: %w", artifactID, err)
	}
	return artifacts, nil
}

// ArtifactIDs returns the distinct artifact ids of enabled catalogs. It
// feeds "did you mean" suggestions.
func (s *Store) ArtifactIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Table("artifacts AS a").
		Joins("JOIN catalogs c ON c.id = a.catalog_id").
		Where("c.enabled = ?", true).
		Distinct().
		Order("a.id").
		Pluck("a.id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("listing artifact ids: %w", err)
	}
	return ids, nil
}

// CountArtifacts returns the number of artifacts indexed for a catalog.
func (s *Store) CountArtifacts(ctx context.Context, catalogID string) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Artifact{}).Where("catalog_id = ?", catalogID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting artifacts of catalog %s: %w", catalogID, err)
	}
	return n, nil
}

// DeleteArtifact removes one artifact and its installation record in a
// single transaction.
func (s *Store) DeleteArtifact(ctx context.Context, catalogID, artifactID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("catalog_id = ? AND id = ?", catalogID, artifactID).Delete(&Artifact{})
		if res.Error != nil {
			return fmt.Errorf("deleting artifact %s: %w", catalogKey(catalogID, artifactID), res.Error)
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Entity: "artifact", Key: catalogKey(catalogID, artifactID)}
		}
		err := tx.Where("catalog_id = ? AND artifact_id = ?", catalogID, artifactID).
			Delete(&Installation{}).Error
		if err != nil {
			return fmt.Errorf("deleting installation of %s: %w", catalogKey(catalogID, artifactID), err)
		}
		return nil
	})
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// CreateCatalog inserts a new catalog. A duplicate id or url yields a
// *ConflictError.
func (s *Store) CreateCatalog(ctx context.Context, c *Catalog) error {
	if c.Status == "" {
		c.Status = StatusHealthy
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCatalogUnique(tx, c.ID, c.URL, true); err != nil {
			return err
		}
		if err := tx.Create(c).Error; err != nil {
			if isUniqueViolation(err) {
				return &ConflictError{Entity: "catalog", Field: "id", Value: c.ID}
			}
			return fmt.Errorf("creating catalog %s: %w", c.ID, err)
		}
		return nil
	})
}

// UpsertCatalog inserts c or updates the existing row with the same id.
// Another catalog already using c.URL yields a *ConflictError.
func (s *Store) UpsertCatalog(ctx context.Context, c *Catalog) error {
	if c.Status == "" {
		c.Status = StatusHealthy
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCatalogUnique(tx, c.ID, c.URL, false); err != nil {
			return err
		}

		var existing Catalog
		err := tx.Where("id = ?", c.ID).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(c).Error; err != nil {
				return fmt.Errorf("creating catalog %s: %w", c.ID, err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("reading catalog %s: %w", c.ID, err)
		}

		err = tx.Model(&Catalog{}).Where("id = ?", c.ID).Updates(map[string]any{
			"url":        c.URL,
			"enabled":    c.Enabled,
			"metadata":   jsonText(c.Metadata),
			"updated_at": time.Now().UTC(),
		}).Error
		if err != nil {
			if isUniqueViolation(err) {
				return &ConflictError{Entity: "catalog", Field: "url", Value: c.URL}
			}
			return fmt.Errorf("updating catalog %s: %w", c.ID, err)
		}
		c.CreatedAt = existing.CreatedAt
		return nil
	})
}

// checkCatalogUnique rejects an id (when checkID is set) or a url already
// held by another catalog.
func checkCatalogUnique(tx *gorm.DB, id, url string, checkID bool) error {
	if checkID {
		var n int64
		if err := tx.Model(&Catalog{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return fmt.Errorf("checking catalog id: %w", err)
		}
		if n > 0 {
			return &ConflictError{Entity: "catalog", Field: "id", Value: id}
		}
	}

	var n int64
	if err := tx.Model(&Catalog{}).Where("url = ? AND id <> ?", url, id).Count(&n).Error; err != nil {
		return fmt.Errorf("checking catalog url: %w", err)
	}
	if n > 0 {
		return &ConflictError{Entity: "catalog", Field: "url", Value: url}
	}
	return nil
}

// UpdateCatalogStatus records the sync state of a catalog. An empty message
// clears the stored error.
func (s *Store) UpdateCatalogStatus(ctx context.Context, id string, status Status, message string) error {
	var errValue any
	if message != "" {
		errValue = message
	}
	res := s.db.WithContext(ctx).Model(&Catalog{}).Where("id = ?", id).Updates(map[string]any{
		"status":     status,
		"error":      errValue,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return fmt.Errorf("updating status of catalog %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "catalog", Key: id}
	}
	return nil
}

// SetCatalogEnabled flips the enabled flag of a catalog.
func (s *Store) SetCatalogEnabled(ctx context.Context, id string, enabled bool) error {
	res := s.db.WithContext(ctx).Model(&Catalog{}).Where("id = ?", id).Updates(map[string]any{
		"enabled":    enabled,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return fmt.Errorf("updating catalog %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "catalog", Key: id}
	}
	return nil
}

// DeleteCatalog removes a catalog together with its artifacts and
// installation records.
func (s *Store) DeleteCatalog(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("catalog_id = ?", id).Delete(&Installation{}).Error; err != nil {
			return fmt.Errorf("deleting installations of catalog %s: %w", id, err)
		}
		if err := tx.Where("catalog_id = ?", id).Delete(&Artifact{}).Error; err != nil {
			return fmt.Errorf("deleting artifacts of catalog %s: %w", id, err)
		}
		res := tx.Where("id = ?", id).Delete(&Catalog{})
		if res.Error != nil {
			return fmt.Errorf("deleting catalog %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Entity: "catalog", Key: id}
		}
		return nil
	})
}

// GetCatalog returns the catalog with the given id.
func (s *Store) GetCatalog(ctx context.Context, id string) (*Catalog, error) {
	var c Catalog
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "catalog", Key: id}
	}
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", id, err)
	}
	return &c, nil
}

// ListCatalogs returns every catalog ordered by id.
func (s *Store) ListCatalogs(ctx context.Context) ([]Catalog, error) {
	var catalogs []Catalog
	if err := s.db.WithContext(ctx).Order("id").Find(&catalogs).Error; err != nil {
		return nil, fmt.Errorf("listing catalogs: %w", err)
	}
	return catalogs, nil
}

// ApplyRefresh stores the outcome of a successful catalog fetch: catalog
// metadata, healthy status and the complete artifact set, in one transaction.
func (s *Store) ApplyRefresh(ctx context.Context, id string, meta CatalogMetadata, artifacts []Artifact) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&Catalog{}).Where("id = ?", id).Updates(map[string]any{
			"metadata":     jsonText(meta),
			"status":       StatusHealthy,
			"error":        nil,
			"last_fetched": now,
			"updated_at":   now,
		})
		if res.Error != nil {
			return fmt.Errorf("updating catalog %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Entity: "catalog", Key: id}
		}
		return replaceArtifacts(tx, id, artifacts)
	})
}

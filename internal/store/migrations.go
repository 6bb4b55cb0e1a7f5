package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// migration is one additive schema step. Applied reports whether the step's
// marker is already present, in which case only the version is bumped.
type migration struct {
	ID          int
	Description string
	Applied     func(tx *gorm.DB) (bool, error)
	Migrate     func(tx *gorm.DB) error
}

var migrations = []migration{
	migration001,
	migration002,
	migration003,
	migration004,
}

var migration001 = migration{
	ID:          1,
	Description: "create catalogs, artifacts and installations",
	Applied: func(tx *gorm.DB) (bool, error) {
		m := tx.Migrator()
		return m.HasTable("catalogs") && m.HasTable("artifacts") && m.HasTable("installations"), nil
	},
	Migrate: func(tx *gorm.DB) error {
		return runSQL(tx,
			`CREATE TABLE IF NOT EXISTS catalogs (
				id           TEXT PRIMARY KEY,
				url          TEXT NOT NULL UNIQUE,
				enabled      INTEGER NOT NULL DEFAULT 1,
				metadata     TEXT,
				status       TEXT NOT NULL DEFAULT 'healthy',
				error        TEXT,
				last_fetched DATETIME,
				created_at   DATETIME NOT NULL,
				updated_at   DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS artifacts (
				id               TEXT NOT NULL,
				catalog_id       TEXT NOT NULL REFERENCES catalogs(id) ON DELETE CASCADE,
				type             TEXT NOT NULL,
				name             TEXT NOT NULL,
				description      TEXT NOT NULL,
				path             TEXT NOT NULL,
				version          TEXT NOT NULL,
				category         TEXT NOT NULL,
				tags             TEXT NOT NULL DEFAULT '[]',
				keywords         TEXT NOT NULL DEFAULT '[]',
				language         TEXT,
				framework        TEXT,
				use_case         TEXT,
				difficulty       TEXT,
				estimated_time   TEXT,
				author           TEXT,
				compatibility    TEXT,
				metadata         TEXT,
				dependencies     TEXT NOT NULL DEFAULT '[]',
				supporting_files TEXT NOT NULL DEFAULT '[]',
				source_url       TEXT,
				created_at       DATETIME NOT NULL,
				updated_at       DATETIME NOT NULL,
				PRIMARY KEY (id, catalog_id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_artifacts_catalog ON artifacts(catalog_id)`,
			`CREATE TABLE IF NOT EXISTS installations (
				id             TEXT PRIMARY KEY,
				artifact_id    TEXT NOT NULL,
				catalog_id     TEXT NOT NULL REFERENCES catalogs(id) ON DELETE CASCADE,
				version        TEXT NOT NULL,
				installed_path TEXT NOT NULL,
				installed_at   DATETIME NOT NULL,
				last_used      DATETIME,
				UNIQUE (artifact_id, catalog_id)
			)`,
		)
	},
}

var migration002 = migration{
	ID:          2,
	Description: "full-text index over artifacts",
	Applied: func(tx *gorm.DB) (bool, error) {
		return hasObjects(tx, map[string]string{
			"artifacts_fts": "table",
			"artifacts_ai":  "trigger",
			"artifacts_ad":  "trigger",
			"artifacts_au":  "trigger",
		})
	},
	Migrate: func(tx *gorm.DB) error {
		return runSQL(tx,
			`CREATE VIRTUAL TABLE IF NOT EXISTS artifacts_fts USING fts5(
				name, description, tags, keywords, category,
				content='artifacts',
				content_rowid='rowid',
				tokenize='unicode61 remove_diacritics 2'
			)`,
			`CREATE TRIGGER IF NOT EXISTS artifacts_ai AFTER INSERT ON artifacts BEGIN
				INSERT INTO artifacts_fts(rowid, name, description, tags, keywords, category)
				VALUES (new.rowid, new.name, new.description, new.tags, new.keywords, new.category);
			END`,
			`CREATE TRIGGER IF NOT EXISTS artifacts_ad AFTER DELETE ON artifacts BEGIN
				INSERT INTO artifacts_fts(artifacts_fts, rowid, name, description, tags, keywords, category)
				VALUES ('delete', old.rowid, old.name, old.description, old.tags, old.keywords, old.category);
			END`,
			`CREATE TRIGGER IF NOT EXISTS artifacts_au AFTER UPDATE ON artifacts BEGIN
				INSERT INTO artifacts_fts(artifacts_fts, rowid, name, description, tags, keywords, category)
				VALUES ('delete', old.rowid, old.name, old.description, old.tags, old.keywords, old.category);
				INSERT INTO artifacts_fts(rowid, name, description, tags, keywords, category)
				VALUES (new.rowid, new.name, new.description, new.tags, new.keywords, new.category);
			END`,
			`INSERT INTO artifacts_fts(artifacts_fts) VALUES ('rebuild')`,
		)
	},
}

var migration003 = migration{
	ID:          3,
	Description: "rating and downloads columns",
	Applied: func(tx *gorm.DB) (bool, error) {
		m := tx.Migrator()
		return m.HasColumn("artifacts", "rating") && m.HasColumn("artifacts", "downloads"), nil
	},
	Migrate: func(tx *gorm.DB) error {
		m := tx.Migrator()
		var stmts []string
		if !m.HasColumn("artifacts", "rating") {
			stmts = append(stmts, `ALTER TABLE artifacts ADD COLUMN rating REAL NOT NULL DEFAULT 0`)
		}
		if !m.HasColumn("artifacts", "downloads") {
			stmts = append(stmts, `ALTER TABLE artifacts ADD COLUMN downloads INTEGER NOT NULL DEFAULT 0`)
		}
		stmts = append(stmts,
			`UPDATE artifacts SET
				rating = COALESCE(json_extract(metadata, '$.rating'), 0),
				downloads = COALESCE(json_extract(metadata, '$.downloads'), 0)
			WHERE json_valid(metadata)`,
		)
		return runSQL(tx, stmts...)
	},
}

var migration004 = migration{
	ID:          4,
	Description: "search filter indexes",
	Applied: func(tx *gorm.DB) (bool, error) {
		return hasObjects(tx, map[string]string{
			"idx_artifacts_type":     "index",
			"idx_artifacts_category": "index",
			"idx_artifacts_language": "index",
			"idx_installations_cat":  "index",
		})
	},
	Migrate: func(tx *gorm.DB) error {
		return runSQL(tx,
			`CREATE INDEX IF NOT EXISTS idx_artifacts_type ON artifacts(type)`,
			`CREATE INDEX IF NOT EXISTS idx_artifacts_category ON artifacts(category)`,
			`CREATE INDEX IF NOT EXISTS idx_artifacts_language ON artifacts(language)`,
			`CREATE INDEX IF NOT EXISTS idx_installations_cat ON installations(catalog_id)`,
		)
	},
}

// Migrate brings the schema up to the latest version. It is safe to call on
// an already migrated store.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`).Error; err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.ID <= current {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			applied, err := m.Applied(tx)
			if err != nil {
				return err
			}
			if applied {
				s.logger.Debug("Migration marker present, bumping version", "id", m.ID)
			} else {
				if err := m.Migrate(tx); err != nil {
					return err
				}
				s.logger.Info("Applied migration", "id", m.ID, "description", m.Description)
			}
			return setSchemaVersion(tx, m.ID)
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.ID, m.Description, err)
		}
	}
	return nil
}

// SchemaVersion returns the version recorded in schema_version, or 0.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.WithContext(ctx).
		Raw(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).
		Scan(&version).Error
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// LatestSchemaVersion is the version a fully migrated store reports.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].ID
}

func setSchemaVersion(tx *gorm.DB, version int) error {
	return runSQL(tx, `DELETE FROM schema_version`,
		fmt.Sprintf(`INSERT INTO schema_version (version) VALUES (%d)`, version))
}

func runSQL(tx *gorm.DB, stmts ...string) error {
	for _, stmt := range stmts {
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// hasObjects reports whether every named schema object of the given kind
// exists in sqlite_master.
func hasObjects(tx *gorm.DB, objects map[string]string) (bool, error) {
	for name, kind := range objects {
		var n int64
		err := tx.Raw(`SELECT count(*) FROM sqlite_master WHERE type = ? AND name = ?`, kind, name).
			Scan(&n).Error
		if err != nil {
			return false, err
		}
		if n == 0 {
			return false, nil
		}
	}
	return true, nil
}

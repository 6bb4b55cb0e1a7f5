package store

import (
	"encoding/json"
	"time"

	"github.com/agentx-labs/promptreg/internal/manifest"
)

// Status is the sync state of a catalog.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusUpdating Status = "updating"
	StatusError    Status = "error"
)

// CatalogMetadata is the descriptive block copied from a catalog manifest.
type CatalogMetadata struct {
	Name        string              `json:"name,omitempty"`
	Description string              `json:"description,omitempty"`
	Author      string              `json:"author,omitempty"`
	License     string              `json:"license,omitempty"`
	Homepage    string              `json:"homepage,omitempty"`
	Repository  manifest.Repository `json:"repository"`
}

// MetadataFromManifest builds catalog metadata from a parsed manifest.
func MetadataFromManifest(info manifest.CatalogInfo) CatalogMetadata {
	return CatalogMetadata{
		Name:        info.Name,
		Description: info.Description,
		Author:      info.Author,
		License:     info.License,
		Homepage:    info.Homepage,
		Repository:  info.Repository,
	}
}

// Catalog is a remote manifest source and its local sync state.
type Catalog struct {
	ID          string          `gorm:"column:id;primaryKey" json:"id"`
	URL         string          `gorm:"column:url;not null" json:"url"`
	Enabled     bool            `gorm:"column:enabled;not null" json:"enabled"`
	Metadata    CatalogMetadata `gorm:"column:metadata;serializer:json" json:"metadata"`
	Status      Status          `gorm:"column:status;not null" json:"status"`
	Error       *string         `gorm:"column:error" json:"error,omitempty"`
	LastFetched *time.Time      `gorm:"column:last_fetched" json:"lastFetched,omitempty"`
	CreatedAt   time.Time       `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName returns the catalogs table name.
func (Catalog) TableName() string { return "catalogs" }

// Artifact is one artifact row, denormalized per catalog.
type Artifact struct {
	ID              string         `gorm:"column:id;primaryKey" json:"id"`
	CatalogID       string         `gorm:"column:catalog_id;primaryKey" json:"catalogId"`
	Type            string         `gorm:"column:type;not null" json:"type"`
	Name            string         `gorm:"column:name;not null" json:"name"`
	Description     string         `gorm:"column:description;not null" json:"description"`
	Path            string         `gorm:"column:path;not null" json:"path"`
	Version         string         `gorm:"column:version;not null" json:"version"`
	Category        string         `gorm:"column:category;not null" json:"category"`
	Tags            []string       `gorm:"column:tags;serializer:json" json:"tags"`
	Keywords        []string       `gorm:"column:keywords;serializer:json" json:"keywords,omitempty"`
	Language        string         `gorm:"column:language" json:"language,omitempty"`
	Framework       string         `gorm:"column:framework" json:"framework,omitempty"`
	UseCase         string         `gorm:"column:use_case" json:"useCase,omitempty"`
	Difficulty      string         `gorm:"column:difficulty" json:"difficulty,omitempty"`
	EstimatedTime   string         `gorm:"column:estimated_time" json:"estimatedTime,omitempty"`
	Author          string         `gorm:"column:author" json:"author,omitempty"`
	Compatibility   map[string]any `gorm:"column:compatibility;serializer:json" json:"compatibility,omitempty"`
	Metadata        map[string]any `gorm:"column:metadata;serializer:json" json:"metadata,omitempty"`
	Dependencies    []string       `gorm:"column:dependencies;serializer:json" json:"dependencies"`
	SupportingFiles []string       `gorm:"column:supporting_files;serializer:json" json:"supportingFiles"`
	SourceURL       string         `gorm:"column:source_url" json:"sourceUrl"`
	Rating          float64        `gorm:"column:rating" json:"rating"`
	Downloads       int64          `gorm:"column:downloads" json:"downloads"`
	CreatedAt       time.Time      `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName returns the artifacts table name.
func (Artifact) TableName() string { return "artifacts" }

// Ref returns the "<catalogId>/<artifactId>" form of the artifact.
func (a *Artifact) Ref() string { return catalogKey(a.CatalogID, a.ID) }

// ArtifactFromManifest converts a manifest entry into a row of catalogID.
// The source URL is left to the caller.
func ArtifactFromManifest(catalogID string, m manifest.Artifact) Artifact {
	return Artifact{
		ID:              m.ID,
		CatalogID:       catalogID,
		Type:            m.Type,
		Name:            m.Name,
		Description:     m.Description,
		Path:            m.Path,
		Version:         m.Version,
		Category:        m.Category,
		Tags:            m.Tags,
		Keywords:        m.Keywords,
		Language:        m.Language,
		Framework:       m.Framework,
		UseCase:         m.UseCase,
		Difficulty:      m.Difficulty,
		EstimatedTime:   m.EstimatedTime,
		Author:          m.Author,
		Compatibility:   m.Compatibility,
		Metadata:        m.Metadata,
		Dependencies:    m.Dependencies,
		SupportingFiles: m.SupportingFiles,
		Rating:          m.Rating(),
		Downloads:       m.Downloads(),
	}
}

// Installation records an artifact materialized in a workspace.
type Installation struct {
	ID            string     `gorm:"column:id;primaryKey" json:"id"`
	ArtifactID    string     `gorm:"column:artifact_id;not null" json:"artifactId"`
	CatalogID     string     `gorm:"column:catalog_id;not null" json:"catalogId"`
	Version       string     `gorm:"column:version;not null" json:"version"`
	InstalledPath string     `gorm:"column:installed_path;not null" json:"installedPath"`
	InstalledAt   time.Time  `gorm:"column:installed_at;not null" json:"installedAt"`
	LastUsed      *time.Time `gorm:"column:last_used" json:"lastUsed,omitempty"`
}

// TableName returns the installations table name.
func (Installation) TableName() string { return "installations" }

// Ref returns the "<catalogId>/<artifactId>" form of the installation.
func (i *Installation) Ref() string { return catalogKey(i.CatalogID, i.ArtifactID) }

func normalizeArtifact(a *Artifact) {
	if a.Tags == nil {
		a.Tags = []string{}
	}
	if a.Keywords == nil {
		a.Keywords = []string{}
	}
	if a.Dependencies == nil {
		a.Dependencies = []string{}
	}
	if a.SupportingFiles == nil {
		a.SupportingFiles = []string{}
	}
}

// jsonText encodes v for columns written through map updates, which bypass
// the json serializer.
func jsonText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

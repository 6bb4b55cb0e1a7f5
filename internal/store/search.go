package store

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"gorm.io/gorm"
)

// Sort orders for Search.
const (
	SortRelevance = "relevance"
	SortRating    = "rating"
	SortDownloads = "downloads"
	SortRecent    = "recent"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SearchQuery is a free-text query plus exact-match filters. Empty fields
// do not filter.
type SearchQuery struct {
	Text       string
	Type       string
	Language   string
	Framework  string
	Category   string
	Difficulty string
	CatalogID  string
	// Tags matches artifacts carrying any of the given tags.
	Tags     []string
	SortBy   string
	Page     int
	PageSize int
}

// SearchResult is one page of search hits.
type SearchResult struct {
	Artifacts []Artifact `json:"artifacts"`
	Total     int64      `json:"total"`
	Page      int        `json:"page"`
	PageSize  int        `json:"pageSize"`
	HasMore   bool       `json:"hasMore"`
}

// Search runs q against the artifacts of enabled catalogs.
func (s *Store) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	// Text made only of separators matches nothing rather than everything.
	match := ftsQuery(q.Text)
	if match == "" && strings.TrimSpace(q.Text) != "" {
		return &SearchResult{Artifacts: []Artifact{}, Page: page, PageSize: pageSize}, nil
	}

	base := s.db.WithContext(ctx).
		Table("artifacts AS a").
		Joins("JOIN catalogs c ON c.id = a.catalog_id").
		Where("c.enabled = ?", true)

	if match != "" {
		base = base.
			Joins("JOIN artifacts_fts ON artifacts_fts.rowid = a.rowid").
			Where("artifacts_fts MATCH ?", match)
	}
	base = applyFilters(base, q).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting search results: %w", err)
	}

	artifacts := []Artifact{}
	err := base.
		Select("a.*").
		Order(orderClause(q.SortBy, match != "")).
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&artifacts).Error
	if err != nil {
		return nil, fmt.Errorf("searching artifacts: %w", err)
	}

	return &SearchResult{
		Artifacts: artifacts,
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
		HasMore:   int64(page*pageSize) < total,
	}, nil
}

func applyFilters(db *gorm.DB, q SearchQuery) *gorm.DB {
	exact := []struct {
		column string
		value  string
	}{
		{"a.type", q.Type},
		{"a.language", q.Language},
		{"a.framework", q.Framework},
		{"a.category", q.Category},
		{"a.difficulty", q.Difficulty},
		{"a.catalog_id", q.CatalogID},
	}
	for _, f := range exact {
		if f.value != "" {
			db = db.Where(f.column+" = ?", f.value)
		}
	}

	tags := make([]string, 0, len(q.Tags))
	for _, t := range q.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) > 0 {
		db = db.Where("EXISTS (SELECT 1 FROM json_each(a.tags) WHERE json_each.value IN ?)", tags)
	}
	return db
}

func orderClause(sortBy string, hasText bool) string {
	switch sortBy {
	case SortRating:
		return "a.rating DESC, a.name"
	case SortDownloads:
		return "a.downloads DESC, a.name"
	case SortRecent:
		return "a.updated_at DESC, a.name"
	}
	if hasText {
		return "bm25(artifacts_fts), a.name"
	}
	return "a.name, a.catalog_id"
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// ftsQuery turns user text into an FTS5 expression where every word is a
// quoted prefix term. Punctuation only separates words.
func ftsQuery(text string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, len(words))
	for i, w := range words {
		terms[i] = `"` + w + `"*`
	}
	return strings.Join(terms, " ")
}

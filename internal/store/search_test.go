package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSearchData(t *testing.T, s *Store) {
	t.Helper()

	reviewer := testArtifact("go-reviewer", "go", "review")
	reviewer.Type = "chatmode"
	reviewer.Name = "Go Reviewer"
	reviewer.Description = "Reviews Go code for idioms"
	reviewer.Language = "go"
	reviewer.Rating = 4.8
	reviewer.Downloads = 10

	style := testArtifact("go-style", "go", "style")
	style.Type = "instructions"
	style.Name = "Go Style"
	style.Description = "Formatting and naming conventions"
	style.Language = "go"
	style.Keywords = []string{"gofmt"}
	style.Rating = 3.9
	style.Downloads = 500

	py := testArtifact("py-tests", "python", "testing")
	py.Name = "Pytest Writer"
	py.Description = "Writes pytest suites"
	py.Language = "python"
	py.Category = "quality"

	seedCatalog(t, s, "alpha", reviewer, style)
	seedCatalog(t, s, "beta", py)
}

func resultIDs(res *SearchResult) []string {
	ids := make([]string, len(res.Artifacts))
	for i, a := range res.Artifacts {
		ids[i] = a.ID
	}
	return ids
}

func TestSearch_FreeText(t *testing.T) {
	s, _ := newTestStore(t)
	seedSearchData(t, s)
	ctx := context.Background()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "name prefix", text: "review", want: []string{"go-reviewer"}},
		{name: "keyword", text: "gofmt", want: []string{"go-style"}},
		{name: "category", text: "quality", want: []string{"py-tests"}},
		{name: "tag", text: "python", want: []string{"py-tests"}},
		{name: "all tokens must match", text: "go conventions", want: []string{"go-style"}},
		{name: "punctuation is harmless", text: `pytest"(`, want: []string{"py-tests"}},
		{name: "no hit", text: "rust", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Search(ctx, SearchQuery{Text: tt.text})
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, resultIDs(res))
			assert.Equal(t, int64(len(tt.want)), res.Total)
		})
	}
}

func TestSearch_Filters(t *testing.T) {
	s, _ := newTestStore(t)
	seedSearchData(t, s)
	ctx := context.Background()

	tests := []struct {
		name  string
		query SearchQuery
		want  []string
	}{
		{name: "type", query: SearchQuery{Type: "chatmode"}, want: []string{"go-reviewer"}},
		{name: "language", query: SearchQuery{Language: "go"}, want: []string{"go-reviewer", "go-style"}},
		{name: "catalog", query: SearchQuery{CatalogID: "beta"}, want: []string{"py-tests"}},
		{name: "category", query: SearchQuery{Category: "quality"}, want: []string{"py-tests"}},
		{name: "any tag", query: SearchQuery{Tags: []string{"style", "testing"}}, want: []string{"go-style", "py-tests"}},
		{name: "text and filter", query: SearchQuery{Text: "go", Type: "instructions"}, want: []string{"go-style"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Search(ctx, tt.query)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, resultIDs(res))
		})
	}
}

func TestSearch_Sorting(t *testing.T) {
	s, _ := newTestStore(t)
	seedSearchData(t, s)
	ctx := context.Background()

	res, err := s.Search(ctx, SearchQuery{Language: "go", SortBy: SortRating})
	require.NoError(t, err)
	assert.Equal(t, []string{"go-reviewer", "go-style"}, resultIDs(res))

	res, err = s.Search(ctx, SearchQuery{Language: "go", SortBy: SortDownloads})
	require.NoError(t, err)
	assert.Equal(t, []string{"go-style", "go-reviewer"}, resultIDs(res))
}

func TestSearch_SkipsDisabledCatalogs(t *testing.T) {
	s, _ := newTestStore(t)
	seedSearchData(t, s)
	ctx := context.Background()

	require.NoError(t, s.SetCatalogEnabled(ctx, "beta", false))

	res, err := s.Search(ctx, SearchQuery{Text: "pytest"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestSearch_Pagination(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var set []Artifact
	for i := 0; i < 25; i++ {
		set = append(set, testArtifact(fmt.Sprintf("item-%02d", i)))
	}
	seedCatalog(t, s, "alpha", set...)

	res, err := s.Search(ctx, SearchQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(25), res.Total)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, DefaultPageSize, res.PageSize)
	assert.Len(t, res.Artifacts, DefaultPageSize)
	assert.True(t, res.HasMore)

	res, err = s.Search(ctx, SearchQuery{Page: 2})
	require.NoError(t, err)
	assert.Len(t, res.Artifacts, 5)
	assert.False(t, res.HasMore)

	res, err = s.Search(ctx, SearchQuery{PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, res.PageSize)
	assert.Len(t, res.Artifacts, 25)
}

func TestSearch_IndexFollowsUpdates(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	seedCatalog(t, s, "alpha", testArtifact("legacy"))

	require.NoError(t, s.ReplaceArtifactsForCatalog(ctx, "alpha", []Artifact{testArtifact("modern")}))

	res, err := s.Search(ctx, SearchQuery{Text: "legacy"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)

	res, err = s.Search(ctx, SearchQuery{Text: "modern"})
	require.NoError(t, err)
	assert.Equal(t, []string{"modern"}, resultIDs(res))
}

func TestSearch_SeparatorOnlyTextMatchesNothing(t *testing.T) {
	s, _ := newTestStore(t)
	seedSearchData(t, s)
	ctx := context.Background()

	for _, text := range []string{"--", " - ", "!?"} {
		res, err := s.Search(ctx, SearchQuery{Text: text})
		require.NoError(t, err, text)
		assert.Zero(t, res.Total, text)
		assert.Empty(t, res.Artifacts, text)
		assert.False(t, res.HasMore, text)
	}

	res, err := s.Search(ctx, SearchQuery{Text: "   "})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Total)
}

func TestFtsQuery(t *testing.T) {
	assert.Equal(t, "", ftsQuery("   "))
	assert.Equal(t, `"go"* "review"*`, ftsQuery("go review"))
	assert.Equal(t, `"a"*`, ftsQuery(`"a"`))
	assert.Equal(t, `"go"* "reviewer"*`, ftsQuery("go-reviewer"))
}

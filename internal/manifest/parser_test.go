package manifest

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

const testdataDir = "testdata"

func testPath(name string) string {
	return filepath.Join(testdataDir, name)
}

func TestParseFile_ValidCatalog(t *testing.T) {
	m, err := ParseFile(testPath("valid-catalog.json"))
	if err != nil {
		t.Fatalf("ParseFile error: %v", err)
	}

	if m.Version != "1.0.0" {
		t.Errorf("Version = %q, want %q", m.Version, "1.0.0")
	}
	if m.Catalog.ID != "awesome-copilot" {
		t.Errorf("Catalog.ID = %q, want %q", m.Catalog.ID, "awesome-copilot")
	}
	if m.Catalog.Repository.Type != "github" {
		t.Errorf("Repository.Type = %q, want %q", m.Catalog.Repository.Type, "github")
	}
	if len(m.Artifacts) != 2 {
		t.Fatalf("Artifacts len = %d, want 2", len(m.Artifacts))
	}

	reviewer := m.Artifacts[0]
	if reviewer.Type != TypeChatmode {
		t.Errorf("Artifacts[0].Type = %q, want %q", reviewer.Type, TypeChatmode)
	}
	if len(reviewer.Dependencies) != 1 || reviewer.Dependencies[0] != "go-style" {
		t.Errorf("Artifacts[0].Dependencies = %v, want [go-style]", reviewer.Dependencies)
	}
	if len(reviewer.SupportingFiles) != 1 {
		t.Errorf("Artifacts[0].SupportingFiles len = %d, want 1", len(reviewer.SupportingFiles))
	}
	if reviewer.Rating() != 4.5 {
		t.Errorf("Rating() = %v, want 4.5", reviewer.Rating())
	}
	if reviewer.Downloads() != 120 {
		t.Errorf("Downloads() = %d, want 120", reviewer.Downloads())
	}

	if len(m.Profiles) != 1 || len(m.Profiles[0].Artifacts) != 1 {
		t.Errorf("Profiles = %+v, want one profile with one artifact", m.Profiles)
	}
}

func TestParseFile_DefaultsEmptyLists(t *testing.T) {
	m, err := ParseFile(testPath("valid-catalog.json"))
	if err != nil {
		t.Fatalf("ParseFile error: %v", err)
	}

	style := m.Artifacts[1]
	if style.Dependencies == nil {
		t.Error("Dependencies is nil, want empty slice")
	}
	if style.SupportingFiles == nil {
		t.Error("SupportingFiles is nil, want empty slice")
	}
	if style.Rating() != 0 || style.Downloads() != 0 {
		t.Errorf("Rating/Downloads = %v/%d, want zero values", style.Rating(), style.Downloads())
	}
}

func TestParseFile_JSONWithComments(t *testing.T) {
	m, err := ParseFile(testPath("valid-jsonc.json"))
	if err != nil {
		t.Fatalf("ParseFile error: %v", err)
	}
	if m.Catalog.ID != "platform" {
		t.Errorf("Catalog.ID = %q, want %q", m.Catalog.ID, "platform")
	}
	if m.Artifacts == nil || len(m.Artifacts) != 0 {
		t.Errorf("Artifacts = %v, want empty slice", m.Artifacts)
	}
}

func TestParse_ReportsEveryIssue(t *testing.T) {
	data := mustRead(t, "invalid-multiple.json")

	m, err := Parse(data)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if m != nil {
		t.Errorf("expected no manifest on failure, got %+v", m)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if verr.CatalogID != "Bad_ID" {
		t.Errorf("CatalogID = %q, want %q", verr.CatalogID, "Bad_ID")
	}

	wantPaths := []string{
		"/version",
		"/catalog",
		"/catalog/id",
		"/artifacts/0/type",
		"/artifacts/0/version",
		"/artifacts/0/tags",
	}
	for _, want := range wantPaths {
		if !hasIssueAt(verr.Issues, want) {
			t.Errorf("missing issue at %s; got %v", want, verr.Issues)
		}
	}

	msg := err.Error()
	if !strings.Contains(msg, "/artifacts/0/tags") || !strings.Contains(msg, "/version") {
		t.Errorf("joined message should mention every path, got %q", msg)
	}
	if strings.Count(msg, "; ") < len(wantPaths)-1 {
		t.Errorf("joined message should separate issues with '; ', got %q", msg)
	}
}

func TestParse_TooManyTags(t *testing.T) {
	_, err := Parse(mustRead(t, "invalid-too-many-tags.json"))

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if !hasIssueAt(verr.Issues, "/artifacts/0/tags") {
		t.Errorf("expected issue at /artifacts/0/tags, got %v", verr.Issues)
	}
}

func TestParse_NotJSON(t *testing.T) {
	_, err := Parse(mustRead(t, "invalid-not-json.json"))
	if err == nil {
		t.Fatal("expected error for non-JSON input, got nil")
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		t.Errorf("non-JSON input should be a parse error, not %T", err)
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := Parse([]byte("  \n")); err == nil {
		t.Fatal("expected error for empty document, got nil")
	}
}

func TestParseFile_NotFound(t *testing.T) {
	_, err := ParseFile(testPath("nonexistent.json"))
	if err == nil {
		t.Fatal("expected error for nonexistent file, got nil")
	}
}

func TestParse_DoesNotMutateInput(t *testing.T) {
	data := mustRead(t, "valid-jsonc.json")
	orig := string(data)

	if _, err := Parse(data); err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if string(data) != orig {
		t.Error("Parse modified the caller's buffer")
	}
}

func mustRead(t *testing.T, name string) []byte {
	t.Helper()
	data, err := readFile(testPath(name))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func hasIssueAt(issues []ValidationIssue, path string) bool {
	for _, issue := range issues {
		if issue.Path == path {
			return true
		}
	}
	return false
}

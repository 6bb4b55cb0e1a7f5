package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentx-labs/promptreg/internal/auth"
	"github.com/agentx-labs/promptreg/internal/manifest"
	"github.com/agentx-labs/promptreg/internal/platform"
	"github.com/agentx-labs/promptreg/internal/store"
)

// fakeFetcher serves fixed bodies by URL and records every request.
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	calls  []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{bodies: map[string]string{}}
}

func (f *fakeFetcher) Get(_ context.Context, url string, _ auth.Credential) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	body, ok := f.bodies[url]
	if !ok {
		return nil, errors.New("404 not found: " + url)
	}
	return []byte(body), nil
}

// failingFS fails writes whose path contains failOn.
type failingFS struct {
	platform.OSFS
	failOn string
}

func (f failingFS) WriteFile(path string, data []byte) error {
	if f.failOn != "" && strings.Contains(path, f.failOn) {
		return errors.New("disk full")
	}
	return f.OSFS.WriteFile(path, data)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedCatalog(t *testing.T, st *store.Store, id string, artifacts ...store.Artifact) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.CreateCatalog(ctx, &store.Catalog{
		ID:      id,
		URL:     "https://example.com/" + id + "/catalog.json",
		Enabled: true,
		Metadata: store.CatalogMetadata{
			Name:       id,
			Repository: manifest.Repository{Type: "github", URL: "https://github.com/acme/" + id},
		},
	}))
	require.NoError(t, st.ReplaceArtifactsForCatalog(ctx, id, artifacts))
}

func artifact(id string, deps ...string) store.Artifact {
	if deps == nil {
		deps = []string{}
	}
	return store.Artifact{
		ID:              id,
		Type:            manifest.TypePrompt,
		Name:            id,
		Description:     "artifact " + id,
		Path:            "prompts/" + id + ".prompt.md",
		Version:         "1.0.0",
		Category:        "testing",
		Tags:            []string{"general"},
		Dependencies:    deps,
		SupportingFiles: []string{},
		SourceURL:       sourceFor(id),
	}
}

func sourceFor(id string) string {
	return "https://raw.githubusercontent.com/acme/main/main/prompts/" + id + ".prompt.md"
}

func getArtifact(t *testing.T, st *store.Store, catalogID, id string) *store.Artifact {
	t.Helper()
	a, err := st.GetArtifact(context.Background(), catalogID, id)
	require.NoError(t, err)
	return a
}

func ids(artifacts []store.Artifact) []string {
	out := make([]string, len(artifacts))
	for i, a := range artifacts {
		out[i] = a.ID
	}
	return out
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

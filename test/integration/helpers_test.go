//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/agentx-labs/promptreg/internal/auth"
	"github.com/agentx-labs/promptreg/internal/catalog"
	"github.com/agentx-labs/promptreg/internal/config"
	"github.com/agentx-labs/promptreg/internal/httpclient"
	"github.com/agentx-labs/promptreg/internal/registry"
	"github.com/agentx-labs/promptreg/internal/store"
	"github.com/agentx-labs/promptreg/internal/updater"
	"github.com/agentx-labs/promptreg/internal/userdata"
)

// testEnv holds an isolated config dir, data dir and workspace together
// with the wired components a CLI invocation would use.
type testEnv struct {
	ConfigDir   string
	DataDir     string
	InstallRoot string

	Config    *config.Config
	Store     *store.Store
	Catalogs  *catalog.Service
	Installer *registry.Installer
	Checker   *updater.Checker
}

// setupTestEnv creates isolated temp directories and opens a fresh store.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		ConfigDir:   t.TempDir(),
		DataDir:     t.TempDir(),
		InstallRoot: t.TempDir(),
		Config:      &config.Config{},
	}
	t.Setenv("PROMPTREG_CONFIG_DIR", env.ConfigDir)
	t.Setenv("PROMPTREG_DATA_DIR", env.DataDir)

	st, err := store.Open(context.Background(), userdata.StorePath(env.DataDir))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	fetcher := httpclient.New(httpclient.WithRetries(1))
	env.Store = st
	env.Catalogs = catalog.NewService(st, env.Config, fetcher, auth.NewResolver(env.ConfigDir), nil)
	env.Installer = registry.NewInstaller(st, fetcher, env.Catalogs, nil, nil)
	env.Checker = updater.NewChecker(st, nil)
	return env
}

// catalogServer serves one manifest and its artifact files. Versions and
// file bodies can be changed between requests.
type catalogServer struct {
	*httptest.Server

	mu       sync.Mutex
	versions map[string]string
	files    map[string]string
	broken   bool
}

func newCatalogServer(t *testing.T) *catalogServer {
	t.Helper()
	cs := &catalogServer{
		versions: map[string]string{
			"go-reviewer": "1.0.0",
			"go-style":    "1.0.0",
			"commit-msg":  "1.0.0",
		},
		files: map[string]string{
			"/repo/chatmodes/go-reviewer.chatmode.md":     "# Go Reviewer v1\n",
			"/repo/chatmodes/go-reviewer/checklist.md":    "- [ ] errors wrapped\n",
			"/repo/instructions/go-style.instructions.md": "# Go Style v1\n",
			"/repo/prompts/commit-msg.prompt.md":          "# Commit message v1\n",
		},
	}
	cs.Server = httptest.NewServer(http.HandlerFunc(cs.serve))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *catalogServer) ManifestURL() string { return cs.URL + "/catalog.json" }

func (cs *catalogServer) setVersion(id, version, body string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.versions[id] = version
	for path := range cs.files {
		if strings.Contains(path, "/"+id+".") {
			cs.files[path] = body
		}
	}
}

func (cs *catalogServer) setBroken(broken bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.broken = broken
}

func (cs *catalogServer) serve(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if r.URL.Path == "/catalog.json" {
		if cs.broken {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, cs.manifest())
		return
	}
	body, ok := cs.files[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	fmt.Fprint(w, body)
}

func (cs *catalogServer) manifest() string {
	return fmt.Sprintf(`{
  // served by the integration tests
  "version": "1.0.0",
  "catalog": {
    "id": "team",
    "name": "Team catalog",
    "description": "Shared prompts",
    "author": "team",
    "license": "MIT",
    "repository": {"type": "generic", "url": %q}
  },
  "artifacts": [
    {
      "id": "go-reviewer",
      "type": "chatmode",
      "name": "Go Reviewer",
      "description": "Reviews Go code for idioms",
      "path": "chatmodes/go-reviewer.chatmode.md",
      "version": %q,
      "category": "code-review",
      "tags": ["go", "review"],
      "dependencies": ["go-style"],
      "supportingFiles": ["chatmodes/go-reviewer/checklist.md"]
    },
    {
      "id": "go-style",
      "type": "instructions",
      "name": "Go Style",
      "description": "House style for Go code",
      "path": "instructions/go-style.instructions.md",
      "version": %q,
      "category": "style",
      "tags": ["go"]
    },
    {
      "id": "commit-msg",
      "type": "prompt",
      "name": "Commit Message",
      "description": "Writes conventional commit messages",
      "path": "prompts/commit-msg.prompt.md",
      "version": %q,
      "category": "git",
      "tags": ["git"],
    },
  ],
}`, cs.URL+"/repo", cs.versions["go-reviewer"], cs.versions["go-style"], cs.versions["commit-msg"])
}

// addCatalog registers cs as catalog "team".
func addCatalog(t *testing.T, env *testEnv, cs *catalogServer) {
	t.Helper()
	err := env.Catalogs.Add(context.Background(), config.CatalogConfig{ID: "team", URL: cs.ManifestURL(), Enabled: true})
	if err != nil {
		t.Fatalf("adding catalog: %v", err)
	}
}

func mustArtifact(t *testing.T, env *testEnv, id string) *store.Artifact {
	t.Helper()
	a, err := env.Store.GetArtifact(context.Background(), "team", id)
	if err != nil {
		t.Fatalf("GetArtifact(%s): %v", id, err)
	}
	return a
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}

func workspacePath(env *testEnv, rel string) string {
	return filepath.Join(env.InstallRoot, filepath.FromSlash(rel))
}

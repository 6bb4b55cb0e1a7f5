package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

const sampleConfig = `installRoot: /work/project
refresh:
  onStartup: true
  interval: 30m
catalogs:
  - id: awesome
    url: https://github.com/o/r/blob/main/catalog.json
    enabled: true
    auth:
      type: env
      envVar: AWESOME_TOKEN
  - id: internal
    url: https://gitlab.example.com/g/r/-/raw/main/catalog.json
    enabled: false
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(FilePath(dir), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoad_File(t *testing.T) {
	dir := writeConfig(t, sampleConfig)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.InstallRoot != "/work/project" {
		t.Errorf("InstallRoot = %q", cfg.InstallRoot)
	}
	if !cfg.Refresh.OnStartup {
		t.Error("Refresh.OnStartup = false, want true")
	}
	if d, _ := cfg.Refresh.IntervalDuration(); d != 30*time.Minute {
		t.Errorf("interval = %v, want 30m", d)
	}
	if len(cfg.Catalogs) != 2 {
		t.Fatalf("Catalogs len = %d, want 2", len(cfg.Catalogs))
	}
	awesome := cfg.Catalogs[0]
	if awesome.Auth == nil || awesome.Auth.Type != AuthEnv || awesome.Auth.EnvVar != "AWESOME_TOKEN" {
		t.Errorf("awesome auth = %+v", awesome.Auth)
	}
	if cfg.Catalogs[1].Auth != nil {
		t.Errorf("internal auth = %+v, want nil", cfg.Catalogs[1].Auth)
	}
	if got := cfg.EnabledCatalogs(); len(got) != 1 || got[0].ID != "awesome" {
		t.Errorf("EnabledCatalogs = %+v", got)
	}
}

func TestLoad_Missing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Catalogs) != 0 {
		t.Errorf("Catalogs = %+v, want empty", cfg.Catalogs)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := writeConfig(t, sampleConfig)
	t.Setenv("PROMPTREG_INSTALLROOT", "/from/env")
	t.Setenv("PROMPTREG_REFRESH_INTERVAL", "5m")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.InstallRoot != "/from/env" {
		t.Errorf("InstallRoot = %q, want /from/env", cfg.InstallRoot)
	}
	if cfg.Refresh.Interval != "5m" {
		t.Errorf("Refresh.Interval = %q, want 5m", cfg.Refresh.Interval)
	}
}

func TestLoad_BadInterval(t *testing.T) {
	dir := writeConfig(t, "refresh:\n  interval: soon\n")
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for invalid interval")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	cfg := &Config{
		InstallRoot: "/w",
		Refresh:     RefreshConfig{Interval: "1h"},
		Catalogs:    []CatalogConfig{},
	}
	if err := cfg.AddCatalog(CatalogConfig{
		ID: "a", URL: "https://x.dev/catalog.json", Enabled: true,
		Auth: &AuthConfig{Type: AuthBearer, Token: "secret"},
	}); err != nil {
		t.Fatal(err)
	}

	if err := Save(dir, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(FilePath(dir))
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("config permissions = %o, want 600", perm)
		}
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cc, ok := loaded.Catalog("a")
	if !ok {
		t.Fatal("catalog a missing after round trip")
	}
	if cc.Auth == nil || cc.Auth.Token != "secret" {
		t.Errorf("auth = %+v", cc.Auth)
	}
	if loaded.Refresh.Interval != "1h" {
		t.Errorf("interval = %q", loaded.Refresh.Interval)
	}
}

func TestCatalogMutations(t *testing.T) {
	cfg := &Config{}
	if err := cfg.AddCatalog(CatalogConfig{ID: "a", Enabled: true}); err != nil {
		t.Fatal(err)
	}
	if err := cfg.AddCatalog(CatalogConfig{ID: "a"}); !errors.Is(err, ErrCatalogExists) {
		t.Errorf("duplicate add error = %v, want ErrCatalogExists", err)
	}
	if err := cfg.SetCatalogEnabled("a", false); err != nil {
		t.Fatal(err)
	}
	if len(cfg.EnabledCatalogs()) != 0 {
		t.Error("catalog still enabled")
	}
	if err := cfg.SetCatalogEnabled("missing", true); err == nil {
		t.Error("expected error for unknown catalog")
	}
	if !cfg.RemoveCatalog("a") || cfg.RemoveCatalog("a") {
		t.Error("RemoveCatalog should succeed once")
	}
}

func TestGetSet(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Set("refresh.onStartup", "true"); err != nil {
		t.Fatal(err)
	}
	if v, _ := cfg.Get("refresh.onStartup"); v != "true" {
		t.Errorf("refresh.onStartup = %q", v)
	}
	if err := cfg.Set("refresh.interval", "-1s"); err == nil {
		t.Error("expected error for negative interval")
	}
	if err := cfg.Set("mirror", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
	if _, err := cfg.Get("catalogs"); err == nil {
		t.Error("expected error for non-scalar key")
	}
}

func TestDir_EnvOverride(t *testing.T) {
	t.Setenv("PROMPTREG_CONFIG_DIR", "/tmp/promptreg-config")
	if got := Dir(); got != "/tmp/promptreg-config" {
		t.Errorf("Dir() = %q", got)
	}
}

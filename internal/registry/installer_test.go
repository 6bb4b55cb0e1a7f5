package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentx-labs/promptreg/internal/platform"
	"github.com/agentx-labs/promptreg/internal/store"
)

type installFixture struct {
	st      *store.Store
	fetcher *fakeFetcher
	inst    *Installer
	root    string
}

func newInstallFixture(t *testing.T, fs platform.FileSystem, artifacts ...store.Artifact) *installFixture {
	t.Helper()
	st := newTestStore(t)
	seedCatalog(t, st, "main", artifacts...)
	fetcher := newFakeFetcher()
	for _, a := range artifacts {
		fetcher.bodies[a.SourceURL] = "# " + a.ID + "\n"
	}
	return &installFixture{
		st:      st,
		fetcher: fetcher,
		inst:    NewInstaller(st, fetcher, nil, fs, nil),
		root:    t.TempDir(),
	}
}

func (f *installFixture) install(t *testing.T, id string, opts InstallOptions) *InstallResult {
	t.Helper()
	if opts.InstallRoot == "" {
		opts.InstallRoot = f.root
	}
	return f.inst.Install(context.Background(), getArtifact(t, f.st, "main", id), opts)
}

func (f *installFixture) promptPath(id string) string {
	return filepath.Join(f.root, ".github", "prompts", id+".prompt.md")
}

func TestTargetPath(t *testing.T) {
	tests := []struct {
		typ  string
		want string
	}{
		{"chatmode", "/ws/.github/chatmodes/x.chatmode.md"},
		{"instructions", "/ws/.github/instructions/x.instructions.md"},
		{"prompt", "/ws/.github/prompts/x.prompt.md"},
		{"task", "/ws/.github/tasks/x.task.md"},
		{"profile", "/ws/.github/profiles/x.profile.md"},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			got, err := TargetPath("/ws", &store.Artifact{ID: "x", Type: tt.typ})
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}

	_, err := TargetPath("/ws", &store.Artifact{ID: "x", Type: "widget"})
	assert.Error(t, err)
}

func TestRenamedPath(t *testing.T) {
	got, err := RenamedPath(filepath.FromSlash("/ws/.github/prompts/x.prompt.md"), "y")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/ws/.github/prompts/y.prompt.md"), got)

	for _, bad := range []string{"", "  ", "../y", "a/b", ".."} {
		_, err := RenamedPath("/ws/x.prompt.md", bad)
		assert.Error(t, err, bad)
	}
}

func TestSupportingRel(t *testing.T) {
	tests := []struct {
		artifactPath string
		file         string
		want         string
		wantErr      bool
	}{
		{"prompts/x/x.prompt.md", "prompts/x/assets/a.txt", "assets/a.txt", false},
		{"prompts/x/x.prompt.md", "/prompts/x/b.txt", "b.txt", false},
		{"prompts/x.prompt.md", "shared/c.txt", "c.txt", false},
		{"x.prompt.md", "d/e.txt", "e.txt", false},
		{"prompts/x/x.prompt.md", "../secrets.txt", "", true},
		{"prompts/x/x.prompt.md", "prompts/../../etc/passwd", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, err := supportingRel(tt.artifactPath, tt.file)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInstall_WritesFileAndRecord(t *testing.T) {
	f := newInstallFixture(t, nil, artifact("a"))

	res := f.install(t, "a", InstallOptions{})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, f.promptPath("a"), res.Path)
	assert.Equal(t, "# a\n", readFile(t, res.Path))

	inst, err := f.st.GetInstallation(context.Background(), "main", "a")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", inst.Version)
	assert.Equal(t, res.Path, inst.InstalledPath)
}

func TestInstall_AlreadyInstalled(t *testing.T) {
	f := newInstallFixture(t, nil, artifact("a"))
	require.True(t, f.install(t, "a", InstallOptions{}).Success)

	res := f.install(t, "a", InstallOptions{})
	assert.False(t, res.Success)
	var already *AlreadyInstalledError
	assert.ErrorAs(t, res.Err, &already)
}

func TestInstall_DependenciesFirst(t *testing.T) {
	f := newInstallFixture(t, nil, artifact("a", "b"), artifact("b", "c"), artifact("c"))

	res := f.install(t, "a", InstallOptions{})
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Dependencies, 2)
	assert.Equal(t, "c", res.Dependencies[0].ArtifactID)
	assert.Equal(t, "b", res.Dependencies[1].ArtifactID)
	assert.Equal(t, []string{sourceFor("c"), sourceFor("b"), sourceFor("a")}, f.fetcher.calls)

	for _, id := range []string{"a", "b", "c"} {
		ok, err := f.st.IsInstalled(context.Background(), "main", id)
		require.NoError(t, err)
		assert.True(t, ok, id)
	}
}

func TestInstall_NoDeps(t *testing.T) {
	f := newInstallFixture(t, nil, artifact("a", "b"), artifact("b"))

	res := f.install(t, "a", InstallOptions{NoDeps: true})
	require.True(t, res.Success, res.Error)
	assert.Empty(t, res.Dependencies)
	ok, err := f.st.IsInstalled(context.Background(), "main", "b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInstall_CycleTerminates(t *testing.T) {
	f := newInstallFixture(t, nil, artifact("a", "b"), artifact("b", "a"))

	res := f.install(t, "a", InstallOptions{})
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Dependencies, 1)
	assert.Equal(t, "b", res.Dependencies[0].ArtifactID)
	assert.Equal(t, []string{"dependency cycle: a -> b -> a"}, res.Warnings)
}

func TestInstall_FailedDependencyAbortsDependent(t *testing.T) {
	f := newInstallFixture(t, nil, artifact("a", "b", "c"), artifact("b"), artifact("c"))
	delete(f.fetcher.bodies, sourceFor("b"))

	res := f.install(t, "a", InstallOptions{})
	assert.False(t, res.Success)
	var depErr *DependencyFailedError
	require.ErrorAs(t, res.Err, &depErr)
	assert.Equal(t, "main/b", depErr.Dependency)
	require.Len(t, res.Dependencies, 1)

	for _, id := range []string{"a", "b", "c"} {
		ok, err := f.st.IsInstalled(context.Background(), "main", id)
		require.NoError(t, err)
		assert.False(t, ok, id)
	}
	assert.NoFileExists(t, f.promptPath("a"))
}

func TestInstall_ConflictWithoutHandler(t *testing.T) {
	f := newInstallFixture(t, nil, artifact("a"))
	require.NoError(t, os.MkdirAll(filepath.Dir(f.promptPath("a")), 0o755))
	require.NoError(t, os.WriteFile(f.promptPath("a"), []byte("mine"), 0o644))

	res := f.install(t, "a", InstallOptions{})
	assert.False(t, res.Success)
	var conflict *FileConflictError
	require.ErrorAs(t, res.Err, &conflict)
	assert.Equal(t, f.promptPath("a"), conflict.Path)
	assert.Equal(t, "mine", readFile(t, f.promptPath("a")))
}

func TestInstall_ConflictKeep(t *testing.T) {
	f := newInstallFixture(t, nil, artifact("a"))
	require.NoError(t, os.MkdirAll(filepath.Dir(f.promptPath("a")), 0o755))
	require.NoError(t, os.WriteFile(f.promptPath("a"), []byte("mine"), 0o644))

	res := f.install(t, "a", InstallOptions{OnConflict: func(*store.Artifact, string) (ConflictDecision, error) {
		return ConflictDecision{Action: ConflictKeep}, nil
	}})
	assert.False(t, res.Success)
	assert.True(t, res.Skipped)
	assert.Empty(t, res.Error)
	assert.Equal(t, "mine", readFile(t, f.promptPath("a")))
	assert.Empty(t, f.fetcher.calls)

	ok, err := f.st.IsInstalled(context.Background(), "main", "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInstall_ConflictReplace(t *testing.T) {
	f := newInstallFixture(t, nil, artifact("a"))
	require.NoError(t, os.MkdirAll(filepath.Dir(f.promptPath("a")), 0o755))
	require.NoError(t, os.WriteFile(f.promptPath("a"), []byte("mine"), 0o644))

	var asked []string
	res := f.install(t, "a", InstallOptions{OnConflict: func(a *store.Artifact, path string) (ConflictDecision, error) {
		asked = append(asked, path)
		return ConflictDecision{Action: ConflictReplace}, nil
	}})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{f.promptPath("a")}, asked)
	assert.Equal(t, "# a\n", readFile(t, f.promptPath("a")))
}

func TestInstall_ConflictRenameAsksAgain(t *testing.T) {
	f := newInstallFixture(t, nil, artifact("a"))
	dir := filepath.Dir(f.promptPath("a"))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(f.promptPath("a"), []byte("mine"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a2.prompt.md"), []byte("also mine"), 0o644))

	names := []string{"a2", "a3"}
	res := f.install(t, "a", InstallOptions{OnConflict: func(*store.Artifact, string) (ConflictDecision, error) {
		name := names[0]
		names = names[1:]
		return ConflictDecision{Action: ConflictRename, NewName: name}, nil
	}})
	require.True(t, res.Success, res.Error)
	assert.Empty(t, names)
	assert.Equal(t, filepath.Join(dir, "a3.prompt.md"), res.Path)
	assert.Equal(t, "mine", readFile(t, f.promptPath("a")))
	assert.Equal(t, "also mine", readFile(t, filepath.Join(dir, "a2.prompt.md")))

	inst, err := f.st.GetInstallation(context.Background(), "main", "a")
	require.NoError(t, err)
	assert.Equal(t, res.Path, inst.InstalledPath)
}

func TestInstall_KeptDependencyDoesNotAbort(t *testing.T) {
	f := newInstallFixture(t, nil, artifact("a", "b"), artifact("b"))
	require.NoError(t, os.MkdirAll(filepath.Dir(f.promptPath("b")), 0o755))
	require.NoError(t, os.WriteFile(f.promptPath("b"), []byte("mine"), 0o644))

	res := f.install(t, "a", InstallOptions{OnConflict: func(*store.Artifact, string) (ConflictDecision, error) {
		return ConflictDecision{Action: ConflictKeep}, nil
	}})
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Dependencies, 1)
	assert.True(t, res.Dependencies[0].Skipped)
}

func TestInstall_MainWriteFailureLeavesNoRecord(t *testing.T) {
	f := newInstallFixture(t, failingFS{failOn: "a.prompt.md"}, artifact("a"))

	res := f.install(t, "a", InstallOptions{})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "disk full")

	ok, err := f.st.IsInstalled(context.Background(), "main", "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInstall_SupportingFiles(t *testing.T) {
	a := artifact("a")
	a.Path = "prompts/a/a.prompt.md"
	a.SupportingFiles = []string{"prompts/a/assets/logo.txt", "shared/common.txt", "../escape.txt", "prompts/a/missing.txt"}
	f := newInstallFixture(t, nil, a)
	base := "https://raw.githubusercontent.com/acme/main/main/"
	f.fetcher.bodies[base+"prompts/a/assets/logo.txt"] = "logo"
	f.fetcher.bodies[base+"shared/common.txt"] = "common"

	res := f.install(t, "a", InstallOptions{})
	require.True(t, res.Success, res.Error)
	assert.Len(t, res.Warnings, 2)

	dir := SupportingDir(res.Path, "a")
	assert.Equal(t, "logo", readFile(t, filepath.Join(dir, "assets", "logo.txt")))
	assert.Equal(t, "common", readFile(t, filepath.Join(dir, "common.txt")))

	ok, err := f.st.IsInstalled(context.Background(), "main", "a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUninstall(t *testing.T) {
	a := artifact("a")
	a.SupportingFiles = []string{"prompts/logo.txt"}
	f := newInstallFixture(t, nil, a)
	f.fetcher.bodies["https://raw.githubusercontent.com/acme/main/main/prompts/logo.txt"] = "logo"
	res := f.install(t, "a", InstallOptions{})
	require.True(t, res.Success, res.Error)

	legacy := LegacySupportingDir(f.root, "a")
	require.NoError(t, os.MkdirAll(legacy, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(legacy, "old.txt"), []byte("old"), 0o644))

	ctx := context.Background()
	err := f.inst.Uninstall(ctx, "main", "a", UninstallOptions{InstallRoot: f.root})
	require.ErrorIs(t, err, ErrUninstallNotConfirmed)
	assert.FileExists(t, res.Path)

	err = f.inst.Uninstall(ctx, "main", "a", UninstallOptions{
		InstallRoot: f.root,
		Confirm:     func() (bool, error) { return false, nil },
	})
	require.ErrorIs(t, err, ErrUninstallNotConfirmed)

	err = f.inst.Uninstall(ctx, "main", "a", UninstallOptions{
		InstallRoot: f.root,
		Confirm:     func() (bool, error) { return true, nil },
	})
	require.NoError(t, err)
	assert.NoFileExists(t, res.Path)
	assert.NoDirExists(t, SupportingDir(res.Path, "a"))
	assert.NoDirExists(t, legacy)

	ok, err := f.st.IsInstalled(ctx, "main", "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUninstall_MissingFileStillRemovesRecord(t *testing.T) {
	f := newInstallFixture(t, nil, artifact("a"))
	res := f.install(t, "a", InstallOptions{})
	require.True(t, res.Success, res.Error)
	require.NoError(t, os.Remove(res.Path))

	err := f.inst.Uninstall(context.Background(), "main", "a", UninstallOptions{
		Confirm: func() (bool, error) { return true, nil },
	})
	require.NoError(t, err)
	ok, err := f.st.IsInstalled(context.Background(), "main", "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUninstall_NotInstalled(t *testing.T) {
	f := newInstallFixture(t, nil, artifact("a"))

	err := f.inst.Uninstall(context.Background(), "main", "a", UninstallOptions{
		Confirm: func() (bool, error) { return true, nil },
	})
	var notInstalled *NotInstalledError
	assert.ErrorAs(t, err, &notInstalled)
}

func TestUpdate_OverwritesInPlace(t *testing.T) {
	f := newInstallFixture(t, nil, artifact("a"))
	ctx := context.Background()
	res := f.install(t, "a", InstallOptions{})
	require.True(t, res.Success, res.Error)
	before, err := f.st.GetInstallation(ctx, "main", "a")
	require.NoError(t, err)

	a := artifact("a")
	a.Version = "1.1.0"
	require.NoError(t, f.st.ReplaceArtifactsForCatalog(ctx, "main", []store.Artifact{a}))
	f.fetcher.bodies[a.SourceURL] = "# a v1.1\n"

	up := f.inst.Update(ctx, "main", "a", f.root)
	require.True(t, up.Success, up.Error)
	assert.Equal(t, res.Path, up.Path)
	assert.Equal(t, "# a v1.1\n", readFile(t, res.Path))

	after, err := f.st.GetInstallation(ctx, "main", "a")
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", after.Version)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.InstalledPath, after.InstalledPath)
}

func TestUpdate_Errors(t *testing.T) {
	f := newInstallFixture(t, nil, artifact("a"))
	ctx := context.Background()

	res := f.inst.Update(ctx, "main", "a", f.root)
	var notInstalled *NotInstalledError
	assert.ErrorAs(t, res.Err, &notInstalled)

	require.True(t, f.install(t, "a", InstallOptions{}).Success)
	require.NoError(t, f.st.ReplaceArtifactsForCatalog(ctx, "main", []store.Artifact{}))

	res = f.inst.Update(ctx, "main", "a", f.root)
	assert.False(t, res.Success)
	var gone *NotFoundInCatalogError
	assert.ErrorAs(t, res.Err, &gone)
}

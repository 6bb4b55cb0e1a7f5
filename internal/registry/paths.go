package registry

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/agentx-labs/promptreg/internal/manifest"
	"github.com/agentx-labs/promptreg/internal/store"
)

// typeLayout maps an artifact type to its directory under the install root
// and its file suffix.
var typeLayout = map[string]struct{ dir, suffix string }{
	manifest.TypeChatmode:     {".github/chatmodes", ".chatmode.md"},
	manifest.TypeInstructions: {".github/instructions", ".instructions.md"},
	manifest.TypePrompt:       {".github/prompts", ".prompt.md"},
	manifest.TypeTask:         {".github/tasks", ".task.md"},
	manifest.TypeProfile:      {".github/profiles", ".profile.md"},
}

// legacyAssetsDir is where older releases placed supporting files.
const legacyAssetsDir = ".github/assets"

// TargetPath returns where the main file of a is installed under
// installRoot.
func TargetPath(installRoot string, a *store.Artifact) (string, error) {
	layout, ok := typeLayout[a.Type]
	if !ok {
		return "", fmt.Errorf("unknown artifact type %q", a.Type)
	}
	return filepath.Join(installRoot, filepath.FromSlash(layout.dir), a.ID+layout.suffix), nil
}

// RenamedPath keeps the directory and suffix of target and swaps the base
// name for newName.
func RenamedPath(target, newName string) (string, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" || newName == "." || newName == ".." || strings.ContainsAny(newName, `/\`) {
		return "", fmt.Errorf("invalid file name %q", newName)
	}
	base := filepath.Base(target)
	suffix := filepath.Ext(base)
	for _, layout := range typeLayout {
		if strings.HasSuffix(base, layout.suffix) {
			suffix = layout.suffix
			break
		}
	}
	return filepath.Join(filepath.Dir(target), newName+suffix), nil
}

// SupportingDir returns the directory that holds the supporting files of an
// artifact whose main file is at mainPath.
func SupportingDir(mainPath, artifactID string) string {
	return filepath.Join(filepath.Dir(mainPath), artifactID)
}

// LegacySupportingDir returns the pre-layout location of supporting files.
func LegacySupportingDir(installRoot, artifactID string) string {
	return filepath.Join(installRoot, filepath.FromSlash(legacyAssetsDir), artifactID)
}

// supportingRel returns the path of a supporting file relative to the
// artifact's directory in the repository, or its base name when it lives
// elsewhere. Paths that escape the supporting directory are rejected.
func supportingRel(artifactPath, file string) (string, error) {
	clean := path.Clean(strings.TrimPrefix(strings.TrimSpace(file), "/"))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("supporting file %q escapes the artifact directory", file)
	}
	rel := path.Base(clean)
	if dir := path.Dir(path.Clean(strings.TrimPrefix(artifactPath, "/"))); dir != "." {
		if trimmed, ok := strings.CutPrefix(clean, dir+"/"); ok {
			rel = trimmed
		}
	}
	return rel, nil
}

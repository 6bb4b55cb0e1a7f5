package updater

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CompareVersions compares two version strings using semver.
// Returns -1 if installed < latest, 0 if equal, 1 if installed > latest.
// A leading "v" is tolerated on either side.
func CompareVersions(installed, latest string) (int, error) {
	iv, err := parseSemver(installed)
	if err != nil {
		return 0, fmt.Errorf("parsing installed version %q: %w", installed, err)
	}
	lv, err := parseSemver(latest)
	if err != nil {
		return 0, fmt.Errorf("parsing latest version %q: %w", latest, err)
	}
	return iv.Compare(lv), nil
}

// IsDowngrade reports whether latest orders before installed. Versions that
// do not parse as semver are never reported as downgrades.
func IsDowngrade(installed, latest string) bool {
	cmp, err := CompareVersions(installed, latest)
	return err == nil && cmp == 1
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(version, "v")
	return semver.NewVersion(version)
}

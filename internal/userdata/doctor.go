package userdata

import (
	"fmt"
	"io"
	"os"

	"github.com/agentx-labs/promptreg/internal/platform"
)

// CheckDataDir validates the data directory, its permissions and the files
// promptreg keeps there. When fix is true, it attempts to repair issues.
// It returns the number of problems left unfixed.
func CheckDataDir(w io.Writer, dataDir string, fix bool) int {
	fmt.Fprintln(w, "Data directory check:")

	problems := checkDirWithPerm(w, dataDir, DirPermSecure, fix)
	problems += checkFileExists(w, StorePath(dataDir))
	return problems
}

// CheckSecretFile warns when a credentials file is readable by others.
func CheckSecretFile(w io.Writer, path string, fix bool) int {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	perm := info.Mode().Perm()
	if perm == FilePermSecure {
		fmt.Fprintf(w, "  [ OK ] %s (permissions %o)\n", path, perm)
		return 0
	}
	fmt.Fprintf(w, "  [WARN] %s has permissions %o (expected %o)\n", path, perm, FilePermSecure)
	if !fix {
		return 1
	}
	if chErr := platform.Chmod(path, FilePermSecure); chErr != nil {
		fmt.Fprintf(w, "  [FAIL] Could not fix permissions on %s: %v\n", path, chErr)
		return 1
	}
	fmt.Fprintf(w, "  [FIX ] Fixed permissions on %s to %o\n", path, FilePermSecure)
	return 0
}

func checkDirWithPerm(w io.Writer, path string, expectedPerm os.FileMode, fix bool) int {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		fmt.Fprintf(w, "  [MISS] %s does not exist\n", path)
		if !fix {
			return 1
		}
		if mkErr := os.MkdirAll(path, expectedPerm); mkErr != nil {
			fmt.Fprintf(w, "  [FAIL] Could not create %s: %v\n", path, mkErr)
			return 1
		}
		platform.Chmod(path, expectedPerm)
		fmt.Fprintf(w, "  [FIX ] Created %s with %o\n", path, expectedPerm)
		return 0
	}
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %s: %v\n", path, err)
		return 1
	}
	if !info.IsDir() {
		fmt.Fprintf(w, "  [FAIL] %s exists but is not a directory\n", path)
		return 1
	}

	actualPerm := info.Mode().Perm()
	if actualPerm != expectedPerm {
		fmt.Fprintf(w, "  [WARN] %s has permissions %o (expected %o)\n", path, actualPerm, expectedPerm)
		if !fix {
			return 1
		}
		if chErr := platform.Chmod(path, expectedPerm); chErr != nil {
			fmt.Fprintf(w, "  [FAIL] Could not fix permissions on %s: %v\n", path, chErr)
			return 1
		}
		fmt.Fprintf(w, "  [FIX ] Fixed permissions on %s to %o\n", path, expectedPerm)
		return 0
	}
	fmt.Fprintf(w, "  [ OK ] %s (permissions %o)\n", path, actualPerm)
	return 0
}

// checkFileExists only reports; the store is created on first use.
func checkFileExists(w io.Writer, path string) int {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(w, "  [MISS] %s does not exist (created on first use)\n", path)
		return 0
	}
	fmt.Fprintf(w, "  [ OK ] %s exists\n", path)
	return 0
}

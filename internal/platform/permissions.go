package platform

import (
	"os"
	"runtime"
)

// Chmod sets permission bits. Windows has no Unix modes, so it is a no-op
// there.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}

package platform

import (
	"os"
	"path/filepath"
)

// FileSystem is the set of file operations used to materialize artifacts.
// Each operation simply succeeds or fails.
type FileSystem interface {
	MkdirAll(path string) error
	WriteFile(path string, data []byte) error
	// Remove deletes path, and everything below it when recursive is set.
	Remove(path string, recursive bool) error
	Stat(path string) (os.FileInfo, error)
}

// OSFS implements FileSystem on the local disk.
type OSFS struct{}

func (OSFS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

// WriteFile writes data atomically by renaming a temp file into place.
func (OSFS) WriteFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (OSFS) Remove(path string, recursive bool) error {
	if recursive {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}

func (OSFS) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// Exists reports whether path exists. Any stat failure counts as absent.
func Exists(fs FileSystem, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}

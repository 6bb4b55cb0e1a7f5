// Package platform wraps the filesystem primitives the installer needs
// behind a small interface. OSFS is the real implementation; tests swap in
// fakes to simulate write and delete failures. Permission handling degrades
// to a no-op on Windows.
package platform

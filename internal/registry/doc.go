// Package registry resolves artifact dependencies and materializes artifacts
// into a workspace. The Resolver walks an artifact's declared dependencies
// through the catalog store and produces a post-ordered install list; the
// Installer downloads main and supporting files, writes them to the
// per-type layout under the install root, and keeps installation records in
// the store in step with the filesystem.
package registry

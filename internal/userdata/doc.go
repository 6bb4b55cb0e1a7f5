// Package userdata manages the ~/.promptreg data directory: where the catalog
// store, the update-check cache and the writer lock live, the single-writer
// lock itself, and the doctor checks that validate the directory layout and
// permissions.
package userdata

// Package catalog manages configured catalog sources: registering and
// removing them, fetching and validating their manifests, re-indexing their
// artifacts into the store, and the periodic refresh sweep.
//
// A refresh moves a catalog through updating to healthy, or to error with
// the failure message recorded on the row. The sweep refreshes enabled
// catalogs one at a time and never lets one bad catalog block the others.
package catalog

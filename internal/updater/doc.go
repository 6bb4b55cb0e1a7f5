// Package updater reports drift between installed artifacts and the current
// contents of their catalogs. A cached summary of the last check powers the
// "updates available" banner without touching the store or the network.
package updater

// Package manifest handles parsing and validation of catalog manifests: the
// JSON documents that describe a catalog and the artifacts (chat modes,
// instructions, prompts, tasks, profiles) it publishes. Validation runs
// against an embedded JSON Schema and reports every offending field at once.
package manifest

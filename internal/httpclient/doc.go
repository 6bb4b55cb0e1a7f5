// Package httpclient fetches catalog manifests and artifact files. The
// default Client adds the promptreg user agent, applies the per-catalog
// credential, caps response size and retries transient failures with
// exponential backoff. file:// URLs are read from disk so local catalogs
// work without a server.
package httpclient

// Package auth resolves the credential used for a catalog's HTTP requests.
// Credentials are explicit values threaded into every fetch; nothing reads
// them from shared state. Sources are inline config values, environment
// variables (falling back to <configDir>/.env) and the OS keychain.
package auth

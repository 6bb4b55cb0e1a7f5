// Package sourceurl derives raw-content URLs for artifact files from a
// catalog's repository descriptor. GitHub and GitLab repositories get their
// host-specific raw layouts; any other repository type is treated as a plain
// web directory.
package sourceurl

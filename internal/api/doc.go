// Package api implements the HTTP boundary: task submission and
// inspection, manual retry and download, and settings management. The
// desktop shell is the only expected client, so the surface is small
// and unauthenticated on localhost.
package api

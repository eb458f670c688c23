// Package store defines the persistence interfaces for the application.
// It decouples the orchestration core from the concrete database
// implementation in internal/platform/sqlite, so the scanner, recovery
// pass, and task processor can be tested against in-memory fakes.
package store

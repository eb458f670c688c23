// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, files). It provides type-safe
// access to application settings needed by different components while keeping
// configuration details separate from business logic.
//
// Process-level configuration lives here (server port, log level, database
// path). Runtime behavior settings (vendor selection, credentials, retry and
// download flags) live in the settings table of the local store and are read
// through store.SettingsStore instead.
package config

package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTaskNotFound indicates that the requested video task does not exist.
	ErrTaskNotFound = fmt.Errorf("%w: video task", ErrNotFound)

	// ErrSettingNotFound indicates that the requested setting key does not exist.
	ErrSettingNotFound = fmt.Errorf("%w: setting", ErrNotFound)

	// ErrClaimLost is returned by ClaimTask when the conditional status
	// transition did not apply because the record was no longer in the
	// expected state. This is the normal outcome when two claimers race.
	ErrClaimLost = errors.New("task claim lost")
)

package entity

import (
	"errors"

	"github.com/eighteen73/custom-tables/internal/tables"
)

var (
	// ErrNotRegistered is returned by queries on an entity whose table has no registration
	ErrNotRegistered = tables.ErrNotRegistered

	// ErrDuplicateRegistration is returned when the entity's table is already registered
	ErrDuplicateRegistration = tables.ErrDuplicateRegistration

	// ErrAlreadyInitialized is returned by Init on an active builder and
	// recorded by setters called after Init
	ErrAlreadyInitialized = errors.New("entity already initialized")

	// ErrIncompleteEnvironment is returned when a collaborator the builder
	// forwards to is missing
	ErrIncompleteEnvironment = errors.New("entity environment is incomplete")

	// ErrMissingColumnKey is recorded when a Fields entry has no "column" key
	ErrMissingColumnKey = errors.New(`field entry has no "column" key`)
)

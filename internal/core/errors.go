package core

import "errors"

var (
	// ErrConcurrentModification is returned when an update carries a stale
	// version token. The caller should reload the entity and retry or surface
	// the conflict; the core never merges conflicting edits.
	ErrConcurrentModification = errors.New("stale version: entity was modified concurrently")

	// ErrInvalidReference is returned when an operation names an entity that
	// does not belong to the claimed parent. Most mutation entry points treat
	// this condition as a silent no-op instead; the sentinel exists for the
	// call sites that must report it.
	ErrInvalidReference = errors.New("entity does not belong to the claimed parent")

	// ErrUndefinedConversion is returned when no direct or inverse exchange
	// rate exists for a currency pair.
	ErrUndefinedConversion = errors.New("no exchange rate defined for currency pair")

	// ErrNotFound is returned when an entity handle resolves to nothing.
	ErrNotFound = errors.New("entity not found")

	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrInvalidKind     = errors.New("invalid transaction kind")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyOwner      = errors.New("empty owner")
)

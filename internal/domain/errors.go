package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// User errors
	ErrMsgUserNotFound = "user not found"

	// Catalog errors
	ErrMsgItemNotFound  = "item not found"
	ErrMsgCardNotFound  = "card not found"
	ErrMsgEmptySet      = "no eligible items to draw from"
	ErrMsgInvalidCardID = "invalid card identifier"

	// Ledger errors
	ErrMsgInsufficientFunds    = "insufficient funds"
	ErrMsgInsufficientQuantity = "insufficient quantity"

	// Spawn errors
	ErrMsgSpawnConflict  = "an unclaimed spawn already exists"
	ErrMsgNothingToCatch = "nothing to catch"

	// Trade errors
	ErrMsgTradeConflict     = "participant already has an active trade"
	ErrMsgTradeNotFound     = "trade not found"
	ErrMsgInvalidTradeState = "operation not valid in current trade state"
	ErrMsgAlreadyLocked     = "proposal already locked"
	ErrMsgNotParticipant    = "user is not a trade participant"
	ErrMsgTradeInvalidated  = "trade invalidated: offered items no longer available"
	ErrMsgEmptyOffer        = "at least one item must be offered before locking"

	// Puzzle errors
	ErrMsgPuzzleNotFound   = "puzzle not found"
	ErrMsgPuzzleIncomplete = "missing pieces to complete puzzle"

	// Cooldown errors
	ErrMsgOnCooldown = "action on cooldown"

	// Input errors
	ErrMsgInvalidInput = "invalid input"

	// Database/System errors
	ErrMsgTxClosed = "tx is closed"
)

// Common domain errors
// These errors should be used consistently across all layers of the application.
// Wrap these errors with fmt.Errorf("%s: %w", details, domain.ErrXxx) for additional context.
var (
	// User errors
	ErrUserNotFound = errors.New(ErrMsgUserNotFound)

	// Catalog errors
	ErrItemNotFound  = errors.New(ErrMsgItemNotFound)
	ErrCardNotFound  = errors.New(ErrMsgCardNotFound)
	ErrEmptySet      = errors.New(ErrMsgEmptySet)
	ErrInvalidCardID = errors.New(ErrMsgInvalidCardID)

	// Ledger errors
	ErrInsufficientFunds    = errors.New(ErrMsgInsufficientFunds)
	ErrInsufficientQuantity = errors.New(ErrMsgInsufficientQuantity)

	// Spawn errors
	ErrSpawnConflict  = errors.New(ErrMsgSpawnConflict)
	ErrNothingToCatch = errors.New(ErrMsgNothingToCatch)

	// Trade errors
	ErrTradeConflict     = errors.New(ErrMsgTradeConflict)
	ErrTradeNotFound     = errors.New(ErrMsgTradeNotFound)
	ErrInvalidTradeState = errors.New(ErrMsgInvalidTradeState)
	ErrAlreadyLocked     = errors.New(ErrMsgAlreadyLocked)
	ErrNotParticipant    = errors.New(ErrMsgNotParticipant)
	ErrTradeInvalidated  = errors.New(ErrMsgTradeInvalidated)
	ErrEmptyOffer        = errors.New(ErrMsgEmptyOffer)

	// Puzzle errors
	ErrPuzzleNotFound   = errors.New(ErrMsgPuzzleNotFound)
	ErrPuzzleIncomplete = errors.New(ErrMsgPuzzleIncomplete)

	// Cooldown errors
	ErrOnCooldown = errors.New(ErrMsgOnCooldown)

	// Validation errors
	ErrInvalidInput = errors.New(ErrMsgInvalidInput)
)

// LockTooSoonError is returned when the second participant tries to lock
// before the settle delay after the first lock has elapsed. It carries the
// remaining wait so callers can surface it to the user.
type LockTooSoonError struct {
	Remaining time.Duration
}

func (e *LockTooSoonError) Error() string {
	return fmt.Sprintf("wait %s before locking to review the latest trade updates", e.Remaining.Round(time.Second))
}

// CooldownError is returned when a cooldown-gated action is attempted too
// early. It carries the remaining wait.
type CooldownError struct {
	Action    string
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: %s available in %s", ErrMsgOnCooldown, e.Action, e.Remaining.Round(time.Second))
}

func (e *CooldownError) Unwrap() error { return ErrOnCooldown }

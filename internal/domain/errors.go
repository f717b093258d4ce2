package domain

import (
	"errors"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors — compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Event errors
var (
	// ErrEventNotFound is returned when no event matches the given id or code.
	ErrEventNotFound = errors.New("event not found")

	// ErrOutcomeNotFound is returned when the outcome does not exist or does
	// not belong to the referenced event.
	ErrOutcomeNotFound = errors.New("event outcome not found")

	// ErrEventNotTradable is returned when a quote or wager targets an event
	// that is not in StatusOpen.
	ErrEventNotTradable = errors.New("event is not open for trading")

	// ErrInvalidTransition is returned when a lifecycle operation is not legal
	// from the event's current status.
	ErrInvalidTransition = errors.New("event status transition not allowed")

	// ErrEventExists is returned when creating an event whose ticker or name
	// is already taken.
	ErrEventExists = errors.New("event with this ticker or name already exists")
)

// Trade errors
var (
	// ErrInvalidPledge is returned when the pledge is zero or negative.
	ErrInvalidPledge = errors.New("pledge must be positive")

	// ErrInvalidLeverage is returned when leverage is below 1.
	ErrInvalidLeverage = errors.New("leverage must be at least 1")

	// ErrPledgeBelowMin is returned when the pledge is under the outcome's minimum.
	ErrPledgeBelowMin = errors.New("pledge is below the outcome minimum")

	// ErrPledgeAboveMax is returned when the pledge exceeds the outcome's cap.
	ErrPledgeAboveMax = errors.New("pledge exceeds the outcome maximum")

	// ErrLeverageAboveMax is returned when leverage exceeds the outcome's cap.
	ErrLeverageAboveMax = errors.New("leverage exceeds the outcome maximum")

	// ErrWagerMismatch is returned when a client-echoed wager or loan figure
	// does not equal the server's derivation from pledge × leverage.
	ErrWagerMismatch = errors.New("wager figures do not match pledge and leverage")

	// ErrPayoutSlippage is returned at commit time when the re-priced
	// indicative payout no longer covers the client's max_payout.
	ErrPayoutSlippage = errors.New("indicative payout fell below the requested max payout")

	// ErrPositionNotFound is returned when no position matches the given criteria.
	ErrPositionNotFound = errors.New("position not found")
)

// User / wallet errors
var (
	// ErrUserNotFound is returned when no user matches the given criteria.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when creating a user whose email is taken.
	ErrUserExists = errors.New("user with this email already exists")

	// ErrInsufficientFunds is returned when the wallet waterfall cannot cover
	// the pledge.
	ErrInsufficientFunds = errors.New("insufficient wallet balance")

	// ErrWalletNotFound is returned when a user is missing one of the three
	// wallet rows.
	ErrWalletNotFound = errors.New("wallet not found")
)

// Auth errors
var (
	// ErrUnauthorized is returned when a valid token is not present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the authenticated user lacks the required role.
	ErrForbidden = errors.New("forbidden: insufficient permissions")

	// ErrTokenExpired is returned when a JWT has passed its TTL.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenInvalid is returned when a token cannot be parsed or its signature
	// does not match.
	ErrTokenInvalid = errors.New("token is invalid")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

// notFoundErrors collects all "entity not found" sentinel errors so that
// IsNotFound can stay in sync automatically.
var notFoundErrors = []error{
	ErrEventNotFound,
	ErrOutcomeNotFound,
	ErrPositionNotFound,
	ErrUserNotFound,
	ErrWalletNotFound,
}

// IsNotFound returns true when err (or any error in its chain) is one of the
// domain "not found" errors. Use this instead of comparing error values directly
// when you need to translate domain errors to HTTP 404 responses.
func IsNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict returns true for errors that represent a state conflict: illegal
// lifecycle moves, trades against a non-open event, bound violations detected
// at quote or commit time, and uncoverable pledges.
func IsConflict(err error) bool {
	conflictErrors := []error{
		ErrEventExists,
		ErrUserExists,
		ErrEventNotTradable,
		ErrInvalidTransition,
		ErrPledgeBelowMin,
		ErrPledgeAboveMax,
		ErrLeverageAboveMax,
		ErrPayoutSlippage,
		ErrInsufficientFunds,
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsValidation returns true for structurally invalid trade inputs, the 400
// class as opposed to the 409 conflict class.
func IsValidation(err error) bool {
	validationErrors := []error{
		ErrInvalidPledge,
		ErrInvalidLeverage,
		ErrWagerMismatch,
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsAuthError returns true for authentication/authorisation errors.
func IsAuthError(err error) bool {
	authErrors := []error{
		ErrUnauthorized,
		ErrForbidden,
		ErrTokenExpired,
		ErrTokenInvalid,
	}
	for _, target := range authErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

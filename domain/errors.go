package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error for callers that map errors onto a transport
type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindStateConflict       Kind = "state_conflict"
	KindInsufficientFunds   Kind = "insufficient_funds"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindInternal            Kind = "internal"
)

// Error is a classified error whose Message is safe to show to a player
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same Code, so sentinels still match
// after WithMessage or Wrap produced a copy
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of e with a more specific display message
func (e *Error) WithMessage(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...), Err: e.Err}
}

// Wrap returns a copy of e carrying cause
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// PublicMessage returns the player-facing message for err. Anything that is
// not a classified error collapses to a generic message.
func PublicMessage(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation errors
var (
	ErrStakeBelowMinimum = newError(KindValidation, "stake_below_minimum", "stake is below the minimum")
	ErrInvalidSide       = newError(KindValidation, "invalid_side", "side must be A or B")
	ErrInvalidPrediction = newError(KindValidation, "invalid_prediction", "predicted hours are out of range")
	ErrInvalidAmount     = newError(KindValidation, "invalid_amount", "amount must be positive")
	ErrInvalidPrice      = newError(KindValidation, "invalid_price", "price must be positive")
	ErrInvalidInput      = newError(KindValidation, "invalid_input", "invalid input")
)

// Not found errors
var (
	ErrPlayerNotFound   = newError(KindNotFound, "player_not_found", "player not found")
	ErrRoundNotFound    = newError(KindNotFound, "round_not_found", "round not found")
	ErrStockNotFound    = newError(KindNotFound, "stock_not_found", "stock not found")
	ErrPositionNotFound = newError(KindNotFound, "position_not_found", "no position held in this stock")
	ErrWagerNotFound    = newError(KindNotFound, "wager_not_found", "wager not found")
)

// State conflict errors
var (
	ErrRoundNotActive      = newError(KindStateConflict, "round_not_active", "round is not accepting wagers")
	ErrDuplicateWager      = newError(KindStateConflict, "duplicate_wager", "you already placed a wager on this round")
	ErrInsufficientShares  = newError(KindStateConflict, "insufficient_shares", "cannot sell more shares than you own")
	ErrRoundAlreadySettled = newError(KindStateConflict, "round_already_settled", "round has already been settled")
	ErrRoundNotDue         = newError(KindStateConflict, "round_not_due", "round has not reached its deadline")
	ErrActiveRoundExists   = newError(KindStateConflict, "active_round_exists", "an active round already exists")
	ErrStockInactive       = newError(KindStateConflict, "stock_inactive", "stock is no longer trending")
	ErrDuplicateStock      = newError(KindStateConflict, "duplicate_stock", "stock symbol already listed")
	ErrContentRecentlyUsed = newError(KindStateConflict, "content_recently_used", "post was used by a recent round")
)

// Funds errors
var (
	ErrInsufficientBalance          = newError(KindInsufficientFunds, "insufficient_balance", "insufficient balance")
	ErrInsufficientChipsForOneShare = newError(KindInsufficientFunds, "insufficient_chips_for_one_share", "not enough chips to buy one share")
)

// Upstream errors
var (
	ErrUpstreamUnavailable = newError(KindUpstreamUnavailable, "upstream_unavailable", "content source unavailable")
)

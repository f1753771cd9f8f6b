package game

import "errors"

// Rejection reasons returned to the submitting player. Every one of these is
// recoverable-local: a rejected verb leaves match state untouched and is
// never surfaced to the other seats.
var (
	ErrNotYourTurn          = errors.New("not your turn")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrMustCoup             = errors.New("must coup with 10 or more coins")
	ErrInvalidTarget        = errors.New("invalid target")
	ErrInvalidBlockCard     = errors.New("invalid blocking card")
	ErrNoPendingAction      = errors.New("no pending action")
	ErrDeckEmpty            = errors.New("deck is empty")
	ErrInvalidCardSelection = errors.New("invalid card selection")
	ErrMatchEnded           = errors.New("match has ended")
)

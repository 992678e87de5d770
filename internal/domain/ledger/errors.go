package ledger

import (
	"errors"
	"fmt"
)

type Reason string

const (
	ReasonIneligible              Reason = "ineligible"
	ReasonAlreadyClaimedThisRound Reason = "already_claimed"
	ReasonPoolExhausted           Reason = "exhausted"
	ReasonNoActiveRound           Reason = "no_round"
	ReasonTransactionFailed       Reason = "failed"
	ReasonStorageUnavailable      Reason = "unavailable"
)

// ClaimError is the only error kind Claim and ClaimUnchecked return. Err holds
// the underlying cause when there is one.
type ClaimError struct {
	Reason Reason
	Err    error
}

var (
	ErrIneligible              = &ClaimError{Reason: ReasonIneligible}
	ErrAlreadyClaimedThisRound = &ClaimError{Reason: ReasonAlreadyClaimedThisRound}
	ErrPoolExhausted           = &ClaimError{Reason: ReasonPoolExhausted}
	ErrNoActiveRound           = &ClaimError{Reason: ReasonNoActiveRound}
	ErrTransactionFailed       = &ClaimError{Reason: ReasonTransactionFailed}
	ErrStorageUnavailable      = &ClaimError{Reason: ReasonStorageUnavailable}
)

func (e *ClaimError) Error() string {
	var msg string
	switch e.Reason {
	case ReasonIneligible:
		msg = "user is not eligible to claim a key"
	case ReasonAlreadyClaimedThisRound:
		msg = "user already claimed a key this round"
	case ReasonPoolExhausted:
		msg = "no keys left"
	case ReasonNoActiveRound:
		msg = "no round is active"
	case ReasonTransactionFailed:
		msg = "claim transaction failed"
	case ReasonStorageUnavailable:
		msg = "key storage unavailable"
	default:
		msg = string(e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ClaimError) Unwrap() error {
	return e.Err
}

// Is matches any ClaimError with the same reason, so errors.Is(err,
// ErrPoolExhausted) works regardless of the wrapped cause.
func (e *ClaimError) Is(target error) bool {
	t, ok := target.(*ClaimError)
	return ok && t.Reason == e.Reason
}

// ReasonOf returns the claim failure reason carried by err, if any.
func ReasonOf(err error) (Reason, bool) {
	var ce *ClaimError
	if errors.As(err, &ce) {
		return ce.Reason, true
	}
	return "", false
}

// Retryable reports whether the caller may try the same claim again later
// with a chance of a different result.
func Retryable(err error) bool {
	r, ok := ReasonOf(err)
	return ok && (r == ReasonTransactionFailed || r == ReasonStorageUnavailable)
}

func newClaimError(reason Reason, err error) *ClaimError {
	return &ClaimError{Reason: reason, Err: err}
}

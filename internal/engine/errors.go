package engine

import (
	"errors"
	"fmt"
	"time"

	"launch-sniper-go/internal/platform"

	"github.com/gagliardetto/solana-go"
)

// ErrNothingToSell is wrapped in a SubmissionError when a full-balance sell
// finds no tokens
var ErrNothingToSell = errors.New("token balance is zero")

// CurveCompleteError means the bonding curve has migrated. The trade must
// go through the post-graduation market instead.
type CurveCompleteError struct {
	Mint     solana.PublicKey
	Platform platform.Platform
}

func (e *CurveCompleteError) Error() string {
	return fmt.Sprintf("bonding curve for %s on %s is complete", e.Mint, e.Platform)
}

// SlippageExceededError means the minimum output cannot be met given the
// fetched curve state. Nothing was submitted.
type SlippageExceededError struct {
	Mint      solana.PublicKey
	Expected  uint64
	MinOut    uint64
	Available uint64
}

func (e *SlippageExceededError) Error() string {
	return fmt.Sprintf("minimum output %d unattainable for %s (expected %d, available %d)",
		e.MinOut, e.Mint, e.Expected, e.Available)
}

// SubmissionError means the network rejected the transaction, it failed on
// chain, or it could not be built
type SubmissionError struct {
	Mint      solana.PublicKey
	Signature solana.Signature
	Attempts  int
	Err       error
}

func (e *SubmissionError) Error() string {
	if e.Signature == (solana.Signature{}) {
		return fmt.Sprintf("submission for %s failed after %d attempt(s): %v", e.Mint, e.Attempts, e.Err)
	}
	return fmt.Sprintf("submission %s for %s failed after %d attempt(s): %v", e.Signature, e.Mint, e.Attempts, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ConfirmationTimeoutError means the last signature was still unknown after
// polling and an authoritative re-check. It may yet land.
type ConfirmationTimeoutError struct {
	Mint      solana.PublicKey
	Signature solana.Signature
	Attempts  int
	Waited    time.Duration
}

func (e *ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("confirmation of %s for %s timed out after %s (%d attempt(s))",
		e.Signature, e.Mint, e.Waited, e.Attempts)
}

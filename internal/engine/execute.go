package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"launch-sniper-go/internal/fee"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// attemptState is the step of one submission attempt
type attemptState string

const (
	stateBuild      attemptState = "build"
	stateSubmit     attemptState = "submit"
	stateConfirming attemptState = "confirming"
	stateConfirmed  attemptState = "confirmed"
	stateTimeout    attemptState = "timeout"
	stateRejected   attemptState = "rejected"
)

// execute runs up to MaxAttempts attempts. Each attempt rebuilds the
// transaction with a fresh blockhash and fee quote.
func (e *Engine) execute(ctx context.Context, mint solana.PublicKey, ixs []solana.Instruction) (solana.Signature, int, error) {
	var lastErr error
	var lastSig solana.Signature

	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := e.sleep(ctx, e.backoff(attempt-1)); err != nil {
				return lastSig, attempt - 1, lastErr
			}
		}

		sig, state, err := e.attempt(ctx, mint, ixs, attempt)
		if sig != (solana.Signature{}) {
			lastSig = sig
		}
		if state == stateConfirmed {
			return sig, attempt, nil
		}
		lastErr = err

		e.logger.WithError(err).WithFields(logrus.Fields{
			"mint":    mint,
			"attempt": attempt,
			"state":   state,
		}).Warn("🔁 Attempt did not confirm")

		if ctx.Err() != nil {
			return lastSig, attempt, lastErr
		}
	}
	return lastSig, e.cfg.MaxAttempts, lastErr
}

// attempt walks build → submit → confirming → confirmed | timeout. A
// timeout gets one re-check that searches transaction history.
func (e *Engine) attempt(ctx context.Context, mint solana.PublicKey, ixs []solana.Instruction, n int) (solana.Signature, attemptState, error) {
	var tx *solana.Transaction
	var sig solana.Signature
	var submitted time.Time

	state := stateBuild
	for {
		switch state {
		case stateBuild:
			built, err := e.buildTransaction(ctx, ixs)
			if err != nil {
				return sig, stateRejected, &SubmissionError{Mint: mint, Attempts: n, Err: err}
			}
			tx = built
			state = stateSubmit

		case stateSubmit:
			s, err := e.submitter.Send(ctx, tx)
			if err != nil {
				return sig, stateRejected, &SubmissionError{Mint: mint, Attempts: n, Err: fmt.Errorf("send failed: %w", err)}
			}
			sig = s
			submitted = time.Now()
			e.logger.WithFields(logrus.Fields{
				"mint":      mint,
				"signature": sig,
				"attempt":   n,
			}).Info("📤 Transaction submitted")
			state = stateConfirming

		case stateConfirming:
			next, err := e.poll(ctx, sig)
			if err != nil {
				return sig, stateRejected, &SubmissionError{Mint: mint, Signature: sig, Attempts: n, Err: err}
			}
			state = next

		case stateTimeout:
			status, err := e.network.SignatureStatus(ctx, sig, true)
			switch {
			case err == nil && status.Failed():
				return sig, stateRejected, &SubmissionError{Mint: mint, Signature: sig, Attempts: n,
					Err: fmt.Errorf("%w: %v", errFailedOnChain, status.Err)}
			case err == nil && status.Landed():
				state = stateConfirmed
			default:
				return sig, stateTimeout, &ConfirmationTimeoutError{Mint: mint, Signature: sig, Attempts: n, Waited: time.Since(submitted)}
			}

		case stateConfirmed:
			e.logger.WithFields(logrus.Fields{
				"mint":      mint,
				"signature": sig,
				"attempt":   n,
				"latency":   time.Since(submitted),
			}).Info("✅ Transaction confirmed")
			return sig, stateConfirmed, nil
		}
	}
}

var errFailedOnChain = errors.New("transaction failed on chain")

// poll checks the signature status every PollInterval until it lands, fails
// or ConfirmTimeout passes. Status read errors are retried.
func (e *Engine) poll(ctx context.Context, sig solana.Signature) (attemptState, error) {
	pollCtx, cancel := context.WithTimeout(ctx, e.cfg.ConfirmTimeout)
	defer cancel()

	for {
		status, err := e.network.SignatureStatus(pollCtx, sig, false)
		switch {
		case err != nil:
			e.logger.WithError(err).WithField("signature", sig).Debug("⚠️ Status check failed")
		case status.Failed():
			return stateRejected, fmt.Errorf("%w: %v", errFailedOnChain, status.Err)
		case status.Landed():
			return stateConfirmed, nil
		}

		if err := e.sleep(pollCtx, e.cfg.PollInterval); err != nil {
			return stateTimeout, nil
		}
	}
}

// buildTransaction prepends the compute budget, appends a tip when the
// submitter wants one, and signs
func (e *Engine) buildTransaction(ctx context.Context, ixs []solana.Instruction) (*solana.Transaction, error) {
	payer := e.signer.PublicKey()

	blockhash, err := e.network.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get blockhash: %w", err)
	}

	var price uint64
	var ok bool
	if e.fees != nil {
		price, ok = e.fees.Fee(ctx)
	}
	all := fee.BudgetInstructions(e.cfg.ComputeUnitLimit, price, ok)
	all = append(all, ixs...)

	if tipper, isTipper := e.submitter.(Tipper); isTipper {
		tip, err := tipper.TipInstruction(ctx, payer)
		if err != nil {
			return nil, fmt.Errorf("failed to build tip: %w", err)
		}
		if tip != nil {
			all = append(all, tip)
		}
	}

	tx, err := solana.NewTransaction(all, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	if err := e.signer.SignTransaction(tx); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if len(tx.Signatures) == 0 {
		return nil, errors.New("transaction has no signature")
	}
	return tx, nil
}

// backoff returns the wait before attempt n+1
func (e *Engine) backoff(n int) time.Duration {
	if e.cfg.Backoff == BackoffLinear {
		return e.cfg.RetryDelay * time.Duration(n)
	}
	return e.cfg.RetryDelay
}

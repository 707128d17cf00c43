package mixercore

import (
	"errors"
	"fmt"
)

var (
	ErrLogSource           = errors.New("log source error")
	ErrInvalidAddress      = errors.New("invalid address")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrDepositLocked       = errors.New("deposit blocked: make a withdrawal first")
	ErrWithdrawNotEligible = errors.New("withdrawal not available yet")
	ErrNoQuickAddress      = errors.New("no quick address set")
	ErrNotConnected        = errors.New("wallet not connected")
	ErrWrongNetwork        = errors.New("please connect to the Ethereum Mainnet")
	ErrNoSigner            = errors.New("no signer configured")
	ErrTxFailed            = errors.New("transaction failed")
)

// sourceErr tags a data-source failure so callers can match it with errors.Is.
func sourceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrLogSource, op, err)
}

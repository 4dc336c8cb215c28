package processor

import (
	"errors"

	"github.com/terminal-bench/paymentsengine/pkg/decimal"
)

// Business-rule errors. Each one rejects a single transaction and leaves
// all state untouched.
var (
	ErrInsufficientFunds   = errors.New("insufficient available funds")
	ErrAccountFrozen       = errors.New("account is locked")
	ErrTransactionNotFound = errors.New("referenced transaction not found for client")
	ErrAlreadyDisputed     = errors.New("transaction is already under dispute")
	ErrDisputeNotFound     = errors.New("no active dispute for transaction")
	ErrNegativeAmount      = errors.New("amount must not be negative")
	ErrMissingAmount       = errors.New("amount is required")
	ErrUnknownKind         = errors.New("unknown transaction kind")
)

var businessErrors = []error{
	ErrInsufficientFunds,
	ErrAccountFrozen,
	ErrTransactionNotFound,
	ErrAlreadyDisputed,
	ErrDisputeNotFound,
	ErrNegativeAmount,
	ErrMissingAmount,
	ErrUnknownKind,
	decimal.ErrOverflow,
}

// IsBusinessError reports whether err rejects one transaction without
// affecting the rest of the run.
func IsBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

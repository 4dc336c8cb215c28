package processor

import (
	"fmt"

	"github.com/terminal-bench/paymentsengine/internal/ledger"
	"github.com/terminal-bench/paymentsengine/pkg/decimal"
)

// Kind is the type of a transaction event
type Kind int

const (
	KindDeposit Kind = iota
	KindWithdrawal
	KindDispute
	KindResolve
	KindChargeback
)

var kindNames = [...]string{
	KindDeposit:    "deposit",
	KindWithdrawal: "withdrawal",
	KindDispute:    "dispute",
	KindResolve:    "resolve",
	KindChargeback: "chargeback",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// CarriesAmount reports whether events of this kind must specify an amount
func (k Kind) CarriesAmount() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// ParseKind maps a wire name like "deposit" to its Kind
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Transaction is a single event in the input stream
type Transaction struct {
	Kind   Kind
	Client ledger.ClientID
	Tx     ledger.TxID
	// Amount is only meaningful when HasAmount is set.
	Amount    decimal.Amount
	HasAmount bool
}

// Deposit builds a deposit event
func Deposit(client ledger.ClientID, tx ledger.TxID, amount decimal.Amount) Transaction {
	return Transaction{Kind: KindDeposit, Client: client, Tx: tx, Amount: amount, HasAmount: true}
}

// Withdrawal builds a withdrawal event
func Withdrawal(client ledger.ClientID, tx ledger.TxID, amount decimal.Amount) Transaction {
	return Transaction{Kind: KindWithdrawal, Client: client, Tx: tx, Amount: amount, HasAmount: true}
}

// Dispute builds a dispute event referencing tx
func Dispute(client ledger.ClientID, tx ledger.TxID) Transaction {
	return Transaction{Kind: KindDispute, Client: client, Tx: tx}
}

// Resolve builds a resolve event referencing tx
func Resolve(client ledger.ClientID, tx ledger.TxID) Transaction {
	return Transaction{Kind: KindResolve, Client: client, Tx: tx}
}

// Chargeback builds a chargeback event referencing tx
func Chargeback(client ledger.ClientID, tx ledger.TxID) Transaction {
	return Transaction{Kind: KindChargeback, Client: client, Tx: tx}
}

package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/terminal-bench/paymentsengine/pkg/decimal"
)

// ClientID identifies a client account
type ClientID uint16

// TxID identifies a transaction, unique across the whole input stream
type TxID uint32

var ErrClientCollision = errors.New("client present in both ledgers")

// Account holds the balances of a single client.
// Total is derived from Available and Held and never stored.
type Account struct {
	Available decimal.Amount
	Held      decimal.Amount
	// Locked is set by a chargeback and never cleared.
	Locked bool
}

// Total returns available + held
func (a Account) Total() (decimal.Amount, error) {
	return a.Available.Add(a.Held)
}

// AccountSnapshot is a read-only copy of an account at the end of a run
type AccountSnapshot struct {
	Client    ClientID       `json:"client"`
	Available decimal.Amount `json:"available"`
	Held      decimal.Amount `json:"held"`
	Total     decimal.Amount `json:"total"`
	Locked    bool           `json:"locked"`
}

// Ledger is a keyed store of client accounts.
// Accounts are created lazily and never removed.
type Ledger struct {
	accounts map[ClientID]*Account
}

// New creates an empty ledger
func New() *Ledger {
	return &Ledger{accounts: make(map[ClientID]*Account)}
}

// GetOrCreate returns the account for client, inserting a zero unlocked one if absent
func (l *Ledger) GetOrCreate(client ClientID) *Account {
	acc, ok := l.accounts[client]
	if !ok {
		acc = &Account{}
		l.accounts[client] = acc
	}
	return acc
}

// Get returns a copy of the account for client
func (l *Ledger) Get(client ClientID) (Account, bool) {
	acc, ok := l.accounts[client]
	if !ok {
		return Account{}, false
	}
	return *acc, true
}

// Len returns the number of known accounts
func (l *Ledger) Len() int {
	return len(l.accounts)
}

// Merge moves every account of other into l. The two ledgers must hold
// disjoint clients.
func (l *Ledger) Merge(other *Ledger) error {
	for client := range other.accounts {
		if _, exists := l.accounts[client]; exists {
			return fmt.Errorf("%w: %d", ErrClientCollision, client)
		}
	}
	for client, acc := range other.accounts {
		l.accounts[client] = acc
	}
	return nil
}

// Snapshots returns a copy of every account ordered by client id
func (l *Ledger) Snapshots() ([]AccountSnapshot, error) {
	snapshots := make([]AccountSnapshot, 0, len(l.accounts))
	for client, acc := range l.accounts {
		total, err := acc.Total()
		if err != nil {
			return nil, fmt.Errorf("client %d total: %w", client, err)
		}
		snapshots = append(snapshots, AccountSnapshot{
			Client:    client,
			Available: acc.Available,
			Held:      acc.Held,
			Total:     total,
			Locked:    acc.Locked,
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Client < snapshots[j].Client
	})

	return snapshots, nil
}

package ledger

import "github.com/terminal-bench/paymentsengine/pkg/decimal"

// Key identifies a transaction owned by a client. Lookups by Key only match
// transactions the client itself created.
type Key struct {
	Client ClientID
	Tx     TxID
}

// TxTable maps (client, tx) to a deposit amount. The processor keeps one
// table for deposits eligible for dispute and one for deposits under dispute.
type TxTable struct {
	entries map[Key]decimal.Amount
}

// NewTxTable creates an empty table
func NewTxTable() *TxTable {
	return &TxTable{entries: make(map[Key]decimal.Amount)}
}

// Insert stores amount under key, replacing any previous entry
func (t *TxTable) Insert(key Key, amount decimal.Amount) {
	t.entries[key] = amount
}

// Remove deletes key
func (t *TxTable) Remove(key Key) {
	delete(t.entries, key)
}

// Take removes key and returns the amount it held
func (t *TxTable) Take(key Key) (decimal.Amount, bool) {
	amount, ok := t.entries[key]
	if ok {
		delete(t.entries, key)
	}
	return amount, ok
}

// Lookup returns the amount stored under key
func (t *TxTable) Lookup(key Key) (decimal.Amount, bool) {
	amount, ok := t.entries[key]
	return amount, ok
}

// Contains reports whether key is present
func (t *TxTable) Contains(key Key) bool {
	_, ok := t.entries[key]
	return ok
}

// Len returns the number of entries
func (t *TxTable) Len() int {
	return len(t.entries)
}

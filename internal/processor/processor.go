package processor

import (
	"fmt"

	"github.com/terminal-bench/paymentsengine/internal/ledger"
	"github.com/terminal-bench/paymentsengine/pkg/decimal"
)

// Stores groups the state a Processor mutates. The caller owns it and may
// inspect it once processing is done.
type Stores struct {
	Accounts *ledger.Ledger
	// Deposits holds accepted deposits that are not under dispute.
	Deposits *ledger.TxTable
	// Disputes holds deposits under active dispute.
	Disputes *ledger.TxTable
}

// NewStores creates empty stores
func NewStores() Stores {
	return Stores{
		Accounts: ledger.New(),
		Deposits: ledger.NewTxTable(),
		Disputes: ledger.NewTxTable(),
	}
}

const kindCount = len(kindNames)

// Stats counts applied and rejected transactions per kind
type Stats struct {
	Applied  [kindCount]int
	Rejected [kindCount]int
}

// TotalApplied returns the number of applied transactions
func (s Stats) TotalApplied() int {
	n := 0
	for _, c := range s.Applied {
		n += c
	}
	return n
}

// TotalRejected returns the number of rejected transactions
func (s Stats) TotalRejected() int {
	n := 0
	for _, c := range s.Rejected {
		n += c
	}
	return n
}

// Add accumulates other into s
func (s *Stats) Add(other Stats) {
	for i := range s.Applied {
		s.Applied[i] += other.Applied[i]
		s.Rejected[i] += other.Rejected[i]
	}
}

// Option configures a Processor
type Option func(*Processor)

// WithStrictDisputes makes a dispute on a transaction that is already under
// dispute fail with ErrAlreadyDisputed instead of ErrTransactionNotFound.
func WithStrictDisputes(strict bool) Option {
	return func(p *Processor) {
		p.strictDisputes = strict
	}
}

// Processor applies transaction events to client accounts.
// It is not safe for concurrent use; shard clients across processors instead.
type Processor struct {
	accounts *ledger.Ledger
	deposits *ledger.TxTable
	disputes *ledger.TxTable

	strictDisputes bool
	stats          Stats
}

// New creates a processor over the given stores
func New(stores Stores, opts ...Option) *Processor {
	p := &Processor{
		accounts: stores.Accounts,
		deposits: stores.Deposits,
		disputes: stores.Disputes,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Apply dispatches tx to the transition for its kind
func (p *Processor) Apply(tx Transaction) error {
	switch tx.Kind {
	case KindDeposit, KindWithdrawal:
		if !tx.HasAmount {
			return p.record(tx.Kind, fmt.Errorf("%s: %w", tx.Kind, ErrMissingAmount))
		}
		if tx.Kind == KindDeposit {
			return p.Deposit(tx.Client, tx.Tx, tx.Amount)
		}
		return p.Withdraw(tx.Client, tx.Tx, tx.Amount)
	case KindDispute:
		return p.Dispute(tx.Client, tx.Tx)
	case KindResolve:
		return p.Resolve(tx.Client, tx.Tx)
	case KindChargeback:
		return p.Chargeback(tx.Client, tx.Tx)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, tx.Kind)
	}
}

// Deposit credits amount to the client and makes the deposit disputable
func (p *Processor) Deposit(client ledger.ClientID, tx ledger.TxID, amount decimal.Amount) error {
	return p.record(KindDeposit, p.deposit(client, tx, amount))
}

// Withdraw debits amount from the client's available funds
func (p *Processor) Withdraw(client ledger.ClientID, tx ledger.TxID, amount decimal.Amount) error {
	return p.record(KindWithdrawal, p.withdraw(client, amount))
}

// Dispute holds the funds of a previous deposit
func (p *Processor) Dispute(client ledger.ClientID, tx ledger.TxID) error {
	return p.record(KindDispute, p.dispute(ledger.Key{Client: client, Tx: tx}))
}

// Resolve releases the funds held by a dispute
func (p *Processor) Resolve(client ledger.ClientID, tx ledger.TxID) error {
	return p.record(KindResolve, p.resolve(ledger.Key{Client: client, Tx: tx}))
}

// Chargeback reverses a disputed deposit and locks the account
func (p *Processor) Chargeback(client ledger.ClientID, tx ledger.TxID) error {
	return p.record(KindChargeback, p.chargeback(ledger.Key{Client: client, Tx: tx}))
}

func (p *Processor) deposit(client ledger.ClientID, tx ledger.TxID, amount decimal.Amount) error {
	if amount.IsNegative() {
		return fmt.Errorf("deposit: %w", ErrNegativeAmount)
	}

	acc := p.accounts.GetOrCreate(client)
	available, err := acc.Available.Add(amount)
	if err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	if err := checkTotal(available, acc.Held); err != nil {
		return fmt.Errorf("deposit: %w", err)
	}

	acc.Available = available

	// A key under dispute must not also appear in the deposit history.
	key := ledger.Key{Client: client, Tx: tx}
	if !p.disputes.Contains(key) {
		p.deposits.Insert(key, amount)
	}
	return nil
}

func (p *Processor) withdraw(client ledger.ClientID, amount decimal.Amount) error {
	if amount.IsNegative() {
		return fmt.Errorf("withdrawal: %w", ErrNegativeAmount)
	}

	acc := p.accounts.GetOrCreate(client)
	if acc.Locked {
		return fmt.Errorf("withdrawal: %w", ErrAccountFrozen)
	}
	if acc.Available.LessThan(amount) {
		return fmt.Errorf("withdrawal of %s with %s available: %w", amount, acc.Available, ErrInsufficientFunds)
	}

	available, err := acc.Available.Sub(amount)
	if err != nil {
		return fmt.Errorf("withdrawal: %w", err)
	}

	acc.Available = available
	return nil
}

func (p *Processor) dispute(key ledger.Key) error {
	amount, ok := p.deposits.Take(key)
	if !ok {
		if p.strictDisputes && p.disputes.Contains(key) {
			return fmt.Errorf("dispute of tx %d: %w", key.Tx, ErrAlreadyDisputed)
		}
		return fmt.Errorf("dispute of tx %d: %w", key.Tx, ErrTransactionNotFound)
	}

	acc := p.accounts.GetOrCreate(key.Client)
	available, held, err := moveFunds(acc.Available, acc.Held, amount)
	if err != nil {
		p.deposits.Insert(key, amount)
		return fmt.Errorf("dispute of tx %d: %w", key.Tx, err)
	}

	acc.Available = available
	acc.Held = held
	p.disputes.Insert(key, amount)
	return nil
}

func (p *Processor) resolve(key ledger.Key) error {
	amount, ok := p.disputes.Take(key)
	if !ok {
		return fmt.Errorf("resolve of tx %d: %w", key.Tx, ErrDisputeNotFound)
	}

	acc := p.accounts.GetOrCreate(key.Client)
	held, available, err := moveFunds(acc.Held, acc.Available, amount)
	if err != nil {
		p.disputes.Insert(key, amount)
		return fmt.Errorf("resolve of tx %d: %w", key.Tx, err)
	}

	acc.Available = available
	acc.Held = held
	p.deposits.Insert(key, amount)
	return nil
}

func (p *Processor) chargeback(key ledger.Key) error {
	amount, ok := p.disputes.Take(key)
	if !ok {
		return fmt.Errorf("chargeback of tx %d: %w", key.Tx, ErrDisputeNotFound)
	}

	acc := p.accounts.GetOrCreate(key.Client)
	held, err := acc.Held.Sub(amount)
	if err == nil {
		err = checkTotal(acc.Available, held)
	}
	if err != nil {
		p.disputes.Insert(key, amount)
		return fmt.Errorf("chargeback of tx %d: %w", key.Tx, err)
	}

	acc.Held = held
	acc.Locked = true
	return nil
}

// moveFunds subtracts amount from one balance and adds it to the other.
func moveFunds(from, to, amount decimal.Amount) (decimal.Amount, decimal.Amount, error) {
	newFrom, err := from.Sub(amount)
	if err != nil {
		return from, to, err
	}
	newTo, err := to.Add(amount)
	if err != nil {
		return from, to, err
	}
	return newFrom, newTo, nil
}

func checkTotal(available, held decimal.Amount) error {
	_, err := available.Add(held)
	return err
}

func (p *Processor) record(kind Kind, err error) error {
	if err != nil {
		p.stats.Rejected[kind]++
	} else {
		p.stats.Applied[kind]++
	}
	return err
}

// Account returns a copy of the client's account
func (p *Processor) Account(client ledger.ClientID) (ledger.Account, bool) {
	return p.accounts.Get(client)
}

// IsDisputable reports whether tx is a known deposit of client not under dispute
func (p *Processor) IsDisputable(client ledger.ClientID, tx ledger.TxID) bool {
	return p.deposits.Contains(ledger.Key{Client: client, Tx: tx})
}

// IsDisputed reports whether tx of client is under active dispute
func (p *Processor) IsDisputed(client ledger.ClientID, tx ledger.TxID) bool {
	return p.disputes.Contains(ledger.Key{Client: client, Tx: tx})
}

// Snapshots returns the current state of every account
func (p *Processor) Snapshots() ([]ledger.AccountSnapshot, error) {
	return p.accounts.Snapshots()
}

// Stats returns the per-kind counters
func (p *Processor) Stats() Stats {
	return p.stats
}

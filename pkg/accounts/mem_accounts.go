package accounts

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// MemAccounts is an in-process ledger. A single mutex is the linearization
// point for every conditional write.
type MemAccounts struct {
	mu       sync.Mutex
	records  map[solana.PublicKey]*Account
	seq      uint64
	used     uint64
	capacity uint64
}

// NewMemAccounts creates an empty ledger. A capacity of zero means unlimited.
func NewMemAccounts(capacity uint64) *MemAccounts {
	return &MemAccounts{
		records:  make(map[solana.PublicKey]*Account),
		capacity: capacity,
	}
}

func (m *MemAccounts) GetAccount(ctx context.Context, pubkey solana.PublicKey) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.records[pubkey]
	if !ok {
		return nil, ErrNoAccount
	}
	return acct.Clone(), nil
}

func (m *MemAccounts) CreateAccount(ctx context.Context, acct *Account) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[acct.Key]; ok {
		return 0, ErrAccountExists
	}

	size := acct.AllocationSize()
	if m.capacity != 0 && m.used+size > m.capacity {
		return 0, ErrInsufficientSpace
	}

	m.seq++
	stored := acct.Clone()
	stored.Exists = true
	stored.CreatedAt = m.seq
	m.records[acct.Key] = stored
	m.used += size

	acct.Exists = true
	acct.CreatedAt = m.seq
	return m.seq, nil
}

// Used returns the number of bytes allocated to records.
func (m *MemAccounts) Used() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used
}

func (m *MemAccounts) Close() error {
	return nil
}

package accountsdb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Overclock-Validator/bankpda/pkg/accounts"
	"github.com/cockroachdb/pebble"
	"github.com/gagliardetto/solana-go"
)

// PebbleAccounts is a durable ledger on pebble. Pebble has no read-modify-write
// transactions, so conditional writes are serialized by commitMu and land as
// one synced batch.
type PebbleAccounts struct {
	db       *pebble.DB
	commitMu sync.Mutex
	capacity uint64
}

func OpenPebble(dir string, capacity uint64) (*PebbleAccounts, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble accounts db at %s: %w", dir, err)
	}

	return &PebbleAccounts{db: db, capacity: capacity}, nil
}

func (p *PebbleAccounts) get(key []byte) ([]byte, error) {
	val, closer, err := p.db.Get(key)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (p *PebbleAccounts) counter(key []byte) (uint64, error) {
	val, err := p.get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return decodeUint64(val)
}

func (p *PebbleAccounts) GetAccount(ctx context.Context, pubkey solana.PublicKey) (*accounts.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	val, err := p.get(acctKey(pubkey))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, accounts.ErrNoAccount
	} else if err != nil {
		return nil, fmt.Errorf("error whilst retrieving account %s: %w", pubkey, err)
	}

	acct, err := accounts.UnmarshalAccount(val)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize account %s from pebble accountsdb: %w", pubkey, err)
	}
	return acct, nil
}

func (p *PebbleAccounts) CreateAccount(ctx context.Context, acct *accounts.Account) (uint64, error) {
	p.commitMu.Lock()
	defer p.commitMu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	key := acctKey(acct.Key)
	_, err := p.get(key)
	if err == nil {
		return 0, accounts.ErrAccountExists
	} else if !errors.Is(err, pebble.ErrNotFound) {
		return 0, err
	}

	used, err := p.counter(usedKey)
	if err != nil {
		return 0, err
	}
	size := acct.AllocationSize()
	if p.capacity != 0 && used+size > p.capacity {
		return 0, accounts.ErrInsufficientSpace
	}

	seq, err := p.counter(seqKey)
	if err != nil {
		return 0, err
	}
	seq++

	record := acct.Clone()
	record.Exists = true
	record.CreatedAt = seq
	data, err := record.Marshal()
	if err != nil {
		return 0, err
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	if err = batch.Set(key, data, nil); err != nil {
		return 0, err
	}
	if err = batch.Set(seqKey, encodeUint64(seq), nil); err != nil {
		return 0, err
	}
	if err = batch.Set(usedKey, encodeUint64(used+size), nil); err != nil {
		return 0, err
	}
	if err = batch.Commit(pebble.Sync); err != nil {
		return 0, err
	}

	acct.Exists = true
	acct.CreatedAt = seq
	return seq, nil
}

func (p *PebbleAccounts) Close() error {
	return p.db.Close()
}

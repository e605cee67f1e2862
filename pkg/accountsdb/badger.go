package accountsdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/Overclock-Validator/bankpda/pkg/accounts"
	"github.com/dgraph-io/badger/v4"
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"
)

// BadgerAccounts is a durable ledger on badger. Each conditional write is a
// single optimistic transaction that reads the account key before writing
// it, so two transactions racing on the same address cannot both commit.
type BadgerAccounts struct {
	db       *badger.DB
	capacity uint64
}

type klogAdapter struct{}

func (klogAdapter) Errorf(format string, args ...interface{})   { klog.Errorf(format, args...) }
func (klogAdapter) Warningf(format string, args ...interface{}) { klog.Warningf(format, args...) }
func (klogAdapter) Infof(format string, args ...interface{})    { klog.V(3).Infof(format, args...) }
func (klogAdapter) Debugf(format string, args ...interface{})   { klog.V(5).Infof(format, args...) }

func OpenBadger(dir string, capacity uint64) (*BadgerAccounts, error) {
	opts := badger.DefaultOptions(dir).
		WithSyncWrites(true).
		WithLogger(klogAdapter{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger accounts db at %s: %w", dir, err)
	}

	return &BadgerAccounts{db: db, capacity: capacity}, nil
}

func (b *BadgerAccounts) GetAccount(ctx context.Context, pubkey solana.PublicKey) (*accounts.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var acct *accounts.Account
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(acctKey(pubkey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return accounts.ErrNoAccount
		} else if err != nil {
			return err
		}

		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		acct, err = accounts.UnmarshalAccount(val)
		return err
	})
	if err != nil {
		if errors.Is(err, accounts.ErrNoAccount) {
			return nil, err
		}
		return nil, fmt.Errorf("error whilst retrieving account %s: %w", pubkey, err)
	}

	return acct, nil
}

func readCounter(txn *badger.Txn, key []byte) (uint64, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}

	var v uint64
	err = item.Value(func(val []byte) error {
		v, err = decodeUint64(val)
		return err
	})
	return v, err
}

func (b *BadgerAccounts) CreateAccount(ctx context.Context, acct *accounts.Account) (uint64, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		seq, err := b.tryCreate(acct)
		if errors.Is(err, badger.ErrConflict) {
			// another commit touched a key we read; re-run against the new state
			klog.V(4).Infof("CreateAccount: conflict on %s, retrying", acct.Key)
			continue
		}
		return seq, err
	}
}

func (b *BadgerAccounts) tryCreate(acct *accounts.Account) (uint64, error) {
	var seq uint64

	err := b.db.Update(func(txn *badger.Txn) error {
		key := acctKey(acct.Key)
		_, err := txn.Get(key)
		if err == nil {
			return accounts.ErrAccountExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		used, err := readCounter(txn, usedKey)
		if err != nil {
			return err
		}
		size := acct.AllocationSize()
		if b.capacity != 0 && used+size > b.capacity {
			return accounts.ErrInsufficientSpace
		}

		seq, err = readCounter(txn, seqKey)
		if err != nil {
			return err
		}
		seq++

		record := acct.Clone()
		record.Exists = true
		record.CreatedAt = seq
		data, err := record.Marshal()
		if err != nil {
			return err
		}

		if err = txn.Set(key, data); err != nil {
			return err
		}
		if err = txn.Set(seqKey, encodeUint64(seq)); err != nil {
			return err
		}
		return txn.Set(usedKey, encodeUint64(used+size))
	})
	if err != nil {
		return 0, err
	}

	acct.Exists = true
	acct.CreatedAt = seq
	return seq, nil
}

func (b *BadgerAccounts) Close() error {
	return b.db.Close()
}

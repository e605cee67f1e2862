package accountsdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Overclock-Validator/bankpda/pkg/accounts"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var backends = []string{BackendMemory, BackendBadger, BackendPebble}

func openTestDb(t *testing.T, backend string, dir string, capacity uint64) accounts.Accounts {
	db, err := OpenDb(backend, dir, capacity)
	require.NoError(t, err)
	return db
}

func newRecord(key solana.PublicKey, data []byte) *accounts.Account {
	return &accounts.Account{Key: key, Owner: solana.NewWallet().PublicKey(), Bump: 253, Data: data}
}

func TestAccountsDb_CreateOnce(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			db := openTestDb(t, backend, t.TempDir(), 0)
			defer db.Close()

			key := solana.NewWallet().PublicKey()
			_, err := db.GetAccount(ctx, key)
			assert.ErrorIs(t, err, accounts.ErrNoAccount)

			first := newRecord(key, []byte("first"))
			seq, err := db.CreateAccount(ctx, first)
			require.NoError(t, err)
			assert.Equal(t, uint64(1), seq)

			_, err = db.CreateAccount(ctx, newRecord(key, []byte("second")))
			assert.ErrorIs(t, err, accounts.ErrAccountExists)

			stored, err := db.GetAccount(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, first, stored)

			seq, err = db.CreateAccount(ctx, newRecord(solana.NewWallet().PublicKey(), nil))
			require.NoError(t, err)
			assert.Equal(t, uint64(2), seq)
		})
	}
}

func TestAccountsDb_Capacity(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			db := openTestDb(t, backend, t.TempDir(), 200)
			defer db.Close()

			small := newRecord(solana.NewWallet().PublicKey(), nil)
			_, err := db.CreateAccount(ctx, small)
			require.NoError(t, err)

			big := newRecord(solana.NewWallet().PublicKey(), make([]byte, 64))
			_, err = db.CreateAccount(ctx, big)
			assert.ErrorIs(t, err, accounts.ErrInsufficientSpace)

			_, err = db.GetAccount(ctx, big.Key)
			assert.ErrorIs(t, err, accounts.ErrNoAccount)

			// the failed allocation must not consume a sequence number
			seq, err := db.CreateAccount(ctx, newRecord(solana.NewWallet().PublicKey(), nil))
			require.NoError(t, err)
			assert.Equal(t, uint64(2), seq)
		})
	}
}

func TestAccountsDb_Reopen(t *testing.T) {
	for _, backend := range []string{BackendBadger, BackendPebble} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			dir := filepath.Join(t.TempDir(), "accounts")

			db := openTestDb(t, backend, dir, 0)
			rec := newRecord(solana.NewWallet().PublicKey(), []byte("durable"))
			_, err := db.CreateAccount(ctx, rec)
			require.NoError(t, err)
			require.NoError(t, db.Close())

			db = openTestDb(t, backend, dir, 0)
			defer db.Close()

			stored, err := db.GetAccount(ctx, rec.Key)
			require.NoError(t, err)
			assert.Equal(t, []byte("durable"), stored.Data)

			_, err = db.CreateAccount(ctx, newRecord(rec.Key, []byte("again")))
			assert.ErrorIs(t, err, accounts.ErrAccountExists)

			seq, err := db.CreateAccount(ctx, newRecord(solana.NewWallet().PublicKey(), nil))
			require.NoError(t, err)
			assert.Equal(t, uint64(2), seq)
		})
	}
}

func TestAccountsDb_ConcurrentCreate(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			db := openTestDb(t, backend, t.TempDir(), 0)
			defer db.Close()

			key := solana.NewWallet().PublicKey()
			const n = 64
			errs := make([]error, n)

			var g errgroup.Group
			for i := 0; i < n; i++ {
				i := i
				g.Go(func() error {
					_, errs[i] = db.CreateAccount(ctx, newRecord(key, []byte{byte(i)}))
					return nil
				})
			}
			require.NoError(t, g.Wait())

			winner := -1
			for i, err := range errs {
				if err == nil {
					require.Equal(t, -1, winner, "two writers committed")
					winner = i
				} else {
					assert.ErrorIs(t, err, accounts.ErrAccountExists)
				}
			}
			require.NotEqual(t, -1, winner)

			stored, err := db.GetAccount(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, []byte{byte(winner)}, stored.Data)
			assert.Equal(t, uint64(1), stored.CreatedAt)
		})
	}
}

func TestAccountsDb_UnknownBackend(t *testing.T) {
	_, err := OpenDb("lmdb", t.TempDir(), 0)
	assert.Error(t, err)

	_, err = OpenDb(BackendBadger, "", 0)
	assert.Error(t, err)
}

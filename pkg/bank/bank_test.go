package bank

import (
	"context"
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/Overclock-Validator/bankpda/pkg/accounts"
	"github.com/Overclock-Validator/bankpda/pkg/guard"
	"github.com/Overclock-Validator/bankpda/pkg/pda"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProgram(t *testing.T, capacity uint64) *Program {
	t.Helper()
	deriver, err := pda.NewDeriver(ProgramID, pda.DefaultLimits())
	require.NoError(t, err)
	return NewProgram(guard.NewGuard(deriver, accounts.NewMemAccounts(capacity)))
}

func TestBankDiscriminator(t *testing.T) {
	h := sha256.Sum256([]byte("account:Bank"))
	assert.Equal(t, h[:8], BankDiscriminator[:])
}

func TestBank_RoundTrip(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	b := &Bank{Name: "savings", Balance: 42, Owner: owner}

	data, err := b.Marshal()
	require.NoError(t, err)
	assert.Len(t, data, 8+4+len("savings")+8+32)
	assert.Equal(t, BankDiscriminator[:], data[:8])

	decoded, err := UnmarshalBank(data)
	require.NoError(t, err)
	assert.Equal(t, b, decoded)
}

func TestBank_InvalidDiscriminator(t *testing.T) {
	b := &Bank{Name: "x", Owner: solana.NewWallet().PublicKey()}
	data, err := b.Marshal()
	require.NoError(t, err)

	data[0] ^= 0xff
	_, err = UnmarshalBank(data)
	assert.ErrorIs(t, err, ErrInvalidDiscriminator)

	_, err = UnmarshalBank(data[:4])
	assert.ErrorIs(t, err, ErrInvalidDiscriminator)
}

func TestBank_Truncated(t *testing.T) {
	b := &Bank{Name: "checking", Balance: 7, Owner: solana.NewWallet().PublicKey()}
	data, err := b.Marshal()
	require.NoError(t, err)

	_, err = UnmarshalBank(data[:len(data)-1])
	assert.Error(t, err)
}

func TestBank_NameLimits(t *testing.T) {
	b := &Bank{Name: strings.Repeat("n", MaxNameLen+1)}
	_, err := b.Marshal()
	assert.ErrorIs(t, err, ErrNameTooLong)

	b.Name = strings.Repeat("n", MaxNameLen)
	_, err = b.Marshal()
	assert.NoError(t, err)

	b.Name = string([]byte{0xff, 0xfe})
	_, err = b.Marshal()
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestSeeds(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	seeds := Seeds(owner)
	require.Len(t, seeds, 2)
	assert.Equal(t, []byte("bankaccount"), seeds[0])
	assert.Equal(t, owner.Bytes(), seeds[1])

	want, wantBump, err := solana.FindProgramAddress(seeds, ProgramID)
	require.NoError(t, err)

	p := newTestProgram(t, 0)
	addr, bump, err := p.Address(owner)
	require.NoError(t, err)
	assert.Equal(t, want, addr)
	assert.Equal(t, wantBump, bump)
}

func TestProgram_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	p := newTestProgram(t, 0)
	user := solana.NewWallet().PrivateKey

	receipt, err := p.CreateAccount(ctx, user, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.Sequence)

	addr, bump, err := p.Address(user.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, addr, receipt.Address)
	assert.Equal(t, bump, receipt.Bump)

	b, acct, err := p.Lookup(ctx, user.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, "alice", b.Name)
	assert.Equal(t, uint64(0), b.Balance)
	assert.Equal(t, user.PublicKey(), b.Owner)
	assert.Equal(t, addr, acct.Key)
	assert.Equal(t, user.PublicKey(), acct.Owner)
}

func TestProgram_InitializeTwice(t *testing.T) {
	ctx := context.Background()
	p := newTestProgram(t, 0)
	user := solana.NewWallet().PrivateKey

	_, err := p.Initialize(ctx, user)
	require.NoError(t, err)

	_, err = p.Initialize(ctx, user)
	assert.ErrorIs(t, err, guard.ErrAlreadyInitialized)

	// a different name does not produce a second account either
	_, err = p.CreateAccount(ctx, user, "other")
	assert.ErrorIs(t, err, guard.ErrAlreadyInitialized)

	b, _, err := p.Lookup(ctx, user.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, "", b.Name)
}

func TestProgram_LookupMissing(t *testing.T) {
	p := newTestProgram(t, 0)
	_, _, err := p.Lookup(context.Background(), solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, accounts.ErrNoAccount)
}

func TestProgram_NameTooLongTouchesNothing(t *testing.T) {
	ctx := context.Background()
	p := newTestProgram(t, 0)
	user := solana.NewWallet().PrivateKey

	_, err := p.CreateAccount(ctx, user, strings.Repeat("x", MaxNameLen+1))
	assert.ErrorIs(t, err, ErrNameTooLong)

	_, _, err = p.Lookup(ctx, user.PublicKey())
	assert.ErrorIs(t, err, accounts.ErrNoAccount)
}

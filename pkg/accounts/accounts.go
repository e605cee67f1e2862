package accounts

import (
	"bytes"
	"context"
	"errors"
	"io"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/zeebo/blake3"
)

var (
	ErrNoAccount          = errors.New("ErrNoAccount")
	ErrAccountExists      = errors.New("ErrAccountExists")
	ErrInsufficientSpace  = errors.New("ErrInsufficientSpace")
	ErrInvalidAccountData = errors.New("ErrInvalidAccountData")
)

// Accounts is a ledger of account records keyed by address.
//
// CreateAccount is a conditional write: it commits acct only if no record
// exists at acct.Key, assigning CreatedAt from the ledger's sequence inside
// the same atomic commit. It returns ErrAccountExists when a record is
// already present and ErrInsufficientSpace when the ledger quota cannot hold
// the record; in both cases nothing is written.
type Accounts interface {
	GetAccount(ctx context.Context, pubkey solana.PublicKey) (*Account, error)
	CreateAccount(ctx context.Context, acct *Account) (uint64, error)
	Close() error
}

// recordHeaderLen is exists + key + owner + created_at + bump + data_len.
const recordHeaderLen = 1 + 32 + 32 + 8 + 1 + 8

type Account struct {
	Key       solana.PublicKey
	Exists    bool
	Owner     solana.PublicKey
	CreatedAt uint64
	Bump      uint8
	Data      []byte
}

func (a *Account) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	a.Exists, err = decoder.ReadBool()
	if err != nil {
		return err
	}
	if !a.Exists {
		return ErrInvalidAccountData
	}
	pk, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(a.Key[:], pk)
	pk, err = decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(a.Owner[:], pk)
	a.CreatedAt, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	a.Bump, err = decoder.ReadUint8()
	if err != nil {
		return err
	}
	var dataLen uint64
	dataLen, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	if dataLen > uint64(decoder.Remaining()) {
		return io.ErrUnexpectedEOF
	}
	data, err := decoder.ReadNBytes(int(dataLen))
	if err != nil {
		return err
	}
	a.Data = bytes.Clone(data)
	return nil
}

func (a *Account) MarshalWithEncoder(encoder *bin.Encoder) error {
	_ = encoder.WriteBool(a.Exists)
	_ = encoder.WriteBytes(a.Key[:], false)
	_ = encoder.WriteBytes(a.Owner[:], false)
	_ = encoder.WriteUint64(a.CreatedAt, bin.LE)
	_ = encoder.WriteUint8(a.Bump)
	_ = encoder.WriteUint64(uint64(len(a.Data)), bin.LE)
	return encoder.WriteBytes(a.Data, false)
}

func (a *Account) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(recordHeaderLen + len(a.Data))
	err := a.MarshalWithEncoder(bin.NewBinEncoder(buf))
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalAccount(data []byte) (*Account, error) {
	acct := new(Account)
	err := acct.UnmarshalWithDecoder(bin.NewBinDecoder(data))
	if err != nil {
		return nil, err
	}
	return acct, nil
}

func (a *Account) Clone() *Account {
	c := *a
	c.Data = bytes.Clone(a.Data)
	return &c
}

// AllocationSize is the number of ledger bytes the record occupies.
func (a *Account) AllocationSize() uint64 {
	return AlignUp(uint64(recordHeaderLen+len(a.Data)), 8)
}

// Hash is the blake3 hash over every field of the record.
func (a *Account) Hash() [32]byte {
	hasher := blake3.New()

	if a.Exists {
		_, _ = hasher.Write([]byte{1})
	} else {
		_, _ = hasher.Write([]byte{0})
	}

	_, _ = hasher.Write(a.Key[:])
	_, _ = hasher.Write(a.Owner[:])

	var createdAtBytes [8]byte
	bin.LE.PutUint64(createdAtBytes[:], a.CreatedAt)
	_, _ = hasher.Write(createdAtBytes[:])

	_, _ = hasher.Write([]byte{a.Bump})
	_, _ = hasher.Write(a.Data)

	var out [32]byte
	copy(out[:], hasher.Sum(nil))
	return out
}

func AlignUp(unaligned uint64, align uint64) uint64 {
	mask := align - 1
	alignedVal := unaligned + (-unaligned & mask)
	return alignedVal
}

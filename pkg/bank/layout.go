package bank

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"unicode/utf8"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const discriminatorSize = 8

// MaxNameLen bounds the account name in bytes.
const MaxNameLen = 64

var BankDiscriminator = accountDiscriminator("Bank")

var (
	ErrInvalidDiscriminator = errors.New("ErrInvalidDiscriminator")
	ErrNameTooLong          = errors.New("ErrNameTooLong")
	ErrInvalidName          = errors.New("ErrInvalidName")
)

// accountDiscriminator is the 8 byte type tag prefixed to account data,
// sha256("account:<Name>")[:8].
func accountDiscriminator(name string) [discriminatorSize]byte {
	h := sha256.Sum256([]byte("account:" + name))
	var disc [discriminatorSize]byte
	copy(disc[:], h[:discriminatorSize])
	return disc
}

// Bank is the account body stored at a user's bank address.
type Bank struct {
	Name    string
	Balance uint64
	Owner   solana.PublicKey
}

func validateName(name string) error {
	if len(name) > MaxNameLen {
		return fmt.Errorf("%w: %d bytes, at most %d allowed", ErrNameTooLong, len(name), MaxNameLen)
	}
	if !utf8.ValidString(name) {
		return ErrInvalidName
	}
	return nil
}

func (b *Bank) MarshalWithEncoder(encoder *bin.Encoder) error {
	var err error

	err = encoder.WriteBytes(BankDiscriminator[:], false)
	if err != nil {
		return err
	}

	err = encoder.WriteUint32(uint32(len(b.Name)), bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteBytes([]byte(b.Name), false)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(b.Balance, bin.LE)
	if err != nil {
		return err
	}

	return encoder.WriteBytes(b.Owner[:], false)
}

func (b *Bank) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	disc, err := decoder.ReadBytes(discriminatorSize)
	if err != nil {
		return fmt.Errorf("%w: data too short", ErrInvalidDiscriminator)
	}
	if !bytes.Equal(disc, BankDiscriminator[:]) {
		return fmt.Errorf("%w: got %x, want %x", ErrInvalidDiscriminator, disc, BankDiscriminator)
	}

	nameLen, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read name length when decoding Bank: %w", err)
	}
	if nameLen > MaxNameLen {
		return fmt.Errorf("%w: %d bytes, at most %d allowed", ErrNameTooLong, nameLen, MaxNameLen)
	}
	name, err := decoder.ReadBytes(int(nameLen))
	if err != nil {
		return fmt.Errorf("failed to read name when decoding Bank: %w", err)
	}
	b.Name = string(name)

	b.Balance, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read balance when decoding Bank: %w", err)
	}

	owner, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return fmt.Errorf("failed to read owner when decoding Bank: %w", err)
	}
	copy(b.Owner[:], owner)

	return nil
}

func (b *Bank) Marshal() ([]byte, error) {
	if err := validateName(b.Name); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	err := b.MarshalWithEncoder(bin.NewBinEncoder(buf))
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalBank(data []byte) (*Bank, error) {
	b := new(Bank)
	err := b.UnmarshalWithDecoder(bin.NewBinDecoder(data))
	if err != nil {
		return nil, err
	}
	return b, nil
}

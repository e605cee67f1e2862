// Package pda derives program addresses: account keys computed from seeds
// under a program id that are guaranteed to lie off the ed25519 curve, so
// no private key can ever sign for them.
package pda

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/Overclock-Validator/bankpda/pkg/cu"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gagliardetto/solana-go"
)

const MaxSeeds = 16
const MaxSeedLen = 32
const MaxTotalSeedLen = MaxSeeds * MaxSeedLen
const MaxAttempts = 256
const PublicKeyLength = 32
const PdaMarker = "ProgramDerivedAddress"

var (
	ErrEmptySeeds          = errors.New("ErrEmptySeeds")
	ErrSeedsTooLong        = errors.New("ErrSeedsTooLong")
	ErrDerivationExhausted = errors.New("ErrDerivationExhausted")
	ErrInvalidProof        = errors.New("ErrInvalidProof")
	ErrAddressLength       = errors.New("Wrong key length; addresses are 32 bytes long")
	ErrOnCurveInvalidSeeds = errors.New("Invalid seeds - generated address must be off-curve")
)

func CreateProgramAddressBytes(seeds [][]byte, programID []byte) ([]byte, error) {
	if len(seeds) > MaxSeeds {
		return nil, ErrSeedsTooLong
	}

	if len(programID) != PublicKeyLength {
		return nil, ErrAddressLength
	}

	hasher := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return nil, ErrSeedsTooLong
		}
		hasher.Write(seed)
	}

	hasher.Write(programID)
	hasher.Write([]byte(PdaMarker))
	hash := hasher.Sum(nil)

	if IsOnCurve(hash[:]) {
		return nil, ErrOnCurveInvalidSeeds
	}

	return hash[:], nil
}

// IsOnCurve checks if 'b' is on the ed25519 curve
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	onCurve := err == nil
	return onCurve
}

// Limits bounds the input a Deriver accepts. MaxSeeds counts the bump seed.
type Limits struct {
	MaxSeeds        int    `yaml:"max_seeds"`
	MaxSeedLen      int    `yaml:"max_seed_len"`
	MaxTotalSeedLen int    `yaml:"max_total_seed_len"`
	MaxAttempts     uint64 `yaml:"max_attempts"`
	AllowEmptySeeds bool   `yaml:"allow_empty_seeds"`
}

func DefaultLimits() Limits {
	return Limits{
		MaxSeeds:        MaxSeeds,
		MaxSeedLen:      MaxSeedLen,
		MaxTotalSeedLen: MaxTotalSeedLen,
		MaxAttempts:     MaxAttempts,
	}
}

func (l Limits) Validate() error {
	if l.MaxSeeds < 1 || l.MaxSeeds > MaxSeeds {
		return fmt.Errorf("max_seeds must be within [1, %d], got %d", MaxSeeds, l.MaxSeeds)
	}
	if l.MaxSeedLen < 1 || l.MaxSeedLen > MaxSeedLen {
		return fmt.Errorf("max_seed_len must be within [1, %d], got %d", MaxSeedLen, l.MaxSeedLen)
	}
	if l.MaxTotalSeedLen < 0 {
		return fmt.Errorf("max_total_seed_len must not be negative, got %d", l.MaxTotalSeedLen)
	}
	if l.MaxAttempts < 1 || l.MaxAttempts > MaxAttempts {
		return fmt.Errorf("max_attempts must be within [1, %d], got %d", MaxAttempts, l.MaxAttempts)
	}
	return nil
}

// Deriver computes program addresses for a single program id. It holds no
// mutable state and is safe for concurrent use.
type Deriver struct {
	programID solana.PublicKey
	limits    Limits
}

func NewDeriver(programID solana.PublicKey, limits Limits) (*Deriver, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	return &Deriver{programID: programID, limits: limits}, nil
}

func MustNewDeriver(programID solana.PublicKey, limits Limits) *Deriver {
	d, err := NewDeriver(programID, limits)
	if err != nil {
		panic(err.Error())
	}
	return d
}

func (d *Deriver) ProgramID() solana.PublicKey {
	return d.programID
}

func (d *Deriver) Limits() Limits {
	return d.limits
}

// CheckSeeds validates caller seeds, leaving room for the bump seed.
func (d *Deriver) CheckSeeds(seeds [][]byte) error {
	if len(seeds) == 0 && !d.limits.AllowEmptySeeds {
		return ErrEmptySeeds
	}

	if len(seeds) > d.limits.MaxSeeds-1 {
		return fmt.Errorf("%w: %d seeds, at most %d allowed", ErrSeedsTooLong, len(seeds), d.limits.MaxSeeds-1)
	}

	var total int
	for idx, seed := range seeds {
		if len(seed) > d.limits.MaxSeedLen {
			return fmt.Errorf("%w: seed %d is %d bytes, at most %d allowed", ErrSeedsTooLong, idx, len(seed), d.limits.MaxSeedLen)
		}
		total += len(seed)
	}

	if total > d.limits.MaxTotalSeedLen {
		return fmt.Errorf("%w: %d seed bytes, at most %d allowed", ErrSeedsTooLong, total, d.limits.MaxTotalSeedLen)
	}

	return nil
}

func withBump(seeds [][]byte, bump uint8) [][]byte {
	seedsWithBump := make([][]byte, len(seeds), len(seeds)+1)
	copy(seedsWithBump, seeds)
	return append(seedsWithBump, []byte{bump})
}

// CreateProgramAddress derives the address for seeds and an explicit bump.
func (d *Deriver) CreateProgramAddress(seeds [][]byte, bump uint8) (solana.PublicKey, error) {
	if err := d.CheckSeeds(seeds); err != nil {
		return solana.PublicKey{}, err
	}

	addr, err := CreateProgramAddressBytes(withBump(seeds, bump), d.programID[:])
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(addr), nil
}

// FindProgramAddress returns the canonical address for seeds: the first
// off-curve candidate found probing bumps downwards from 255 to 1.
func (d *Deriver) FindProgramAddress(seeds [][]byte) (solana.PublicKey, uint8, error) {
	if err := d.CheckSeeds(seeds); err != nil {
		return solana.PublicKey{}, 0, err
	}

	meter := cu.NewProbeMeter(d.limits.MaxAttempts)

	// bump 0 is never probed
	for attempt := 0; attempt < math.MaxUint8; attempt++ {
		if err := meter.Consume(cu.CUCreateProgramAddressUnits); err != nil {
			break
		}

		bumpSeed := uint8(math.MaxUint8 - attempt)
		addr, err := CreateProgramAddressBytes(withBump(seeds, bumpSeed), d.programID[:])
		if err == nil {
			return solana.PublicKeyFromBytes(addr), bumpSeed, nil
		} else if !errors.Is(err, ErrOnCurveInvalidSeeds) {
			return solana.PublicKey{}, 0, err
		}
	}

	return solana.PublicKey{}, 0, fmt.Errorf("%w: no off-curve address within %d attempts", ErrDerivationExhausted, d.limits.MaxAttempts)
}

// VerifyProgramAddress re-derives the canonical address for seeds and checks
// that both address and bump match. Seed errors are returned unmodified.
func (d *Deriver) VerifyProgramAddress(seeds [][]byte, bump uint8, address solana.PublicKey) error {
	canonical, canonicalBump, err := d.FindProgramAddress(seeds)
	if err != nil {
		return err
	}

	if canonical != address {
		return fmt.Errorf("%w: address %s does not match derived address %s", ErrInvalidProof, address, canonical)
	}
	if canonicalBump != bump {
		return fmt.Errorf("%w: bump %d is not the canonical bump %d", ErrInvalidProof, bump, canonicalBump)
	}

	return nil
}

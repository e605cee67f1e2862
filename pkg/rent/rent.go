// Package rent computes the lamports an account must hold to be exempt from
// rent, from the cluster's rent sysvar or its genesis defaults.
package rent

import (
	"fmt"

	"github.com/Overclock-Validator/bankpda/pkg/base58"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const SysvarRentAddrStr = "SysvarRent111111111111111111111111111111111"

var SysvarRentAddr = solana.PublicKey(base58.MustDecodeFromString(SysvarRentAddrStr))

const SysvarRentStructLen = 17

// AccountStorageOverhead is charged on top of an account's data length.
const AccountStorageOverhead = 128

const (
	DefaultLamportsPerByteYear = 3480
	DefaultExemptionThreshold  = 2.0
	DefaultBurnPercent         = 50
)

type SysvarRent struct {
	LamportsPerUint8Year uint64
	ExemptionThreshold   float64
	BurnPercent          byte
}

func DefaultSysvarRent() SysvarRent {
	return SysvarRent{
		LamportsPerUint8Year: DefaultLamportsPerByteYear,
		ExemptionThreshold:   DefaultExemptionThreshold,
		BurnPercent:          DefaultBurnPercent,
	}
}

func (sr *SysvarRent) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	lamportsPerUint8Year, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read LamportsPerUint8Year when decoding SysvarRent: %w", err)
	}
	sr.LamportsPerUint8Year = lamportsPerUint8Year

	exemptionThreshold, err := decoder.ReadFloat64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read ExemptionThreshold when decoding SysvarRent: %w", err)
	}
	sr.ExemptionThreshold = exemptionThreshold

	burnPercent, err := decoder.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to read BurnPercent when decoding SysvarRent: %w", err)
	}
	sr.BurnPercent = burnPercent

	return
}

func (sr *SysvarRent) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint64(sr.LamportsPerUint8Year, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteFloat64(sr.ExemptionThreshold, bin.LE)
	if err != nil {
		return err
	}

	return encoder.WriteByte(sr.BurnPercent)
}

func UnmarshalSysvarRent(data []byte) (SysvarRent, error) {
	var sr SysvarRent
	if len(data) < SysvarRentStructLen {
		return sr, fmt.Errorf("rent sysvar is %d bytes, expected %d", len(data), SysvarRentStructLen)
	}
	err := sr.UnmarshalWithDecoder(bin.NewBinDecoder(data))
	return sr, err
}

// MinimumBalance is the rent exempt balance for an account with dataLen
// bytes of data.
func (sr *SysvarRent) MinimumBalance(dataLen uint64) uint64 {
	bytes := AccountStorageOverhead + dataLen
	return uint64(float64(bytes*sr.LamportsPerUint8Year) * sr.ExemptionThreshold)
}

func (sr *SysvarRent) IsExempt(lamports uint64, dataLen uint64) bool {
	return lamports >= sr.MinimumBalance(dataLen)
}

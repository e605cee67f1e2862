package accountsdb

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	acctPrefix = []byte("acct/")
	seqKey     = []byte("meta/seq")
	usedKey    = []byte("meta/used")
)

func acctKey(pubkey solana.PublicKey) []byte {
	key := make([]byte, 0, len(acctPrefix)+solana.PublicKeyLength)
	key = append(key, acctPrefix...)
	return append(key, pubkey[:]...)
}

func encodeUint64(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

func decodeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("expected 8 byte counter, got %d bytes", len(b))
	}
	return binary.LittleEndian.Uint64(b), nil
}

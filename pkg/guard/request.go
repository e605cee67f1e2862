package guard

import (
	"bytes"
	"fmt"

	"github.com/Overclock-Validator/bankpda/pkg/pda"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const initializeTag = "bankpda:initialize"

// Request is a signed initialize call for the account at Address.
// Address and Bump are the caller's claim; the guard re-derives them
// from Seeds before acting on them.
type Request struct {
	Seeds     [][]byte
	Address   solana.PublicKey
	Bump      uint8
	Authority solana.PublicKey
	Signature solana.Signature
	Payload   []byte
}

// NewRequest derives the canonical address for seeds and signs the call
// with signer, who becomes the record owner.
func NewRequest(deriver *pda.Deriver, seeds [][]byte, signer solana.PrivateKey, payload []byte) (*Request, error) {
	addr, bump, err := deriver.FindProgramAddress(seeds)
	if err != nil {
		return nil, err
	}

	req := &Request{
		Seeds:     seeds,
		Address:   addr,
		Bump:      bump,
		Authority: signer.PublicKey(),
		Payload:   payload,
	}

	err = req.Sign(deriver.ProgramID(), signer)
	if err != nil {
		return nil, err
	}

	return req, nil
}

func (req *Request) MarshalWithEncoder(programID solana.PublicKey, encoder *bin.Encoder) error {
	var err error

	err = encoder.WriteBytes([]byte(initializeTag), false)
	if err != nil {
		return err
	}

	err = encoder.WriteBytes(programID[:], false)
	if err != nil {
		return err
	}

	err = encoder.WriteBytes(req.Address[:], false)
	if err != nil {
		return err
	}

	err = encoder.WriteUint8(req.Bump)
	if err != nil {
		return err
	}

	err = encoder.WriteBytes(req.Authority[:], false)
	if err != nil {
		return err
	}

	err = encoder.WriteUint32(uint32(len(req.Seeds)), bin.LE)
	if err != nil {
		return err
	}

	for _, seed := range req.Seeds {
		err = encoder.WriteUint32(uint32(len(seed)), bin.LE)
		if err != nil {
			return err
		}
		err = encoder.WriteBytes(seed, false)
		if err != nil {
			return err
		}
	}

	err = encoder.WriteUint64(uint64(len(req.Payload)), bin.LE)
	if err != nil {
		return err
	}

	return encoder.WriteBytes(req.Payload, false)
}

// Message is the byte string the authority signs.
func (req *Request) Message(programID solana.PublicKey) ([]byte, error) {
	buf := new(bytes.Buffer)
	err := req.MarshalWithEncoder(programID, bin.NewBinEncoder(buf))
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (req *Request) Sign(programID solana.PublicKey, signer solana.PrivateKey) error {
	if signer.PublicKey() != req.Authority {
		return fmt.Errorf("signer %s is not the request authority %s", signer.PublicKey(), req.Authority)
	}

	msg, err := req.Message(programID)
	if err != nil {
		return err
	}

	req.Signature, err = signer.Sign(msg)
	return err
}

// Package bank implements account creation for the bank program: every user
// owns at most one bank account, stored at the program address derived from
// "bankaccount" and the user's key.
package bank

import (
	"context"
	"fmt"

	"github.com/Overclock-Validator/bankpda/pkg/accounts"
	"github.com/Overclock-Validator/bankpda/pkg/guard"
	"github.com/gagliardetto/solana-go"
)

const BankSeedPrefix = "bankaccount"

const ProgramIDStr = "2CQ9AnuPiW2oTmctsgEAUREjADdz2ymAKCPPHJQAWUaW"

var ProgramID = solana.MustPublicKeyFromBase58(ProgramIDStr)

func Seeds(owner solana.PublicKey) [][]byte {
	return [][]byte{[]byte(BankSeedPrefix), owner.Bytes()}
}

type Program struct {
	Guard *guard.Guard
}

func NewProgram(g *guard.Guard) *Program {
	return &Program{Guard: g}
}

// Address returns the bank account address and bump for owner.
func (p *Program) Address(owner solana.PublicKey) (solana.PublicKey, uint8, error) {
	return p.Guard.Deriver.FindProgramAddress(Seeds(owner))
}

// CreateAccount creates user's bank account with a zero balance.
func (p *Program) CreateAccount(ctx context.Context, user solana.PrivateKey, name string) (*guard.Receipt, error) {
	body := Bank{Name: name, Balance: 0, Owner: user.PublicKey()}
	payload, err := body.Marshal()
	if err != nil {
		return nil, err
	}

	req, err := guard.NewRequest(p.Guard.Deriver, Seeds(user.PublicKey()), user, payload)
	if err != nil {
		return nil, err
	}

	return p.Guard.Initialize(ctx, req)
}

// Initialize creates user's bank account without a name.
func (p *Program) Initialize(ctx context.Context, user solana.PrivateKey) (*guard.Receipt, error) {
	return p.CreateAccount(ctx, user, "")
}

// Lookup returns owner's bank account. It returns accounts.ErrNoAccount if
// the account has not been created.
func (p *Program) Lookup(ctx context.Context, owner solana.PublicKey) (*Bank, *accounts.Account, error) {
	addr, state, acct, err := p.Guard.StateForSeeds(ctx, Seeds(owner))
	if err != nil {
		return nil, nil, err
	}
	if state == guard.StateAbsent {
		return nil, nil, fmt.Errorf("bank account %s for %s: %w", addr, owner, accounts.ErrNoAccount)
	}

	body, err := UnmarshalBank(acct.Data)
	if err != nil {
		return nil, acct, fmt.Errorf("bank account %s: %w", addr, err)
	}
	return body, acct, nil
}

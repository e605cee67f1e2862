package rpcclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/Overclock-Validator/bankpda/pkg/accounts"
	"github.com/Overclock-Validator/bankpda/pkg/bank"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var ErrWrongOwner = errors.New("ErrWrongOwner")

func (fetcher *RpcClient) GetAccount(ctx context.Context, pubkey solana.PublicKey) (*rpc.Account, error) {
	result, err := fetcher.client.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: fetcher.commitment,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", pubkey, accounts.ErrNoAccount)
	} else if err != nil {
		return nil, err
	}
	if result.Value == nil {
		return nil, fmt.Errorf("%s: %w", pubkey, accounts.ErrNoAccount)
	}
	return result.Value, nil
}

// GetBankAccount fetches and decodes the bank account at address, which must
// be owned by programID.
func (fetcher *RpcClient) GetBankAccount(ctx context.Context, programID solana.PublicKey, address solana.PublicKey) (*bank.Bank, *rpc.Account, error) {
	acct, err := fetcher.GetAccount(ctx, address)
	if err != nil {
		return nil, nil, err
	}

	if !acct.Owner.Equals(programID) {
		return nil, acct, fmt.Errorf("%w: %s is owned by %s, not %s", ErrWrongOwner, address, acct.Owner, programID)
	}

	if acct.Data == nil {
		return nil, acct, fmt.Errorf("%s: %w", address, accounts.ErrInvalidAccountData)
	}

	body, err := bank.UnmarshalBank(acct.Data.GetBinary())
	if err != nil {
		return nil, acct, err
	}
	return body, acct, nil
}

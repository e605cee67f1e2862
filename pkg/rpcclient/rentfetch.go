package rpcclient

import (
	"context"

	"github.com/Overclock-Validator/bankpda/pkg/rent"
)

func (fetcher *RpcClient) GetRent(ctx context.Context) (rent.SysvarRent, error) {
	acct, err := fetcher.GetAccount(ctx, rent.SysvarRentAddr)
	if err != nil {
		return rent.SysvarRent{}, err
	}
	return rent.UnmarshalSysvarRent(acct.Data.GetBinary())
}

package rpcclient

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// GetSignatureStatus returns the cluster's view of sig, or nil if the
// cluster has no record of it.
func (fetcher *RpcClient) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error) {
	result, err := fetcher.client.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, err
	}

	if len(result.Value) != 1 {
		return nil, fmt.Errorf("expected 1 signature status, got %d", len(result.Value))
	}

	return result.Value[0], nil
}

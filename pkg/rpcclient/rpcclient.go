package rpcclient

import (
	"github.com/gagliardetto/solana-go/rpc"
)

type RpcClient struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
}

func NewRpcClient(endpoint string) *RpcClient {
	client := rpc.New(endpoint)
	return &RpcClient{client: client, commitment: rpc.CommitmentConfirmed}
}

// WithCommitment returns a copy of the client reading at commitment.
func (fetcher *RpcClient) WithCommitment(commitment rpc.CommitmentType) *RpcClient {
	return &RpcClient{client: fetcher.client, commitment: commitment}
}

// Package guard creates account records at program derived addresses
// exactly once.
//
// A record moves from StateAbsent to StatePresent through a single
// conditional write against the ledger. Exclusivity between independent
// callers comes from that write, never from a lock held by the guard, so
// any number of guards may share one ledger.
package guard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Overclock-Validator/bankpda/pkg/accounts"
	"github.com/Overclock-Validator/bankpda/pkg/pda"
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"
)

// MaxPermittedDataLen bounds the payload of a single record.
const MaxPermittedDataLen = 10 * 1024 * 1024

type State int

const (
	StateAbsent State = iota
	StatePresent
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StatePresent:
		return "present"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Receipt confirms a committed initialize call.
type Receipt struct {
	// Signature is the transaction identifier.
	Signature solana.Signature
	Address   solana.PublicKey
	Bump      uint8
	// Sequence increases with every record the ledger commits.
	Sequence   uint64
	RecordHash [32]byte
}

type Guard struct {
	Deriver    *pda.Deriver
	Ledger     accounts.Accounts
	Authorizer Authorizer
	Metrics    *Metrics

	// MaxPayloadLen defaults to MaxPermittedDataLen when zero.
	MaxPayloadLen uint64
}

func NewGuard(deriver *pda.Deriver, ledger accounts.Accounts) *Guard {
	return &Guard{
		Deriver:       deriver,
		Ledger:        ledger,
		Authorizer:    SignatureAuthorizer{},
		MaxPayloadLen: MaxPermittedDataLen,
	}
}

func (g *Guard) maxPayloadLen() uint64 {
	if g.MaxPayloadLen == 0 {
		return MaxPermittedDataLen
	}
	return g.MaxPayloadLen
}

func (g *Guard) authorizer() Authorizer {
	if g.Authorizer == nil {
		return SignatureAuthorizer{}
	}
	return g.Authorizer
}

// Initialize creates the record described by req, or reports why it did not.
//
// Seed errors from the deriver are returned unmodified. Every other failure
// is an *InitError. Proof, authorization and size checks all run before the
// ledger is touched. If ctx ends while the write is in flight the call
// returns ErrOutcomeUnknown: the write may still commit, and the caller
// should re-query with State.
func (g *Guard) Initialize(ctx context.Context, req *Request) (*Receipt, error) {
	receipt, err := g.initialize(ctx, req)
	g.Metrics.observeResult(err)
	return receipt, err
}

func (g *Guard) initialize(ctx context.Context, req *Request) (*Receipt, error) {
	err := g.Deriver.VerifyProgramAddress(req.Seeds, req.Bump, req.Address)
	if errors.Is(err, pda.ErrInvalidProof) {
		klog.Errorf("Initialize: invalid proof for %s: %s", req.Address, err)
		return nil, newInitError(ErrInvalidProof, req.Address, err)
	} else if err != nil {
		return nil, err
	}

	msg, err := req.Message(g.Deriver.ProgramID())
	if err != nil {
		return nil, newInitError(ErrUnauthorized, req.Address, err)
	}

	err = g.authorizer().Authorize(req.Authority, msg, req.Signature)
	if err != nil {
		klog.Errorf("Initialize: authority %s not permitted to create %s: %s", req.Authority, req.Address, err)
		return nil, newInitError(ErrUnauthorized, req.Address, err)
	}

	if uint64(len(req.Payload)) > g.maxPayloadLen() {
		klog.Errorf("Initialize: requested %d, max allowed %d", len(req.Payload), g.maxPayloadLen())
		return nil, newInitError(ErrAllocationFailed, req.Address,
			fmt.Errorf("payload of %d bytes exceeds limit of %d", len(req.Payload), g.maxPayloadLen()))
	}

	if err = ctx.Err(); err != nil {
		return nil, fmt.Errorf("initialize %s not submitted: %w", req.Address, err)
	}

	record := &accounts.Account{
		Key:   req.Address,
		Owner: req.Authority,
		Bump:  req.Bump,
		Data:  bytes.Clone(req.Payload),
	}

	seq, err := g.commit(ctx, record)
	if err != nil {
		return nil, err
	}

	klog.V(2).Infof("Initialize: created %s owned by %s at sequence %d", req.Address, req.Authority, seq)

	return &Receipt{
		Signature:  req.Signature,
		Address:    req.Address,
		Bump:       req.Bump,
		Sequence:   seq,
		RecordHash: record.Hash(),
	}, nil
}

type commitResult struct {
	seq uint64
	err error
}

// commit submits the conditional write and waits for the ledger to decide.
// The write itself is not bound to ctx: once submitted, its outcome is the
// ledger's to decide.
func (g *Guard) commit(ctx context.Context, record *accounts.Account) (uint64, error) {
	start := time.Now()
	done := make(chan commitResult, 1)

	go func() {
		seq, err := g.Ledger.CreateAccount(context.WithoutCancel(ctx), record)
		done <- commitResult{seq: seq, err: err}
	}()

	var res commitResult
	select {
	case res = <-done:
	case <-ctx.Done():
		select {
		case res = <-done:
		default:
			klog.Warningf("Initialize: stopped waiting for %s, outcome unknown", record.Key)
			return 0, newInitError(ErrOutcomeUnknown, record.Key, ctx.Err())
		}
	}
	g.Metrics.observeCommit(time.Since(start))

	switch {
	case res.err == nil:
		return res.seq, nil
	case errors.Is(res.err, accounts.ErrAccountExists):
		klog.V(2).Infof("Initialize: account %s already in use", record.Key)
		return 0, newInitError(ErrAlreadyInitialized, record.Key, nil)
	case errors.Is(res.err, accounts.ErrInsufficientSpace):
		klog.Errorf("Initialize: unable to allocate %d bytes for %s", record.AllocationSize(), record.Key)
		return 0, newInitError(ErrAllocationFailed, record.Key, res.err)
	default:
		return 0, fmt.Errorf("initialize %s: %w", record.Key, res.err)
	}
}

// State reports whether a record exists at address.
func (g *Guard) State(ctx context.Context, address solana.PublicKey) (State, *accounts.Account, error) {
	acct, err := g.Ledger.GetAccount(ctx, address)
	if errors.Is(err, accounts.ErrNoAccount) {
		return StateAbsent, nil, nil
	} else if err != nil {
		return StateAbsent, nil, err
	}
	return StatePresent, acct, nil
}

// StateForSeeds derives the canonical address for seeds and reports its state.
func (g *Guard) StateForSeeds(ctx context.Context, seeds [][]byte) (solana.PublicKey, State, *accounts.Account, error) {
	addr, _, err := g.Deriver.FindProgramAddress(seeds)
	if err != nil {
		return solana.PublicKey{}, StateAbsent, nil, err
	}

	state, acct, err := g.State(ctx, addr)
	return addr, state, acct, err
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/jonboulle/clockwork"
)

var (
	// ErrNotIncluded is returned when a submitted transaction does not show up
	// in a finalized block before the inclusion timeout.
	ErrNotIncluded = errors.New("transaction not included")

	// ErrDispatchFailed is returned when a transaction was included but the
	// runtime rejected the call.
	ErrDispatchFailed = errors.New("transaction dispatch failed")

	// ErrNoSigner is returned when a transaction is submitted without a signer.
	ErrNoSigner = errors.New("no signer configured")
)

const chainConstantsKey = "chain"

// ExecutorClient is the node surface the executor needs.
type ExecutorClient interface {
	RuntimeVersion(ctx context.Context) (*RuntimeVersion, error)
	GenesisHash(ctx context.Context) (Hash, error)
	AccountNextIndex(ctx context.Context, account AccountID) (uint32, error)
	FinalizedHead(ctx context.Context) (Hash, error)
	Header(ctx context.Context, hash Hash) (*Header, error)
	BlockHashAt(ctx context.Context, number uint64) (Hash, error)
	Block(ctx context.Context, hash Hash) (*Block, error)
	GetStorage(ctx context.Context, key StorageKey, at Hash) ([]byte, error)
	SubmitExtrinsic(ctx context.Context, ext []byte) (Hash, error)
}

type chainConstants struct {
	specVersion uint32
	txVersion   uint32
	genesis     Hash
}

// Executor signs, submits and tracks transactions until they are finalized.
type Executor struct {
	log              *slog.Logger
	client           ExecutorClient
	layout           *RuntimeLayout
	clock            clockwork.Clock
	pollInterval     time.Duration
	inclusionTimeout time.Duration
	constants        *ttlcache.Cache[string, chainConstants]
}

type ExecutorOption func(*Executor)

func WithClock(clock clockwork.Clock) ExecutorOption {
	return func(e *Executor) {
		e.clock = clock
	}
}

func WithPollInterval(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.pollInterval = d
	}
}

func WithInclusionTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.inclusionTimeout = d
	}
}

func NewExecutor(log *slog.Logger, client ExecutorClient, layout *RuntimeLayout, opts ...ExecutorOption) *Executor {
	e := &Executor{
		log:              log,
		client:           client,
		layout:           layout,
		clock:            clockwork.NewRealClock(),
		pollInterval:     2 * time.Second,
		inclusionTimeout: 2 * time.Minute,
		constants: ttlcache.New(
			ttlcache.WithTTL[string, chainConstants](5 * time.Minute),
		),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit signs call with signer, submits it and waits until it is part of a
// finalized block. A call the runtime rejects is reported as
// ErrDispatchFailed wrapping the decoded *DispatchError.
func (e *Executor) Submit(ctx context.Context, call Call, signer Signer) (*Outcome, error) {
	if signer == nil {
		return nil, ErrNoSigner
	}
	callData, err := e.layout.EncodeCall(call)
	if err != nil {
		return nil, err
	}

	consts, err := e.chainConstants(ctx)
	if err != nil {
		return nil, err
	}
	nonce, err := e.client.AccountNextIndex(ctx, signer.AccountID())
	if err != nil {
		return nil, fmt.Errorf("failed to get account nonce: %w", err)
	}
	finalized, err := e.finalizedNumber(ctx)
	if err != nil {
		return nil, err
	}

	ext, err := buildSignedExtrinsic(callData, signer, txParams{
		Nonce:              nonce,
		SpecVersion:        consts.specVersion,
		TransactionVersion: consts.txVersion,
		GenesisHash:        consts.genesis,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build extrinsic: %w", err)
	}

	txHash, err := e.client.SubmitExtrinsic(ctx, ext)
	if err != nil {
		return nil, fmt.Errorf("failed to submit %s: %w", call, err)
	}
	e.log.Debug("--> Submitted transaction", "call", call.String(), "tx", txHash, "nonce", nonce)

	blockHash, index, err := e.waitForInclusion(ctx, ext, finalized)
	if err != nil {
		return nil, fmt.Errorf("%s (tx %s): %w", call, txHash, err)
	}

	events, err := e.extrinsicEvents(ctx, blockHash, index)
	if err != nil {
		return nil, err
	}
	outcome := &Outcome{TxHash: txHash, BlockHash: blockHash, ExtrinsicIndex: index, Events: events}

	if failed, ok := outcome.FindEvent("System", "ExtrinsicFailed"); ok {
		if de, ok := failed.DispatchError("dispatch_error"); ok {
			return outcome, fmt.Errorf("%s (tx %s): %w: %w", call, txHash, ErrDispatchFailed, de)
		}
		return outcome, fmt.Errorf("%s (tx %s): %w", call, txHash, ErrDispatchFailed)
	}
	if _, ok := outcome.FindEvent("System", "ExtrinsicSuccess"); !ok {
		return outcome, fmt.Errorf("%s (tx %s): %w: no ExtrinsicSuccess event", call, txHash, ErrDispatchFailed)
	}
	return outcome, nil
}

func (e *Executor) chainConstants(ctx context.Context) (chainConstants, error) {
	if item := e.constants.Get(chainConstantsKey); item != nil {
		return item.Value(), nil
	}
	rv, err := e.client.RuntimeVersion(ctx)
	if err != nil {
		return chainConstants{}, fmt.Errorf("failed to get runtime version: %w", err)
	}
	genesis, err := e.client.GenesisHash(ctx)
	if err != nil {
		return chainConstants{}, fmt.Errorf("failed to get genesis hash: %w", err)
	}
	c := chainConstants{specVersion: rv.SpecVersion, txVersion: rv.TransactionVersion, genesis: genesis}
	e.constants.Set(chainConstantsKey, c, ttlcache.DefaultTTL)
	return c, nil
}

func (e *Executor) finalizedNumber(ctx context.Context) (uint64, error) {
	head, err := e.client.FinalizedHead(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get finalized head: %w", err)
	}
	header, err := e.client.Header(ctx, head)
	if err != nil {
		return 0, fmt.Errorf("failed to get finalized header: %w", err)
	}
	return uint64(header.Number), nil
}

// waitForInclusion walks finalized blocks after the given block number until
// one of them contains ext, and returns the block hash and extrinsic index.
func (e *Executor) waitForInclusion(ctx context.Context, ext []byte, after uint64) (Hash, uint32, error) {
	want := EncodeHex(ext)
	start := e.clock.Now()
	deadline := start.Add(e.inclusionTimeout)
	next := after + 1

	e.log.Debug("--> Waiting for transaction to be finalized", "after", after)
	for {
		finalized, err := e.finalizedNumber(ctx)
		if err != nil {
			return Hash{}, 0, err
		}
		for ; next <= finalized; next++ {
			hash, err := e.client.BlockHashAt(ctx, next)
			if err != nil {
				return Hash{}, 0, err
			}
			block, err := e.client.Block(ctx, hash)
			if err != nil {
				return Hash{}, 0, err
			}
			for i, x := range block.Extrinsics {
				if strings.EqualFold(x, want) {
					e.log.Debug("--> Transaction finalized", "block", hash, "number", next, "index", i, "duration", e.clock.Since(start))
					return hash, uint32(i), nil
				}
			}
		}

		if !e.clock.Now().Before(deadline) {
			return Hash{}, 0, fmt.Errorf("%w after %s", ErrNotIncluded, e.inclusionTimeout)
		}
		select {
		case <-ctx.Done():
			return Hash{}, 0, ctx.Err()
		case <-e.clock.After(e.pollInterval):
		}
	}
}

func (e *Executor) extrinsicEvents(ctx context.Context, block Hash, index uint32) ([]Event, error) {
	raw, err := e.client.GetStorage(ctx, SystemEventsKey, block)
	if err != nil {
		return nil, fmt.Errorf("failed to get events of block %s: %w", block, err)
	}
	records, err := e.layout.DecodeEvents(raw)
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", block, err)
	}
	var events []Event
	for _, rec := range records {
		if rec.Phase.Kind == PhaseApplyExtrinsic && rec.Phase.ExtrinsicIndex == index {
			events = append(events, rec.Event)
		}
	}
	return events, nil
}

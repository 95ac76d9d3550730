package ledger

import (
	"context"
	"fmt"
)

// Client reads chain state and submits extrinsics over a node's JSON-RPC
// interface.
type Client struct {
	rpc        Caller
	ss58Prefix uint16
}

// NewClient returns a client over an existing caller.
func NewClient(rpc Caller) *Client {
	return &Client{rpc: rpc, ss58Prefix: DefaultSS58Prefix}
}

// Dial returns a client for a node endpoint with default transport and
// retry settings.
func Dial(endpoint string, retryOpt *RetryOptions) *Client {
	return NewClient(NewRPC(endpoint, retryOpt))
}

// WithSS58Prefix sets the address format used when the node expects an
// address string.
func (c *Client) WithSS58Prefix(prefix uint16) *Client {
	c.ss58Prefix = prefix
	return c
}

func noParams() []any {
	return []any{}
}

func atParam(at Hash) any {
	if at.IsZero() {
		return nil
	}
	return at.Hex()
}

// GetKeysPaged returns up to count keys under prefix that sort strictly
// after startKey, as of block at. A zero hash reads the best block.
func (c *Client) GetKeysPaged(ctx context.Context, prefix []byte, count uint32, startKey StorageKey, at Hash) ([]StorageKey, error) {
	var start any
	if len(startKey) > 0 {
		start = startKey.Hex()
	}
	var out []string
	params := []any{EncodeHex(prefix), count, start, atParam(at)}
	if err := c.rpc.CallForInto(ctx, &out, "state_getKeysPaged", params); err != nil {
		return nil, fmt.Errorf("state_getKeysPaged: %w", err)
	}
	keys := make([]StorageKey, 0, len(out))
	for _, s := range out {
		b, err := DecodeHex(s)
		if err != nil {
			return nil, fmt.Errorf("state_getKeysPaged: %w", err)
		}
		keys = append(keys, b)
	}
	return keys, nil
}

// GetStorage returns the raw value stored under key at block at, or nil
// when the key is absent.
func (c *Client) GetStorage(ctx context.Context, key StorageKey, at Hash) ([]byte, error) {
	var out *string
	if err := c.rpc.CallForInto(ctx, &out, "state_getStorage", []any{key.Hex(), atParam(at)}); err != nil {
		return nil, fmt.Errorf("state_getStorage: %w", err)
	}
	if out == nil {
		return nil, nil
	}
	b, err := DecodeHex(*out)
	if err != nil {
		return nil, fmt.Errorf("state_getStorage: %w", err)
	}
	return b, nil
}

// BlockHash returns the hash of the current best block.
func (c *Client) BlockHash(ctx context.Context) (Hash, error) {
	var out Hash
	if err := c.rpc.CallForInto(ctx, &out, "chain_getBlockHash", noParams()); err != nil {
		return Hash{}, fmt.Errorf("chain_getBlockHash: %w", err)
	}
	return out, nil
}

// BlockHashAt returns the canonical hash of the block with the given number.
func (c *Client) BlockHashAt(ctx context.Context, number uint64) (Hash, error) {
	var out *Hash
	if err := c.rpc.CallForInto(ctx, &out, "chain_getBlockHash", []any{number}); err != nil {
		return Hash{}, fmt.Errorf("chain_getBlockHash: %w", err)
	}
	if out == nil {
		return Hash{}, fmt.Errorf("chain_getBlockHash: block %d not found", number)
	}
	return *out, nil
}

func (c *Client) GenesisHash(ctx context.Context) (Hash, error) {
	return c.BlockHashAt(ctx, 0)
}

func (c *Client) FinalizedHead(ctx context.Context) (Hash, error) {
	var out Hash
	if err := c.rpc.CallForInto(ctx, &out, "chain_getFinalizedHead", noParams()); err != nil {
		return Hash{}, fmt.Errorf("chain_getFinalizedHead: %w", err)
	}
	return out, nil
}

func (c *Client) Header(ctx context.Context, hash Hash) (*Header, error) {
	var out *Header
	params := noParams()
	if !hash.IsZero() {
		params = []any{hash.Hex()}
	}
	if err := c.rpc.CallForInto(ctx, &out, "chain_getHeader", params); err != nil {
		return nil, fmt.Errorf("chain_getHeader: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("chain_getHeader: block %s not found", hash)
	}
	return out, nil
}

func (c *Client) Block(ctx context.Context, hash Hash) (*Block, error) {
	var out *SignedBlock
	if err := c.rpc.CallForInto(ctx, &out, "chain_getBlock", []any{hash.Hex()}); err != nil {
		return nil, fmt.Errorf("chain_getBlock: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("chain_getBlock: block %s not found", hash)
	}
	return &out.Block, nil
}

func (c *Client) SystemVersion(ctx context.Context) (string, error) {
	var out string
	if err := c.rpc.CallForInto(ctx, &out, "system_version", noParams()); err != nil {
		return "", fmt.Errorf("system_version: %w", err)
	}
	return out, nil
}

func (c *Client) RuntimeVersion(ctx context.Context) (*RuntimeVersion, error) {
	var out RuntimeVersion
	if err := c.rpc.CallForInto(ctx, &out, "state_getRuntimeVersion", noParams()); err != nil {
		return nil, fmt.Errorf("state_getRuntimeVersion: %w", err)
	}
	return &out, nil
}

// AccountNextIndex returns the next nonce of an account, taking the
// transaction pool into account.
func (c *Client) AccountNextIndex(ctx context.Context, account AccountID) (uint32, error) {
	var out uint32
	if err := c.rpc.CallForInto(ctx, &out, "system_accountNextIndex", []any{account.SS58(c.ss58Prefix)}); err != nil {
		return 0, fmt.Errorf("system_accountNextIndex: %w", err)
	}
	return out, nil
}

// SubmitExtrinsic submits an encoded extrinsic to the transaction pool and
// returns its hash.
func (c *Client) SubmitExtrinsic(ctx context.Context, ext []byte) (Hash, error) {
	var out Hash
	if err := c.rpc.CallForInto(ctx, &out, "author_submitExtrinsic", []any{EncodeHex(ext)}); err != nil {
		return Hash{}, fmt.Errorf("author_submitExtrinsic: %w", err)
	}
	return out, nil
}

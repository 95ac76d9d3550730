package ledger

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/klauspost/compress/gzhttp"
)

const (
	defaultMaxConnsPerHost = 4
	defaultHTTPTimeout     = 2 * time.Minute
	defaultKeepAlive       = 90 * time.Second
)

// Caller issues a single JSON-RPC call and decodes the result into out.
type Caller interface {
	CallForInto(ctx context.Context, out any, method string, params []any) error
}

// NewRPC creates a JSON-RPC caller for a node endpoint with gzip transport
// and retrying request behavior.
func NewRPC(endpoint string, retryOpt *RetryOptions) Caller {
	opts := &jsonrpc.RPCClientOpts{
		HTTPClient: newHTTP(),
	}
	return WithRetry(jsonrpc.NewClientWithOpts(endpoint, opts), retryOpt)
}

func newHTTP() *http.Client {
	tr := &http.Transport{
		IdleConnTimeout:     defaultHTTPTimeout,
		MaxConnsPerHost:     defaultMaxConnsPerHost,
		MaxIdleConnsPerHost: defaultMaxConnsPerHost,
		Proxy:               http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: defaultKeepAlive,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{
		Timeout:   defaultHTTPTimeout,
		Transport: gzhttp.Transport(tr),
	}
}

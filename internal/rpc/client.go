package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// ClientName and ClientVersion identify this toolchain to the RPC server via
// X-Client-Name/X-Client-Version, per the RPC surface described in spec §6.
const (
	ClientName    = "sorobanctl"
	ClientVersion = "dev"
)

// DefaultTimeout is the per-call RPC timeout applied when a Client has none
// configured ("Simulate and send have per-call RPC timeouts, default 30s").
const DefaultTimeout = 30 * time.Second

// Client implements remote calls to a Soroban/Stellar JSON-RPC endpoint.
type Client struct {
	HTTP    HTTP
	URL     string
	Timeout time.Duration

	// FriendbotURL funds a test-network account; Fund discovers it from
	// getNetwork when unset.
	FriendbotURL string

	id uint64
}

func (c Client) http() HTTP {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func (c Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// Call invokes method on the remote server with the given params, honoring
// ctx's deadline if earlier than the client's configured timeout.
func (c Client) Call(ctx context.Context, method string, args ...interface{}) (*Response, error) {
	var b []byte
	var err error

	switch {
	case len(args) == 0:
		b, err = json.Marshal(Request{Version: "2.0", Method: method, ID: atomic.AddUint64(&c.id, 1)})
	case len(args) == 1:
		b, err = json.Marshal(Request{Version: "2.0", Method: method, Params: args[0], ID: atomic.AddUint64(&c.id, 1)})
	default:
		b, err = json.Marshal(Request{Version: "2.0", Method: method, Params: args, ID: atomic.AddUint64(&c.id, 1)})
	}
	if err != nil {
		return nil, errors.Wrap(err, "rpc: marshaling request")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", c.URL, bytes.NewBuffer(b))
	if err != nil {
		return nil, errors.Wrap(err, "rpc: request creation")
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("X-Client-Name", ClientName)
	req.Header.Set("X-Client-Version", ClientVersion)

	resp, err := c.http().Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "rpc: request execution")
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("rpc: bad status %s for %s", resp.Status, method)
	}

	r := Response{}
	if err = json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "rpc: response json unmarshaling")
	}
	if r.Error != nil {
		return nil, r.Error
	}
	return &r, nil
}

// CallResult runs Call and decodes its result into result.
func (c Client) CallResult(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	resp, err := c.Call(ctx, method, params...)
	if err != nil {
		return err
	}
	return json.Unmarshal(*resp.Result, result)
}

package harness

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lambda-feedback/shimbridge/bridge"
)

// Invoker performs a single GET request against a host and reports the
// response status.
type Invoker interface {
	Invoke(ctx context.Context, path string) (int, error)
}

// BridgeInvoker invokes routes through a bridge, bypassing http.
type BridgeInvoker struct {
	bridge *bridge.Bridge
}

func NewBridgeInvoker(b *bridge.Bridge) *BridgeInvoker {
	return &BridgeInvoker{bridge: b}
}

func (i *BridgeInvoker) Invoke(ctx context.Context, path string) (int, error) {
	result, err := i.bridge.Do(ctx, bridge.NewDescriptor(http.MethodGet, path, nil, bridge.NoBody()))
	if err != nil {
		return 0, err
	}

	envelope, err := bridge.ParseEnvelope([]byte(result))
	if err != nil {
		return 0, err
	}

	return envelope.Status, nil
}

// HTTPInvoker invokes routes on a live host.
type HTTPInvoker struct {
	baseURL string
	client  *http.Client
}

// NewHTTPInvoker creates an invoker for the host at baseURL. A nil
// client uses a client whose transport allows enough idle connections
// for a whole batch.
func NewHTTPInvoker(baseURL string, client *http.Client) *HTTPInvoker {
	if client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.MaxIdleConnsPerHost = 256
		client = &http.Client{Transport: transport}
	}

	return &HTTPInvoker{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

func (i *HTTPInvoker) Invoke(ctx context.Context, path string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("error creating request: %w", err)
	}

	res, err := i.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	// drain so the connection can be reused
	if _, err := io.Copy(io.Discard, res.Body); err != nil {
		return 0, fmt.Errorf("error reading response: %w", err)
	}

	return res.StatusCode, nil
}

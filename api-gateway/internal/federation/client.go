package federation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/shopgrid/platform/shared/graph"
)

// Subgraph is one independently deployed GraphQL service.
type Subgraph struct {
	Name    string
	URL     string
	Timeout time.Duration
}

// Response is a subgraph's GraphQL response. Errors are kept as raw JSON so
// they can be relayed to the caller unchanged.
type Response struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []json.RawMessage          `json:"errors,omitempty"`
}

// Client posts GraphQL requests to subgraphs.
type Client struct {
	http *http.Client
}

// NewClient wraps hc, or http.DefaultClient when hc is nil. Per-request
// deadlines come from Subgraph.Timeout, not from hc.
func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{http: hc}
}

// Do sends req to sg. Failures wrap ErrSubserviceTimeout when the subgraph's
// deadline expired and ErrSubserviceError otherwise.
func (c *Client) Do(ctx context.Context, sg Subgraph, req graph.Request) (*Response, error) {
	if sg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sg.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request for %s: %v", ErrSubserviceError, sg.Name, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, sg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request for %s: %v", ErrSubserviceError, sg.Name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classify(ctx, sg, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, sg, err)
	}

	var out Response
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// A GraphQL error body is relayed as is; anything else is a transport failure.
		if decodeErr == nil && len(out.Errors) > 0 {
			return &out, nil
		}
		return nil, fmt.Errorf("%w: %s answered %d", ErrSubserviceError, sg.Name, resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %s returned invalid JSON: %v", ErrSubserviceError, sg.Name, decodeErr)
	}
	return &out, nil
}

func classify(ctx context.Context, sg Subgraph, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s did not answer within %s", ErrSubserviceTimeout, sg.Name, sg.Timeout)
	}
	return fmt.Errorf("%w: %s: %v", ErrSubserviceError, sg.Name, err)
}

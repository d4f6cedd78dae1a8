package federation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/shopgrid/platform/api-gateway/federation")

// Result is the merged response returned to the client.
type Result struct {
	Data   *Data `json:"data"`
	Errors []any `json:"errors,omitempty"`
}

// Data is the root response object. It marshals keys in document order.
type Data struct {
	keys   []string
	values map[string]json.RawMessage
}

// Get returns the raw JSON stored under key.
func (d *Data) Get(key string) (json.RawMessage, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d *Data) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		if v := d.values[k]; len(v) > 0 {
			buf.Write(v)
		} else {
			buf.WriteString("null")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Executor runs plans against subgraphs.
type Executor struct {
	client *Client
	logger *logrus.Logger
}

func NewExecutor(client *Client, logger *logrus.Logger) *Executor {
	return &Executor{client: client, logger: logger}
}

type stepResult struct {
	resp *Response
	err  error
}

// Execute runs every step of plan. Query steps run concurrently; mutation
// steps run one after another in document order. A failing step nulls its
// fields and adds an error but never fails the whole request.
func (e *Executor) Execute(ctx context.Context, plan *Plan) *Result {
	results := make([]stepResult, len(plan.Steps))

	if plan.Operation == "mutation" {
		for i, step := range plan.Steps {
			resp, err := e.run(ctx, step)
			results[i] = stepResult{resp: resp, err: err}
		}
	} else {
		var g errgroup.Group
		for i, step := range plan.Steps {
			g.Go(func() error {
				resp, err := e.run(ctx, step)
				results[i] = stepResult{resp: resp, err: err}
				return nil
			})
		}
		_ = g.Wait()
	}

	out := &Result{Data: &Data{keys: plan.Keys, values: make(map[string]json.RawMessage, len(plan.Keys))}}
	for i, step := range plan.Steps {
		out.merge(step, results[i])
	}
	for key, v := range plan.Local {
		raw, _ := json.Marshal(v)
		out.Data.values[key] = raw
	}
	for _, u := range plan.Unknown {
		out.Errors = append(out.Errors, newFieldError(u.Key, CodeUnknownField, "",
			fmt.Sprintf("Cannot query field %q: no subgraph serves it", u.Name)))
	}
	return out
}

func (r *Result) merge(step Step, res stepResult) {
	name := step.Subgraph.Name
	if res.err != nil {
		code, msg := CodeSubserviceError, fmt.Sprintf("subservice %s failed", name)
		if errors.Is(res.err, ErrSubserviceTimeout) {
			code, msg = CodeSubserviceTimeout, fmt.Sprintf("subservice %s timed out", name)
		}
		for _, key := range step.Keys {
			r.Errors = append(r.Errors, newFieldError(key, code, name, msg))
		}
		return
	}

	for _, raw := range res.resp.Errors {
		r.Errors = append(r.Errors, raw)
	}
	if res.resp.Data == nil && len(res.resp.Errors) == 0 {
		for _, key := range step.Keys {
			r.Errors = append(r.Errors, newFieldError(key, CodeSubserviceError, name,
				fmt.Sprintf("subservice %s returned no data", name)))
		}
		return
	}
	for _, key := range step.Keys {
		if v, ok := res.resp.Data[key]; ok {
			r.Data.values[key] = v
		}
	}
}

func (e *Executor) run(ctx context.Context, step Step) (*Response, error) {
	ctx, span := tracer.Start(ctx, "subgraph "+step.Subgraph.Name)
	defer span.End()
	span.SetAttributes(
		attribute.String("subgraph.name", step.Subgraph.Name),
		attribute.StringSlice("graphql.root_fields", step.Keys),
	)

	resp, err := e.client.Do(ctx, step.Subgraph, step.Request)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.WithError(err).WithFields(logrus.Fields{
			"subgraph": step.Subgraph.Name,
			"fields":   step.Keys,
		}).Warn("subgraph request failed")
		return nil, err
	}
	if len(resp.Errors) > 0 {
		e.logger.WithFields(logrus.Fields{
			"subgraph": step.Subgraph.Name,
			"errors":   len(resp.Errors),
		}).Debug("subgraph returned errors")
	}
	return resp, nil
}

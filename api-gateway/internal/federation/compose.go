package federation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/shopgrid/platform/shared/graph"
)

const introspectionQuery = `query RootFields {
  __schema {
    queryType { name fields { name } }
    mutationType { name fields { name } }
  }
}`

// RootFields lists the top-level Query and Mutation fields a subgraph serves.
type RootFields struct {
	QueryType    string   `json:"queryType"`
	MutationType string   `json:"mutationType,omitempty"`
	Query        []string `json:"query"`
	Mutation     []string `json:"mutation"`
}

type introspectedType struct {
	Name   string `json:"name"`
	Fields []struct {
		Name string `json:"name"`
	} `json:"fields"`
}

// Introspect asks sg for its root fields.
func Introspect(ctx context.Context, client *Client, sg Subgraph) (RootFields, error) {
	resp, err := client.Do(ctx, sg, graph.Request{Query: introspectionQuery, OperationName: "RootFields"})
	if err != nil {
		return RootFields{}, err
	}
	if len(resp.Errors) > 0 {
		return RootFields{}, fmt.Errorf("%w: introspection returned errors: %s", ErrSubserviceError, resp.Errors[0])
	}

	var schema struct {
		QueryType    *introspectedType `json:"queryType"`
		MutationType *introspectedType `json:"mutationType"`
	}
	raw, ok := resp.Data["__schema"]
	if !ok {
		return RootFields{}, fmt.Errorf("%w: introspection returned no __schema", ErrSubserviceError)
	}
	if err := json.Unmarshal(raw, &schema); err != nil {
		return RootFields{}, fmt.Errorf("%w: decode introspection: %v", ErrSubserviceError, err)
	}
	if schema.QueryType == nil {
		return RootFields{}, fmt.Errorf("%w: schema has no query type", ErrSubserviceError)
	}

	out := RootFields{QueryType: schema.QueryType.Name}
	for _, f := range schema.QueryType.Fields {
		out.Query = append(out.Query, f.Name)
	}
	if schema.MutationType != nil {
		out.MutationType = schema.MutationType.Name
		for _, f := range schema.MutationType.Fields {
			out.Mutation = append(out.Mutation, f.Name)
		}
	}
	return out, nil
}

// Supergraph is the composed routing table: every root field maps to the one
// subgraph that owns it.
type Supergraph struct {
	subgraphs map[string]Subgraph
	fields    map[string]RootFields
	query     map[string]string
	mutation  map[string]string
}

// Compose introspects every subgraph concurrently and merges their root
// fields. It fails with a *CompositionError if any subgraph cannot be
// introspected or if two subgraphs define the same root field.
func Compose(ctx context.Context, client *Client, subgraphs []Subgraph) (*Supergraph, error) {
	if len(subgraphs) == 0 {
		return nil, &CompositionError{Err: errors.New("no subgraphs configured")}
	}

	fields := make([]RootFields, len(subgraphs))
	g, gctx := errgroup.WithContext(ctx)
	for i, sg := range subgraphs {
		g.Go(func() error {
			rf, err := Introspect(gctx, client, sg)
			if err != nil {
				return &CompositionError{Subgraph: sg.Name, Err: err}
			}
			fields[i] = rf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	schemas := make(map[string]RootFields, len(subgraphs))
	for i, sg := range subgraphs {
		schemas[sg.Name] = fields[i]
	}
	return Merge(subgraphs, schemas)
}

// Merge builds a Supergraph from already introspected root fields.
func Merge(subgraphs []Subgraph, schemas map[string]RootFields) (*Supergraph, error) {
	sg := &Supergraph{
		subgraphs: make(map[string]Subgraph, len(subgraphs)),
		fields:    make(map[string]RootFields, len(subgraphs)),
		query:     make(map[string]string),
		mutation:  make(map[string]string),
	}

	ordered := append([]Subgraph(nil), subgraphs...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	for _, s := range ordered {
		if _, dup := sg.subgraphs[s.Name]; dup {
			return nil, &CompositionError{Subgraph: s.Name, Err: errors.New("subgraph configured twice")}
		}
		rf, ok := schemas[s.Name]
		if !ok {
			return nil, &CompositionError{Subgraph: s.Name, Err: errors.New("no schema")}
		}
		sg.subgraphs[s.Name] = s
		sg.fields[s.Name] = rf

		if err := claim(sg.query, "Query", s.Name, rf.Query); err != nil {
			return nil, err
		}
		if err := claim(sg.mutation, "Mutation", s.Name, rf.Mutation); err != nil {
			return nil, err
		}
	}
	return sg, nil
}

func claim(table map[string]string, root, owner string, fields []string) error {
	for _, f := range fields {
		if prev, taken := table[f]; taken && prev != owner {
			return &CompositionError{Root: root, Field: f, Owners: []string{prev, owner}}
		}
		table[f] = owner
	}
	return nil
}

// Owner returns the subgraph serving field on the given root operation type.
func (s *Supergraph) Owner(operation, field string) (Subgraph, bool) {
	table := s.query
	if operation == "mutation" {
		table = s.mutation
	}
	name, ok := table[field]
	if !ok {
		return Subgraph{}, false
	}
	return s.subgraphs[name], true
}

// SubgraphSummary is one entry of the routing table served at /schema.
type SubgraphSummary struct {
	Name     string   `json:"name"`
	URL      string   `json:"url"`
	Timeout  string   `json:"timeout"`
	Query    []string `json:"query"`
	Mutation []string `json:"mutation"`
}

// Summary describes the composed routing table, sorted by subgraph name.
func (s *Supergraph) Summary() []SubgraphSummary {
	out := make([]SubgraphSummary, 0, len(s.subgraphs))
	for name, sub := range s.subgraphs {
		rf := s.fields[name]
		q := append([]string{}, rf.Query...)
		m := append([]string{}, rf.Mutation...)
		sort.Strings(q)
		sort.Strings(m)
		out = append(out, SubgraphSummary{Name: name, URL: sub.URL, Timeout: sub.Timeout.String(), Query: q, Mutation: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

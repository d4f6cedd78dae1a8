package federation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/printer"

	"github.com/shopgrid/platform/shared/graph"
)

// Plan is a client operation split into one request per owning subgraph.
type Plan struct {
	Operation string
	// Keys holds every root response key in document order.
	Keys    []string
	Steps   []Step
	Local   map[string]any
	Unknown []UnknownField
}

// Step is the part of a plan sent to one subgraph.
type Step struct {
	Subgraph Subgraph
	Request  graph.Request
	Keys     []string
}

// UnknownField is a root field no subgraph serves.
type UnknownField struct {
	Key  string
	Name string
}

// Planner splits operations along the supergraph's routing table.
type Planner struct {
	supergraph *Supergraph
}

func NewPlanner(sg *Supergraph) *Planner {
	return &Planner{supergraph: sg}
}

type operation struct {
	def       *ast.OperationDefinition
	fragments map[string]*ast.FragmentDefinition
}

// Plan parses req and groups its root fields by owner. Steps appear in the
// order their first field appears in the document.
func (p *Planner) Plan(req graph.Request) (*Plan, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, &RequestError{Code: CodeBadRequest, Message: "request body must be JSON with a non-empty query"}
	}
	doc, err := parser.Parse(parser.ParseParams{Source: req.Query})
	if err != nil {
		return nil, &RequestError{Code: CodeParseFailed, Message: err.Error()}
	}
	op, err := selectOperation(doc, req.OperationName)
	if err != nil {
		return nil, err
	}
	if op.def.Operation != ast.OperationTypeQuery && op.def.Operation != ast.OperationTypeMutation {
		return nil, &RequestError{Code: CodeBadRequest, Message: fmt.Sprintf("%s operations are not supported", op.def.Operation)}
	}

	fields, err := op.rootFields(op.def.SelectionSet, nil, map[string]bool{})
	if err != nil {
		return nil, err
	}

	plan := &Plan{Operation: op.def.Operation, Local: map[string]any{}}
	seen := map[string]bool{}
	grouped := map[string][]*ast.Field{}
	var owners []string
	stepKeys := map[string][]string{}

	for _, f := range fields {
		key := responseKey(f)
		name := f.Name.Value
		if !seen[key] {
			seen[key] = true
			plan.Keys = append(plan.Keys, key)
		}

		switch {
		case name == "__typename":
			plan.Local[key] = rootTypeName(op.def.Operation)
			continue
		case name == "__schema" || name == "__type":
			plan.Unknown = append(plan.Unknown, UnknownField{Key: key, Name: name})
			continue
		}

		owner, ok := p.supergraph.Owner(op.def.Operation, name)
		if !ok {
			plan.Unknown = append(plan.Unknown, UnknownField{Key: key, Name: name})
			continue
		}
		if _, started := grouped[owner.Name]; !started {
			owners = append(owners, owner.Name)
		}
		grouped[owner.Name] = append(grouped[owner.Name], f)
		if !slices.Contains(stepKeys[owner.Name], key) {
			stepKeys[owner.Name] = append(stepKeys[owner.Name], key)
		}
	}

	for _, name := range owners {
		sub, err := op.subRequest(grouped[name], req.Variables)
		if err != nil {
			return nil, err
		}
		plan.Steps = append(plan.Steps, Step{
			Subgraph: p.supergraph.subgraphs[name],
			Request:  sub,
			Keys:     stepKeys[name],
		})
	}
	return plan, nil
}

func selectOperation(doc *ast.Document, name string) (*operation, error) {
	op := &operation{fragments: map[string]*ast.FragmentDefinition{}}
	var ops []*ast.OperationDefinition
	for _, def := range doc.Definitions {
		switch d := def.(type) {
		case *ast.OperationDefinition:
			ops = append(ops, d)
		case *ast.FragmentDefinition:
			op.fragments[d.Name.Value] = d
		}
	}

	switch {
	case len(ops) == 0:
		return nil, &RequestError{Code: CodeBadRequest, Message: "document contains no operation"}
	case name == "" && len(ops) > 1:
		return nil, &RequestError{Code: CodeBadRequest, Message: "operationName is required when the document has several operations"}
	case name == "":
		op.def = ops[0]
		return op, nil
	}
	for _, o := range ops {
		if o.Name != nil && o.Name.Value == name {
			op.def = o
			return op, nil
		}
	}
	return nil, &RequestError{Code: CodeBadRequest, Message: fmt.Sprintf("unknown operation %q", name)}
}

// rootFields flattens fragments at the root level. Directives on a fragment
// are copied onto each field it contributes.
func (o *operation) rootFields(ss *ast.SelectionSet, inherited []*ast.Directive, visiting map[string]bool) ([]*ast.Field, error) {
	if ss == nil {
		return nil, nil
	}
	var out []*ast.Field
	for _, sel := range ss.Selections {
		switch s := sel.(type) {
		case *ast.Field:
			if len(inherited) == 0 {
				out = append(out, s)
				continue
			}
			out = append(out, ast.NewField(&ast.Field{
				Alias:        s.Alias,
				Name:         s.Name,
				Arguments:    s.Arguments,
				Directives:   append(append([]*ast.Directive{}, inherited...), s.Directives...),
				SelectionSet: s.SelectionSet,
			}))
		case *ast.InlineFragment:
			nested, err := o.rootFields(s.SelectionSet, append(append([]*ast.Directive{}, inherited...), s.Directives...), visiting)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		case *ast.FragmentSpread:
			name := s.Name.Value
			def, ok := o.fragments[name]
			if !ok {
				return nil, &RequestError{Code: CodeBadRequest, Message: fmt.Sprintf("unknown fragment %q", name)}
			}
			if visiting[name] {
				return nil, &RequestError{Code: CodeBadRequest, Message: fmt.Sprintf("fragment %q spreads itself", name)}
			}
			visiting[name] = true
			nested, err := o.rootFields(def.SelectionSet, append(append([]*ast.Directive{}, inherited...), s.Directives...), visiting)
			delete(visiting, name)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		}
	}
	return out, nil
}

// subRequest prints a document holding only fields, plus the variable
// definitions and fragments they reference.
func (o *operation) subRequest(fields []*ast.Field, vars map[string]any) (graph.Request, error) {
	u := usage{op: o, variables: map[string]bool{}, fragments: map[string]bool{}}
	selections := make([]ast.Selection, 0, len(fields))
	for _, f := range fields {
		u.field(f)
		selections = append(selections, f)
	}

	var varDefs []*ast.VariableDefinition
	var subVars map[string]any
	for _, vd := range o.def.VariableDefinitions {
		name := vd.Variable.Name.Value
		if !u.variables[name] {
			continue
		}
		varDefs = append(varDefs, vd)
		if v, ok := vars[name]; ok {
			if subVars == nil {
				subVars = map[string]any{}
			}
			subVars[name] = v
		}
	}

	defs := []ast.Node{ast.NewOperationDefinition(&ast.OperationDefinition{
		Operation:           o.def.Operation,
		Name:                o.def.Name,
		VariableDefinitions: varDefs,
		SelectionSet:        ast.NewSelectionSet(&ast.SelectionSet{Selections: selections}),
	})}
	for _, name := range u.order {
		defs = append(defs, o.fragments[name])
	}

	printed, ok := printer.Print(ast.NewDocument(&ast.Document{Definitions: defs})).(string)
	if !ok {
		return graph.Request{}, &RequestError{Code: CodeBadRequest, Message: "could not print subgraph document"}
	}

	req := graph.Request{Query: printed, Variables: subVars}
	if o.def.Name != nil {
		req.OperationName = o.def.Name.Value
	}
	return req, nil
}

type usage struct {
	op        *operation
	variables map[string]bool
	fragments map[string]bool
	order     []string
}

func (u *usage) field(f *ast.Field) {
	for _, a := range f.Arguments {
		u.value(a.Value)
	}
	u.directives(f.Directives)
	u.selectionSet(f.SelectionSet)
}

func (u *usage) selectionSet(ss *ast.SelectionSet) {
	if ss == nil {
		return
	}
	for _, sel := range ss.Selections {
		switch s := sel.(type) {
		case *ast.Field:
			u.field(s)
		case *ast.InlineFragment:
			u.directives(s.Directives)
			u.selectionSet(s.SelectionSet)
		case *ast.FragmentSpread:
			u.directives(s.Directives)
			name := s.Name.Value
			def, ok := u.op.fragments[name]
			if !ok || u.fragments[name] {
				continue
			}
			u.fragments[name] = true
			u.order = append(u.order, name)
			u.directives(def.Directives)
			u.selectionSet(def.SelectionSet)
		}
	}
}

func (u *usage) directives(ds []*ast.Directive) {
	for _, d := range ds {
		for _, a := range d.Arguments {
			u.value(a.Value)
		}
	}
}

func (u *usage) value(v ast.Value) {
	switch val := v.(type) {
	case *ast.Variable:
		u.variables[val.Name.Value] = true
	case *ast.ListValue:
		for _, item := range val.Values {
			u.value(item)
		}
	case *ast.ObjectValue:
		for _, f := range val.Fields {
			u.value(f.Value)
		}
	}
}

func responseKey(f *ast.Field) string {
	if f.Alias != nil && f.Alias.Value != "" {
		return f.Alias.Value
	}
	return f.Name.Value
}

func rootTypeName(operation string) string {
	if operation == ast.OperationTypeMutation {
		return "Mutation"
	}
	return "Query"
}

package cqrs

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/shopgrid/platform/shared/logging"
)

const tracerName = "github.com/shopgrid/platform/shared/cqrs"

// CommandHandlerFunc executes one command and returns its result.
type CommandHandlerFunc func(ctx context.Context, cmd Command) (any, error)

// QueryHandlerFunc executes one query and returns its result.
type QueryHandlerFunc func(ctx context.Context, q Query) (any, error)

// CommandRoute is one row of a command registration table.
type CommandRoute struct {
	Name    string
	Handler CommandHandlerFunc
}

// QueryRoute is one row of a query registration table.
type QueryRoute struct {
	Name    string
	Handler QueryHandlerFunc
}

// Dispatcher is the sending side of a CommandBus.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

// Asker is the sending side of a QueryBus.
type Asker interface {
	Ask(ctx context.Context, q Query) (any, error)
}

// registry maps names to exactly one handler. It is safe for concurrent use.
type registry[H any] struct {
	kind     string
	mu       sync.RWMutex
	handlers map[string]H
}

func newRegistry[H any](kind string) *registry[H] {
	return &registry[H]{kind: kind, handlers: make(map[string]H)}
}

func (r *registry[H]) register(name string, h H) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("register %s %q: %w", r.kind, name, ErrDuplicateHandler)
	}
	r.handlers[name] = h
	return nil
}

func (r *registry[H]) lookup(name string) (H, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[name]
	return h, ok
}

func (r *registry[H]) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// CommandBus routes each command to the single handler bound to its name.
// Dispatch does not serialise commands; concurrency control belongs to the repository.
type CommandBus struct {
	reg    *registry[CommandHandlerFunc]
	logger *logrus.Logger
}

// NewCommandBus builds a bus from a registration table. A repeated name fails construction.
func NewCommandBus(logger *logrus.Logger, routes ...CommandRoute) (*CommandBus, error) {
	b := &CommandBus{reg: newRegistry[CommandHandlerFunc]("command"), logger: logging.OrDiscard(logger)}
	for _, r := range routes {
		if err := b.Register(r.Name, r.Handler); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Register binds name to h. It fails with ErrDuplicateHandler if name is already bound.
func (b *CommandBus) Register(name string, h CommandHandlerFunc) error {
	if h == nil {
		return fmt.Errorf("register command %q: nil handler", name)
	}
	return b.reg.register(name, h)
}

// Dispatch runs the command's handler and returns once the handler has returned.
func (b *CommandBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	name := cmd.CommandName()
	h, ok := b.reg.lookup(name)
	if !ok {
		b.logger.WithField("command", name).Error("dispatch of unregistered command")
		return nil, fmt.Errorf("dispatch %q: %w", name, ErrUnhandledCommand)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "command "+name)
	defer span.End()
	span.SetAttributes(attribute.String("cqrs.command", name))

	res, err := h(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.logger.WithFields(logrus.Fields{"command": name, "error": err.Error()}).Debug("command failed")
		return nil, err
	}
	return res, nil
}

// Registered lists the bound command names in no particular order.
func (b *CommandBus) Registered() []string { return b.reg.names() }

// QueryBus routes each query to the single handler bound to its name.
type QueryBus struct {
	reg    *registry[QueryHandlerFunc]
	logger *logrus.Logger
}

// NewQueryBus builds a bus from a registration table. A repeated name fails construction.
func NewQueryBus(logger *logrus.Logger, routes ...QueryRoute) (*QueryBus, error) {
	b := &QueryBus{reg: newRegistry[QueryHandlerFunc]("query"), logger: logging.OrDiscard(logger)}
	for _, r := range routes {
		if err := b.Register(r.Name, r.Handler); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Register binds name to h. It fails with ErrDuplicateHandler if name is already bound.
func (b *QueryBus) Register(name string, h QueryHandlerFunc) error {
	if h == nil {
		return fmt.Errorf("register query %q: nil handler", name)
	}
	return b.reg.register(name, h)
}

// Ask runs the query's handler and returns its result.
func (b *QueryBus) Ask(ctx context.Context, q Query) (any, error) {
	name := q.QueryName()
	h, ok := b.reg.lookup(name)
	if !ok {
		b.logger.WithField("query", name).Error("ask of unregistered query")
		return nil, fmt.Errorf("ask %q: %w", name, ErrUnhandledQuery)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "query "+name)
	defer span.End()
	span.SetAttributes(attribute.String("cqrs.query", name))

	res, err := h(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

// Registered lists the bound query names in no particular order.
func (b *QueryBus) Registered() []string { return b.reg.names() }

// HandleCommand adapts a typed handler to a CommandHandlerFunc.
func HandleCommand[C Command, R any](fn func(ctx context.Context, cmd C) (R, error)) CommandHandlerFunc {
	return func(ctx context.Context, cmd Command) (any, error) {
		c, ok := cmd.(C)
		if !ok {
			return nil, fmt.Errorf("handle %T: %w", cmd, ErrHandlerTypeMismatch)
		}
		return fn(ctx, c)
	}
}

// HandleQuery adapts a typed handler to a QueryHandlerFunc.
func HandleQuery[Q Query, R any](fn func(ctx context.Context, q Q) (R, error)) QueryHandlerFunc {
	return func(ctx context.Context, q Query) (any, error) {
		v, ok := q.(Q)
		if !ok {
			return nil, fmt.Errorf("handle %T: %w", q, ErrHandlerTypeMismatch)
		}
		return fn(ctx, v)
	}
}

// Dispatch is the typed form of CommandBus.Dispatch.
func Dispatch[R any](ctx context.Context, b Dispatcher, cmd Command) (R, error) {
	var zero R
	res, err := b.Dispatch(ctx, cmd)
	if err != nil {
		return zero, err
	}
	return cast[R](res, cmd.CommandName())
}

// Ask is the typed form of QueryBus.Ask. A nil result yields the zero value of R.
func Ask[R any](ctx context.Context, b Asker, q Query) (R, error) {
	var zero R
	res, err := b.Ask(ctx, q)
	if err != nil {
		return zero, err
	}
	return cast[R](res, q.QueryName())
}

func cast[R any](res any, name string) (R, error) {
	var zero R
	if res == nil {
		return zero, nil
	}
	r, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("result of %q is %T, want %T: %w", name, res, zero, ErrHandlerTypeMismatch)
	}
	return r, nil
}


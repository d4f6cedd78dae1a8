package cqrs

import "errors"

var (
	// ErrDuplicateHandler is a wiring bug: two handlers bound to one name.
	ErrDuplicateHandler = errors.New("cqrs: handler already registered")
	// ErrUnhandledCommand is a wiring bug: no handler bound to the command's name.
	ErrUnhandledCommand = errors.New("cqrs: no handler registered for command")
	// ErrUnhandledQuery is a wiring bug: no handler bound to the query's name.
	ErrUnhandledQuery = errors.New("cqrs: no handler registered for query")
	// ErrHandlerTypeMismatch means a typed handler received an intent or produced a result of another type.
	ErrHandlerTypeMismatch = errors.New("cqrs: handler type mismatch")
)

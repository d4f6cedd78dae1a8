package graph

import (
	"errors"

	"github.com/graphql-go/graphql"
	"github.com/sirupsen/logrus"

	"github.com/shopgrid/platform/shared/middleware"
	"github.com/shopgrid/platform/shared/models"
)

// Error codes reported in extensions.code.
const (
	CodeBadUserInput   = "BAD_USER_INPUT"
	CodeDuplicateEmail = "DUPLICATE_EMAIL"
	CodePersistence    = "PERSISTENCE_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeInternal       = "INTERNAL_SERVER_ERROR"
)

// Error is a resolver error carrying GraphQL extensions. graphql-go copies
// Extensions into the formatted response when a resolver returns it directly.
type Error struct {
	Message string
	Code    string
	Details map[string]any
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Extensions() map[string]any {
	ext := map[string]any{"code": e.Code}
	for k, v := range e.Details {
		ext[k] = v
	}
	return ext
}

// FromError maps a domain error to a client-facing *Error. Unknown errors
// are reported as internal without exposing their text.
func FromError(err error) *Error {
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}

	var invalid middleware.ValidationErrors
	switch {
	case errors.As(err, &invalid):
		return &Error{Message: err.Error(), Code: CodeBadUserInput, Details: map[string]any{"fields": []middleware.ValidationError(invalid)}}
	case errors.Is(err, models.ErrValidation):
		return &Error{Message: err.Error(), Code: CodeBadUserInput}
	case errors.Is(err, models.ErrDuplicateEmail):
		return &Error{Message: models.ErrDuplicateEmail.Error(), Code: CodeDuplicateEmail}
	case errors.Is(err, models.ErrNotFound):
		return &Error{Message: err.Error(), Code: CodeNotFound}
	case models.IsPersistence(err):
		return &Error{Message: "failed to persist changes", Code: CodePersistence}
	default:
		return &Error{Message: "internal server error", Code: CodeInternal}
	}
}

// Resolve wraps fn so its errors leave as *Error. Persistence and internal
// failures are logged with the field name before being masked.
func Resolve[T any](logger *logrus.Logger, fn func(p graphql.ResolveParams) (T, error)) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		res, err := fn(p)
		if err != nil {
			ge := FromError(err)
			if ge.Code == CodeInternal || ge.Code == CodePersistence {
				logger.WithFields(logrus.Fields{"field": p.Info.FieldName, "error": err.Error()}).Error("resolver failed")
			}
			return nil, ge
		}
		return res, nil
	}
}

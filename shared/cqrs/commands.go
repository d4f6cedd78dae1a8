package cqrs

// Command is an intent to change state. Exactly one handler is bound to each name.
type Command interface {
	CommandName() string
}

const (
	CreateUserCommandName       = "user.create"
	UpdateUserCommandName       = "user.update"
	DeleteUserCommandName       = "user.delete"
	CreateProductCommandName    = "product.create"
	SendWelcomeEmailCommandName = "notification.send_welcome_email"
)

type CreateUserCommand struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func (CreateUserCommand) CommandName() string { return CreateUserCommandName }

// UpdateUserCommand changes only the non-nil fields.
type UpdateUserCommand struct {
	UserID    string
	Email     *string
	FirstName *string
	LastName  *string
	Status    *string
}

func (UpdateUserCommand) CommandName() string { return UpdateUserCommandName }

type DeleteUserCommand struct {
	UserID string
}

func (DeleteUserCommand) CommandName() string { return DeleteUserCommandName }

type CreateProductCommand struct {
	Name        string
	Description string
	Price       float64
	Currency    string
	Stock       int
}

func (CreateProductCommand) CommandName() string { return CreateProductCommandName }

type SendWelcomeEmailCommand struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
}

func (SendWelcomeEmailCommand) CommandName() string { return SendWelcomeEmailCommandName }

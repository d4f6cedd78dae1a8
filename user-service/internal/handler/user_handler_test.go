package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shopgrid/platform/shared/cqrs"
	"github.com/shopgrid/platform/shared/graph"
	"github.com/shopgrid/platform/shared/models"
)

// ---- mock implementations ----

type mockCommands struct {
	dispatchFn func(context.Context, cqrs.Command) (any, error)
	calls      int
}

func (m *mockCommands) Dispatch(ctx context.Context, cmd cqrs.Command) (any, error) {
	m.calls++
	if m.dispatchFn != nil {
		return m.dispatchFn(ctx, cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockQueries struct {
	askFn func(context.Context, cqrs.Query) (any, error)
}

func (m *mockQueries) Ask(ctx context.Context, q cqrs.Query) (any, error) {
	if m.askFn != nil {
		return m.askFn(ctx, q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func newUserTestRouter(t *testing.T, cmds cqrs.Dispatcher, qrys cqrs.Asker) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	schema, err := NewUserHandler(cmds, qrys, nil).Schema()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	r := gin.New()
	graph.Mount(r, schema)
	return r
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

func doGraphQL(t *testing.T, router *gin.Engine, query string, vars map[string]any) gqlResponse {
	t.Helper()
	b, _ := json.Marshal(graph.Request{Query: query, Variables: vars})
	req, _ := http.NewRequest(http.MethodPost, "/graphql", strings.NewReader(string(b)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	var resp gqlResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

// ---- test data ----

var uTestUserView = &models.UserView{
	ID: "7d4f0a86-27a4-4c8e-9f0e-0d1c0b8d7e11", Email: "alice@example.com",
	FirstName: "Alice", LastName: "Smith", Status: models.UserStatusActive,
	CreatedAt: time.Now(), UpdatedAt: time.Now(),
}

const createUserMutation = `mutation Create($input: CreateUserInput!) {
	createUser(input: $input) { id email firstName lastName status }
}`

func uValidCreateInput() map[string]any {
	return map[string]any{
		"email": "alice@example.com", "password": "securepass123",
		"firstName": "Alice", "lastName": "Smith",
	}
}

// ---- tests ----

func TestCreateUser(t *testing.T) {
	tests := []struct {
		name         string
		input        func() map[string]any
		dispatchFn   func(context.Context, cqrs.Command) (any, error)
		wantCode     string
		wantDispatch bool
	}{
		{
			name:  "success",
			input: uValidCreateInput,
			dispatchFn: func(ctx context.Context, cmd cqrs.Command) (any, error) {
				c := cmd.(cqrs.CreateUserCommand)
				if c.Email != "alice@example.com" || c.Password != "securepass123" {
					return nil, fmt.Errorf("unexpected command %+v", c)
				}
				return uTestUserView, nil
			},
			wantDispatch: true,
		},
		{
			name: "invalid email is rejected before dispatch",
			input: func() map[string]any {
				in := uValidCreateInput()
				in["email"] = "not-an-email"
				return in
			},
			wantCode: graph.CodeBadUserInput,
		},
		{
			name: "short password is rejected before dispatch",
			input: func() map[string]any {
				in := uValidCreateInput()
				in["password"] = "short"
				return in
			},
			wantCode: graph.CodeBadUserInput,
		},
		{
			name:  "duplicate email",
			input: uValidCreateInput,
			dispatchFn: func(ctx context.Context, cmd cqrs.Command) (any, error) {
				return nil, models.ErrDuplicateEmail
			},
			wantCode:     graph.CodeDuplicateEmail,
			wantDispatch: true,
		},
		{
			name:  "persistence failure",
			input: uValidCreateInput,
			dispatchFn: func(ctx context.Context, cmd cqrs.Command) (any, error) {
				return nil, models.Persistence("create user", fmt.Errorf("connection refused"))
			},
			wantCode:     graph.CodePersistence,
			wantDispatch: true,
		},
		{
			name:  "unregistered command",
			input: uValidCreateInput,
			dispatchFn: func(ctx context.Context, cmd cqrs.Command) (any, error) {
				return nil, cqrs.ErrUnhandledCommand
			},
			wantCode:     graph.CodeInternal,
			wantDispatch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockCommands{dispatchFn: tt.dispatchFn}
			router := newUserTestRouter(t, cmds, &mockQueries{})

			resp := doGraphQL(t, router, createUserMutation, map[string]any{"input": tt.input()})

			if (cmds.calls > 0) != tt.wantDispatch {
				t.Fatalf("dispatch calls = %d, wantDispatch %v", cmds.calls, tt.wantDispatch)
			}
			if tt.wantCode == "" {
				if len(resp.Errors) != 0 {
					t.Fatalf("unexpected errors: %+v", resp.Errors)
				}
				var user map[string]any
				_ = json.Unmarshal(resp.Data["createUser"], &user)
				if user["id"] != uTestUserView.ID || user["status"] != "active" {
					t.Fatalf("createUser = %v", user)
				}
				if _, leaked := user["password"]; leaked {
					t.Fatal("password leaked")
				}
				return
			}
			if len(resp.Errors) != 1 || resp.Errors[0].Extensions["code"] != tt.wantCode {
				t.Fatalf("errors = %+v, want code %s", resp.Errors, tt.wantCode)
			}
		})
	}
}

func TestGetUser(t *testing.T) {
	tests := []struct {
		name     string
		result   *models.UserView
		wantNull bool
	}{
		{name: "found", result: uTestUserView},
		{name: "missing is null without error", result: nil, wantNull: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qrys := &mockQueries{askFn: func(ctx context.Context, q cqrs.Query) (any, error) {
				if q.(cqrs.GetUserQuery).UserID != "u-1" {
					return nil, fmt.Errorf("unexpected query %+v", q)
				}
				return tt.result, nil
			}}
			router := newUserTestRouter(t, &mockCommands{}, qrys)

			resp := doGraphQL(t, router, `{ user(id: "u-1") { id email } }`, nil)
			if len(resp.Errors) != 0 {
				t.Fatalf("unexpected errors: %+v", resp.Errors)
			}
			if got := string(resp.Data["user"]); (got == "null") != tt.wantNull {
				t.Fatalf("user = %s", got)
			}
		})
	}
}

func TestGetUsersPassesPaging(t *testing.T) {
	var seen cqrs.GetUsersQuery
	qrys := &mockQueries{askFn: func(ctx context.Context, q cqrs.Query) (any, error) {
		seen = q.(cqrs.GetUsersQuery)
		return []*models.UserView{uTestUserView}, nil
	}}
	router := newUserTestRouter(t, &mockCommands{}, qrys)

	resp := doGraphQL(t, router, `{ users(limit: 2, offset: 4) { id } }`, nil)
	if len(resp.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	if seen.Limit != 2 || seen.Offset != 4 {
		t.Fatalf("query = %+v", seen)
	}

	var users []map[string]any
	_ = json.Unmarshal(resp.Data["users"], &users)
	if len(users) != 1 {
		t.Fatalf("users = %v", users)
	}
}

func TestUpdateAndDeleteUser(t *testing.T) {
	cmds := &mockCommands{dispatchFn: func(ctx context.Context, cmd cqrs.Command) (any, error) {
		switch c := cmd.(type) {
		case cqrs.UpdateUserCommand:
			if c.FirstName == nil || *c.FirstName != "Alicia" || c.Email != nil {
				return nil, fmt.Errorf("unexpected patch %+v", c)
			}
			v := *uTestUserView
			v.FirstName = *c.FirstName
			return &v, nil
		case cqrs.DeleteUserCommand:
			return c.UserID == uTestUserView.ID, nil
		}
		return nil, fmt.Errorf("unexpected %T", cmd)
	}}
	router := newUserTestRouter(t, cmds, &mockQueries{})

	resp := doGraphQL(t, router, `mutation { updateUser(id: "`+uTestUserView.ID+`", input: {firstName: "Alicia"}) { firstName } }`, nil)
	if len(resp.Errors) != 0 || !strings.Contains(string(resp.Data["updateUser"]), "Alicia") {
		t.Fatalf("updateUser = %s, errors %+v", resp.Data["updateUser"], resp.Errors)
	}

	resp = doGraphQL(t, router, `mutation { updateUser(id: "x", input: {status: "banned"}) { id } }`, nil)
	if len(resp.Errors) != 1 || resp.Errors[0].Extensions["code"] != graph.CodeBadUserInput {
		t.Fatalf("bad status errors = %+v", resp.Errors)
	}

	resp = doGraphQL(t, router, `mutation { deleteUser(id: "`+uTestUserView.ID+`") }`, nil)
	if string(resp.Data["deleteUser"]) != "true" {
		t.Fatalf("deleteUser = %s, errors %+v", resp.Data["deleteUser"], resp.Errors)
	}
}

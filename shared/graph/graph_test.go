package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"

	"github.com/shopgrid/platform/shared/logging"
	"github.com/shopgrid/platform/shared/middleware"
	"github.com/shopgrid/platform/shared/models"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"validation", fmt.Errorf("limit: %w", models.ErrValidation), CodeBadUserInput},
		{"validation details", middleware.ValidationErrors{{Field: "email", Message: "Invalid email format", Type: "email"}}, CodeBadUserInput},
		{"duplicate", fmt.Errorf("create: %w", models.ErrDuplicateEmail), CodeDuplicateEmail},
		{"persistence", models.Persistence("insert user", errors.New("connection reset")), CodePersistence},
		{"not found", models.ErrNotFound, CodeNotFound},
		{"unknown", errors.New("boom"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			if got.Code != tt.wantCode {
				t.Fatalf("code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Extensions()["code"] != tt.wantCode {
				t.Fatalf("extensions = %v", got.Extensions())
			}
		})
	}
}

func TestFromErrorHidesInternals(t *testing.T) {
	got := FromError(models.Persistence("insert user", errors.New("password=hunter2")))
	if got.Message != "failed to persist changes" {
		t.Fatalf("message leaked: %q", got.Message)
	}
}

func testSchema(t *testing.T) graphql.Schema {
	t.Helper()
	logger := logging.OrDiscard(nil)
	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"echo": &graphql.Field{
					Type: graphql.String,
					Args: graphql.FieldConfigArgument{"word": &graphql.ArgumentConfig{Type: graphql.String}},
					Resolve: Resolve(logger, func(p graphql.ResolveParams) (string, error) {
						return StringArg(p.Args, "word"), nil
					}),
				},
				"dup": &graphql.Field{
					Type: graphql.String,
					Resolve: Resolve(logger, func(p graphql.ResolveParams) (string, error) {
						return "", models.ErrDuplicateEmail
					}),
				},
			},
		}),
	})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return schema
}

func doGraphQL(t *testing.T, r http.Handler, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return w, out
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Mount(r, testSchema(t))

	t.Run("executes with variables on both paths", func(t *testing.T) {
		for _, path := range []string{"/graphql", "/api/graphql"} {
			w, out := doGraphQL(t, r, path, Request{
				Query:     `query Echo($w: String) { echo(word: $w) }`,
				Variables: map[string]any{"w": "hello"},
			})
			if w.Code != http.StatusOK {
				t.Fatalf("%s: status %d", path, w.Code)
			}
			data := out["data"].(map[string]any)
			if data["echo"] != "hello" {
				t.Fatalf("%s: data = %v", path, data)
			}
		}
	})

	t.Run("resolver errors carry codes", func(t *testing.T) {
		_, out := doGraphQL(t, r, "/graphql", Request{Query: `{ dup }`})
		errs := out["errors"].([]any)
		ext := errs[0].(map[string]any)["extensions"].(map[string]any)
		if ext["code"] != CodeDuplicateEmail {
			t.Fatalf("extensions = %v", ext)
		}
	})

	t.Run("empty query is rejected", func(t *testing.T) {
		w, _ := doGraphQL(t, r, "/graphql", Request{})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", w.Code)
		}
	})
}

package federation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/sirupsen/logrus"

	"github.com/shopgrid/platform/shared/graph"
)

// callLog records the order in which subgraph resolvers ran.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func usersSchema(t *testing.T, log *callLog) graphql.Schema {
	t.Helper()
	user := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"email": &graphql.Field{Type: graphql.String},
		},
	})
	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"user": &graphql.Field{
					Type: user,
					Args: graphql.FieldConfigArgument{"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)}},
					Resolve: func(p graphql.ResolveParams) (any, error) {
						id, _ := p.Args["id"].(string)
						if id == "missing" {
							return nil, &graph.Error{Message: "user not found", Code: graph.CodeNotFound}
						}
						return map[string]any{"id": id, "email": id + "@example.com"}, nil
					},
				},
				"users": &graphql.Field{
					Type: graphql.NewList(user),
					Resolve: func(p graphql.ResolveParams) (any, error) {
						return []map[string]any{{"id": "u1", "email": "ada@example.com"}}, nil
					},
				},
			},
		}),
		Mutation: graphql.NewObject(graphql.ObjectConfig{
			Name: "Mutation",
			Fields: graphql.Fields{
				"createUser": &graphql.Field{
					Type: user,
					Args: graphql.FieldConfigArgument{"email": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)}},
					Resolve: func(p graphql.ResolveParams) (any, error) {
						if log != nil {
							log.add("users")
						}
						return map[string]any{"id": "u2", "email": p.Args["email"]}, nil
					},
				},
			},
		}),
	})
	if err != nil {
		t.Fatalf("users schema: %v", err)
	}
	return schema
}

func productsSchema(t *testing.T, log *callLog, delay time.Duration) graphql.Schema {
	t.Helper()
	product := graphql.NewObject(graphql.ObjectConfig{
		Name: "Product",
		Fields: graphql.Fields{
			"id":   &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name": &graphql.Field{Type: graphql.String},
		},
	})
	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"products": &graphql.Field{
					Type: graphql.NewList(product),
					Args: graphql.FieldConfigArgument{"limit": &graphql.ArgumentConfig{Type: graphql.Int}},
					Resolve: func(p graphql.ResolveParams) (any, error) {
						wait(p.Context, delay)
						return []map[string]any{{"id": "p1", "name": "Lamp"}}, nil
					},
				},
			},
		}),
		Mutation: graphql.NewObject(graphql.ObjectConfig{
			Name: "Mutation",
			Fields: graphql.Fields{
				"createProduct": &graphql.Field{
					Type: product,
					Args: graphql.FieldConfigArgument{"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)}},
					Resolve: func(p graphql.ResolveParams) (any, error) {
						wait(p.Context, delay)
						if log != nil {
							log.add("products")
						}
						return map[string]any{"id": "p2", "name": p.Args["name"]}, nil
					},
				},
			},
		}),
	})
	if err != nil {
		t.Fatalf("products schema: %v", err)
	}
	return schema
}

func fooSchema(t *testing.T) graphql.Schema {
	t.Helper()
	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"foo": &graphql.Field{Type: graphql.String, Resolve: func(graphql.ResolveParams) (any, error) { return "bar", nil }},
			},
		}),
	})
	if err != nil {
		t.Fatalf("foo schema: %v", err)
	}
	return schema
}

func serveSubgraph(t *testing.T, schema graphql.Schema) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	graph.Mount(r, schema)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL + "/graphql"
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func composeGateway(t *testing.T, subgraphs ...Subgraph) *gin.Engine {
	t.Helper()
	client := NewClient(nil)
	sg, err := Compose(context.Background(), client, subgraphs)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewGateway(sg, client, quietLogger()).Register(r)
	return r
}

type gatewayResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Path       []any          `json:"path"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

func post(t *testing.T, r http.Handler, req graph.Request) (*httptest.ResponseRecorder, gatewayResponse) {
	t.Helper()
	body, _ := json.Marshal(req)
	w := httptest.NewRecorder()
	httpReq := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(string(body)))
	httpReq.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, httpReq)

	var out gatewayResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return w, out
}

package federation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopgrid/platform/shared/graph"
)

func TestGatewayFansOutAcrossSubgraphs(t *testing.T) {
	r := composeGateway(t,
		Subgraph{Name: "users", URL: serveSubgraph(t, usersSchema(t, nil)), Timeout: time.Second},
		Subgraph{Name: "products", URL: serveSubgraph(t, productsSchema(t, nil, 0)), Timeout: time.Second},
	)

	w, resp := post(t, r, graph.Request{Query: `{ second: products { name } first: users { email } }`})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(resp.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}

	var users []map[string]string
	if err := json.Unmarshal(resp.Data["first"], &users); err != nil || len(users) != 1 || users[0]["email"] != "ada@example.com" {
		t.Errorf("first = %s (%v)", resp.Data["first"], err)
	}
	var products []map[string]string
	if err := json.Unmarshal(resp.Data["second"], &products); err != nil || len(products) != 1 || products[0]["name"] != "Lamp" {
		t.Errorf("second = %s (%v)", resp.Data["second"], err)
	}

	body := w.Body.String()
	if strings.Index(body, `"second"`) > strings.Index(body, `"first"`) {
		t.Errorf("response keys not in document order: %s", body)
	}
}

func TestGatewayReturnsPartialResultOnTimeout(t *testing.T) {
	r := composeGateway(t,
		Subgraph{Name: "users", URL: serveSubgraph(t, usersSchema(t, nil)), Timeout: time.Second},
		Subgraph{Name: "products", URL: serveSubgraph(t, productsSchema(t, nil, 300*time.Millisecond)), Timeout: 50 * time.Millisecond},
	)

	w, resp := post(t, r, graph.Request{Query: `{ users { id } products { name } }`})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if string(resp.Data["products"]) != "null" {
		t.Errorf("products = %s, want null", resp.Data["products"])
	}
	if !strings.Contains(string(resp.Data["users"]), "u1") {
		t.Errorf("users = %s", resp.Data["users"])
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("expected 1 error, got %+v", resp.Errors)
	}
	e := resp.Errors[0]
	if e.Extensions["code"] != CodeSubserviceTimeout || e.Extensions["service"] != "products" {
		t.Errorf("extensions = %v", e.Extensions)
	}
	if len(e.Path) != 1 || e.Path[0] != "products" {
		t.Errorf("path = %v", e.Path)
	}
}

func TestGatewayRelaysSubgraphErrors(t *testing.T) {
	r := composeGateway(t,
		Subgraph{Name: "users", URL: serveSubgraph(t, usersSchema(t, nil)), Timeout: time.Second},
	)

	_, resp := post(t, r, graph.Request{
		Query:     `query Find($id: ID!) { user(id: $id) { id } }`,
		Variables: map[string]any{"id": "missing"},
	})
	if string(resp.Data["user"]) != "null" {
		t.Errorf("user = %s", resp.Data["user"])
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("expected 1 error, got %+v", resp.Errors)
	}
	e := resp.Errors[0]
	if e.Message != "user not found" || e.Extensions["code"] != graph.CodeNotFound {
		t.Errorf("error not relayed verbatim: %+v", e)
	}
	if len(e.Path) != 1 || e.Path[0] != "user" {
		t.Errorf("path = %v", e.Path)
	}
}

func TestGatewayRunsMutationsInDocumentOrder(t *testing.T) {
	log := &callLog{}
	r := composeGateway(t,
		Subgraph{Name: "users", URL: serveSubgraph(t, usersSchema(t, log)), Timeout: time.Second},
		Subgraph{Name: "products", URL: serveSubgraph(t, productsSchema(t, log, 50*time.Millisecond)), Timeout: time.Second},
	)

	_, resp := post(t, r, graph.Request{Query: `mutation {
  createProduct(name: "Desk") { id }
  createUser(email: "grace@example.com") { email }
}`})
	if len(resp.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	if got := strings.Join(log.all(), ","); got != "products,users" {
		t.Errorf("mutation order = %s", got)
	}
	if !strings.Contains(string(resp.Data["createUser"]), "grace@example.com") {
		t.Errorf("createUser = %s", resp.Data["createUser"])
	}
}

func TestGatewayUnknownFieldAndTypename(t *testing.T) {
	r := composeGateway(t,
		Subgraph{Name: "users", URL: serveSubgraph(t, usersSchema(t, nil)), Timeout: time.Second},
	)

	_, resp := post(t, r, graph.Request{Query: `{ __typename ghost users { id } }`})
	if string(resp.Data["__typename"]) != `"Query"` {
		t.Errorf("__typename = %s", resp.Data["__typename"])
	}
	if string(resp.Data["ghost"]) != "null" {
		t.Errorf("ghost = %s", resp.Data["ghost"])
	}
	if len(resp.Errors) != 1 || resp.Errors[0].Extensions["code"] != CodeUnknownField {
		t.Errorf("errors = %+v", resp.Errors)
	}
}

func TestGatewayRejectsMalformedRequests(t *testing.T) {
	r := composeGateway(t,
		Subgraph{Name: "users", URL: serveSubgraph(t, usersSchema(t, nil)), Timeout: time.Second},
	)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"not json", `{`, CodeBadRequest},
		{"syntax error", `{"query":"{ users {"}`, CodeParseFailed},
		{"empty query", `{"query":""}`, CodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", w.Code)
			}
			var resp gatewayResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(resp.Errors) != 1 || resp.Errors[0].Extensions["code"] != tt.code {
				t.Errorf("errors = %+v", resp.Errors)
			}
		})
	}
}

func TestGatewaySchemaRoute(t *testing.T) {
	r := composeGateway(t,
		Subgraph{Name: "users", URL: serveSubgraph(t, usersSchema(t, nil)), Timeout: time.Second},
	)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/schema", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Subgraphs []SubgraphSummary `json:"subgraphs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Subgraphs) != 1 || body.Subgraphs[0].Name != "users" || len(body.Subgraphs[0].Mutation) != 1 {
		t.Errorf("schema = %+v", body.Subgraphs)
	}
}

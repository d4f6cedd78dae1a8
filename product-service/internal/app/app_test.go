package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/shopgrid/platform/product-service/internal/repository"
	"github.com/shopgrid/platform/shared/graph"
)

func post(t *testing.T, h http.Handler, query string) map[string]any {
	t.Helper()
	body, _ := json.Marshal(graph.Request{Query: query})
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

func TestProductLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := New(Deps{Repo: repository.NewMemoryProductRepository()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out := post(t, app.Router, `mutation { createProduct(input: {name: "Kettle", price: 24.5, currency: "eur", stock: 3}) { id currency } }`)
	if out["errors"] != nil {
		t.Fatalf("createProduct: %v", out["errors"])
	}
	created := out["data"].(map[string]any)["createProduct"].(map[string]any)
	if created["currency"] != "EUR" {
		t.Fatalf("currency = %v", created["currency"])
	}

	out = post(t, app.Router, `{ product(id: "`+created["id"].(string)+`") { name price stock } }`)
	product := out["data"].(map[string]any)["product"].(map[string]any)
	if product["name"] != "Kettle" || product["price"] != 24.5 || product["stock"] != float64(3) {
		t.Fatalf("product = %v", product)
	}

	out = post(t, app.Router, `{ product(id: "missing") { name } }`)
	if out["errors"] != nil || out["data"].(map[string]any)["product"] != nil {
		t.Fatalf("missing product = %v", out)
	}

	out = post(t, app.Router, `{ products(limit: 5) { name } }`)
	if list := out["data"].(map[string]any)["products"].([]any); len(list) != 1 {
		t.Fatalf("products = %v", list)
	}
	app.Events.Wait()
}

func TestCreateProductValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, _ := New(Deps{Repo: repository.NewMemoryProductRepository()})

	tests := []struct {
		name  string
		input string
	}{
		{"negative price", `{name: "Kettle", price: -1, currency: "EUR"}`},
		{"bad currency", `{name: "Kettle", price: 1, currency: "EURO"}`},
		{"negative stock", `{name: "Kettle", price: 1, currency: "EUR", stock: -2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := post(t, app.Router, `mutation { createProduct(input: `+tt.input+`) { id } }`)
			errs, _ := out["errors"].([]any)
			if len(errs) != 1 {
				t.Fatalf("errors = %v", out["errors"])
			}
			if code := errs[0].(map[string]any)["extensions"].(map[string]any)["code"]; code != graph.CodeBadUserInput {
				t.Fatalf("code = %v", code)
			}
		})
	}
}

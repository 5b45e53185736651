package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	"github.com/gamereviews/gamereviews/internal/handler/dto"
	"github.com/gamereviews/gamereviews/internal/middleware"
	"github.com/gamereviews/gamereviews/internal/testutil"
)

const contractBaseURL = "http://localhost:8080"

// loadDocument loads and validates docs/api/openapi.yaml.
func loadDocument(t *testing.T) (*openapi3.T, routers.Router) {
	t.Helper()

	root, err := testutil.ProjectRoot()
	if err != nil {
		t.Fatalf("project root: %v", err)
	}
	path := filepath.Join(root, "docs", "api", "openapi.yaml")

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		t.Fatalf("Failed to load OpenAPI document from %s: %v", path, err)
	}

	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI document validation failed: %v", err)
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		t.Fatalf("Failed to create router from document: %v", err)
	}

	return doc, router
}

type contractClient struct {
	t      *testing.T
	api    *testAPI
	router routers.Router
}

// call serves the request through the API and validates the response
// against the documented operation.
func (c *contractClient) call(method, path, token string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}

	req := httptest.NewRequest(method, contractBaseURL+path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(middleware.DefaultAuthHeader, token)
	}

	rec := httptest.NewRecorder()
	c.api.router.ServeHTTP(rec, req)

	route, pathParams, err := c.router.FindRoute(req)
	if err != nil {
		c.t.Fatalf("%s %s is not documented: %v", method, path, err)
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status: rec.Code,
		Header: rec.Header(),
		Body:   io.NopCloser(bytes.NewReader(rec.Body.Bytes())),
	}
	if err := openapi3filter.ValidateResponse(context.Background(), input); err != nil {
		c.t.Errorf("%s %s: response does not match the document: %v\nbody: %s", method, path, err, rec.Body.String())
	}

	return rec
}

func TestOpenAPIDocumentValid(t *testing.T) {
	doc, _ := loadDocument(t)

	expectedPaths := []string{
		"/",
		"/healthz",
		"/readyz",
		"/api/users/register",
		"/api/users/login",
		"/api/users/me",
		"/api/reviews",
		"/api/reviews/{id}",
		"/api/reviews/user/{userId}",
		"/api/reviews/game/{title}",
		"/api/reviews/game/{title}/rating",
	}

	for _, path := range expectedPaths {
		if doc.Paths.Find(path) == nil {
			t.Errorf("Expected path %s not found in document", path)
		}
	}
}

func TestContract_ResponsesMatchDocument(t *testing.T) {
	_, router := loadDocument(t)

	for _, strict := range []bool{false, true} {
		name := "legacy"
		if strict {
			name = "strict"
		}
		t.Run(name, func(t *testing.T) {
			c := &contractClient{t: t, api: newTestAPI(t, apiOptions{strict: strict}), router: router}

			c.call(http.MethodGet, "/", "", nil)
			c.call(http.MethodGet, "/healthz", "", nil)
			c.call(http.MethodGet, "/readyz", "", nil)

			rec := c.call(http.MethodPost, "/api/users/register", "", dto.RegisterRequest{Username: "alice", Email: "a@x.com", Password: "secret1"})
			alice := decodeBody[dto.AuthResponse](t, rec)
			bob := decodeBody[dto.AuthResponse](t, c.call(http.MethodPost, "/api/users/register", "", dto.RegisterRequest{Username: "bob", Email: "b@x.com", Password: "secret2"}))

			c.call(http.MethodPost, "/api/users/register", "", dto.RegisterRequest{Username: "carol", Email: "a@x.com", Password: "secret3"})
			c.call(http.MethodPost, "/api/users/login", "", dto.LoginRequest{Email: "a@x.com", Password: "secret1"})
			c.call(http.MethodPost, "/api/users/login", "", dto.LoginRequest{Email: "a@x.com", Password: "wrong-one"})
			c.call(http.MethodGet, "/api/users/me", alice.Token, nil)
			c.call(http.MethodGet, "/api/users/me", "", nil)

			create := map[string]any{
				"gameTitle":  "Hollow Knight",
				"rating":     5,
				"reviewText": "Tight controls and a haunting world.",
				"imageUrl":   "https://img.example.com/hk.png",
			}
			review := decodeBody[dto.ReviewResponse](t, c.call(http.MethodPost, "/api/reviews", alice.Token, create))
			c.call(http.MethodPost, "/api/reviews", alice.Token, create)
			c.call(http.MethodPost, "/api/reviews", alice.Token, map[string]any{"gameTitle": "Hollow Knight", "rating": 9})

			c.call(http.MethodGet, "/api/reviews", "", nil)
			c.call(http.MethodGet, "/api/reviews/"+review.ID, "", nil)
			c.call(http.MethodGet, "/api/reviews/01UNKNOWN", "", nil)
			c.call(http.MethodGet, "/api/reviews/user/"+alice.User.ID, "", nil)
			c.call(http.MethodGet, "/api/reviews/game/hollow", "", nil)
			c.call(http.MethodGet, "/api/reviews/game/Hollow%20Knight/rating", "", nil)

			c.call(http.MethodPut, "/api/reviews/"+review.ID, bob.Token, map[string]any{"rating": 1})
			c.call(http.MethodPut, "/api/reviews/"+review.ID, alice.Token, map[string]any{"rating": 4})
			c.call(http.MethodPut, "/api/reviews/01UNKNOWN", alice.Token, map[string]any{"rating": 4})
			c.call(http.MethodDelete, "/api/reviews/"+review.ID, bob.Token, nil)
			c.call(http.MethodDelete, "/api/reviews/"+review.ID, alice.Token, nil)
		})
	}
}

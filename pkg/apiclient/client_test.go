package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-inventory-checklist/pkg/identity"
)

type staticToken string

func (s staticToken) AccessToken(context.Context) string { return string(s) }

type captured struct {
	method  string
	path    string
	headers http.Header
	body    string
}

func captureServer(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got.method, got.path, got.headers, got.body = r.Method, r.URL.Path, r.Header.Clone(), string(b)
		w.WriteHeader(status)
		w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestRequest_WithBodySetsJSONAndBearer(t *testing.T) {
	srv, got := captureServer(t, http.StatusOK, `{}`)
	c := NewClient(srv.URL, staticToken("T1"), zerolog.Nop())

	resp, err := c.Request(context.Background(), http.MethodPost, "/api/x", map[string]int{"a": 1})
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/x", got.path)
	assert.Equal(t, "Bearer T1", got.headers.Get("Authorization"))
	assert.Equal(t, "application/json", got.headers.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, got.body)
}

func TestRequest_WithoutBodyHasNoContentType(t *testing.T) {
	srv, got := captureServer(t, http.StatusOK, `[]`)
	c := NewClient(srv.URL, staticToken("T1"), zerolog.Nop())

	resp, err := c.Request(context.Background(), http.MethodGet, "/api/products", nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, got.headers.Get("Content-Type"))
	assert.Equal(t, "Bearer T1", got.headers.Get("Authorization"))
}

func TestRequest_NoSessionNoBearer(t *testing.T) {
	srv, got := captureServer(t, http.StatusOK, `[]`)
	c := NewClient(srv.URL, staticToken(""), zerolog.Nop())

	resp, err := c.Request(context.Background(), http.MethodGet, "/api/products", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, got.headers.Get("Authorization"))

	c = NewClient(srv.URL, nil, zerolog.Nop())
	resp, err = c.Request(context.Background(), http.MethodGet, "/api/products", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, got.headers.Get("Authorization"))
}

func TestRequest_Non2xxCarriesStatusAndBody(t *testing.T) {
	srv, _ := captureServer(t, http.StatusConflict, `{"error":"duplicate"}`)
	c := NewClient(srv.URL, staticToken("T1"), zerolog.Nop())

	_, err := c.Request(context.Background(), http.MethodPost, "/api/products", map[string]string{})
	require.Error(t, err)

	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusConflict, he.StatusCode)
	assert.Equal(t, `{"error":"duplicate"}`, he.Body)
	assert.Equal(t, `409: {"error":"duplicate"}`, err.Error())
	assert.False(t, IsUnauthorized(err))
}

func TestQueryFunc_401Policy(t *testing.T) {
	srv, _ := captureServer(t, http.StatusUnauthorized, `{"error":"Invalid token"}`)
	c := NewClient(srv.URL, staticToken("T1"), zerolog.Nop())

	v, err := c.QueryFunc(On401ReturnNil)(context.Background(), "/api/users")
	assert.NoError(t, err)
	assert.Nil(t, v)

	_, err = c.QueryFunc(On401Fail)(context.Background(), "/api/users")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
}

func TestQueryFunc_ReturnsRawJSON(t *testing.T) {
	srv, got := captureServer(t, http.StatusOK, `[{"id":1}]`)
	c := NewClient(srv.URL, staticToken("T1"), zerolog.Nop())

	v, err := c.QueryFunc(On401Fail)(context.Background(), "/api/products/low-stock")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(v.(json.RawMessage)))
	assert.Equal(t, "/api/products/low-stock", got.path)
}

func TestSyncUser_UsesExplicitToken(t *testing.T) {
	localID := uuid.New()
	reply := `{"user":{"id":"` + localID.String() + `","email":"ana@example.com","name":"Ana","role":"gerente","permissions":[],"company_id":"` + uuid.NewString() + `","is_active":true}}`
	srv, got := captureServer(t, http.StatusOK, reply)
	c := NewClient(srv.URL, staticToken("ignored"), zerolog.Nop())

	u, err := c.SyncUser(context.Background(), "session-token", &identity.User{ID: "ext-1", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, localID, u.ID)
	assert.Equal(t, "gerente", u.Role)

	assert.Equal(t, SyncUserPath, got.path)
	assert.Equal(t, "Bearer session-token", got.headers.Get("Authorization"))
	var sent SyncUserRequest
	require.NoError(t, json.Unmarshal([]byte(got.body), &sent))
	assert.Equal(t, "ext-1", sent.User.ID)
}

func TestSyncUser_RejectsInvalidPayloads(t *testing.T) {
	srv, _ := captureServer(t, http.StatusOK, `{"user":{"id":"`+uuid.NewString()+`","email":"ana@example.com","role":"owner"}}`)
	c := NewClient(srv.URL, nil, zerolog.Nop())

	_, err := c.SyncUser(context.Background(), "t", &identity.User{Email: "ana@example.com"})
	assert.Error(t, err)

	_, err = c.SyncUser(context.Background(), "t", &identity.User{ID: "ext-1", Email: "ana@example.com"})
	assert.Error(t, err)
}

func TestSyncUser_401(t *testing.T) {
	srv, _ := captureServer(t, http.StatusUnauthorized, `{"error":"Invalid or expired token"}`)
	c := NewClient(srv.URL, nil, zerolog.Nop())

	_, err := c.SyncUser(context.Background(), "t", &identity.User{ID: "ext-1", Email: "ana@example.com"})
	assert.True(t, IsUnauthorized(err))
}

package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"astro-server/internal/middleware"
	"astro-server/internal/shared/config"
	"astro-server/internal/shared/database/dbtest"
	"astro-server/internal/shared/response"
	"astro-server/internal/star"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := dbtest.New(t)
	service := star.NewService(db, star.NewRepository(db, logger), logger)

	handler := NewRoutes(db, service, logger).Handler(
		middleware.NewCORS(config.FrontendConfig{URL: "http://localhost:3000"}),
		middleware.NewRateLimiter(t.Context(), config.RateLimitConfig{Enabled: false}, nil),
	)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

const polaris = `{"name":"Polaris","magnitude":1.98,"distance":433,"spectral_type":"F7Ib"}`

func TestRoot(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"message": "Astro Data API"}, decode[map[string]string](t, resp))

	for _, path := range []string{"/nope", "/stars/1/extra"} {
		resp = do(t, http.MethodGet, srv.URL+path, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		body := decode[response.ErrorResponse](t, resp)
		assert.Equal(t, "not_found", body.Error)
		assert.Equal(t, http.StatusNotFound, body.Code)
		assert.Equal(t, "no route for "+path, body.Message)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	do(t, http.MethodPost, srv.URL+"/stars", polaris)

	resp := do(t, http.MethodGet, srv.URL+"/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]any](t, resp)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.EqualValues(t, 1, body["stars"])
}

func TestCreateDuplicateReturnsConflict(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/stars", polaris)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[star.Star](t, resp)
	assert.Equal(t, "Polaris", created.Name)

	resp = do(t, http.MethodPost, srv.URL+"/stars", polaris)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	conflict := decode[response.ErrorResponse](t, resp)
	assert.Equal(t, "conflict", conflict.Error)
	assert.Contains(t, conflict.Message, "already exists")
	assert.EqualValues(t, created.ID, conflict.Details["existing_id"])

	resp = do(t, http.MethodGet, srv.URL+"/stars", "")
	assert.Len(t, decode[[]star.Star](t, resp), 1)
}

func TestGetRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/stars", `{"name":"Sirius","magnitude":-1.46,"distance":8.6,"spectral_type":"A1V"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[star.Star](t, resp)

	resp = do(t, http.MethodGet, srv.URL+"/stars/"+strconv.Itoa(created.ID), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, star.Star{ID: created.ID, Name: "Sirius", Magnitude: -1.46, Distance: 8.6, SpectralType: "A1V"}, decode[star.Star](t, resp))
}

func TestGetMissingStar(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/stars/999", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "star with ID 999 not found", decode[response.ErrorResponse](t, resp).Message)

	resp = do(t, http.MethodGet, srv.URL+"/stars/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteStar(t *testing.T) {
	srv := newTestServer(t)

	created := decode[star.Star](t, do(t, http.MethodPost, srv.URL+"/stars", polaris))
	other := decode[star.Star](t, do(t, http.MethodPost, srv.URL+"/stars", `{"name":"Vega","magnitude":0.03,"distance":25,"spectral_type":"A0V"}`))

	resp := do(t, http.MethodDelete, srv.URL+"/stars/"+strconv.Itoa(created.ID), "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Empty(t, body)

	resp = do(t, http.MethodGet, srv.URL+"/stars/"+strconv.Itoa(created.ID), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/stars/"+strconv.Itoa(created.ID), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/stars", "")
	assert.Equal(t, []star.Star{other}, decode[[]star.Star](t, resp))
}

func TestListEmptyIsArray(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/stars", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		method string
		path   string
		allow  string
	}{
		{http.MethodPut, "/stars/1", "GET, HEAD, DELETE"},
		{http.MethodPatch, "/stars", "GET, HEAD, POST"},
		{http.MethodDelete, "/stars", "GET, HEAD, POST"},
		{http.MethodPost, "/health", "GET, HEAD"},
		{http.MethodPost, "/", "GET, HEAD"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := do(t, tt.method, srv.URL+tt.path, "")
			assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			assert.Equal(t, tt.allow, resp.Header.Get("Allow"))

			body := decode[response.ErrorResponse](t, resp)
			assert.Equal(t, "method_not_allowed", body.Error)
			assert.Equal(t, http.StatusMethodNotAllowed, body.Code)
			assert.Equal(t, "method "+tt.method+" not allowed", body.Message)
		})
	}

	// Registered methods still reach their handlers.
	resp := do(t, http.MethodGet, srv.URL+"/stars/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "star with ID 1 not found", decode[response.ErrorResponse](t, resp).Message)
}

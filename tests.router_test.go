package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRoutedAPIHandler builds an api handler with permissive mocks so
// every wired route can serve without a real backend.
func newRoutedAPIHandler() *APIHandler {
	api := newTestAPIHandler(&Storages{
		Books: &MockBookStorage{
			GetOneFunc: func(ctx context.Context, id string) (Book, error) {
				return Book{ID: id}, nil
			},
			ListFunc: func(ctx context.Context, q ListQuery) ([]Book, int, error) {
				return []Book{}, 0, nil
			},
		},
		Genres: &MockGenreStorage{
			GetAllFunc: func(ctx context.Context) ([]Genre, error) {
				return []Genre{}, nil
			},
		},
		Reviews: &MockReviewStorage{
			ListForBookFunc: func(ctx context.Context, bookID string, status ReviewStatus) ([]Review, error) {
				return []Review{}, nil
			},
		},
	})
	api.images = &MockImageStore{
		OpenFunc: func(ctx context.Context, id string) (io.ReadCloser, string, error) {
			return io.NopCloser(strings.NewReader("fake png bytes")), "image/png", nil
		},
	}
	api.uploader = newTestUploader(&MockImageStore{
		SaveFunc: func(ctx context.Context, id, contentType string, content io.Reader) (string, error) {
			return "http://localhost/uploads/" + id + ".png", nil
		},
	})
	return api
}

// TestSetupRoutes ensures all expected endpoints are implemented.
//
//nolint:funlen
func TestSetupRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		request     *http.Request
		implemented bool
	}{
		{
			"home view endpoint",
			httptest.NewRequest(http.MethodGet, "/", nil),
			true,
		},
		{
			"status endpoint",
			httptest.NewRequest(http.MethodGet, "/status", nil),
			true,
		},
		{
			"browse view endpoint",
			httptest.NewRequest(http.MethodGet, "/browse", nil),
			true,
		},
		{
			"guarded dashboard view endpoint",
			httptest.NewRequest(http.MethodGet, "/dashboard", nil),
			true,
		},
		{
			"guarded admin view endpoint",
			httptest.NewRequest(http.MethodGet, "/admin/books", nil),
			true,
		},
		{
			"sign up endpoint",
			httptest.NewRequest(http.MethodPost, "/api/auth/sign-up/email", nil),
			true,
		},
		{
			"get session endpoint",
			httptest.NewRequest(http.MethodGet, "/api/auth/get-session", nil),
			true,
		},
		{
			"fetch all books endpoint",
			httptest.NewRequest(http.MethodGet, "/api/v1/books", nil),
			true,
		},
		{
			"fetch single book endpoint",
			httptest.NewRequest(http.MethodGet, "/api/v1/books/b:cb8f2136-fae4-4200-85d9-3533c7f8c70d", nil),
			true,
		},
		{
			"create book endpoint",
			httptest.NewRequest(http.MethodPost, "/api/v1/books", nil),
			true,
		},
		{
			"create book with cover endpoint",
			httptest.NewRequest(http.MethodPost, "/api/v1/books/with-cover", nil),
			true,
		},
		{
			"fetch genres endpoint",
			httptest.NewRequest(http.MethodGet, "/api/v1/genres", nil),
			true,
		},
		{
			"fetch book reviews endpoint",
			httptest.NewRequest(http.MethodGet, "/api/v1/reviews?bookId=b:1", nil),
			true,
		},
		{
			"pending reviews endpoint",
			httptest.NewRequest(http.MethodGet, "/api/v1/reviews/pending", nil),
			true,
		},
		{
			"approve review endpoint",
			httptest.NewRequest(http.MethodPost, "/api/v1/reviews/v:1/approve", nil),
			true,
		},
		{
			"library endpoint",
			httptest.NewRequest(http.MethodGet, "/api/v1/library", nil),
			true,
		},
		{
			"tutorials endpoint",
			httptest.NewRequest(http.MethodGet, "/api/v1/tutorials", nil),
			true,
		},
		{
			"users endpoint",
			httptest.NewRequest(http.MethodGet, "/api/v1/users", nil),
			true,
		},
		{
			"navigation endpoint",
			httptest.NewRequest(http.MethodGet, "/api/v1/navigation", nil),
			true,
		},
		{
			"user dashboard endpoint",
			httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil),
			true,
		},
		{
			"admin dashboard endpoint",
			httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil),
			true,
		},
		{
			"upload endpoint",
			httptest.NewRequest(http.MethodPost, "/api/upload", nil),
			true,
		},
		{
			"serve upload endpoint",
			httptest.NewRequest(http.MethodGet, "/uploads/i:abc.png", nil),
			true,
		},
		{
			"invalid api endpoint",
			httptest.NewRequest(http.MethodGet, "/api/v2", nil),
			false,
		},
		{
			"invalid books endpoint",
			httptest.NewRequest(http.MethodGet, "/books", nil),
			false,
		},
	}

	api := newRoutedAPIHandler()
	router := httprouter.New()
	m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
	api.SetupRoutes(router, m)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestSetupOpsRoutes ensures all expected operations endpoints are implemented.
func TestSetupOpsRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		request     *http.Request
		implemented bool
	}{
		{
			"fetch configs endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/configs", nil),
			true,
		},
		{
			"fetch stats endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/stats", nil),
			true,
		},
		{
			"maintenance mode endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/maintenance", nil),
			true,
		},
		{
			"invalid ops endpoint",
			httptest.NewRequest(http.MethodGet, "/ops", nil),
			false,
		},
		{
			"unknown ops endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/unknown", nil),
			false,
		},
		{
			"disabled profiler endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil),
			false,
		},
	}

	api := newTestAPIHandler(nil)
	api.config.ProfilerEndpointsEnable = false
	router := httprouter.New()
	m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
	api.SetupOpsRoutes(router, m)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestSetupRoutes_OpsToggle ensures ops endpoints only exist when enabled.
func TestSetupRoutes_OpsToggle(t *testing.T) {
	m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}

	for _, enabled := range []bool{false, true} {
		api := newRoutedAPIHandler()
		api.config.OpsEndpointsEnable = enabled
		router := httprouter.New()
		api.SetupRoutes(router, m)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ops/configs", nil))
		if enabled {
			assert.NotEqual(t, 404, w.Code)
		} else {
			assert.Equal(t, 404, w.Code)
		}

		// public routes exist either way.
		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/books", nil))
		assert.NotEqual(t, 404, w.Code)
	}
}

// TestSetupRoutes_NotFound ensures exact status code and json response body when a user requests an inexistant route.
func TestSetupRoutes_NotFound(t *testing.T) {
	m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
	api := newRoutedAPIHandler()
	router := httprouter.New()
	api.SetupRoutes(router, m)
	r := httptest.NewRequest(http.MethodGet, "/x/books/nothing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	expected := `{"message":"route does not exist. check documentation at /swagger/"}`
	assert.JSONEq(t, expected, string(data))
}

// TestRoleGatesOnRoutes ensures admin endpoints answer 401 to guests
// through the wired route table.
func TestRoleGatesOnRoutes(t *testing.T) {
	api := newRoutedAPIHandler()
	router := httprouter.New()
	m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
	api.SetupRoutes(router, m)

	gated := []*http.Request{
		httptest.NewRequest(http.MethodPost, "/api/v1/books", nil),
		httptest.NewRequest(http.MethodDelete, "/api/v1/books/b:1", nil),
		httptest.NewRequest(http.MethodGet, "/api/v1/reviews/pending", nil),
		httptest.NewRequest(http.MethodGet, "/api/v1/users", nil),
		httptest.NewRequest(http.MethodGet, "/api/v1/library", nil),
		httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil),
	}
	for _, req := range gated {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, req.Method+" "+req.URL.Path)
	}

	// guest view access redirects instead of failing.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))
}

// TestGuestAvatarUploadOnRoutes ensures a guest can store an avatar
// through the wired upload route before signing up.
func TestGuestAvatarUploadOnRoutes(t *testing.T) {
	api := newRoutedAPIHandler()
	api.uploader = newTestUploader(&MockImageStore{
		SaveFunc: func(ctx context.Context, id, contentType string, content io.Reader) (string, error) {
			return "http://localhost/uploads/" + id + ".png", nil
		},
	})
	router := httprouter.New()
	m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
	api.SetupRoutes(router, m)

	req := buildMultipartRequest(t, "/api/upload", "file", "avatar.png", "image/png", "fake png bytes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data UploadResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "i:abc", resp.Data.ID)
	assert.Equal(t, "http://localhost/uploads/i:abc.png", resp.Data.URL)

	// invalid files still fail closed without a role check.
	req = buildMultipartRequest(t, "/api/upload", "file", "notes.txt", "text/plain", "plain text", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

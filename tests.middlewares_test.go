package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

// TestMiddlewaresStacks ensures we get both public and ops middlewares
// stacks with exact number of elements in those stacks.
func TestMiddlewaresStacks(t *testing.T) {
	api := newTestAPIHandler(nil)
	pub, ops := api.MiddlewaresStacks()
	assert.Equal(t, 7, len(*pub))
	assert.Equal(t, 4, len(*ops))
}

// TestChain ensures each middleware in the stack is called as well the handler.
func TestChain(t *testing.T) {
	var ca, cb, cc, ch bool
	queue := make(chan int, 4)

	middlewareA := func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			queue <- 1
			ca = true
			next(w, r, ps)
		}
	}
	middlewareB := func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			queue <- 2
			cb = true
			next(w, r, ps)
		}
	}
	middlewareC := func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			queue <- 3
			cc = true
			next(w, r, ps)
		}
	}
	middlewares := Middlewares{
		middlewareA,
		middlewareB,
		middlewareC,
	}

	handler := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		queue <- 4
		ch = true
	}

	chained := (&middlewares).Chain(handler)
	req := httptest.NewRequest("GET", "/api/v1/books", nil)
	w := httptest.NewRecorder()
	chained(w, req, nil)

	t.Run("check calling", func(t *testing.T) {
		assert.Equal(t, true, ca)
		assert.Equal(t, true, cb)
		assert.Equal(t, true, cc)
		assert.Equal(t, true, ch)
	})

	t.Run("check ordering", func(t *testing.T) {
		assert.Equal(t, 1, <-queue)
		assert.Equal(t, 2, <-queue)
		assert.Equal(t, 3, <-queue)
		assert.Equal(t, 4, <-queue)
	})
}

// TestRequestsCounterMiddleware ensures the request counter increment
// and the per-status counters record each response code.
func TestRequestsCounterMiddleware(t *testing.T) {
	api := newTestAPIHandler(nil)
	var called bool
	handler := func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		called = true
	}
	wrapped := api.RequestsCounterMiddleware(handler)
	w := httptest.NewRecorder()
	wrapped(w, httptest.NewRequest("GET", "/api/v1/books", nil), nil)
	assert.Equal(t, true, called)
	assert.Equal(t, uint64(1), api.stats.called)

	notFound := api.RequestsCounterMiddleware(func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		w.WriteHeader(http.StatusNotFound)
	})
	w = httptest.NewRecorder()
	notFound(w, httptest.NewRequest("GET", "/api/v1/books/b:gone", nil), nil)
	w = httptest.NewRecorder()
	notFound(w, httptest.NewRequest("GET", "/api/v1/books/b:gone", nil), nil)

	api.stats.mu.RLock()
	defer api.stats.mu.RUnlock()
	assert.Equal(t, uint64(3), api.stats.called)
	assert.Equal(t, uint64(1), api.stats.status[http.StatusOK])
	assert.Equal(t, uint64(2), api.stats.status[http.StatusNotFound])
}

// TestSessionTokenFromRequest ensures the bearer header wins over the
// session cookie.
func TestSessionTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/profile", nil)
	assert.Equal(t, "", SessionTokenFromRequest(req))

	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "s:cookie"})
	assert.Equal(t, "s:cookie", SessionTokenFromRequest(req))

	req.Header.Set("Authorization", "Bearer s:bearer")
	assert.Equal(t, "s:bearer", SessionTokenFromRequest(req))
}

// TestSessionMiddleware ensures a live session puts the user into the
// request context while everything else falls through as guest.
func TestSessionMiddleware(t *testing.T) {
	t.Run("valid session resolves the user", func(t *testing.T) {
		api := newTestAPIHandler(&Storages{
			Sessions: &MockSessionStorage{
				GetFunc: func(ctx context.Context, token string) (Session, error) {
					assert.Equal(t, "s:abc", token)
					return Session{Token: token, UserID: "u:1"}, nil
				},
			},
			Users: &MockUserStorage{
				GetOneFunc: func(ctx context.Context, id string) (User, error) {
					return User{ID: id, Role: RoleAdmin}, nil
				},
			},
		})

		var got User
		var ok bool
		handler := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			got, ok = GetUserFromContext(r.Context())
		}
		req := httptest.NewRequest("GET", "/api/v1/profile", nil)
		req.Header.Set("Authorization", "Bearer s:abc")
		w := httptest.NewRecorder()
		api.SessionMiddleware(handler)(w, req, nil)

		assert.True(t, ok)
		assert.Equal(t, "u:1", got.ID)
		assert.Equal(t, RoleAdmin, got.Role)
	})

	t.Run("no token falls through as guest", func(t *testing.T) {
		api := newTestAPIHandler(nil)
		var ok bool
		handler := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			_, ok = GetUserFromContext(r.Context())
		}
		req := httptest.NewRequest("GET", "/api/v1/books", nil)
		w := httptest.NewRecorder()
		api.SessionMiddleware(handler)(w, req, nil)
		assert.False(t, ok)
	})

	t.Run("dead session falls through as guest", func(t *testing.T) {
		api := newTestAPIHandler(&Storages{
			Sessions: &MockSessionStorage{
				GetFunc: func(ctx context.Context, token string) (Session, error) {
					return Session{}, ErrSessionNotFound
				},
			},
		})
		var ok bool
		handler := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			_, ok = GetUserFromContext(r.Context())
		}
		req := httptest.NewRequest("GET", "/api/v1/books", nil)
		req.Header.Set("Authorization", "Bearer s:abc")
		w := httptest.NewRecorder()
		api.SessionMiddleware(handler)(w, req, nil)
		assert.False(t, ok)
	})
}

// TestRequireRoleMiddleware ensures guests get 401 while authenticated
// users below the minimum role get 403.
func TestRequireRoleMiddleware(t *testing.T) {
	api := newTestAPIHandler(nil)
	admin := api.RequireRoleMiddleware(RoleAdmin)

	run := func(user *User) (*httptest.ResponseRecorder, bool) {
		var called bool
		handler := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			called = true
		}
		req := httptest.NewRequest("GET", "/api/v1/users", nil)
		if user != nil {
			ctx := context.WithValue(req.Context(), ContextUser, *user)
			req = req.WithContext(ctx)
		}
		w := httptest.NewRecorder()
		admin(handler)(w, req, nil)
		return w, called
	}

	t.Run("guest gets 401", func(t *testing.T) {
		w, called := run(nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, called)
		expected := `{"requestid":"", "status":401, "message":"authentication required", "data":{}}`
		assert.JSONEq(t, expected, w.Body.String())
	})

	t.Run("user gets 403", func(t *testing.T) {
		w, called := run(&User{ID: "u:1", Role: RoleUser})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, called)
		expected := `{"requestid":"", "status":403, "message":"insufficient permissions", "data":{}}`
		assert.JSONEq(t, expected, w.Body.String())
	})

	t.Run("admin passes", func(t *testing.T) {
		w, called := run(&User{ID: "u:1", Role: RoleAdmin})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, called)
	})
}

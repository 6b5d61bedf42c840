package main

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// MiddlewareFunc is a custom type for ease of use.
type MiddlewareFunc func(httprouter.Handle) httprouter.Handle

// Middlewares is a custom type to represent a stack of
// middleware functions used to build a single chain.
type Middlewares []MiddlewareFunc

// SessionCookieName carries the session token for browser clients.
// API clients send the same token as a bearer authorization header.
const SessionCookieName = "bookworm.session"

// CoreMiddleware setup the duration measurement for each request and logs its result.
func (api *APIHandler) CoreMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()
		requestID := GetValueFromContext(r.Context(), ContextRequestID)

		api.logger.Info(
			"request",
			zap.String("request.id", requestID),
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
			zap.String("request.ip", GetRequestSourceIP(r)),
			zap.String("request.agent", r.UserAgent()),
			zap.String("request.referer", r.Referer()),
		)

		next(w, r, ps)
		api.logger.Info(
			"request",
			zap.String("request.id", requestID),
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
			zap.Duration("request.duration", time.Since(start)),
		)
	}
}

// statusRecorder captures the response status code for the stats.
// Handlers that never call WriteHeader answered 200.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

// RequestsCounterMiddleware increments the number of received requests statistics and add this
// new value to the request context to be used during logging as `request.num` field. It also
// records the response status code into the per-status counters served at /ops/stats.
func (api *APIHandler) RequestsCounterMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), ContextRequestNumber, atomic.AddUint64(&api.stats.called, 1))
		r = r.WithContext(ctx)
		sr := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next(sr, r, ps)
		api.stats.mu.Lock()
		api.stats.status[sr.code]++
		api.stats.mu.Unlock()
	}
}

// RequestIDMiddleware generates and add a unique id to the request context.
func (api *APIHandler) RequestIDMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		requestID := api.uids.Generate(RequestIDPrefix)
		ctx := context.WithValue(r.Context(), ContextRequestID, requestID)
		r = r.WithContext(ctx)
		next(w, r, ps)
	}
}

// CORSMiddleware intercepts each incoming HTTP calls then apply cors headers on it.
func CORSMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, UPDATE, PATCH, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Access-Control-Request-Method, Access-Control-Request-Headers, Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, User-Agent, Accept-Language, Referer, DNT, Connection, Pragma, Cache-Control, TE")
		next(w, r, ps)
	}
}

// PanicRecoveryMiddleware catches any panic during the request lifecycle and produces
// an error log for further analysis. It sends a failure response to the client with 500.
func (api *APIHandler) PanicRecoveryMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		recovery := func() {
			if err := recover(); err != nil {
				requestID := GetValueFromContext(r.Context(), ContextRequestID)
				api.logger.Error("panic occurred", zap.String("request.id", requestID), zap.Any("error", err))
				errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to process the request.", EmptyData)
				if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
					api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
				}
			}
		}
		defer recovery()
		next(w, r, ps)
	}
}

// MaintenanceModeMiddleware short-circuits public requests with 503
// while the maintenance mode is enabled. Ops routes skip this one.
func (api *APIHandler) MaintenanceModeMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if api.mode.enabled.Load() {
			api.Maintenance(w, r, httprouter.Params{{Key: "status", Value: "show"}})
			return
		}
		next(w, r, ps)
	}
}

// SessionTokenFromRequest extracts the session token from the bearer
// authorization header, falling back to the session cookie.
func SessionTokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// SessionMiddleware resolves the caller identity once per request. A
// valid live session puts the session and its user into the request
// context. Anything else leaves the request as guest, the role checks
// happen downstream.
func (api *APIHandler) SessionMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token := SessionTokenFromRequest(r)
		if token == "" || !api.uids.IsValid(token, SessionIDPrefix) {
			next(w, r, ps)
			return
		}
		requestID := GetValueFromContext(r.Context(), ContextRequestID)
		session, err := api.store.Sessions.Get(r.Context(), token)
		if err == ErrSessionNotFound {
			next(w, r, ps)
			return
		}
		if err != nil {
			api.logger.Error("session lookup failed", zap.String("request.id", requestID), zap.Error(err))
			next(w, r, ps)
			return
		}
		user, err := api.store.Users.GetOne(r.Context(), session.UserID)
		if err != nil {
			api.logger.Error("session user lookup failed",
				zap.String("request.id", requestID),
				zap.String("user.id", session.UserID),
				zap.Error(err),
			)
			next(w, r, ps)
			return
		}
		ctx := context.WithValue(r.Context(), ContextSession, session)
		ctx = context.WithValue(ctx, ContextUser, user)
		next(w, r.WithContext(ctx), ps)
	}
}

// RequireRoleMiddleware rejects requests below the minimum role with
// 401 for guests and 403 for authenticated users of a lower role.
func (api *APIHandler) RequireRoleMiddleware(minimum Role) MiddlewareFunc {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			requestID := GetValueFromContext(r.Context(), ContextRequestID)
			user, ok := GetUserFromContext(r.Context())
			if !ok {
				errResp := NewAPIError(requestID, http.StatusUnauthorized, "authentication required", EmptyData)
				if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
					api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
				}
				return
			}
			if user.Role < minimum {
				api.logger.Warn("access denied",
					zap.String("request.id", requestID),
					zap.String("user.id", user.ID),
					zap.String("user.role", user.Role.String()),
					zap.String("request.path", r.URL.Path),
				)
				errResp := NewAPIError(requestID, http.StatusForbidden, "insufficient permissions", EmptyData)
				if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
					api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
				}
				return
			}
			next(w, r, ps)
		}
	}
}

// MiddlewaresStacks builds the middlewares stack used for the
// public-facing routes and the one used for the ops routes.
func (api *APIHandler) MiddlewaresStacks() (*Middlewares, *Middlewares) {
	middlewaresPublic := Middlewares{
		api.RequestIDMiddleware,
		api.RequestsCounterMiddleware,
		api.PanicRecoveryMiddleware,
		CORSMiddleware,
		api.MaintenanceModeMiddleware,
		api.CoreMiddleware,
		api.SessionMiddleware,
	}
	middlewaresOps := Middlewares{
		api.RequestIDMiddleware,
		api.RequestsCounterMiddleware,
		api.PanicRecoveryMiddleware,
		api.CoreMiddleware,
	}
	return &middlewaresPublic, &middlewaresOps
}

// Chain wraps a given httprouter.Handle with a list of middlewares.
// It does by starting from the last middleware from the list.
func (m *Middlewares) Chain(h httprouter.Handle) httprouter.Handle {
	if len(*m) == 0 {
		return h
	}
	lg := len(*m)
	handle := (*m)[lg-1](h)

	for i := lg - 2; i >= 0; i-- {
		handle = (*m)[i](handle)
	}

	return handle
}

package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// ViewContext is what a client needs to render any page shell: the
// resolved role, the navigation set of that role and the current path.
type ViewContext struct {
	Role       Role       `json:"role"`
	Navigation []NavEntry `json:"navigation"`
	Path       string     `json:"path"`
}

// resolveRole derives the caller role once per request from the
// session middleware outcome. No session means guest.
func resolveRole(r *http.Request) Role {
	if user, ok := GetUserFromContext(r.Context()); ok {
		return user.Role
	}
	return RoleGuest
}

// RenderView guards one client-facing path. A role mismatch answers
// with a single 303 redirect to the fallback of the guard table, a
// match answers with the view context of the page.
func (api *APIHandler) RenderView(path string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		requestID := GetValueFromContext(r.Context(), ContextRequestID)
		role := resolveRole(r)

		if target, redirect := GuardRedirect(role, path); redirect {
			api.logger.Info("view access redirected",
				zap.String("request.id", requestID),
				zap.String("view.path", path),
				zap.String("view.role", role.String()),
				zap.String("view.target", target),
			)
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}

		resp := GenericResponse(requestID, http.StatusOK, "View resolved successfully.", nil, ViewContext{
			Role:       role,
			Navigation: NavigationFor(role),
			Path:       path,
		})
		if err := WriteResponse(r.Context(), w, resp); err != nil {
			api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
		}
	}
}

// GetNavigation serves the navigation set of the caller role.
func (api *APIHandler) GetNavigation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	role := resolveRole(r)
	entries := NavigationFor(role)
	total := len(entries)
	resp := GenericResponse(requestID, http.StatusOK, "Navigation fetched successfully.", &total, entries)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

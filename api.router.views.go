package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupViewRoutes injects the guarded page-shell endpoints. Each one
// resolves the caller role, applies the guard table and either
// redirects once with 303 or serves the view context.
func (api *APIHandler) SetupViewRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true

	// public pages.
	router.GET("/", m.public(api.RenderView(PathHome)))
	router.GET("/browse", m.public(api.RenderView(PathBrowse)))
	router.GET("/about", m.public(api.RenderView(PathAbout)))
	router.GET("/contact", m.public(api.RenderView(PathContact)))

	// guest only pages.
	router.GET("/auth/login", m.public(api.RenderView(PathLogin)))
	router.GET("/auth/registration", m.public(api.RenderView(PathRegistration)))

	// user pages.
	router.GET("/dashboard", m.public(api.RenderView(PathDashboard)))
	router.GET("/dashboard/library", m.public(api.RenderView("/dashboard/library")))
	router.GET("/dashboard/tutorials", m.public(api.RenderView("/dashboard/tutorials")))
	router.GET("/profile", m.public(api.RenderView(PathProfile)))

	// admin pages.
	router.GET("/admin", m.public(api.RenderView(PathAdmin)))
	router.GET("/admin/books", m.public(api.RenderView("/admin/books")))
	router.GET("/admin/genres", m.public(api.RenderView("/admin/genres")))
	router.GET("/admin/users", m.public(api.RenderView("/admin/users")))
	router.GET("/admin/reviews", m.public(api.RenderView("/admin/reviews")))
	router.GET("/admin/tutorials", m.public(api.RenderView("/admin/tutorials")))

	return router
}

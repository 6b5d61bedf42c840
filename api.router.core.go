package main

import (
	_ "github.com/fahimmuntacher/bookworm-api/docs"
	"github.com/julienschmidt/httprouter"
	httpswagger "github.com/swaggo/http-swagger/v2"
)

// MiddlewareMap contains middlwares chain to
// use for public-facing and ops requests.
type MiddlewareMap struct {
	public func(httprouter.Handle) httprouter.Handle
	ops    func(httprouter.Handle) httprouter.Handle
}

// SetupRoutes injects api, view and ops related endpoints if required.
func (api *APIHandler) SetupRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.NotFound = api.NotFound()
	api.SetupAuthRoutes(router, m)
	api.SetupAPIRoutes(router, m)
	api.SetupViewRoutes(router, m)
	if api.config.OpsEndpointsEnable {
		api.SetupOpsRoutes(router, m)
	}
	router.GET("/swagger/", m.public(api.OpsHandlerWrapper(httpswagger.WrapHandler)))
	return router
}

// SetupAuthRoutes injects the session lifecycle endpoints.
func (api *APIHandler) SetupAuthRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.POST("/api/auth/sign-up/email", m.public(api.SignUpWithEmail))
	router.POST("/api/auth/sign-in/email", m.public(api.SignInWithEmail))
	router.POST("/api/auth/sign-out", m.public(api.SignOut))
	router.GET("/api/auth/get-session", m.public(api.GetSession))
	return router
}

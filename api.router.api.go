package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupAPIRoutes injects the platform data endpoints. The minimum role
// of each route wraps its handler so the check runs after the session
// middleware of the public chain resolved the caller.
func (api *APIHandler) SetupAPIRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	user := api.RequireRoleMiddleware(RoleUser)
	admin := api.RequireRoleMiddleware(RoleAdmin)

	router.GET("/status", m.public(api.Status))

	// catalog.
	router.GET("/api/v1/books", m.public(api.GetAllBooks))
	router.GET("/api/v1/books/:id", m.public(api.GetOneBook))
	router.POST("/api/v1/books", m.public(admin(api.CreateBook)))
	router.POST("/api/v1/books/with-cover", m.public(admin(api.CreateBookWithCover)))
	router.PUT("/api/v1/books/:id", m.public(admin(api.UpdateBook)))
	router.DELETE("/api/v1/books/:id", m.public(admin(api.DeleteOneBook)))

	// genres.
	router.GET("/api/v1/genres", m.public(api.GetAllGenres))
	router.POST("/api/v1/genres", m.public(admin(api.CreateGenre)))
	router.PUT("/api/v1/genres/:id", m.public(admin(api.UpdateGenre)))
	router.DELETE("/api/v1/genres/:id", m.public(admin(api.DeleteGenre)))

	// reviews and moderation.
	router.GET("/api/v1/reviews", m.public(api.GetBookReviews))
	router.POST("/api/v1/reviews", m.public(user(api.CreateReview)))
	router.GET("/api/v1/reviews/pending", m.public(admin(api.GetPendingReviews)))
	router.POST("/api/v1/reviews/:id/approve", m.public(admin(api.ApproveReview)))
	router.DELETE("/api/v1/reviews/:id", m.public(admin(api.DeleteReview)))

	// personal library.
	router.GET("/api/v1/library", m.public(user(api.GetMyLibrary)))
	router.POST("/api/v1/library", m.public(user(api.SaveLibraryEntry)))

	// tutorials.
	router.GET("/api/v1/tutorials", m.public(user(api.GetAllTutorials)))
	router.POST("/api/v1/tutorials", m.public(admin(api.CreateTutorial)))
	router.PUT("/api/v1/tutorials/:id", m.public(admin(api.UpdateTutorial)))
	router.DELETE("/api/v1/tutorials/:id", m.public(admin(api.DeleteTutorial)))

	// accounts.
	router.GET("/api/v1/users", m.public(admin(api.GetAllUsers)))
	router.PUT("/api/v1/users/:id/role", m.public(admin(api.UpdateUserRole)))
	router.GET("/api/v1/profile", m.public(user(api.GetProfile)))

	// aggregates.
	router.GET("/api/v1/dashboard", m.public(user(api.GetUserDashboard)))
	router.GET("/api/v1/admin/dashboard", m.public(admin(api.GetAdminDashboard)))
	router.GET("/api/v1/navigation", m.public(api.GetNavigation))

	// image uploads. Open to guests: registration uploads the avatar
	// before the account exists. Validation fails closed upstream.
	router.POST("/api/upload", m.public(api.UploadImage))
	router.GET("/uploads/:name", m.public(api.ServeUpload))

	return router
}

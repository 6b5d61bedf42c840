package main

import "strings"

// NavEntry is one navigation item offered to a client for its role.
type NavEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Client facing paths with a role requirement. Everything else is public.
const (
	PathHome         = "/"
	PathBrowse       = "/browse"
	PathAbout        = "/about"
	PathContact      = "/contact"
	PathLogin        = "/auth/login"
	PathRegistration = "/auth/registration"
	PathDashboard    = "/dashboard"
	PathAdmin        = "/admin"
	PathProfile      = "/profile"
)

// NavigationFor returns the exact ordered navigation set of a role,
// independent of the current path. The switch is exhaustive over Role.
func NavigationFor(role Role) []NavEntry {
	switch role {
	case RoleAdmin:
		return []NavEntry{
			{Name: "Overview", Path: "/admin"},
			{Name: "Books", Path: "/admin/books"},
			{Name: "Genres", Path: "/admin/genres"},
			{Name: "Users", Path: "/admin/users"},
			{Name: "Reviews", Path: "/admin/reviews"},
			{Name: "Tutorials", Path: "/admin/tutorials"},
			{Name: "Profile", Path: "/profile"},
		}
	case RoleUser:
		return []NavEntry{
			{Name: "Dashboard", Path: "/dashboard"},
			{Name: "My Library", Path: "/dashboard/library"},
			{Name: "Tutorials", Path: "/dashboard/tutorials"},
			{Name: "Profile", Path: "/profile"},
		}
	case RoleGuest:
		return []NavEntry{
			{Name: "Home", Path: "/"},
			{Name: "Browse Books", Path: "/browse"},
			{Name: "About", Path: "/about"},
			{Name: "Contact", Path: "/contact"},
			{Name: "Login", Path: "/auth/login"},
		}
	}
	return nil
}

// HomePath is the landing path of a role after sign-in or a denied access.
func HomePath(role Role) string {
	switch role {
	case RoleAdmin:
		return PathAdmin
	case RoleUser:
		return PathDashboard
	case RoleGuest:
		return PathHome
	}
	return PathHome
}

// GuardRedirect compares the resolved role against the requirement of
// the given path and returns the fallback target when they mismatch.
// The decision is made once per request; the target view re-derives
// the role itself, there is no further loop protection.
func GuardRedirect(role Role, path string) (string, bool) {
	switch {
	case strings.HasPrefix(path, PathDashboard):
		if role == RoleGuest {
			return PathLogin, true
		}
		if role != RoleUser {
			return PathAdmin, true
		}
	case strings.HasPrefix(path, PathAdmin):
		if role == RoleGuest {
			return PathLogin, true
		}
		if role != RoleAdmin {
			return PathDashboard, true
		}
	case path == PathProfile:
		if !role.IsAuthenticated() {
			return PathLogin, true
		}
	case strings.HasPrefix(path, "/auth/"):
		if role.IsAuthenticated() {
			return HomePath(role), true
		}
	}
	return "", false
}

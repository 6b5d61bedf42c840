package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"strings"
)

const (
	BookIDPrefix     string = "b"
	GenreIDPrefix    string = "g"
	ReviewIDPrefix   string = "v"
	TutorialIDPrefix string = "t"
	UserIDPrefix     string = "u"
	SessionIDPrefix  string = "s"
	UploadIDPrefix   string = "i"
	RequestIDPrefix  string = "r"

	ContextRequestID     ContextKey = "request.id"
	ContextRequestNumber ContextKey = "request.number"
	ContextSession       ContextKey = "request.session"
	ContextUser          ContextKey = "request.user"
)

type (
	ContextKey        string
	missingFieldError string
	invalidFieldError string
)

func (m missingFieldError) Error() string {
	return string(m) + " is required"
}

func (m invalidFieldError) Error() string {
	return string(m)
}

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val := ctx.Value(contextKey); val != nil {
		return val.(string)
	}
	return ""
}

// GetUserFromContext returns the authenticated user set by the session
// middleware. The boolean reports whether such user exists.
func GetUserFromContext(ctx context.Context) (User, bool) {
	if val := ctx.Value(ContextUser); val != nil {
		return val.(User), true
	}
	return User{}, false
}

// GetSessionFromContext returns the session set by the session middleware.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	if val := ctx.Value(ContextSession); val != nil {
		return val.(Session), true
	}
	return Session{}, false
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		netIP = net.ParseIP(ip)
		if netIP != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip
	}
	return ""
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory and returns a boolean result. This
// helps know if the App is running in a docker container or not.
func IsAppRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

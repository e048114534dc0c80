package auth

import (
	"net/http"
)

var MockUser = User{
	Subject: "mock.anderson",
	Name:    "Anderson, Mock",
}

// MockJWTValidatorMiddleware lets every request through as MockUser, it is
// used when authentication is disabled.
func MockJWTValidatorMiddleware() MiddlewareHandler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := MockUser
			next.ServeHTTP(w, r.WithContext(SetUser(r.Context(), &user)))
		})
	}
}

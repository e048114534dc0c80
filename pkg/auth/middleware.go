package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service/core/parser"
	"github.com/rs/zerolog"
)

type MiddlewareHandler func(http.Handler) http.Handler

type contextKey int

const ContextUserKey contextKey = 1

// User is the caller identified by a bearer token.
type User struct {
	Subject string
	Name    string
	Expiry  time.Time
}

func GetUser(ctx context.Context) *User {
	user := ctx.Value(ContextUserKey)
	if user == nil {
		return nil
	}

	return user.(*User)
}

func SetUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, user)
}

type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type Middleware struct {
	secret []byte
	parser *jwt.Parser
	log    zerolog.Logger
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op errs.Op = "auth.Middleware"

		token, err := parser.BearerTokenFromRequest(parser.HeaderAuthorization, r)
		if err != nil {
			errs.HTTPErrorResponse(w, m.log, errs.E(errs.Unauthenticated, op, err))
			return
		}

		user, err := m.validate(token)
		if err != nil {
			errs.HTTPErrorResponse(w, m.log, errs.E(errs.Unauthorized, op, err))
			return
		}

		next.ServeHTTP(w, r.WithContext(SetUser(r.Context(), user)))
	})
}

func (m *Middleware) validate(token string) (*User, error) {
	claims := &Claims{}

	_, err := m.parser.ParseWithClaims(token, claims, m.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("invalid token: missing subject")
	}

	user := &User{
		Subject: claims.Subject,
		Name:    claims.Name,
	}

	if claims.ExpiresAt != nil {
		user.Expiry = claims.ExpiresAt.Time
	}

	return user, nil
}

func (m *Middleware) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}

	return m.secret, nil
}

func NewMiddleware(secret string, log zerolog.Logger) *Middleware {
	return &Middleware{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
		log:    log,
	}
}

package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/navikt/datavask-backend/pkg/auth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "a_secret_that_is_long_enough_for_hs256"

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)

	return token
}

func TestMiddleware(t *testing.T) {
	valid := &auth.Claims{
		Name: "Ada Lovelace",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ada",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	expired := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ada",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}

	testCases := []struct {
		name       string
		header     string
		expect     int
		expectUser string
	}{
		{
			name:   "Missing header",
			expect: http.StatusUnauthorized,
		},
		{
			name:   "Not a bearer token",
			header: "Basic dXNlcjpwYXNz",
			expect: http.StatusUnauthorized,
		},
		{
			name:       "Valid token",
			header:     "Bearer " + signed(t, jwt.SigningMethodHS256, []byte(secret), valid),
			expect:     http.StatusOK,
			expectUser: "ada",
		},
		{
			name:   "Wrong secret",
			header: "Bearer " + signed(t, jwt.SigningMethodHS256, []byte("another_secret_that_is_long_enough"), valid),
			expect: http.StatusForbidden,
		},
		{
			name:   "Expired token",
			header: "Bearer " + signed(t, jwt.SigningMethodHS256, []byte(secret), expired),
			expect: http.StatusForbidden,
		},
		{
			name:   "Wrong signing method",
			header: "Bearer " + signed(t, jwt.SigningMethodHS512, []byte(secret), valid),
			expect: http.StatusForbidden,
		},
		{
			name: "Missing subject",
			header: "Bearer " + signed(t, jwt.SigningMethodHS256, []byte(secret), &auth.Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
			}),
			expect: http.StatusForbidden,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var gotUser *auth.User

			h := auth.NewMiddleware(secret, zerolog.Nop()).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = auth.GetUser(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/datasets", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tc.expect, rr.Code)

			if tc.expectUser != "" {
				require.NotNil(t, gotUser)
				assert.Equal(t, tc.expectUser, gotUser.Subject)
				assert.Equal(t, "Ada Lovelace", gotUser.Name)
			} else {
				assert.Nil(t, gotUser)
			}
		})
	}
}

func TestMockJWTValidatorMiddleware(t *testing.T) {
	var gotUser *auth.User

	h := auth.MockJWTValidatorMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = auth.GetUser(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, gotUser)
	assert.Equal(t, auth.MockUser.Subject, gotUser.Subject)
}

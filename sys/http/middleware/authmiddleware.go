package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"cleanbuddy-fulfillment/res/auth"
	"cleanbuddy-fulfillment/res/store"
)

// SESSION USER GETTER

type contextKey string

var contextKeyCurrentUser = contextKey("currentUser")

func GetCurrentUser(ctx context.Context) *store.User {
	if val := ctx.Value(contextKeyCurrentUser); val != nil {
		if currentUser, ok := val.(*store.User); ok {
			return currentUser
		}
	}

	return nil
}

func WithCurrentUser(ctx context.Context, user *store.User) context.Context {
	return context.WithValue(ctx, contextKeyCurrentUser, user)
}

// AUTH MIDDLEWARE

const (
	authUnauthenticatedCode = "UNAUTHENTICATED"
	authForbiddenCode       = "FORBIDDEN"
)

var (
	ErrInvalidToken  = errors.New("invalid access token")
	ErrUserSuspended = errors.New("user is suspended")
)

// UserFromToken resolves the user an access token was issued to
func UserFromToken(ctx context.Context, storeImpl store.Store, authImpl auth.Auth, token string) (*store.User, error) {
	var accessTokenClaims auth.AccessTokenClaims
	if err := authImpl.ValidateToken(token, &accessTokenClaims); err != nil || !accessTokenClaims.IsAccessToken {
		return nil, ErrInvalidToken
	}

	currentUser, err := storeImpl.Users().Get(ctx, accessTokenClaims.UserID)
	if err != nil || currentUser == nil {
		return nil, ErrInvalidToken
	}
	if !currentUser.IsActive() {
		return nil, ErrUserSuspended
	}
	return currentUser, nil
}

// AuthMiddleware attaches the bearer token's user to the request context.
// Requests without an Authorization header pass through anonymously.
func AuthMiddleware(logger *log.Logger, storeImpl store.Store, authImpl auth.Auth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headerVal := r.Header.Get("Authorization")

			if len(headerVal) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			headerValParts := strings.Split(headerVal, " ")
			if len(headerValParts) != 2 || !strings.EqualFold(headerValParts[0], "Bearer") {
				emit(logger, w, http.StatusUnauthorized, authUnauthenticatedCode, "Malformed Authorization header")
				return
			}

			currentUser, err := UserFromToken(r.Context(), storeImpl, authImpl, headerValParts[1])
			if errors.Is(err, ErrUserSuspended) {
				emit(logger, w, http.StatusForbidden, authForbiddenCode, "User is suspended")
				return
			} else if err != nil {
				emit(logger, w, http.StatusUnauthorized, authUnauthenticatedCode, "Invalid Authorization header")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCurrentUser(r.Context(), currentUser)))
		})
	}
}

// QueryTokenMiddleware lets requests to path carry the access token in the
// access_token query parameter. Browsers cannot set headers on websocket upgrades.
func QueryTokenMiddleware(path string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == path && r.Header.Get("Authorization") == "" {
				if token := r.URL.Query().Get("access_token"); token != "" {
					r.Header.Set("Authorization", "Bearer "+token)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser rejects anonymous requests
func RequireUser(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetCurrentUser(r.Context()) == nil {
				emit(logger, w, http.StatusUnauthorized, authUnauthenticatedCode, "Authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func emit(logger *log.Logger, w http.ResponseWriter, status int, code, message string) {
	if err := EmitErrorResponse(w, status, ErrorBody{Code: code, Message: message}); err != nil {
		logger.Printf("Error serializing error response: %s", err)
	}
}

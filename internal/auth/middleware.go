package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey int

const (
	claimsContextKey contextKey = iota
	accountContextKey
)

// Failure reasons passed to onFail hooks.
const (
	ReasonMissingToken   = "missing_token"
	ReasonInvalidToken   = "invalid_token"
	ReasonUnknownAccount = "unknown_account"
	ReasonForbidden      = "forbidden"
)

const (
	msgUnauthorized = "Token not provided or not valid"
	msgAdminOnly    = "Admin access required."
)

// ContextWithClaims returns a new context carrying the given token claims.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext extracts the claims from the context, or nil if not present.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey).(*Claims)
	return claims
}

// ContextWithAccount returns a new context carrying the given live account.
func ContextWithAccount(ctx context.Context, account *Account) context.Context {
	return context.WithValue(ctx, accountContextKey, account)
}

// AccountFromContext extracts the account from the context, or nil if not present.
func AccountFromContext(ctx context.Context) *Account {
	account, _ := ctx.Value(accountContextKey).(*Account)
	return account
}

// Authenticate returns middleware that requires an `Authorization: Bearer
// <token>` header carrying a valid session token. Every failure gets the same
// 401 body so expired and forged tokens are indistinguishable to the caller.
func Authenticate(tokens TokenDecoder, onFail ...func(reason string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearerToken(r)
			if raw == "" {
				fail(onFail, ReasonMissingToken)
				writeUnauthorized(w)
				return
			}

			claims, err := tokens.Decode(raw)
			if err != nil {
				fail(onFail, ReasonInvalidToken)
				writeUnauthorized(w)
				return
			}

			ctx := ContextWithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAccount loads the caller's current account. A token whose user has
// since been deleted is rejected with 401.
func RequireAccount(accounts AccountLookup, onFail ...func(reason string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, ok := loadAccount(w, r, accounts, onFail)
			if !ok {
				return
			}
			ctx := ContextWithAccount(r.Context(), account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns middleware that allows only accounts holding role. The
// role is read from the live account, never from the token.
func RequireRole(role Role, accounts AccountLookup, onFail ...func(reason string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, ok := loadAccount(w, r, accounts, onFail)
			if !ok {
				return
			}
			if account.Role != role {
				fail(onFail, ReasonForbidden)
				writeMessage(w, http.StatusForbidden, msgAdminOnly)
				return
			}
			ctx := ContextWithAccount(r.Context(), account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func loadAccount(w http.ResponseWriter, r *http.Request, accounts AccountLookup, onFail []func(string)) (*Account, bool) {
	if account := AccountFromContext(r.Context()); account != nil {
		return account, true
	}

	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		fail(onFail, ReasonMissingToken)
		writeUnauthorized(w)
		return nil, false
	}

	account, err := accounts.LookupAccount(r.Context(), claims.CompanyID, claims.UserID)
	switch {
	case errors.Is(err, ErrUnknownAccount):
		fail(onFail, ReasonUnknownAccount)
		writeUnauthorized(w)
		return nil, false
	case err != nil:
		slog.Error("looking up account", "user_id", claims.UserID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return nil, false
	}
	return account, true
}

// extractBearerToken returns the token of an `Authorization: Bearer <token>`
// header. Any other shape yields "".
func extractBearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" || strings.ContainsAny(token, " \t") {
		return ""
	}
	return token
}

func fail(hooks []func(string), reason string) {
	for _, fn := range hooks {
		fn(reason)
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeUnauthorized(w http.ResponseWriter) {
	writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(messageResponse{Message: message})
}

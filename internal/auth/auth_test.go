package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-0123456789abcdef"

// --- mock lookup ---

type mockAccountLookup struct {
	accounts map[uuid.UUID]*Account
	err      error
	calls    int
}

func (m *mockAccountLookup) LookupAccount(ctx context.Context, companyID, userID uuid.UUID) (*Account, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.accounts[userID]
	if !ok || a.CompanyID != companyID {
		return nil, ErrUnknownAccount
	}
	return a, nil
}

func fixedCodec(at time.Time) *TokenCodec {
	c := NewTokenCodec(testSecret, DefaultTokenTTL)
	c.now = func() time.Time { return at }
	return c
}

func testClaims() Claims {
	return Claims{
		UserID:    uuid.New(),
		Email:     "a@x.com",
		FirstName: "A",
		LastName:  "B",
		CompanyID: uuid.New(),
	}
}

// --- password tests ---

func TestHashPassword_Salted(t *testing.T) {
	h1, err := HashPassword("Abcdef12", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	h2, err := HashPassword("Abcdef12", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if h1 == h2 {
		t.Error("expected different hashes for equal inputs")
	}
	if !VerifyPassword("Abcdef12", h1) || !VerifyPassword("Abcdef12", h2) {
		t.Error("expected both hashes to verify")
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Abcdef12", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}

	tests := []struct {
		name  string
		plain string
		hash  string
		want  bool
	}{
		{"match", "Abcdef12", hash, true},
		{"wrong password", "Abcdef13", hash, false},
		{"empty hash", "Abcdef12", "", false},
		{"malformed hash", "Abcdef12", "not-a-bcrypt-hash", false},
		{"truncated hash", "Abcdef12", hash[:20], false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyPassword(tt.plain, tt.hash); got != tt.want {
				t.Errorf("VerifyPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

// --- token tests ---

func TestTokenRoundTrip(t *testing.T) {
	issued := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	codec := fixedCodec(issued)
	in := testClaims()

	raw, err := codec.Issue(in)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	got, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got.UserID != in.UserID || got.CompanyID != in.CompanyID || got.Email != in.Email {
		t.Errorf("claims mismatch: got %+v", got)
	}
	if got.FirstName != "A" || got.LastName != "B" {
		t.Errorf("names mismatch: got %q %q", got.FirstName, got.LastName)
	}
	if !got.ExpiresAt.Time.Equal(issued.Add(6 * time.Hour)) {
		t.Errorf("expected expiry %v, got %v", issued.Add(6*time.Hour), got.ExpiresAt.Time)
	}
}

func TestTokenExpiryBoundary(t *testing.T) {
	issued := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	codec := fixedCodec(issued)
	raw, err := codec.Issue(testClaims())
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	tests := []struct {
		name    string
		at      time.Time
		wantErr bool
	}{
		{"at issuance", issued, false},
		{"one hour in", issued.Add(time.Hour), false},
		{"exactly six hours", issued.Add(6 * time.Hour), false},
		{"one second past", issued.Add(6*time.Hour + time.Second), true},
		{"a day later", issued.Add(24 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec.now = func() time.Time { return tt.at }
			_, err := codec.Decode(raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestTokenExpiryFractionalIssue(t *testing.T) {
	issued := time.Date(2024, 1, 1, 10, 0, 0, 900_000_000, time.UTC)
	codec := fixedCodec(issued)
	raw, err := codec.Issue(testClaims())
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	tests := []struct {
		name    string
		at      time.Time
		wantErr bool
	}{
		{"half a second before six hours", issued.Add(6*time.Hour - 500*time.Millisecond), false},
		{"exactly six hours", issued.Add(6 * time.Hour), false},
		{"past the rounded expiry", issued.Add(6*time.Hour + time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec.now = func() time.Time { return tt.at }
			if _, err := codec.Decode(raw); (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeRejectsUntrustedTokens(t *testing.T) {
	now := time.Now()
	codec := fixedCodec(now)
	claims := testClaims()

	valid, err := codec.Issue(claims)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	other := NewTokenCodec("a-completely-different-secret", DefaultTokenTTL)
	wrongSecret, err := other.Issue(claims)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	claims.ExpiresAt = jwt.NewNumericDate(now.Add(time.Hour))
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none token: %v", err)
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing HS512 token: %v", err)
	}

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	noExpiry := claims
	noExpiry.RegisteredClaims = jwt.RegisteredClaims{}
	unbounded, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noExpiry).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", wrongSecret},
		{"alg none", none},
		{"different algorithm", hs512},
		{"tampered payload", tampered},
		{"no expiry", unbounded},
		{"garbage", "not.a.token"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

// --- context helpers ---

func TestClaimsContext_RoundTrip(t *testing.T) {
	claims := testClaims()
	ctx := ContextWithClaims(context.Background(), &claims)
	if got := ClaimsFromContext(ctx); got == nil || got.UserID != claims.UserID {
		t.Fatalf("expected claims from context, got %+v", got)
	}
}

func TestClaimsFromContext_Empty(t *testing.T) {
	if got := ClaimsFromContext(context.Background()); got != nil {
		t.Errorf("expected nil from empty context, got %+v", got)
	}
}

// --- Authenticate tests ---

func TestAuthenticate(t *testing.T) {
	codec := NewTokenCodec(testSecret, DefaultTokenTTL)
	token, err := codec.Issue(testClaims())
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ClaimsFromContext(r.Context()) == nil {
			t.Error("expected claims in context inside handler")
		}
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantReason string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, ReasonMissingToken},
		{"wrong scheme", "Token " + token, http.StatusUnauthorized, ReasonMissingToken},
		{"lowercase scheme", "bearer " + token, http.StatusUnauthorized, ReasonMissingToken},
		{"bearer only", "Bearer", http.StatusUnauthorized, ReasonMissingToken},
		{"bearer with empty token", "Bearer ", http.StatusUnauthorized, ReasonMissingToken},
		{"extra segment", "Bearer " + token + " extra", http.StatusUnauthorized, ReasonMissingToken},
		{"invalid token", "Bearer abc.def.ghi", http.StatusUnauthorized, ReasonInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()

			var reason string
			handler := Authenticate(codec, func(r string) { reason = r })(okHandler)
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if reason != tt.wantReason {
				t.Errorf("expected reason %q, got %q", tt.wantReason, reason)
			}
			if tt.wantStatus != http.StatusOK {
				assertJSONMessage(t, rr, msgUnauthorized)
			}
		})
	}
}

// --- RequireRole / RequireAccount tests ---

func TestRequireRole(t *testing.T) {
	companyID := uuid.New()
	admin := &Account{ID: uuid.New(), CompanyID: companyID, Role: RoleAdmin}
	member := &Account{ID: uuid.New(), CompanyID: companyID, Role: RoleUser}
	lookup := &mockAccountLookup{accounts: map[uuid.UUID]*Account{
		admin.ID:  admin,
		member.ID: member,
	}}

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if AccountFromContext(r.Context()) == nil {
			t.Error("expected account in context inside handler")
		}
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		claims     *Claims
		wantStatus int
		wantMsg    string
	}{
		{"admin passes", &Claims{UserID: admin.ID, CompanyID: companyID}, http.StatusOK, ""},
		{"member forbidden", &Claims{UserID: member.ID, CompanyID: companyID}, http.StatusForbidden, msgAdminOnly},
		{"deleted user", &Claims{UserID: uuid.New(), CompanyID: companyID}, http.StatusUnauthorized, msgUnauthorized},
		{"other company", &Claims{UserID: admin.ID, CompanyID: uuid.New()}, http.StatusUnauthorized, msgUnauthorized},
		{"no claims", nil, http.StatusUnauthorized, msgUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/users/x", nil)
			if tt.claims != nil {
				req = req.WithContext(ContextWithClaims(req.Context(), tt.claims))
			}
			rr := httptest.NewRecorder()

			RequireRole(RoleAdmin, lookup)(okHandler).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if tt.wantMsg != "" {
				assertJSONMessage(t, rr, tt.wantMsg)
			}
		})
	}
}

func TestRequireRole_ReusesLoadedAccount(t *testing.T) {
	companyID := uuid.New()
	admin := &Account{ID: uuid.New(), CompanyID: companyID, Role: RoleAdmin}
	lookup := &mockAccountLookup{accounts: map[uuid.UUID]*Account{admin.ID: admin}}

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := RequireAccount(lookup)(RequireRole(RoleAdmin, lookup)(ok))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithClaims(req.Context(), &Claims{UserID: admin.ID, CompanyID: companyID}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if lookup.calls != 1 {
		t.Errorf("expected a single lookup, got %d", lookup.calls)
	}
}

func TestRequireAccount_LookupError(t *testing.T) {
	lookup := &mockAccountLookup{err: errors.New("connection refused")}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithClaims(req.Context(), &Claims{UserID: uuid.New(), CompanyID: uuid.New()}))
	rr := httptest.NewRecorder()
	RequireAccount(lookup)(ok).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "connection refused") {
		t.Error("internal error detail leaked to client")
	}
}

// assertJSONMessage checks that the response body is {"message": want}.
func assertJSONMessage(t *testing.T, rr *httptest.ResponseRecorder, want string) {
	t.Helper()

	ct := rr.Header().Get("Content-Type")
	if !strings.Contains(ct, "application/json") {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}

	var resp messageResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Message != want {
		t.Errorf("expected message %q, got %q", want, resp.Message)
	}
}

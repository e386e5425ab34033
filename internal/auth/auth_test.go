package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newTestAuthenticator(t *testing.T, password string) *Authenticator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}
	return New("test-secret", 15*time.Minute, string(hash))
}

func TestIssueAndVerify(t *testing.T) {
	a := newTestAuthenticator(t, "hunter2")

	token, expiresAt, err := a.IssueToken("hunter2")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("expiresAt = %v, want future", expiresAt)
	}

	claims, err := a.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Subject != "admin" {
		t.Errorf("Subject = %q, want admin", claims.Subject)
	}
}

func TestIssueToken_WrongPassword(t *testing.T) {
	a := newTestAuthenticator(t, "hunter2")

	if _, _, err := a.IssueToken("wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("IssueToken(wrong) error = %v, want ErrInvalidCredentials", err)
	}
}

func TestIssueToken_Disabled(t *testing.T) {
	a := New("secret", time.Minute, "")
	if a.Enabled() {
		t.Fatal("Enabled() = true without a hash")
	}
	if _, _, err := a.IssueToken("anything"); !errors.Is(err, ErrDisabled) {
		t.Errorf("IssueToken() error = %v, want ErrDisabled", err)
	}
}

func TestVerify_Rejects(t *testing.T) {
	a := newTestAuthenticator(t, "hunter2")
	token, _, err := a.IssueToken("hunter2")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	other := newTestAuthenticator(t, "hunter2")
	other.secret = []byte("different-secret")

	expired := newTestAuthenticator(t, "hunter2")
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expiredToken, _, err := expired.IssueToken("hunter2")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	tests := []struct {
		name  string
		a     *Authenticator
		token string
	}{
		{"empty", a, ""},
		{"garbage", a, "not.a.jwt"},
		{"wrong secret", other, token},
		{"expired", a, expiredToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.a.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"Basic dXNlcjpwYXNz", ""},
		{"", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		if got := BearerToken(r); got != tt.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

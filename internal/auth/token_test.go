package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/coally/coally-api/internal/model"
)

func testUser() *model.User {
	return &model.User{
		ID:           "01HZX0000000000000000000AA",
		Username:     "alice",
		Email:        "alice@x.com",
		PasswordHash: "$2a$10$hash",
		Token:        "old",
	}
}

func TestTokenIssuer_SignParse(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Sign(testUser())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if claims.User.ID != "01HZX0000000000000000000AA" {
		t.Errorf("user id = %q", claims.User.ID)
	}
	if claims.Subject != claims.User.ID {
		t.Errorf("sub = %q, want user id", claims.Subject)
	}
	if claims.User.Username != "alice" || claims.User.Email != "alice@x.com" {
		t.Errorf("unexpected user claim: %+v", claims.User)
	}

	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != time.Hour {
		t.Errorf("exp - iat = %v, want 1h", ttl)
	}
}

func TestTokenIssuer_ClaimsExcludeSecrets(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("secret", 0)
	token, err := issuer.Sign(testUser())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	parser := jwt.NewParser()
	raw := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, raw); err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}

	user, ok := raw["user"].(map[string]any)
	if !ok {
		t.Fatalf("user claim missing: %v", raw)
	}
	for _, key := range []string{"password", "PasswordHash", "token", "Token"} {
		if _, present := user[key]; present {
			t.Errorf("user claim must not contain %q", key)
		}
	}
	if user["_id"] != "01HZX0000000000000000000AA" {
		t.Errorf("user._id = %v", user["_id"])
	}
}

func TestTokenIssuer_DefaultTTL(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("secret", 0)
	if issuer.TTL() != 28*24*time.Hour {
		t.Errorf("TTL() = %v, want 28 days", issuer.TTL())
	}
}

func TestTokenIssuer_UniquePerSign(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("secret", time.Hour)
	a, _ := issuer.Sign(testUser())
	b, _ := issuer.Sign(testUser())
	if a == b {
		t.Error("consecutive tokens should differ")
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	token, err := issuer.Sign(testUser())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	issuer.now = time.Now
	if _, err := issuer.Parse(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Parse expired = %v, want ErrTokenExpired", err)
	}
}

func TestTokenIssuer_Invalid(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)
	foreign, _ := other.Sign(testUser())

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		User: TokenUser{ID: "x"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		User: TokenUser{ID: "x"},
	}).SignedString([]byte("secret"))

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrTokenMissing},
		{"garbage", "not.a.jwt", ErrTokenInvalid},
		{"wrong secret", foreign, ErrTokenInvalid},
		{"alg none", noneToken, ErrTokenInvalid},
		{"missing user claim", noUser, ErrTokenInvalid},
		{"missing exp", noExp, ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := issuer.Parse(tt.token)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExtractToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
	}{
		{"abc.def.ghi", "abc.def.ghi"},
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc.def.ghi", "abc.def.ghi"},
		{"  abc.def.ghi  ", "abc.def.ghi"},
		{"", ""},
		{"Bearer", "Bearer"},
	}

	for _, tt := range tests {
		if got := ExtractToken(tt.header); got != tt.want {
			t.Errorf("ExtractToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestExtractToken_NoSchemeNotStripped(t *testing.T) {
	t.Parallel()

	if got := ExtractToken("Basic abc"); !strings.HasPrefix(got, "Basic") {
		t.Errorf("non-bearer scheme should be kept verbatim, got %q", got)
	}
}

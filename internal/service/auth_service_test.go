package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"heater_controller/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const testSigningKey = "test-signing-key"

func newTestAuth(repo *memUserRepo) *AuthService {
	return NewAuthService(repo, AuthOptions{SigningKey: testSigningKey, TokenTTL: time.Hour, AllowSignUp: true})
}

// memUserRepo keeps users in a map keyed by name.
type memUserRepo struct {
	users   map[string]models.User
	err     error
	creates int
}

func newMemUserRepo() *memUserRepo { return &memUserRepo{users: map[string]models.User{}} }

func (m *memUserRepo) Create(_ context.Context, username, hash string) (int, error) {
	m.creates++
	if m.err != nil {
		return 0, m.err
	}
	if _, ok := m.users[username]; ok {
		return 0, ErrUserExists
	}
	id := len(m.users) + 1
	m.users[username] = models.User{ID: id, Username: username, PasswordHash: hash}
	return id, nil
}

func (m *memUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func TestAuthService_SignUpThenSignIn(t *testing.T) {
	repo := newMemUserRepo()
	svc := newTestAuth(repo)
	ctx := context.Background()

	id, err := svc.SignUp(ctx, " owner ", "s3cr3t")
	if err != nil || id != 1 {
		t.Fatalf("SignUp = %d, %v", id, err)
	}
	stored := repo.users["owner"]
	if stored.PasswordHash == "s3cr3t" || bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cr3t")) != nil {
		t.Fatalf("password not stored as a bcrypt hash: %q", stored.PasswordHash)
	}

	token, err := svc.GenerateToken(ctx, "owner", "s3cr3t")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if uid, err := svc.ParseToken(token); err != nil || uid != id {
		t.Fatalf("ParseToken = %d, %v", uid, err)
	}

	if _, err := svc.SignUp(ctx, "owner", "again"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("duplicate sign-up: %v", err)
	}
}

func TestAuthService_SignUpRejected(t *testing.T) {
	cases := []struct {
		name     string
		opts     AuthOptions
		user, pw string
		repoErr  error
		want     error
		creates  int
	}{
		{name: "disabled", opts: AuthOptions{SigningKey: testSigningKey}, user: "u", pw: "p", want: ErrSignUpDisabled},
		{name: "blank_username", opts: AuthOptions{AllowSignUp: true}, user: "  ", pw: "p", want: ErrEmptyUsername},
		{name: "blank_password", opts: AuthOptions{AllowSignUp: true}, user: "u", pw: "   "},
		{name: "repo_failure", opts: AuthOptions{AllowSignUp: true}, user: "u", pw: "p", repoErr: errors.New("database is locked"), creates: 1},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			repo := newMemUserRepo()
			repo.err = tc.repoErr
			_, err := NewAuthService(repo, tc.opts).SignUp(context.Background(), tc.user, tc.pw)
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if repo.creates != tc.creates {
				t.Fatalf("Create called %d times, want %d", repo.creates, tc.creates)
			}
		})
	}
}

func TestAuthService_GenerateTokenRejected(t *testing.T) {
	hash, err := hashPassword("correct")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	repo := newMemUserRepo()
	repo.users["eve"] = models.User{ID: 1, Username: "eve", PasswordHash: hash}
	svc := newTestAuth(repo)

	if _, err := svc.GenerateToken(context.Background(), "eve", "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := svc.GenerateToken(context.Background(), "ghost", "pw"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user: %v", err)
	}
	repo.err = errors.New("query failed")
	if _, err := svc.GenerateToken(context.Background(), "eve", "correct"); err == nil {
		t.Fatalf("repo error swallowed")
	}
}

func signClaims(t *testing.T, method jwt.SigningMethod, key any, claims *Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return s
}

func TestAuthService_ParseTokenRejects(t *testing.T) {
	svc := newTestAuth(newMemUserRepo())
	now := time.Now()
	valid := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		}
	}
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey: %v", err)
	}

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))
	foreign := valid()
	foreign.Issuer = "someone-else"
	noExpiry := valid()
	noExpiry.ExpiresAt = nil

	cases := map[string]string{
		"malformed":     "not-a-jwt",
		"other_key":     signClaims(t, jwt.SigningMethodHS256, []byte("different-key"), &Claims{RegisteredClaims: valid(), UserID: 5}),
		"expired":       signClaims(t, jwt.SigningMethodHS256, []byte(testSigningKey), &Claims{RegisteredClaims: expired, UserID: 5}),
		"other_issuer":  signClaims(t, jwt.SigningMethodHS256, []byte(testSigningKey), &Claims{RegisteredClaims: foreign, UserID: 5}),
		"no_expiry":     signClaims(t, jwt.SigningMethodHS256, []byte(testSigningKey), &Claims{RegisteredClaims: noExpiry, UserID: 5}),
		"rs256":         signClaims(t, jwt.SigningMethodRS256, rsaKey, &Claims{RegisteredClaims: valid(), UserID: 5}),
		"hs512_samekey": signClaims(t, jwt.SigningMethodHS512, []byte(testSigningKey), &Claims{RegisteredClaims: valid(), UserID: 5}),
	}
	for name, token := range cases {
		if uid, err := svc.ParseToken(token); err == nil {
			t.Errorf("%s: accepted with uid %d", name, uid)
		}
	}

	ok := signClaims(t, jwt.SigningMethodHS256, []byte(testSigningKey), &Claims{RegisteredClaims: valid(), UserID: 5})
	if uid, err := svc.ParseToken(ok); err != nil || uid != 5 {
		t.Fatalf("valid token: %d, %v", uid, err)
	}
}

func TestAuthService_RandomKeyWhenUnset(t *testing.T) {
	a := NewAuthService(newMemUserRepo(), AuthOptions{})
	b := NewAuthService(newMemUserRepo(), AuthOptions{})

	token, err := a.issueToken(3)
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	if uid, err := a.ParseToken(token); err != nil || uid != 3 {
		t.Fatalf("own token rejected: uid=%d err=%v", uid, err)
	}
	if _, err := b.ParseToken(token); err == nil {
		t.Fatalf("token accepted by a service with a different random key")
	}
	if a.tokenTTL != defaultTokenTTL {
		t.Fatalf("tokenTTL = %v, want %v", a.tokenTTL, defaultTokenTTL)
	}
}

package services

import (
  "context"
  "errors"
  "path/filepath"
  "testing"
  "time"

  "gorm.io/driver/sqlite"
  "gorm.io/gorm"

  "github.com/smartsaarthi/saarthi-backend/internal/logger"
  "github.com/smartsaarthi/saarthi-backend/internal/repos"
  "github.com/smartsaarthi/saarthi-backend/internal/types"
)

type fakeRevoker struct {
  revoked map[string]bool
  err     error
}

func (f *fakeRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
  if f.err != nil {
    return f.err
  }
  if f.revoked == nil {
    f.revoked = map[string]bool{}
  }
  f.revoked[jti] = true
  return nil
}

func (f *fakeRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
  if f.err != nil {
    return false, f.err
  }
  return f.revoked[jti], nil
}

func newAuthTestService(t *testing.T, revoker TokenRevoker) AuthService {
  t.Helper()
  gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
  if err != nil {
    t.Fatalf("failed to open test db: %v", err)
  }
  if err := gdb.AutoMigrate(&types.User{}); err != nil {
    t.Fatalf("failed to migrate test db: %v", err)
  }
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("failed to init logger: %v", err)
  }
  userRepo := repos.NewUserRepo(gdb, log)
  return NewAuthService(gdb, log, userRepo, revoker, "test-secret", time.Hour)
}

func TestSignUpThenSignIn(t *testing.T) {
  svc := newAuthTestService(t, nil)

  user, token, err := svc.SignUp(context.Background(), "Rider@Example.com", "Rider", "hunter22")
  if err != nil {
    t.Fatalf("signup: %v", err)
  }
  if token == "" {
    t.Fatalf("signup returned empty token")
  }
  if user.Email != "rider@example.com" {
    t.Fatalf("expected normalized email, got %q", user.Email)
  }
  if user.PasswordHash == "hunter22" || user.PasswordHash == "" {
    t.Fatalf("password stored unhashed")
  }

  // signin accepts the same credentials regardless of email casing
  again, token2, err := svc.SignIn(context.Background(), "RIDER@example.COM", "hunter22")
  if err != nil {
    t.Fatalf("signin: %v", err)
  }
  if again.ID != user.ID || token2 == "" {
    t.Fatalf("signin returned wrong user or empty token")
  }
}

func TestSignUpDuplicateEmailConflicts(t *testing.T) {
  svc := newAuthTestService(t, nil)

  if _, _, err := svc.SignUp(context.Background(), "dup@example.com", "One", "pw-one"); err != nil {
    t.Fatalf("first signup: %v", err)
  }
  if _, _, err := svc.SignUp(context.Background(), "DUP@example.com", "Two", "pw-two"); !errors.Is(err, ErrConflict) {
    t.Fatalf("expected conflict for duplicate email, got %v", err)
  }
}

func TestSignUpRejectsMissingFields(t *testing.T) {
  svc := newAuthTestService(t, nil)

  cases := [][3]string{
    {"", "Name", "pw"},
    {"a@b.com", "", "pw"},
    {"a@b.com", "Name", ""},
  }
  for _, c := range cases {
    if _, _, err := svc.SignUp(context.Background(), c[0], c[1], c[2]); !errors.Is(err, ErrValidation) {
      t.Fatalf("expected validation error for %v, got %v", c, err)
    }
  }
}

func TestSignInFailuresAreIndistinguishable(t *testing.T) {
  svc := newAuthTestService(t, nil)
  if _, _, err := svc.SignUp(context.Background(), "real@example.com", "Real", "correct-pw"); err != nil {
    t.Fatalf("signup: %v", err)
  }

  _, _, unknownErr := svc.SignIn(context.Background(), "ghost@example.com", "whatever")
  _, _, wrongErr := svc.SignIn(context.Background(), "real@example.com", "wrong-pw")

  if !errors.Is(unknownErr, ErrInvalidCredentials) || !errors.Is(wrongErr, ErrInvalidCredentials) {
    t.Fatalf("expected invalid credentials twice, got %v and %v", unknownErr, wrongErr)
  }
  if unknownErr.Error() != wrongErr.Error() {
    t.Fatalf("unknown-email and wrong-password errors differ: %q vs %q", unknownErr, wrongErr)
  }
}

func TestVerifyTokenRoundTrip(t *testing.T) {
  svc := newAuthTestService(t, nil)

  user, token, err := svc.SignUp(context.Background(), "verify@example.com", "Verifier", "pw")
  if err != nil {
    t.Fatalf("signup: %v", err)
  }

  identity, err := svc.VerifyToken(context.Background(), token)
  if err != nil {
    t.Fatalf("verify: %v", err)
  }
  if identity.UserID != user.ID {
    t.Fatalf("expected subject %s, got %s", user.ID, identity.UserID)
  }
  if identity.Name != "Verifier" || identity.TokenID == "" {
    t.Fatalf("unexpected identity: %+v", identity)
  }
  if identity.ExpiresAt.Before(time.Now()) {
    t.Fatalf("token expiry in the past: %v", identity.ExpiresAt)
  }
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
  svc := newAuthTestService(t, nil)

  for _, token := range []string{"", "not-a-jwt", "aaa.bbb.ccc"} {
    if _, err := svc.VerifyToken(context.Background(), token); !errors.Is(err, ErrUnauthorized) {
      t.Fatalf("expected unauthorized for %q, got %v", token, err)
    }
  }
}

func TestVerifyTokenRejectsForeignSignature(t *testing.T) {
  issuer := newAuthTestService(t, nil)
  verifier := newAuthTestService(t, nil)

  _, token, err := issuer.SignUp(context.Background(), "foreign@example.com", "F", "pw")
  if err != nil {
    t.Fatalf("signup: %v", err)
  }
  other := verifier.(*authService)
  other.jwtSecretKey = "a-different-secret"
  if _, vErr := other.VerifyToken(context.Background(), token); !errors.Is(vErr, ErrUnauthorized) {
    t.Fatalf("expected unauthorized for foreign signature, got %v", vErr)
  }
}

func TestSignOutRevokesToken(t *testing.T) {
  revoker := &fakeRevoker{}
  svc := newAuthTestService(t, revoker)

  _, token, err := svc.SignUp(context.Background(), "out@example.com", "Out", "pw")
  if err != nil {
    t.Fatalf("signup: %v", err)
  }
  identity, err := svc.VerifyToken(context.Background(), token)
  if err != nil {
    t.Fatalf("verify before signout: %v", err)
  }
  if err := svc.SignOut(context.Background(), identity); err != nil {
    t.Fatalf("signout: %v", err)
  }
  if _, err := svc.VerifyToken(context.Background(), token); !errors.Is(err, ErrUnauthorized) {
    t.Fatalf("expected revoked token to be rejected, got %v", err)
  }
}

func TestSignOutWithoutRevokerSucceeds(t *testing.T) {
  svc := newAuthTestService(t, nil)

  _, token, err := svc.SignUp(context.Background(), "norev@example.com", "N", "pw")
  if err != nil {
    t.Fatalf("signup: %v", err)
  }
  identity, _ := svc.VerifyToken(context.Background(), token)
  if err := svc.SignOut(context.Background(), identity); err != nil {
    t.Fatalf("signout without revoker should succeed, got %v", err)
  }
  // without a revoker the token simply rides out its TTL
  if _, err := svc.VerifyToken(context.Background(), token); err != nil {
    t.Fatalf("token should remain valid without a revoker, got %v", err)
  }
}

func TestVerifyTokenFailsClosedOnRevokerError(t *testing.T) {
  revoker := &fakeRevoker{err: errors.New("redis down")}
  svc := newAuthTestService(t, nil)
  _, token, err := svc.SignUp(context.Background(), "closed@example.com", "C", "pw")
  if err != nil {
    t.Fatalf("signup: %v", err)
  }
  svc.(*authService).revoker = revoker
  if _, vErr := svc.VerifyToken(context.Background(), token); !errors.Is(vErr, ErrUnauthorized) {
    t.Fatalf("expected unauthorized when revocation check fails, got %v", vErr)
  }
}

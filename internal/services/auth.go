package services

import (
  "context"
  "errors"
  "fmt"
  "time"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/smartsaarthi/saarthi-backend/internal/logger"
  "github.com/smartsaarthi/saarthi-backend/internal/repos"
  "github.com/smartsaarthi/saarthi-backend/internal/types"
  "github.com/smartsaarthi/saarthi-backend/internal/utils"
)

type JWTClaims struct {
  jwt.RegisteredClaims
  Name string `json:"name,omitempty"`
}

// TokenIdentity is what a verified session token resolves to.
type TokenIdentity struct {
  UserID  uuid.UUID
  Name    string
  TokenID string
  // ExpiresAt is the token expiry; SignOut revokes the jti for exactly the
  // remaining life.
  ExpiresAt time.Time
}

type AuthService interface {
  SignUp(ctx context.Context, email, name, password string) (*types.User, string, error)
  SignIn(ctx context.Context, email, password string) (*types.User, string, error)
  SignOut(ctx context.Context, identity *TokenIdentity) error
  VerifyToken(ctx context.Context, tokenString string) (*TokenIdentity, error)
}

type authService struct {
  db           *gorm.DB
  log          *logger.Logger
  userRepo     repos.UserRepo
  revoker      TokenRevoker
  jwtSecretKey string
  accessTTL    time.Duration
}

func NewAuthService(
  db *gorm.DB,
  log *logger.Logger,
  userRepo repos.UserRepo,
  revoker TokenRevoker,
  jwtSecretKey string,
  accessTTL time.Duration,
) AuthService {
  serviceLog := log.With("service", "AuthService")
  return &authService{
    db:           db,
    log:          serviceLog,
    userRepo:     userRepo,
    revoker:      revoker,
    jwtSecretKey: jwtSecretKey,
    accessTTL:    accessTTL,
  }
}

func (as *authService) SignUp(ctx context.Context, email, name, password string) (*types.User, string, error) {
  //1) Normalize and validate input
  email = utils.NormalizeEmail(email)
  if email == "" || name == "" || password == "" {
    as.log.Warn("Signup rejected, missing required fields")
    return nil, "", fmt.Errorf("%w: email, name and password are required", ErrValidation)
  }

  //2) Reject duplicate emails
  exists, err := as.userRepo.EmailExists(ctx, nil, email)
  if err != nil {
    as.log.Warn("Failed to check email existence during signup", "error", err)
    return nil, "", fmt.Errorf("failed checking email existence: %w", err)
  }
  if exists {
    return nil, "", ErrConflict
  }

  //3) Hash password and create the user
  user := &types.User{Email: email, Name: name}
  if hErr := utils.HashPassword(ctx, as.log, user, password); hErr != nil {
    return nil, "", hErr
  }
  created, err := as.userRepo.Create(ctx, nil, user)
  if err != nil {
    as.log.Warn("Failed to create user during signup", "error", err)
    return nil, "", fmt.Errorf("failed to create user: %w", err)
  }

  //4) Issue a session token
  token, err := as.generateSessionToken(created)
  if err != nil {
    as.log.Warn("Failed to generate session token during signup", "error", err)
    return nil, "", err
  }
  return created, token, nil
}

func (as *authService) SignIn(ctx context.Context, email, password string) (*types.User, string, error) {
  email = utils.NormalizeEmail(email)
  if email == "" || password == "" {
    return nil, "", fmt.Errorf("%w: email and password are required", ErrValidation)
  }

  // Unknown email and wrong password collapse to the same failure so the
  // response never reveals which check tripped.
  user, err := as.userRepo.GetByEmail(ctx, nil, email)
  if err != nil {
    if errors.Is(err, repos.ErrNotFound) {
      return nil, "", ErrInvalidCredentials
    }
    as.log.Warn("Failed to load user during signin", "error", err)
    return nil, "", fmt.Errorf("failed to load user: %w", err)
  }
  if !utils.CheckPassword(user, password) {
    return nil, "", ErrInvalidCredentials
  }

  token, err := as.generateSessionToken(user)
  if err != nil {
    as.log.Warn("Failed to generate session token during signin", "error", err)
    return nil, "", err
  }
  return user, token, nil
}

// SignOut revokes the current token's jti for its remaining life. Without a
// configured revoker the sign-out still succeeds; the token then stays
// valid until expiry.
func (as *authService) SignOut(ctx context.Context, identity *TokenIdentity) error {
  if identity == nil || identity.TokenID == "" {
    return nil
  }
  if as.revoker == nil {
    as.log.Warn("No token revoker configured; signed-out token remains valid until expiry")
    return nil
  }
  ttl := time.Until(identity.ExpiresAt)
  if err := as.revoker.Revoke(ctx, identity.TokenID, ttl); err != nil {
    as.log.Warn("Failed to revoke token on signout", "error", err)
    return err
  }
  return nil
}

func (as *authService) VerifyToken(ctx context.Context, tokenString string) (*TokenIdentity, error) {
  if tokenString == "" {
    return nil, ErrUnauthorized
  }
  parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
    if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, jwt.ErrTokenUnverifiable
    }
    return []byte(as.jwtSecretKey), nil
  })
  if err != nil {
    return nil, ErrUnauthorized
  }
  claims, ok := parsed.Claims.(*JWTClaims)
  if !ok || !parsed.Valid {
    return nil, ErrUnauthorized
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return nil, ErrUnauthorized
  }
  if as.revoker != nil {
    revoked, rErr := as.revoker.IsRevoked(ctx, claims.ID)
    if rErr != nil {
      as.log.Warn("Failed to check token revocation; rejecting token", "error", rErr)
      return nil, ErrUnauthorized
    }
    if revoked {
      return nil, ErrUnauthorized
    }
  }
  identity := &TokenIdentity{
    UserID:  userID,
    Name:    claims.Name,
    TokenID: claims.ID,
  }
  if claims.ExpiresAt != nil {
    identity.ExpiresAt = claims.ExpiresAt.Time
  }
  return identity, nil
}

func (as *authService) generateSessionToken(user *types.User) (string, error) {
  now := time.Now()
  claims := JWTClaims{
    RegisteredClaims: jwt.RegisteredClaims{
      Subject:   user.ID.String(),
      ID:        uuid.NewString(),
      IssuedAt:  jwt.NewNumericDate(now),
      ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
    },
    Name: user.Name,
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  signed, err := token.SignedString([]byte(as.jwtSecretKey))
  if err != nil {
    return "", fmt.Errorf("failed to sign session token: %w", err)
  }
  return signed, nil
}

package utils

import (
  "context"
  "fmt"
  "strings"

  "golang.org/x/crypto/bcrypt"

  "github.com/smartsaarthi/saarthi-backend/internal/logger"
  "github.com/smartsaarthi/saarthi-backend/internal/types"
)

// NormalizeEmail lowercases and trims an email address before any lookup or
// uniqueness check so the same mailbox cannot register twice with different
// casing.
func NormalizeEmail(email string) string {
  return strings.ToLower(strings.TrimSpace(email))
}

func HashPassword(ctx context.Context, log *logger.Logger, user *types.User, password string) error {
  if password == "" {
    if log != nil {
      log.Warn("Password is empty, cannot hash. Returning error.")
    }
    return fmt.Errorf("a password is required")
  }
  hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
  if err != nil {
    if log != nil {
      log.Warn("Failed to hash password. Returning error.", "error", err)
    }
    return fmt.Errorf("failed to hash password: %w", err)
  }
  user.PasswordHash = string(hash)
  return nil
}

func CheckPassword(user *types.User, password string) bool {
  return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

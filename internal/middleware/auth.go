package middleware

import (
  "net/http"
  "strings"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/smartsaarthi/saarthi-backend/internal/logger"
  "github.com/smartsaarthi/saarthi-backend/internal/requestdata"
  "github.com/smartsaarthi/saarthi-backend/internal/services"
)

// TokenCookieName is the httpOnly cookie the web client authenticates with;
// the mobile client sends the same token as a bearer header instead.
const TokenCookieName = "token"

type AuthMiddleware struct {
  log         *logger.Logger
  authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
  middlewareLog := log.With("middleware", "AuthMiddleware")
  return &AuthMiddleware{log: middlewareLog, authService: authService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
  return func(c *gin.Context) {
    tokenString := extractToken(c)
    if tokenString == "" {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "No token provided"})
      return
    }
    identity, err := am.authService.VerifyToken(c.Request.Context(), tokenString)
    if err != nil || identity == nil || identity.UserID == uuid.Nil {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication failed"})
      return
    }
    rd := &requestdata.RequestData{
      TokenString: tokenString,
      TokenID:     identity.TokenID,
      UserID:      identity.UserID,
      Name:        identity.Name,
    }
    c.Request = c.Request.WithContext(requestdata.WithRequestData(c.Request.Context(), rd))
    c.Next()
  }
}

// extractToken prefers the session cookie and falls back to the
// Authorization bearer header.
func extractToken(c *gin.Context) string {
  if cookie, err := c.Cookie(TokenCookieName); err == nil && cookie != "" {
    return cookie
  }
  authHeader := c.GetHeader("Authorization")
  if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
    return authHeader[7:]
  }
  return ""
}

package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/smartsaarthi/saarthi-backend/internal/middleware"
  "github.com/smartsaarthi/saarthi-backend/internal/requestdata"
  "github.com/smartsaarthi/saarthi-backend/internal/services"
)

type AuthHandler struct {
  authService    services.AuthService
  cookieMaxAge   int
  cookieSecure   bool
}

func NewAuthHandler(authService services.AuthService, cookieMaxAge int, cookieSecure bool) *AuthHandler {
  return &AuthHandler{
    authService:  authService,
    cookieMaxAge: cookieMaxAge,
    cookieSecure: cookieSecure,
  }
}

func (ah *AuthHandler) SignUp(c *gin.Context) {
  var req struct {
    Email    string `json:"email"`
    Name     string `json:"name"`
    Password string `json:"password"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
    return
  }
  user, token, err := ah.authService.SignUp(c.Request.Context(), req.Email, req.Name, req.Password)
  if err != nil {
    respondError(c, err)
    return
  }
  ah.setSessionCookie(c, token)
  c.JSON(http.StatusOK, gin.H{
    "success": true,
    "message": "User signed up successfully",
    "data": gin.H{
      "user":  user.Public(),
      "token": token,
    },
  })
}

func (ah *AuthHandler) SignIn(c *gin.Context) {
  var req struct {
    Email    string `json:"email"`
    Password string `json:"password"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
    return
  }
  user, token, err := ah.authService.SignIn(c.Request.Context(), req.Email, req.Password)
  if err != nil {
    respondError(c, err)
    return
  }
  ah.setSessionCookie(c, token)
  c.JSON(http.StatusOK, gin.H{
    "success": true,
    "message": "User signed in successfully",
    "data": gin.H{
      "user":  user.Public(),
      "token": token,
    },
  })
}

func (ah *AuthHandler) SignOut(c *gin.Context) {
  ctx := c.Request.Context()
  rd := requestdata.GetRequestData(ctx)
  if rd != nil {
    identity := &services.TokenIdentity{TokenID: rd.TokenID, UserID: rd.UserID}
    if verified, err := ah.authService.VerifyToken(ctx, rd.TokenString); err == nil {
      identity = verified
    }
    if err := ah.authService.SignOut(ctx, identity); err != nil {
      respondError(c, err)
      return
    }
  }
  // expire the cookie regardless; bearer clients just drop the token
  c.SetCookie(middleware.TokenCookieName, "", -1, "/", "", ah.cookieSecure, true)
  c.JSON(http.StatusOK, gin.H{"success": true, "message": "User signed out successfully"})
}

func (ah *AuthHandler) setSessionCookie(c *gin.Context, token string) {
  c.SetCookie(middleware.TokenCookieName, token, ah.cookieMaxAge, "/", "", ah.cookieSecure, true)
}

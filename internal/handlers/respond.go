package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/smartsaarthi/saarthi-backend/internal/services"
)

// respondError maps service failures onto the API's error taxonomy. Raw
// internal error detail stays in the logs; clients only ever see the
// generic message for the class.
func respondError(c *gin.Context, err error) {
  switch {
  case errors.Is(err, services.ErrValidation):
    c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
  case errors.Is(err, services.ErrUnauthorized):
    c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
  case errors.Is(err, services.ErrNotFound):
    c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Conversation not found"})
  case errors.Is(err, services.ErrConflict):
    c.JSON(http.StatusConflict, gin.H{"success": false, "message": "User already exists"})
  case errors.Is(err, services.ErrInvalidCredentials):
    c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
  default:
    c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal Server Error"})
  }
}

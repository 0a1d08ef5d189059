package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/smartsaarthi/saarthi-backend/internal/handlers"
  "github.com/smartsaarthi/saarthi-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler    *handlers.AuthHandler
  ChatHandler    *handlers.ChatHandler
  AuthMiddleware *middleware.AuthMiddleware
  AllowOrigins   []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  //-----------------------------------------
  // Cors Setup
  //-----------------------------------------
  router.Use(cors.New(cors.Config{
    AllowOrigins:     cfg.AllowOrigins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  //-----------------------------------------
  // Health Routes
  //-----------------------------------------
  router.GET("/healthz", handlers.Healthz)

  //-----------------------------------------
  // Public Routes
  //-----------------------------------------
  api := router.Group("/api")
  {
    api.POST("/auth/signup", cfg.AuthHandler.SignUp)
    api.POST("/auth/signin", cfg.AuthHandler.SignIn)
  }

  //------------------------------------------
  // Protected Routes
  //------------------------------------------
  protected := api.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  protected.POST("/auth/signout", cfg.AuthHandler.SignOut)

  //Chat
  protected.POST("/chat/conversation", cfg.ChatHandler.CreateConversation)
  protected.GET("/chat/conversation", cfg.ChatHandler.ListConversations)
  protected.PUT("/chat/conversation/:id", cfg.ChatHandler.RenameConversation)
  protected.DELETE("/chat/conversation/:id", cfg.ChatHandler.DeleteConversation)
  protected.GET("/chat/conversation/:id/messages", cfg.ChatHandler.GetConversationMessages)
  protected.POST("/chat/message", cfg.ChatHandler.SendMessage)

  return router
}

package main

import (
  "fmt"
  "os"
  "strings"
  "time"

  "github.com/joho/godotenv"

  "github.com/smartsaarthi/saarthi-backend/internal/db"
  "github.com/smartsaarthi/saarthi-backend/internal/handlers"
  "github.com/smartsaarthi/saarthi-backend/internal/logger"
  "github.com/smartsaarthi/saarthi-backend/internal/middleware"
  "github.com/smartsaarthi/saarthi-backend/internal/repos"
  "github.com/smartsaarthi/saarthi-backend/internal/server"
  "github.com/smartsaarthi/saarthi-backend/internal/services"
  "github.com/smartsaarthi/saarthi-backend/internal/utils"
)

func main() {
  // Environment file (skipped in production, where the host provides env)
  if os.Getenv("APP_ENV") != "production" {
    _ = godotenv.Load()
  }

  // Logger Setup
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Environment Variables
  log.Info("Loading environment variables for Main now...")
  appEnv := utils.GetEnv("APP_ENV", "development", log)
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "", log)
  if jwtSecretKey == "" {
    if appEnv == "production" {
      log.Error("JWT_SECRET_KEY must be set in production")
      os.Exit(1)
    }
    jwtSecretKey = "defaultsecret"
  }
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 7*24*3600, log)
  redisAddress := utils.GetEnv("REDIS_ADDRESS", "localhost:6379", log)
  redisPassword := utils.GetEnv("REDIS_PASSWORD", "", log)
  microserviceURL := utils.GetEnv("MICROSERVICE_BASE_URL", "http://localhost:8000", log)
  upstreamTimeout := utils.GetEnvAsInt("UPSTREAM_TIMEOUT_SECONDS", 60, log)
  elevenLabsURL := utils.GetEnv("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io", log)
  elevenLabsKey := utils.GetEnv("ELEVENLABS_API_KEY", "", log)
  elevenLabsVoice := utils.GetEnv("ELEVENLABS_VOICE_ID", "JBFqnCBsd6RMkjVDRZzb", log)
  historyWindow := utils.GetEnvAsInt("CHAT_HISTORY_WINDOW", 20, log)
  allowOrigins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", log)

  // Postgres Setup
  log.Info("Setting up Postgres from Main now...")
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("DB init failed", "error", err)
    os.Exit(1)
  }
  if err := postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repositories Setup
  log.Info("Setting up Repositories from Main now...")
  userRepo := repos.NewUserRepo(thePG, log)
  convRepo := repos.NewConversationRepo(thePG, log)
  msgRepo := repos.NewMessageRepo(thePG, log)

  // Token Revocation Setup (best-effort: without Redis, signed-out tokens
  // stay valid until expiry)
  var revoker services.TokenRevoker
  if r, rErr := services.NewRedisTokenRevoker(log, redisAddress, redisPassword); rErr != nil {
    log.Warn("Could not init token revoker; sign-out will not invalidate tokens", "error", rErr)
  } else {
    revoker = r
  }

  // Services Setup
  log.Info("Setting up Services from Main now...")
  authService := services.NewAuthService(thePG, log, userRepo, revoker, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
  assistantService, err := services.NewAssistantService(log, microserviceURL, time.Duration(upstreamTimeout)*time.Second)
  if err != nil {
    log.Error("Could not init AssistantService", "error", err)
    os.Exit(1)
  }
  speechService, err := services.NewSpeechService(log, elevenLabsURL, elevenLabsKey, elevenLabsVoice, time.Duration(upstreamTimeout)*time.Second)
  if err != nil {
    log.Error("Could not init SpeechService", "error", err)
    os.Exit(1)
  }
  chatService := services.NewChatService(thePG, log, convRepo, msgRepo, assistantService, speechService, historyWindow)

  // Handler Setup
  log.Info("Setting up Handlers from Main now...")
  authHandler := handlers.NewAuthHandler(authService, accessTokenTTL, appEnv == "production")
  chatHandler := handlers.NewChatHandler(log, chatService)

  // Middleware Setup
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router Setup
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:    authHandler,
    ChatHandler:    chatHandler,
    AuthMiddleware: authMiddleware,
    AllowOrigins:   strings.Split(allowOrigins, ","),
  })

  port := utils.GetEnv("PORT", "9000", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}

package db

import (
  "fmt"

  "gorm.io/driver/postgres"
  "gorm.io/gorm"

  "github.com/smartsaarthi/saarthi-backend/internal/logger"
  "github.com/smartsaarthi/saarthi-backend/internal/types"
  "github.com/smartsaarthi/saarthi-backend/internal/utils"
)

type PostgresService struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")

  //1) Get and Set Environment Variables
  postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
  postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
  postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
  postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
  postgresName := utils.GetEnv("POSTGRES_NAME", "saarthi", log)

  //2) Construct DSN From Environment Variables
  dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

  //3) Attempt DB Connection
  serviceLog.Info("Attempting to connect to Postgres DB now...")
  gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
  })
  if err != nil {
    serviceLog.Error("Failed to connect to Postgres DB", "error", err)
    return nil, fmt.Errorf("failed to connect to Postgres DB: %w", err)
  }
  serviceLog.Info("Successfully connected to Postgres DB")

  return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}

// AutoMigrateAll migrates the three tables and then wires the cascading
// foreign keys by hand, since FK creation is disabled during migration.
// Deleting a user removes their conversations; deleting a conversation
// removes its messages.
func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Starting AutoMigrateAll for all GORM models now...")

  if err := s.db.AutoMigrate(
    &types.User{},
    &types.Conversation{},
    &types.Message{},
  ); err != nil {
    s.log.Error("AutoMigrateAll failed", "error", err)
    return err
  }

  // -- Conversation.user_id => user.id (ON DELETE CASCADE)
  if err := s.db.Exec(`
    ALTER TABLE "conversation"
    DROP CONSTRAINT IF EXISTS "fk_conversation_user_id";
  `).Error; err != nil {
    return fmt.Errorf("failed to drop fk_conversation_user_id: %w", err)
  }
  if err := s.db.Exec(`
    ALTER TABLE "conversation"
    ADD CONSTRAINT "fk_conversation_user_id"
    FOREIGN KEY ("user_id")
    REFERENCES "user"("id")
    ON DELETE CASCADE
  `).Error; err != nil {
    return fmt.Errorf("failed to add fk_conversation_user_id: %w", err)
  }

  // -- Message.conversation_id => conversation.id (ON DELETE CASCADE)
  if err := s.db.Exec(`
    ALTER TABLE "message"
    DROP CONSTRAINT IF EXISTS "fk_message_conversation_id";
  `).Error; err != nil {
    return fmt.Errorf("failed to drop fk_message_conversation_id: %w", err)
  }
  if err := s.db.Exec(`
    ALTER TABLE "message"
    ADD CONSTRAINT "fk_message_conversation_id"
    FOREIGN KEY ("conversation_id")
    REFERENCES "conversation"("id")
    ON DELETE CASCADE
  `).Error; err != nil {
    return fmt.Errorf("failed to add fk_message_conversation_id: %w", err)
  }

  s.log.Info("AutoMigrateAll completed successfully")
  return nil
}

package repos

import (
  "context"
  "errors"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/smartsaarthi/saarthi-backend/internal/logger"
  "github.com/smartsaarthi/saarthi-backend/internal/types"
)

type ConversationRepo interface {
  Create(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Conversation, error)
  // GetOwned loads a conversation only when it exists AND belongs to the
  // given user; anything else is ErrNotFound.
  GetOwned(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Conversation, error)
  ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]types.Conversation, error)
  // Rename and Delete fold ownership into the filter: a non-matching id is
  // a silent no-op, never an error, so mutating paths cannot be used to
  // probe which conversation ids exist.
  Rename(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID, title string) error
  Delete(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) error
  UpdateTitle(ctx context.Context, tx *gorm.DB, id uuid.UUID, title string) error
  TouchLastUpdated(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error
}

type conversationRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
  return &conversationRepo{
    db:  db,
    log: baseLog.With("repo", "ConversationRepo"),
  }
}

func (cr *conversationRepo) Create(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Conversation, error) {
  if tx == nil {
    tx = cr.db
  }
  conv := &types.Conversation{
    ID:          uuid.New(),
    UserID:      userID,
    Title:       types.DefaultConversationTitle,
    LastUpdated: time.Now(),
  }
  if err := tx.WithContext(ctx).Create(conv).Error; err != nil {
    cr.log.Error("failed to create conversation", "error", err)
    return nil, err
  }
  return conv, nil
}

func (cr *conversationRepo) GetOwned(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Conversation, error) {
  if tx == nil {
    tx = cr.db
  }
  var conv types.Conversation
  if err := tx.WithContext(ctx).
    Where("id = ? AND user_id = ?", id, userID).
    First(&conv).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrNotFound
    }
    cr.log.Error("failed to get conversation", "error", err)
    return nil, err
  }
  return &conv, nil
}

func (cr *conversationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]types.Conversation, error) {
  if tx == nil {
    tx = cr.db
  }
  var convs []types.Conversation
  if err := tx.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("last_updated DESC").
    Find(&convs).Error; err != nil {
    cr.log.Error("failed to list conversations", "error", err)
    return nil, err
  }
  return convs, nil
}

func (cr *conversationRepo) Rename(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID, title string) error {
  if tx == nil {
    tx = cr.db
  }
  if err := tx.WithContext(ctx).
    Model(&types.Conversation{}).
    Where("id = ? AND user_id = ?", id, userID).
    Update("title", title).Error; err != nil {
    cr.log.Error("failed to rename conversation", "error", err)
    return err
  }
  return nil
}

// Delete removes the conversation and all of its messages in one
// transaction. The message delete is explicit rather than trusting the FK
// cascade alone, so the behavior holds on stores migrated without the raw
// constraint DDL.
func (cr *conversationRepo) Delete(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) error {
  if tx == nil {
    tx = cr.db
  }
  return tx.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
    var conv types.Conversation
    if err := inner.
      Where("id = ? AND user_id = ?", id, userID).
      First(&conv).Error; err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return nil
      }
      cr.log.Error("failed to load conversation for delete", "error", err)
      return err
    }
    if err := inner.
      Where("conversation_id = ?", conv.ID).
      Delete(&types.Message{}).Error; err != nil {
      cr.log.Error("failed to delete conversation messages", "error", err)
      return err
    }
    if err := inner.Delete(&conv).Error; err != nil {
      cr.log.Error("failed to delete conversation", "error", err)
      return err
    }
    return nil
  })
}

func (cr *conversationRepo) UpdateTitle(ctx context.Context, tx *gorm.DB, id uuid.UUID, title string) error {
  if tx == nil {
    tx = cr.db
  }
  if err := tx.WithContext(ctx).
    Model(&types.Conversation{}).
    Where("id = ?", id).
    Update("title", title).Error; err != nil {
    cr.log.Error("failed to update conversation title", "error", err)
    return err
  }
  return nil
}

func (cr *conversationRepo) TouchLastUpdated(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error {
  if tx == nil {
    tx = cr.db
  }
  if err := tx.WithContext(ctx).
    Model(&types.Conversation{}).
    Where("id = ?", id).
    Update("last_updated", at).Error; err != nil {
    cr.log.Error("failed to touch conversation last_updated", "error", err)
    return err
  }
  return nil
}

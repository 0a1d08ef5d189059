package repos

import (
  "context"
  "errors"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/smartsaarthi/saarthi-backend/internal/logger"
  "github.com/smartsaarthi/saarthi-backend/internal/types"
)

type MessageRepo interface {
  // Append inserts a message row. It does not verify conversation
  // ownership; callers must have done that in the same logical operation.
  Append(ctx context.Context, tx *gorm.DB, msg *types.Message) (*types.Message, error)
  ListByConversation(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]types.Message, error)
  CountByConversation(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (int64, error)
  // RecentWindow returns the trailing n messages in ascending order.
  RecentWindow(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, n int) ([]types.Message, error)
  LatestByConversation(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (*types.Message, error)
}

type messageRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
  return &messageRepo{
    db:  db,
    log: baseLog.With("repo", "MessageRepo"),
  }
}

func (mr *messageRepo) Append(ctx context.Context, tx *gorm.DB, msg *types.Message) (*types.Message, error) {
  if tx == nil {
    tx = mr.db
  }
  if msg.ID == uuid.Nil {
    msg.ID = uuid.New()
  }
  if msg.Type == "" {
    msg.Type = types.MessageTypeText
  }
  if err := tx.WithContext(ctx).Create(msg).Error; err != nil {
    mr.log.Error("failed to append message", "error", err)
    return nil, err
  }
  return msg, nil
}

func (mr *messageRepo) ListByConversation(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]types.Message, error) {
  if tx == nil {
    tx = mr.db
  }
  var msgs []types.Message
  if err := tx.WithContext(ctx).
    Where("conversation_id = ?", conversationID).
    Order("created_at ASC, id ASC").
    Find(&msgs).Error; err != nil {
    mr.log.Error("failed to list messages", "error", err)
    return nil, err
  }
  return msgs, nil
}

func (mr *messageRepo) CountByConversation(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (int64, error) {
  if tx == nil {
    tx = mr.db
  }
  var count int64
  if err := tx.WithContext(ctx).
    Model(&types.Message{}).
    Where("conversation_id = ?", conversationID).
    Count(&count).Error; err != nil {
    mr.log.Error("failed to count messages", "error", err)
    return 0, err
  }
  return count, nil
}

func (mr *messageRepo) RecentWindow(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, n int) ([]types.Message, error) {
  if tx == nil {
    tx = mr.db
  }
  var msgs []types.Message
  if err := tx.WithContext(ctx).
    Where("conversation_id = ?", conversationID).
    Order("created_at DESC, id DESC").
    Limit(n).
    Find(&msgs).Error; err != nil {
    mr.log.Error("failed to load recent message window", "error", err)
    return nil, err
  }
  // reverse back to ascending conversational order
  for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
    msgs[i], msgs[j] = msgs[j], msgs[i]
  }
  return msgs, nil
}

func (mr *messageRepo) LatestByConversation(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (*types.Message, error) {
  if tx == nil {
    tx = mr.db
  }
  var msg types.Message
  if err := tx.WithContext(ctx).
    Where("conversation_id = ?", conversationID).
    Order("created_at DESC, id DESC").
    First(&msg).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    mr.log.Error("failed to load latest message", "error", err)
    return nil, err
  }
  return &msg, nil
}

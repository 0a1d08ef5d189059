package services

import (
  "context"
  "encoding/base64"
  "fmt"
  "sync"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/smartsaarthi/saarthi-backend/internal/logger"
  "github.com/smartsaarthi/saarthi-backend/internal/repos"
  "github.com/smartsaarthi/saarthi-backend/internal/types"
)

const (
  // FallbackReply is stored as the bot turn whenever the microservice call
  // fails; upstream failure never fails the send itself.
  FallbackReply = "I'm sorry, I'm having trouble connecting to my brain right now."
  // AttachmentPlaceholder stands in for empty content when files were sent.
  AttachmentPlaceholder = "[Sent an attachment]"
  // assistantModelLabel is the attribution recorded on every bot message.
  assistantModelLabel = "llama"

  autoTitleLimit = 30
)

// SendMessageInput is one send-message request after transport decoding.
type SendMessageInput struct {
  ConversationID uuid.UUID
  Content        string
  Files          []AttachedFile
  Location       *LatLng
}

// SendMessageResult carries both persisted turns and the optional
// synthesized audio (base64 MP3).
type SendMessageResult struct {
  UserMessage *types.Message
  BotMessage  *types.Message
  Audio       string
}

type ChatService interface {
  CreateConversation(ctx context.Context, userID uuid.UUID) (*types.Conversation, error)
  ListConversations(ctx context.Context, userID uuid.UUID) ([]types.ConversationSummary, error)
  RenameConversation(ctx context.Context, userID, conversationID uuid.UUID, title string) error
  DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error
  GetMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]types.MessageView, error)
  SendMessage(ctx context.Context, userID uuid.UUID, in SendMessageInput) (*SendMessageResult, error)
}

type chatService struct {
  db            *gorm.DB
  log           *logger.Logger
  convRepo      repos.ConversationRepo
  msgRepo       repos.MessageRepo
  assistant     AssistantService
  speech        SpeechService
  historyWindow int

  // per-conversation locks serialize the multi-step send sequence so the
  // auto-title decision and the history snapshot cannot interleave with a
  // concurrent send to the same conversation.
  convLocks sync.Map
}

func NewChatService(
  db *gorm.DB,
  log *logger.Logger,
  convRepo repos.ConversationRepo,
  msgRepo repos.MessageRepo,
  assistant AssistantService,
  speech SpeechService,
  historyWindow int,
) ChatService {
  serviceLog := log.With("service", "ChatService")
  if historyWindow <= 0 {
    historyWindow = 20
  }
  return &chatService{
    db:            db,
    log:           serviceLog,
    convRepo:      convRepo,
    msgRepo:       msgRepo,
    assistant:     assistant,
    speech:        speech,
    historyWindow: historyWindow,
  }
}

func (cs *chatService) CreateConversation(ctx context.Context, userID uuid.UUID) (*types.Conversation, error) {
  if userID == uuid.Nil {
    return nil, ErrUnauthorized
  }
  conv, err := cs.convRepo.Create(ctx, nil, userID)
  if err != nil {
    return nil, fmt.Errorf("failed to create conversation: %w", err)
  }
  return conv, nil
}

func (cs *chatService) ListConversations(ctx context.Context, userID uuid.UUID) ([]types.ConversationSummary, error) {
  if userID == uuid.Nil {
    return nil, ErrUnauthorized
  }
  convs, err := cs.convRepo.ListByUser(ctx, nil, userID)
  if err != nil {
    return nil, fmt.Errorf("failed to list conversations: %w", err)
  }
  summaries := make([]types.ConversationSummary, 0, len(convs))
  for i := range convs {
    preview, pErr := cs.msgRepo.LatestByConversation(ctx, nil, convs[i].ID)
    if pErr != nil {
      return nil, fmt.Errorf("failed to load conversation preview: %w", pErr)
    }
    summaries = append(summaries, types.ConversationSummary{
      ID:          convs[i].ID,
      Title:       convs[i].Title,
      LastUpdated: convs[i].LastUpdated,
      Preview:     preview,
    })
  }
  return summaries, nil
}

func (cs *chatService) RenameConversation(ctx context.Context, userID, conversationID uuid.UUID, title string) error {
  if userID == uuid.Nil {
    return ErrUnauthorized
  }
  if conversationID == uuid.Nil || title == "" {
    return fmt.Errorf("%w: conversation id and title are required", ErrValidation)
  }
  return cs.convRepo.Rename(ctx, nil, conversationID, userID, title)
}

func (cs *chatService) DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
  if userID == uuid.Nil {
    return ErrUnauthorized
  }
  if conversationID == uuid.Nil {
    return fmt.Errorf("%w: conversation id is required", ErrValidation)
  }
  return cs.convRepo.Delete(ctx, nil, conversationID, userID)
}

// GetMessages checks ownership explicitly (unlike rename/delete) and
// reports NotFound for a missing or foreign conversation.
func (cs *chatService) GetMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]types.MessageView, error) {
  if userID == uuid.Nil {
    return nil, ErrUnauthorized
  }
  if _, err := cs.convRepo.GetOwned(ctx, nil, conversationID, userID); err != nil {
    if err == repos.ErrNotFound {
      return nil, ErrNotFound
    }
    return nil, fmt.Errorf("failed to verify conversation ownership: %w", err)
  }
  msgs, err := cs.msgRepo.ListByConversation(ctx, nil, conversationID)
  if err != nil {
    return nil, fmt.Errorf("failed to load messages: %w", err)
  }
  views := make([]types.MessageView, 0, len(msgs))
  for i := range msgs {
    views = append(views, msgs[i].View())
  }
  return views, nil
}

func (cs *chatService) SendMessage(ctx context.Context, userID uuid.UUID, in SendMessageInput) (*SendMessageResult, error) {
  //1) Reject unauthenticated / malformed input
  if userID == uuid.Nil {
    return nil, ErrUnauthorized
  }
  if in.ConversationID == uuid.Nil {
    return nil, fmt.Errorf("%w: conversation id is required", ErrValidation)
  }
  if in.Content == "" && len(in.Files) == 0 {
    return nil, fmt.Errorf("%w: content or files are required", ErrValidation)
  }

  //2) Serialize sends per conversation
  unlock := cs.lockConversation(in.ConversationID)
  defer unlock()

  //3) Transaction one: ownership, auto-title, user turn, history snapshot
  var (
    userMsg *types.Message
    history []HistoryMessage
  )
  storedText := in.Content
  if storedText == "" {
    storedText = AttachmentPlaceholder
  }
  err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    conv, gErr := cs.convRepo.GetOwned(ctx, tx, in.ConversationID, userID)
    if gErr != nil {
      if gErr == repos.ErrNotFound {
        return ErrNotFound
      }
      return fmt.Errorf("failed to load conversation: %w", gErr)
    }

    count, cErr := cs.msgRepo.CountByConversation(ctx, tx, conv.ID)
    if cErr != nil {
      return fmt.Errorf("failed to count messages: %w", cErr)
    }
    if count == 0 && in.Content != "" {
      if tErr := cs.convRepo.UpdateTitle(ctx, tx, conv.ID, autoTitle(in.Content)); tErr != nil {
        return fmt.Errorf("failed to auto-title conversation: %w", tErr)
      }
    }

    msg := &types.Message{
      ConversationID: conv.ID,
      Sender:         types.SenderUser,
      Content:        storedText,
      Type:           types.MessageTypeText,
    }
    created, aErr := cs.msgRepo.Append(ctx, tx, msg)
    if aErr != nil {
      return fmt.Errorf("failed to save user message: %w", aErr)
    }
    userMsg = created

    window, wErr := cs.msgRepo.RecentWindow(ctx, tx, conv.ID, cs.historyWindow)
    if wErr != nil {
      return fmt.Errorf("failed to load history window: %w", wErr)
    }
    history = mapHistory(window)
    return nil
  })
  if err != nil {
    return nil, err
  }

  //4) Ask the microservice; on any failure substitute the fixed apology
  reply := AssistantReply{Content: FallbackReply}
  if cs.assistant != nil {
    if got, gErr := cs.assistant.Generate(ctx, storedText, history, in.Files, in.Location); gErr == nil {
      reply = got
    } else {
      cs.log.Warn("Assistant call failed, storing fallback reply", "error", gErr)
    }
  }

  //5) Transaction two: bot turn + freshness touch
  var botMsg *types.Message
  err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    msg := &types.Message{
      ConversationID: in.ConversationID,
      Sender:         types.SenderBot,
      Content:        reply.Content,
      Type:           types.MessageTypeText,
      Model:          assistantModelLabel,
      Extras:         reply.Extras(),
    }
    created, aErr := cs.msgRepo.Append(ctx, tx, msg)
    if aErr != nil {
      return fmt.Errorf("failed to save bot message: %w", aErr)
    }
    botMsg = created
    if tErr := cs.convRepo.TouchLastUpdated(ctx, tx, in.ConversationID, time.Now()); tErr != nil {
      return fmt.Errorf("failed to touch conversation: %w", tErr)
    }
    return nil
  })
  if err != nil {
    return nil, err
  }

  //6) Best-effort speech synthesis
  audio := ""
  if cs.speech != nil {
    if raw, sErr := cs.speech.Synthesize(ctx, reply.Content); sErr == nil {
      audio = base64.StdEncoding.EncodeToString(raw)
    } else {
      cs.log.Warn("Speech synthesis failed, continuing without audio", "error", sErr)
    }
  }

  return &SendMessageResult{UserMessage: userMsg, BotMessage: botMsg, Audio: audio}, nil
}

func (cs *chatService) lockConversation(id uuid.UUID) (unlock func()) {
  v, _ := cs.convLocks.LoadOrStore(id, &sync.Mutex{})
  mu := v.(*sync.Mutex)
  mu.Lock()
  return mu.Unlock
}

// autoTitle derives the conversation title from the first user message.
// Titles are capped at 30 characters; longer content is cut so the ellipsis
// fits inside the cap.
func autoTitle(content string) string {
  runes := []rune(content)
  if len(runes) > autoTitleLimit {
    return string(runes[:autoTitleLimit-3]) + "..."
  }
  return content
}

func mapHistory(msgs []types.Message) []HistoryMessage {
  history := make([]HistoryMessage, 0, len(msgs))
  for i := range msgs {
    role := "assistant"
    if msgs[i].Sender == types.SenderUser {
      role = "user"
    }
    history = append(history, HistoryMessage{Role: role, Content: msgs[i].Content})
  }
  return history
}

package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
)

const (
  SenderUser = "user"
  SenderBot  = "bot"

  MessageTypeText = "text"
)

// Message is one immutable turn in a conversation. Rows are never updated
// or deleted individually; they only go away when their conversation does.
// Conversational order is (created_at, id) ascending.
type Message struct {
  ID                uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
  ConversationID    uuid.UUID         `gorm:"type:uuid;index;not null" json:"conversationID"`
  Sender            string            `gorm:"not null;column:sender" json:"sender"`
  Content           string            `gorm:"type:text;not null;column:content" json:"content"`
  Type              string            `gorm:"not null;default:text;column:type" json:"type"`
  Model             string            `gorm:"column:model" json:"model,omitempty"`
  Extras            datatypes.JSON    `gorm:"column:extras" json:"extras,omitempty"`

  CreatedAt         time.Time         `gorm:"not null;index" json:"createdAt"`
}

func (Message) TableName() string {
  return "message"
}

// MessageView is the {id, text, sender} shape the clients render history
// from.
type MessageView struct {
  ID        uuid.UUID   `json:"id"`
  Text      string      `json:"text"`
  Sender    string      `json:"sender"`
}

func (m *Message) View() MessageView {
  return MessageView{ID: m.ID, Text: m.Content, Sender: m.Sender}
}

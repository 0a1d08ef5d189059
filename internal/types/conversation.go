package types

import (
  "time"

  "github.com/google/uuid"
)

// DefaultConversationTitle is the placeholder a conversation carries until
// its first user message auto-titles it (or the owner renames it).
const DefaultConversationTitle = "New Conversation"

type Conversation struct {
  ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
  UserID        uuid.UUID     `gorm:"type:uuid;index;not null" json:"userID"`
  Title         string        `gorm:"not null;column:title" json:"title"`
  LastUpdated   time.Time     `gorm:"not null;column:last_updated;index" json:"lastUpdated"`

  Messages      []Message     `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConversationID;references:ID" json:"-"`

  CreatedAt     time.Time     `gorm:"not null" json:"createdAt"`
  UpdatedAt     time.Time     `gorm:"not null" json:"updatedAt"`
}

func (Conversation) TableName() string {
  return "conversation"
}

// ConversationSummary pairs a conversation with its most recent message for
// the sidebar listing.
type ConversationSummary struct {
  ID            uuid.UUID     `json:"id"`
  Title         string        `json:"title"`
  LastUpdated   time.Time     `json:"lastUpdated"`
  Preview       *Message      `json:"preview,omitempty"`
}

package types

import (
  "time"

  "github.com/google/uuid"
)

type User struct {
  ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
  Email           string          `gorm:"uniqueIndex;not null;column:email" json:"email"`
  Name            string          `gorm:"not null;column:name" json:"name"`
  PasswordHash    string          `gorm:"not null;column:password_hash" json:"-"`

  Conversations   []Conversation  `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`

  CreatedAt       time.Time       `gorm:"not null" json:"createdAt"`
  UpdatedAt       time.Time       `gorm:"not null" json:"updatedAt"`
}

func (User) TableName() string {
  return "user"
}

// PublicUser is the shape returned to clients after signup/signin. The
// password hash never leaves the service.
type PublicUser struct {
  ID      uuid.UUID   `json:"id"`
  Email   string      `json:"email"`
  Name    string      `json:"name"`
}

func (u *User) Public() PublicUser {
  return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}

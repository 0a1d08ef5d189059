package services

import "errors"

var (
  // ErrValidation covers missing or malformed request fields.
  ErrValidation = errors.New("invalid request")
  // ErrNotFound is returned when a conversation does not exist or is not
  // owned by the caller. The two cases are deliberately indistinguishable.
  ErrNotFound = errors.New("conversation not found")
  // ErrConflict is returned on signup when the email is already taken.
  ErrConflict = errors.New("user already exists")
  // ErrInvalidCredentials collapses unknown-email and wrong-password into
  // one failure so signin responses never reveal which check failed.
  ErrInvalidCredentials = errors.New("invalid email or password")
  // ErrUnauthorized is returned when no authenticated user is present or
  // a token fails verification.
  ErrUnauthorized = errors.New("unauthorized")
)

package core

import (
	"errors"

	"hoursandfuture.com/nexthours/internal/store"
)

var (
	ErrInvalidTier = errors.New("invalid subscription tier")

	// Chat flow errors, returned to callers of ChatService.
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrEmptyMessage     = errors.New("message is empty")
	ErrBadAttachment    = store.ErrInvalidAttachment
	ErrBadRole          = store.ErrInvalidRole
	ErrChatNotFound     = errors.New("chat not found")
	ErrPremiumRequired  = errors.New("attachments require the premium plan")
	ErrFreeLimitReached = errors.New("free chat limit reached")
)

// LoginError is the displayable reason a login attempt failed.
type LoginError string

const (
	LoginUserNotFound  LoginError = "USER_NOT_FOUND"
	LoginWrongPassword LoginError = "WRONG_PASSWORD"
)

type LoginResult struct {
	Success bool       `json:"success"`
	Error   LoginError `json:"error,omitempty"`
}

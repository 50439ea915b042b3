package store

import (
	"errors"
	"time"
)

var (
	ErrInvalidRole       = errors.New("message role must be user or assistant")
	ErrInvalidAttachment = errors.New("attachment must be an image or a video")
)

type Tier string

const (
	TierFree     Tier = "free"
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierStandard, TierPremium:
		return true
	}
	return false
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type PaymentMethod struct {
	Brand  string `json:"brand"` // "Visa" or "Mastercard"
	Last4  string `json:"last4"`
	Expiry string `json:"expiry"`
}

const (
	AttachmentImage = "image"
	AttachmentVideo = "video"
)

type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type ChatMessage struct {
	Role       string      `json:"role"` // "user" or "assistant"
	Text       string      `json:"text"`
	Timestamp  int64       `json:"timestamp"` // unix millis
	Attachment *Attachment `json:"attachment,omitempty"`
}

func (m ChatMessage) Validate() error {
	if m.Role != RoleUser && m.Role != RoleAssistant {
		return ErrInvalidRole
	}
	if m.Attachment != nil && m.Attachment.Type != AttachmentImage && m.Attachment.Type != AttachmentVideo {
		return ErrInvalidAttachment
	}
	return nil
}

// ValidateMessages checks every message and reports whether any of them
// carries an attachment.
func ValidateMessages(messages []ChatMessage) (hasAttachment bool, err error) {
	for _, m := range messages {
		if err := m.Validate(); err != nil {
			return false, err
		}
		if m.Attachment != nil {
			hasAttachment = true
		}
	}
	return hasAttachment, nil
}

type ChatSession struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Date     string        `json:"date"`
	Preview  string        `json:"preview"`
	Messages []ChatMessage `json:"messages"`
}

// User is everything about an account that may live in memory. It never
// carries the password.
type User struct {
	Email            string         `json:"email"`
	Name             string         `json:"name"`
	DOB              string         `json:"dob,omitempty"`
	ProfilePicture   string         `json:"profilePicture,omitempty"`
	SubscriptionTier Tier           `json:"subscriptionTier"`
	NextBillingDate  *time.Time     `json:"nextBillingDate,omitempty"`
	PaymentMethod    *PaymentMethod `json:"paymentMethod,omitempty"`
	ChatHistory      []ChatSession  `json:"chatHistory"` // newest first
	FreeUsageCount   int            `json:"freeUsageCount"`
}

// UserRecord is the persisted form of a User.
type UserRecord struct {
	User
	Password string `json:"password"`
}

// Clone returns a deep copy, so the result can be handed out without
// exposing the manager's state.
func (u User) Clone() User {
	out := u
	if u.NextBillingDate != nil {
		t := *u.NextBillingDate
		out.NextBillingDate = &t
	}
	if u.PaymentMethod != nil {
		pm := *u.PaymentMethod
		out.PaymentMethod = &pm
	}
	out.ChatHistory = CloneSessions(u.ChatHistory)
	return out
}

func CloneSessions(sessions []ChatSession) []ChatSession {
	out := make([]ChatSession, len(sessions))
	for i, s := range sessions {
		s.Messages = CloneMessages(s.Messages)
		out[i] = s
	}
	return out
}

func CloneMessages(messages []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, len(messages))
	for i, m := range messages {
		if m.Attachment != nil {
			a := *m.Attachment
			m.Attachment = &a
		}
		out[i] = m
	}
	return out
}

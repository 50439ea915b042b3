package core

import (
	"context"

	"go.uber.org/zap"

	"hoursandfuture.com/nexthours/internal/store"
)

const (
	titleMaxRunes   = 30
	previewMaxRunes = 50
	ellipsis        = "..."
	defaultTitle    = "New Conversation"
	chatDateLayout  = "1/2/2006"
)

// SaveChatSession stores a transcript in the logged-in user's history.
//
// With an existingID already in the history, that entry keeps its place and
// title and gets the new messages, preview and date. An unknown existingID
// becomes a new entry under that id, and an empty one a new entry with a
// fresh id; new entries go to the front. Empty transcripts and calls
// without a logged-in user are ignored and return a zero session. Messages
// with an unknown role or attachment type are rejected.
func (m *SessionManager) SaveChatSession(ctx context.Context, messages []store.ChatMessage, existingID string) (store.ChatSession, error) {
	if len(messages) == 0 {
		return store.ChatSession{}, nil
	}
	if _, err := store.ValidateMessages(messages); err != nil {
		return store.ChatSession{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return store.ChatSession{}, nil
	}

	msgs := store.CloneMessages(messages)
	var saved store.ChatSession
	changed, err := m.commit(ctx, func(rec *store.UserRecord) {
		if i := sessionIndex(rec.ChatHistory, existingID); i >= 0 {
			rec.ChatHistory[i].Messages = msgs
			m.touch(&rec.ChatHistory[i])
			saved = rec.ChatHistory[i]
			return
		}
		saved = m.prependSession(rec, existingID, msgs)
	})
	if err != nil || !changed {
		return store.ChatSession{}, err
	}

	m.logger.Debug("chat session saved",
		zap.String("email", m.current.Email),
		zap.String("session_id", saved.ID),
		zap.Int("messages", len(saved.Messages)))
	saved.Messages = store.CloneMessages(saved.Messages)
	return saved, nil
}

// ChatAppend describes messages to add at the end of one chat.
type ChatAppend struct {
	SessionID string
	Messages  []store.ChatMessage

	// Start lets an unknown or empty SessionID begin a new chat that opens
	// with these messages. Without it an unknown id is ErrChatNotFound.
	Start []store.ChatMessage
	// FreeLimit caps how many chats a free user may start.
	FreeLimit int
	// Owner, when set, is the email the chat must belong to.
	Owner string
}

// AppendChat adds req.Messages to the end of a chat as it is stored now, so
// appends from concurrent callers all survive. Starting a new chat on the
// free tier checks and counts the free quota in the same step. Attachments
// need the premium plan.
func (m *SessionManager) AppendChat(ctx context.Context, req ChatAppend) (store.ChatSession, error) {
	if len(req.Messages) == 0 {
		return store.ChatSession{}, ErrEmptyMessage
	}
	hasAttachment, err := store.ValidateMessages(req.Messages)
	if err != nil {
		return store.ChatSession{}, err
	}
	if _, err := store.ValidateMessages(req.Start); err != nil {
		return store.ChatSession{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return store.ChatSession{}, ErrNotAuthenticated
	}
	if req.Owner != "" && store.NormalizeEmail(req.Owner) != store.NormalizeEmail(m.current.Email) {
		return store.ChatSession{}, ErrNotAuthenticated
	}
	if hasAttachment && m.current.SubscriptionTier != store.TierPremium {
		return store.ChatSession{}, ErrPremiumRequired
	}

	idx := sessionIndex(m.current.ChatHistory, req.SessionID)
	if idx < 0 {
		if req.Start == nil {
			return store.ChatSession{}, ErrChatNotFound
		}
		if FreeLimitReached(*m.current, req.FreeLimit) {
			m.logger.Info("free chat limit reached", zap.Int("count", m.current.FreeUsageCount))
			return store.ChatSession{}, ErrFreeLimitReached
		}
	}

	msgs := store.CloneMessages(req.Messages)
	var saved store.ChatSession
	changed, err := m.commit(ctx, func(rec *store.UserRecord) {
		if idx >= 0 {
			s := &rec.ChatHistory[idx]
			s.Messages = append(s.Messages, msgs...)
			m.touch(s)
			saved = *s
			return
		}
		if rec.SubscriptionTier == store.TierFree {
			rec.FreeUsageCount++
		}
		opening := append(store.CloneMessages(req.Start), msgs...)
		saved = m.prependSession(rec, req.SessionID, opening)
	})
	if err != nil {
		return store.ChatSession{}, err
	}
	if !changed {
		// The backing record vanished and the session was dropped.
		return store.ChatSession{}, ErrNotAuthenticated
	}

	m.logger.Debug("chat messages appended",
		zap.String("email", m.current.Email),
		zap.String("session_id", saved.ID),
		zap.Int("messages", len(saved.Messages)),
		zap.Int("free_usage", m.current.FreeUsageCount))
	saved.Messages = store.CloneMessages(saved.Messages)
	return saved, nil
}

func sessionIndex(history []store.ChatSession, id string) int {
	if id == "" {
		return -1
	}
	for i := range history {
		if history[i].ID == id {
			return i
		}
	}
	return -1
}

// touch refreshes the preview and date after the messages changed.
func (m *SessionManager) touch(s *store.ChatSession) {
	if n := len(s.Messages); n > 0 {
		s.Preview = truncate(s.Messages[n-1].Text, previewMaxRunes)
	}
	s.Date = m.now().Format(chatDateLayout)
}

func (m *SessionManager) prependSession(rec *store.UserRecord, id string, msgs []store.ChatMessage) store.ChatSession {
	if id == "" {
		id = m.newID()
	}
	s := store.ChatSession{ID: id, Title: chatTitle(msgs), Messages: msgs}
	m.touch(&s)
	rec.ChatHistory = append([]store.ChatSession{s}, rec.ChatHistory...)
	return s
}

func chatTitle(messages []store.ChatMessage) string {
	for _, msg := range messages {
		if msg.Role == store.RoleUser {
			return truncate(msg.Text, titleMaxRunes)
		}
	}
	return defaultTitle
}

// truncate cuts s to at most n runes and always appends the ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r) + ellipsis
}

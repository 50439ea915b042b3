package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hoursandfuture.com/nexthours/internal/llm"
	"hoursandfuture.com/nexthours/internal/store"
)

const (
	chatSystemInstruction = "You are NextHours, an advanced AI assistant integrated into the 'Hours and Future' website by Adinathreddy Anugu. " +
		"You coach people on time management, motivation, focus and personal growth, and you answer questions about the 'Hours and Future' system described in the book. " +
		"Be warm, concise and practical. Prefer concrete next steps the user can take within the next few hours."

	chatGreeting = "Hello! I'm NextHours, your personal growth AI. I can help you with time management, motivation, and questions about the 'Hours and Future' system. How can I help you today?"

	chatFallbackReply = "I'm having trouble connecting to the neural network right now. Please try again in a moment."
)

type ChatRequest struct {
	SessionID  string            `json:"sessionId,omitempty"`
	Text       string            `json:"text"`
	Attachment *store.Attachment `json:"attachment,omitempty"`
}

// ChatService runs the NextHours conversation for the logged-in user: it
// applies the free-chat quota, asks the model for a reply and saves the
// transcript through the session manager.
type ChatService struct {
	sessions  *SessionManager
	completer llm.Completer
	freeLimit int
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewChatService(sessions *SessionManager, completer llm.Completer, freeLimit int, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		sessions:  sessions,
		completer: completer,
		freeLimit: freeLimit,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Send adds the user's message to the chat named by req.SessionID, or to a
// new chat when that id is empty or unknown, and returns the saved chat with
// the assistant's reply appended. Only starting a new chat counts against
// the free quota; continuing one does not.
//
// The user message and the reply are appended in two separate steps around
// the model call, so concurrent sends to one chat keep every message.
func (s *ChatService) Send(ctx context.Context, req ChatRequest) (store.ChatSession, error) {
	user, ok := s.sessions.CurrentUser()
	if !ok {
		return store.ChatSession{}, ErrNotAuthenticated
	}

	text := strings.TrimSpace(req.Text)
	if text == "" && req.Attachment == nil {
		return store.ChatSession{}, ErrEmptyMessage
	}

	var attachment *store.Attachment
	if req.Attachment != nil {
		a := *req.Attachment
		attachment = &a
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = s.newID()
	}
	chat, err := s.sessions.AppendChat(ctx, ChatAppend{
		SessionID: sessionID,
		Messages: []store.ChatMessage{{
			Role:       store.RoleUser,
			Text:       text,
			Timestamp:  s.now().UnixMilli(),
			Attachment: attachment,
		}},
		Start:     []store.ChatMessage{{Role: store.RoleAssistant, Text: chatGreeting, Timestamp: s.now().UnixMilli()}},
		FreeLimit: s.freeLimit,
		Owner:     user.Email,
	})
	if err != nil {
		return store.ChatSession{}, err
	}

	reply, err := s.completer.Complete(ctx, chatSystemInstruction, buildTurns(chat.Messages))
	if err != nil {
		s.logger.Error("chat completion failed", zap.String("session_id", chat.ID), zap.Error(err))
		reply = chatFallbackReply
	}

	chat, err = s.sessions.AppendChat(ctx, ChatAppend{
		SessionID: chat.ID,
		Messages:  []store.ChatMessage{{Role: store.RoleAssistant, Text: reply, Timestamp: s.now().UnixMilli()}},
		Owner:     user.Email,
	})
	if err != nil {
		return store.ChatSession{}, fmt.Errorf("failed to save reply: %w", err)
	}
	return chat, nil
}

// History lists the logged-in user's chats, newest first.
func (s *ChatService) History() ([]store.ChatSession, error) {
	user, ok := s.sessions.CurrentUser()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	return user.ChatHistory, nil
}

// Session returns one chat of the logged-in user; found is false when the id
// is unknown.
func (s *ChatService) Session(id string) (session store.ChatSession, found bool, err error) {
	user, ok := s.sessions.CurrentUser()
	if !ok {
		return store.ChatSession{}, false, ErrNotAuthenticated
	}
	session, found = findSession(user.ChatHistory, id)
	return session, found, nil
}

func findSession(history []store.ChatSession, id string) (store.ChatSession, bool) {
	if id == "" {
		return store.ChatSession{}, false
	}
	for _, s := range history {
		if s.ID == id {
			return s, true
		}
	}
	return store.ChatSession{}, false
}

// buildTurns maps a transcript to model turns. Assistant messages before the
// first user message (the greeting) are left out, and attachments are
// described in the prompt text since the media itself is not uploaded.
func buildTurns(messages []store.ChatMessage) []llm.Turn {
	turns := make([]llm.Turn, 0, len(messages))
	for _, m := range messages {
		if m.Role != store.RoleUser && len(turns) == 0 {
			continue
		}
		text := m.Text
		if m.Attachment != nil {
			text += fmt.Sprintf(" [User attached a %s: %s. Analyze this as if you could see it (Simulated for demo).]", m.Attachment.Type, m.Attachment.Name)
		}
		role := llm.RoleUser
		if m.Role == store.RoleAssistant {
			role = llm.RoleAssistant
		}
		turns = append(turns, llm.Turn{Role: role, Text: text})
	}
	return turns
}

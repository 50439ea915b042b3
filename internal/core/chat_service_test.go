package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoursandfuture.com/nexthours/internal/llm"
	"hoursandfuture.com/nexthours/internal/store"
)

func newChatFixture(t *testing.T) (*fixture, *ChatService, *fakeCompleter) {
	t.Helper()
	f := newFixture(t)
	completer := &fakeCompleter{reply: "Try a 25 minute focus block."}
	svc := NewChatService(f.mgr, completer, DefaultFreeChatLimit, nil)
	svc.now = func() time.Time { return f.now }
	svc.newID = func() string { return "session-1" }
	return f, svc, completer
}

func TestChatService_NewChatCountsFreeUsage(t *testing.T) {
	f, svc, completer := newChatFixture(t)
	f.signupAndLogin(t, "a@x.com", "Ann", "pw1")

	saved, err := svc.Send(context.Background(), ChatRequest{Text: "How do I focus?"})
	require.NoError(t, err)

	assert.Equal(t, "session-1", saved.ID)
	require.Len(t, saved.Messages, 3)
	assert.Equal(t, store.RoleAssistant, saved.Messages[0].Role)
	assert.Equal(t, chatGreeting, saved.Messages[0].Text)
	assert.Equal(t, "How do I focus?", saved.Messages[1].Text)
	assert.Equal(t, "Try a 25 minute focus block.", saved.Messages[2].Text)
	assert.Equal(t, "How do I focus?...", saved.Title)

	assert.Equal(t, chatSystemInstruction, completer.system)
	assert.Equal(t, []llm.Turn{{Role: llm.RoleUser, Text: "How do I focus?"}}, completer.turns)

	u, _ := f.mgr.CurrentUser()
	assert.Equal(t, 1, u.FreeUsageCount)
	require.Len(t, u.ChatHistory, 1)
}

func TestChatService_ContinuingDoesNotCount(t *testing.T) {
	f, svc, completer := newChatFixture(t)
	f.signupAndLogin(t, "a@x.com", "Ann", "pw1")
	ctx := context.Background()

	first, err := svc.Send(ctx, ChatRequest{Text: "Hi"})
	require.NoError(t, err)
	completer.reply = "Second answer"
	second, err := svc.Send(ctx, ChatRequest{SessionID: first.ID, Text: "And then?"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.Messages, 5)
	assert.Equal(t, "Hi...", second.Title)
	assert.Equal(t, []llm.Turn{
		{Role: llm.RoleUser, Text: "Hi"},
		{Role: llm.RoleAssistant, Text: "Try a 25 minute focus block."},
		{Role: llm.RoleUser, Text: "And then?"},
	}, completer.turns)

	u, _ := f.mgr.CurrentUser()
	assert.Equal(t, 1, u.FreeUsageCount)
	assert.Len(t, u.ChatHistory, 1)
}

func TestChatService_FreeLimitBlocksNewChats(t *testing.T) {
	f, svc, completer := newChatFixture(t)
	f.signupAndLogin(t, "a@x.com", "Ann", "pw1")
	ctx := context.Background()

	for i := 0; i < DefaultFreeChatLimit-1; i++ {
		require.NoError(t, f.mgr.IncrementFreeUsage(ctx))
	}
	open, err := svc.Send(ctx, ChatRequest{Text: "fifth chat"})
	require.NoError(t, err)
	calls := completer.calls

	_, err = svc.Send(ctx, ChatRequest{Text: "sixth chat"})
	assert.ErrorIs(t, err, ErrFreeLimitReached)
	assert.Equal(t, calls, completer.calls)

	u, _ := f.mgr.CurrentUser()
	assert.Equal(t, DefaultFreeChatLimit, u.FreeUsageCount)

	_, err = svc.Send(ctx, ChatRequest{SessionID: open.ID, Text: "still here"})
	assert.NoError(t, err)
}

func TestChatService_PaidTiersAreNotGated(t *testing.T) {
	f, svc, _ := newChatFixture(t)
	f.signupAndLogin(t, "a@x.com", "Ann", "pw1")
	ctx := context.Background()

	for i := 0; i < DefaultFreeChatLimit; i++ {
		require.NoError(t, f.mgr.IncrementFreeUsage(ctx))
	}
	require.NoError(t, f.mgr.SetTier(ctx, store.TierStandard))

	_, err := svc.Send(ctx, ChatRequest{Text: "Hi"})
	require.NoError(t, err)

	u, _ := f.mgr.CurrentUser()
	assert.Equal(t, DefaultFreeChatLimit, u.FreeUsageCount)
}

func TestChatService_AttachmentsNeedPremium(t *testing.T) {
	f, svc, completer := newChatFixture(t)
	f.signupAndLogin(t, "a@x.com", "Ann", "pw1")
	ctx := context.Background()
	att := &store.Attachment{Name: "plan.png", Type: "image"}

	_, err := svc.Send(ctx, ChatRequest{Text: "Look", Attachment: att})
	assert.ErrorIs(t, err, ErrPremiumRequired)

	require.NoError(t, f.mgr.SetTier(ctx, store.TierPremium))
	_, err = svc.Send(ctx, ChatRequest{Text: "Look", Attachment: &store.Attachment{Name: "x.pdf", Type: "document"}})
	assert.ErrorIs(t, err, ErrBadAttachment)

	saved, err := svc.Send(ctx, ChatRequest{Attachment: att})
	require.NoError(t, err)
	require.NotNil(t, saved.Messages[1].Attachment)
	assert.Equal(t, *att, *saved.Messages[1].Attachment)
	require.Len(t, completer.turns, 1)
	assert.Contains(t, completer.turns[0].Text, "image: plan.png")
}

func TestChatService_FallbackReplyOnModelError(t *testing.T) {
	f, svc, completer := newChatFixture(t)
	f.signupAndLogin(t, "a@x.com", "Ann", "pw1")
	completer.err = errors.New("upstream unavailable")

	saved, err := svc.Send(context.Background(), ChatRequest{Text: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, chatFallbackReply, saved.Messages[len(saved.Messages)-1].Text)
}

func TestChatService_RejectsBadRequests(t *testing.T) {
	f, svc, _ := newChatFixture(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, ChatRequest{Text: "Hi"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = svc.History()
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	f.signupAndLogin(t, "a@x.com", "Ann", "pw1")
	_, err = svc.Send(ctx, ChatRequest{Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestChatService_HistoryAndSession(t *testing.T) {
	f, svc, _ := newChatFixture(t)
	f.signupAndLogin(t, "a@x.com", "Ann", "pw1")

	saved, err := svc.Send(context.Background(), ChatRequest{Text: "Hi"})
	require.NoError(t, err)

	history, err := svc.History()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, saved.ID, history[0].ID)

	got, found, err := svc.Session(saved.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, saved, got)

	_, found, err = svc.Session("missing")
	require.NoError(t, err)
	assert.False(t, found)
}

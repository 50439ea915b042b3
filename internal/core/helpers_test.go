package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hoursandfuture.com/nexthours/internal/llm"
	"hoursandfuture.com/nexthours/internal/store"
)

var testNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

type fixture struct {
	kv      *store.MemoryKV
	records *store.RecordStore
	mgr     *SessionManager
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{kv: store.NewMemoryKV(), now: testNow}
	f.records = store.NewRecordStore(f.kv, nil)
	f.mgr = f.newManager(t)
	return f
}

// newManager starts another manager over the same storage, like a reload.
func (f *fixture) newManager(t *testing.T) *SessionManager {
	t.Helper()
	seq := 0
	mgr, err := NewSessionManager(context.Background(), f.records,
		WithLoginDelay(0),
		WithClock(func() time.Time { return f.now }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("chat-%d", seq)
		}),
	)
	require.NoError(t, err)
	return mgr
}

func (f *fixture) signupAndLogin(t *testing.T, email, name, password string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.mgr.Signup(ctx, email, name, password))
	res, err := f.mgr.Login(ctx, email, password)
	require.NoError(t, err)
	require.True(t, res.Success)
}

func (f *fixture) stored(t *testing.T, email string) *store.UserRecord {
	t.Helper()
	rec, err := f.records.GetUser(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec
}

// requireInSync fails unless memory and the backing record hold the same user.
func (f *fixture) requireInSync(t *testing.T) {
	t.Helper()
	u, ok := f.mgr.CurrentUser()
	require.True(t, ok)
	rec := f.stored(t, u.Email)
	require.Equal(t, rec.User, u)
}

func userMsg(text string) store.ChatMessage {
	return store.ChatMessage{Role: store.RoleUser, Text: text, Timestamp: testNow.UnixMilli()}
}

func assistantMsg(text string) store.ChatMessage {
	return store.ChatMessage{Role: store.RoleAssistant, Text: text, Timestamp: testNow.UnixMilli()}
}

type fakeCompleter struct {
	reply  string
	err    error
	calls  int
	system string
	turns  []llm.Turn
}

func (f *fakeCompleter) Complete(_ context.Context, systemPrompt string, turns []llm.Turn) (string, error) {
	f.calls++
	f.system = systemPrompt
	f.turns = append([]llm.Turn(nil), turns...)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) Close() error { return nil }

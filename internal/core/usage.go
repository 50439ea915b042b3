package core

import (
	"context"

	"go.uber.org/zap"

	"hoursandfuture.com/nexthours/internal/store"
)

// DefaultFreeChatLimit is how many chats a free user may start.
const DefaultFreeChatLimit = 5

// IncrementFreeUsage counts one more free chat for the logged-in user. It only
// tracks the counter; FreeLimitReached is the policy check callers apply
// before starting a chat.
func (m *SessionManager) IncrementFreeUsage(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed, err := m.commit(ctx, func(rec *store.UserRecord) {
		rec.FreeUsageCount++
	})
	if changed {
		m.logger.Debug("free usage counted",
			zap.String("email", m.current.Email),
			zap.Int("count", m.current.FreeUsageCount))
	}
	return err
}

func FreeLimitReached(u store.User, limit int) bool {
	return u.SubscriptionTier == store.TierFree && u.FreeUsageCount >= limit
}

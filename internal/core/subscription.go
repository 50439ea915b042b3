package core

import (
	"context"

	"go.uber.org/zap"

	"hoursandfuture.com/nexthours/internal/store"
)

// placeholderCard is attached on upgrade when no card is on file. No payment
// is captured.
var placeholderCard = store.PaymentMethod{Brand: "Visa", Last4: "4242", Expiry: "12/28"}

// SetTier moves the logged-in user to tier. Downgrading to free drops the
// card and billing date; any paid tier keeps the card on file (or gets the
// placeholder) and bills again one calendar month from now.
func (m *SessionManager) SetTier(ctx context.Context, tier store.Tier) error {
	if !tier.Valid() {
		return ErrInvalidTier
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	changed, err := m.commit(ctx, func(rec *store.UserRecord) {
		rec.SubscriptionTier = tier
		if tier == store.TierFree {
			rec.PaymentMethod = nil
			rec.NextBillingDate = nil
			return
		}
		if rec.PaymentMethod == nil {
			pm := placeholderCard
			rec.PaymentMethod = &pm
		}
		next := m.now().AddDate(0, 1, 0)
		rec.NextBillingDate = &next
	})
	if changed {
		m.logger.Info("subscription changed", zap.String("tier", string(tier)))
	}
	return err
}

// UpdateSubscription is SetTier under the name the account pages use.
func (m *SessionManager) UpdateSubscription(ctx context.Context, tier store.Tier) error {
	return m.SetTier(ctx, tier)
}

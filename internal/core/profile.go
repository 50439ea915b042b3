package core

import (
	"context"

	"go.uber.org/zap"

	"hoursandfuture.com/nexthours/internal/store"
)

// ProfileUpdate carries the editable fields; nil means unchanged.
type ProfileUpdate struct {
	Name           *string `json:"name,omitempty"`
	DOB            *string `json:"dob,omitempty"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
	Password       *string `json:"password,omitempty"`
}

// UpdateUserProfile merges the supplied fields into the logged-in user. A
// non-empty password replaces the stored one and is never kept in memory.
func (m *SessionManager) UpdateUserProfile(ctx context.Context, upd ProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed, err := m.commit(ctx, func(rec *store.UserRecord) {
		if upd.Name != nil {
			rec.Name = *upd.Name
		}
		if upd.DOB != nil {
			rec.DOB = *upd.DOB
		}
		if upd.ProfilePicture != nil {
			rec.ProfilePicture = *upd.ProfilePicture
		}
		if upd.Password != nil && *upd.Password != "" {
			rec.Password = *upd.Password
		}
	})
	if changed {
		m.logger.Info("profile updated",
			zap.Bool("password_changed", upd.Password != nil && *upd.Password != ""))
	}
	return err
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	userKeyPrefix     = "user_data_"
	sessionPointerKey = "hours_active_session"
)

// RecordStore persists one UserRecord per email plus the single active
// session pointer. There is no transaction across keys and no cache: every
// read decodes what the backend holds right now.
type RecordStore struct {
	kv     KV
	logger *zap.Logger
}

func NewRecordStore(kv KV, logger *zap.Logger) *RecordStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordStore{kv: kv, logger: logger}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func UserKey(email string) string {
	return userKeyPrefix + NormalizeEmail(email)
}

// GetUser returns (nil, nil) when no record exists. A record that can no
// longer be decoded is reported the same way.
func (s *RecordStore) GetUser(ctx context.Context, email string) (*UserRecord, error) {
	key := UserKey(email)
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read user record: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	var rec UserRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.logger.Warn("discarding malformed user record", zap.String("key", key), zap.Error(err))
		return nil, nil
	}
	if rec.ChatHistory == nil {
		rec.ChatHistory = []ChatSession{}
	}
	return &rec, nil
}

func (s *RecordStore) PutUser(ctx context.Context, rec *UserRecord) error {
	if rec.ChatHistory == nil {
		rec.ChatHistory = []ChatSession{}
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode user record: %w", err)
	}
	if err := s.kv.Put(ctx, UserKey(rec.Email), raw); err != nil {
		return fmt.Errorf("failed to write user record: %w", err)
	}
	return nil
}

func (s *RecordStore) GetSessionPointer(ctx context.Context) (string, bool, error) {
	raw, err := s.kv.Get(ctx, sessionPointerKey)
	if err != nil {
		return "", false, fmt.Errorf("failed to read session pointer: %w", err)
	}
	if raw == nil {
		return "", false, nil
	}
	var email string
	if err := json.Unmarshal(raw, &email); err != nil || email == "" {
		s.logger.Warn("discarding malformed session pointer", zap.ByteString("value", raw))
		return "", false, nil
	}
	return email, true, nil
}

func (s *RecordStore) SetSessionPointer(ctx context.Context, email string) error {
	raw, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("failed to encode session pointer: %w", err)
	}
	if err := s.kv.Put(ctx, sessionPointerKey, raw); err != nil {
		return fmt.Errorf("failed to write session pointer: %w", err)
	}
	return nil
}

func (s *RecordStore) ClearSessionPointer(ctx context.Context) error {
	if err := s.kv.Delete(ctx, sessionPointerKey); err != nil {
		return fmt.Errorf("failed to clear session pointer: %w", err)
	}
	return nil
}

func (s *RecordStore) Close() error {
	return s.kv.Close()
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/go-redis/redis/v8"

	domainauth "rentgate/internal/domain/auth"
	domainuser "rentgate/internal/domain/user"
)

const sessionPrefix = "rentgate:session:"

// SessionStore caches bearer sessions; Redis drops them when they expire.
type SessionStore struct {
	client *goredis.Client
	now    func() time.Time
}

func NewSessionStore(client *goredis.Client) *SessionStore {
	return &SessionStore{client: client, now: time.Now}
}

type sessionEntry struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	if session == nil {
		return domainauth.ErrTokenRequired
	}
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(sessionEntry{
		UserID:    string(session.UserID),
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionPrefix+string(session.Token), raw, ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	raw, err := s.client.Get(ctx, sessionPrefix+string(token)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domainauth.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var entry sessionEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, err
	}
	return &domainauth.Session{
		Token:     token,
		UserID:    domainuser.ID(entry.UserID),
		CreatedAt: entry.CreatedAt.UTC(),
		ExpiresAt: entry.ExpiresAt.UTC(),
	}, nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	return s.client.Del(ctx, sessionPrefix+string(token)).Err()
}

var _ domainauth.SessionStore = (*SessionStore)(nil)

// AngelaMos | 2026
// store.go

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/identity-service/internal/config"
	"github.com/carterperez-dev/templates/identity-service/internal/core"
)

const (
	sessionPrefix     = "session-"
	userSessionPrefix = "user-sessions-"
	verifyPrefix      = "verify-"

	DefaultTTL             = 7 * 24 * time.Hour
	DefaultVerificationTTL = 24 * time.Hour
)

var (
	ErrNoSession           = fmt.Errorf("session not found: %w", core.ErrUnauthorized)
	ErrInvalidVerification = fmt.Errorf("verification token invalid: %w", core.ErrInvalidInput)
)

type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

type record struct {
	UID string `json:"uid"`
	Exp int64  `json:"exp"`
}

type Store struct {
	client    redis.Cmdable
	ttl       time.Duration
	verifyTTL time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewStore(client redis.Cmdable, cfg config.SessionConfig, opts ...Option) *Store {
	s := &Store{
		client:    client,
		ttl:       cfg.TTL,
		verifyTTL: cfg.VerificationTTL,
		now:       time.Now,
		logger:    slog.Default(),
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.verifyTTL <= 0 {
		s.verifyTTL = DefaultVerificationTTL
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) Create(ctx context.Context, userID string) (*Session, error) {
	token := uuid.NewString()
	expiresAt := s.now().Add(s.ttl)

	payload, err := json.Marshal(record{UID: userID, Exp: expiresAt.Unix()})
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	userKey := userSessionPrefix + userID

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionPrefix+token, payload, s.ttl)
	pipe.SAdd(ctx, userKey, token)
	pipe.Expire(ctx, userKey, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("store session: %w: %w", core.ErrUnavailable, err)
	}

	return &Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}, nil
}

// Resolve maps a token to its session. Missing, corrupt and expired
// records are all ErrNoSession; only store failures surface as
// core.ErrUnavailable.
func (s *Store) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	raw, err := s.client.Get(ctx, sessionPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w: %w", core.ErrUnavailable, err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil || rec.UID == "" {
		s.logger.WarnContext(ctx, "discarding corrupt session record")
		return nil, ErrNoSession
	}

	expiresAt := time.Unix(rec.Exp, 0)
	if !s.now().Before(expiresAt) {
		return nil, ErrNoSession
	}

	return &Session{
		Token:     token,
		UserID:    rec.UID,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Store) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	raw, err := s.client.GetDel(ctx, sessionPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete session: %w: %w", core.ErrUnavailable, err)
	}

	var rec record
	if json.Unmarshal(raw, &rec) != nil || rec.UID == "" {
		return nil
	}

	if err := s.client.SRem(ctx, userSessionPrefix+rec.UID, token).Err(); err != nil {
		return fmt.Errorf("unindex session: %w: %w", core.ErrUnavailable, err)
	}

	return nil
}

func (s *Store) InvalidateAll(ctx context.Context, userID string) error {
	userKey := userSessionPrefix + userID

	tokens, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("list sessions: %w: %w", core.ErrUnavailable, err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, sessionPrefix+token)
	}
	keys = append(keys, userKey)

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete sessions: %w: %w", core.ErrUnavailable, err)
	}

	return nil
}

func (s *Store) CreateVerification(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()

	if err := s.client.Set(ctx, verifyPrefix+token, userID, s.verifyTTL).Err(); err != nil {
		return "", fmt.Errorf("store verification: %w: %w", core.ErrUnavailable, err)
	}

	return token, nil
}

// ConsumeVerification returns the user a verification token was issued
// for. Tokens are single use.
func (s *Store) ConsumeVerification(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidVerification
	}

	userID, err := s.client.GetDel(ctx, verifyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrInvalidVerification
	}
	if err != nil {
		return "", fmt.Errorf("consume verification: %w: %w", core.ErrUnavailable, err)
	}

	return userID, nil
}

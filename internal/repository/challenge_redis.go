package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gigster_auth/internal/config"
	"gigster_auth/internal/middleware"
	"gigster_auth/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// saveScript writes a record under its token key and points the subject key
// at it, dropping whatever token the subject pointed at before.
//
// KEYS[1] subject key, KEYS[2] token key
// ARGV[1] record, ARGV[2] ttl ms, ARGV[3] token key prefix, ARGV[4] token
var saveScript = redis.NewScript(`
local old = redis.call('GET', KEYS[1])
if old and old ~= ARGV[4] then
  redis.call('DEL', ARGV[3] .. old)
end
redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[2])
redis.call('SET', KEYS[1], ARGV[4], 'PX', ARGV[2])
return 1
`)

// deleteScript removes a token key and its subject key if the subject still
// points at that token.
//
// KEYS[1] token key, KEYS[2] subject key
// ARGV[1] token
var deleteScript = redis.NewScript(`
local n = redis.call('DEL', KEYS[1])
if redis.call('GET', KEYS[2]) == ARGV[1] then
  redis.call('DEL', KEYS[2])
end
return n
`)

// NewRedisClient opens a client from cfg and pings it.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

type redisChallengeStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisChallengeStore stores records as JSON with native key expiry, so
// DeleteExpired has nothing to do.
func NewRedisChallengeStore(client redis.UniversalClient, keyPrefix string) ChallengeStore {
	if keyPrefix == "" {
		keyPrefix = config.DefaultRedisKeyPrefix
	}
	return &redisChallengeStore{client: client, prefix: keyPrefix, now: time.Now}
}

func (s *redisChallengeStore) activationTokenPrefix() string {
	return s.prefix + ":activation:tok:"
}

func (s *redisChallengeStore) activationEmailKey(email string) string {
	return s.prefix + ":activation:email:" + email
}

func (s *redisChallengeStore) challengeTokenPrefix() string {
	return s.prefix + ":challenge:tok:"
}

func (s *redisChallengeStore) challengeSubjectKey(userID uuid.UUID, kind model.ChallengeKind) string {
	return fmt.Sprintf("%s:challenge:subj:%s:%s", s.prefix, userID, kind)
}

// ttlMillis is the remaining lifetime of a record, at least one millisecond
// so that SET PX accepts it.
func (s *redisChallengeStore) ttlMillis(expiresAt time.Time) int64 {
	ms := expiresAt.Sub(s.now()).Milliseconds()
	if ms < 1 {
		return 1
	}
	return ms
}

func (s *redisChallengeStore) SavePendingActivation(ctx context.Context, p *model.PendingActivation) error {
	logger := middleware.GetLogger(ctx)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("redisChallengeStore.SavePendingActivation: %w", err)
	}
	keys := []string{s.activationEmailKey(p.Email), s.activationTokenPrefix() + p.Token}
	args := []interface{}{raw, s.ttlMillis(p.ExpiresAt), s.activationTokenPrefix(), p.Token}
	if err := saveScript.Run(ctx, s.client, keys, args...).Err(); err != nil {
		logger.Error("Failed to save pending activation", "error", err, "email", p.Email)
		return fmt.Errorf("redisChallengeStore.SavePendingActivation: %w", err)
	}
	return nil
}

func (s *redisChallengeStore) FindPendingActivationByToken(ctx context.Context, token string) (*model.PendingActivation, error) {
	var p model.PendingActivation
	if err := s.getJSON(ctx, s.activationTokenPrefix()+token, &p); err != nil {
		return nil, fmt.Errorf("redisChallengeStore.FindPendingActivationByToken: %w", err)
	}
	return &p, nil
}

func (s *redisChallengeStore) FindPendingActivationByEmail(ctx context.Context, email string) (*model.PendingActivation, error) {
	token, err := s.client.Get(ctx, s.activationEmailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("redisChallengeStore.FindPendingActivationByEmail: %w", err)
	}
	// The token key can expire a moment before the subject key.
	return s.FindPendingActivationByToken(ctx, token)
}

func (s *redisChallengeStore) DeletePendingActivation(ctx context.Context, token string) error {
	p, err := s.FindPendingActivationByToken(ctx, token)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	keys := []string{s.activationTokenPrefix() + token, s.activationEmailKey(p.Email)}
	if err := deleteScript.Run(ctx, s.client, keys, token).Err(); err != nil {
		return fmt.Errorf("redisChallengeStore.DeletePendingActivation: %w", err)
	}
	return nil
}

func (s *redisChallengeStore) SaveChallenge(ctx context.Context, c *model.Challenge) error {
	logger := middleware.GetLogger(ctx)
	now := s.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("redisChallengeStore.SaveChallenge: %w", err)
	}
	keys := []string{s.challengeSubjectKey(c.UserID, c.Kind), s.challengeTokenPrefix() + c.Token}
	args := []interface{}{raw, s.ttlMillis(c.ExpiresAt), s.challengeTokenPrefix(), c.Token}
	if err := saveScript.Run(ctx, s.client, keys, args...).Err(); err != nil {
		logger.Error("Failed to save challenge", "error", err, "user_id", c.UserID, "kind", c.Kind)
		return fmt.Errorf("redisChallengeStore.SaveChallenge: %w", err)
	}
	return nil
}

func (s *redisChallengeStore) FindChallengeByToken(ctx context.Context, token string, kind model.ChallengeKind) (*model.Challenge, error) {
	var c model.Challenge
	if err := s.getJSON(ctx, s.challengeTokenPrefix()+token, &c); err != nil {
		return nil, fmt.Errorf("redisChallengeStore.FindChallengeByToken: %w", err)
	}
	if c.Kind != kind {
		return nil, model.ErrNotFound
	}
	return &c, nil
}

func (s *redisChallengeStore) DeleteChallenge(ctx context.Context, token string) error {
	var c model.Challenge
	err := s.getJSON(ctx, s.challengeTokenPrefix()+token, &c)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redisChallengeStore.DeleteChallenge: %w", err)
	}
	keys := []string{s.challengeTokenPrefix() + token, s.challengeSubjectKey(c.UserID, c.Kind)}
	if err := deleteScript.Run(ctx, s.client, keys, token).Err(); err != nil {
		return fmt.Errorf("redisChallengeStore.DeleteChallenge: %w", err)
	}
	return nil
}

func (s *redisChallengeStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (s *redisChallengeStore) getJSON(ctx context.Context, key string, dst interface{}) error {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(raw, dst)
}

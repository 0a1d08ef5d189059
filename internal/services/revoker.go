package services

import (
  "context"
  "fmt"
  "time"

  "github.com/redis/go-redis/v9"

  "github.com/smartsaarthi/saarthi-backend/internal/logger"
)

// TokenRevoker is the server-side revocation list for session tokens.
// Sign-out adds the token's jti with a TTL equal to the token's remaining
// life; verification rejects any jti found here. Sign-out therefore
// actually invalidates the token instead of leaving it valid until expiry.
type TokenRevoker interface {
  Revoke(ctx context.Context, jti string, ttl time.Duration) error
  IsRevoked(ctx context.Context, jti string) (bool, error)
}

type redisTokenRevoker struct {
  log    *logger.Logger
  client *redis.Client
}

func NewRedisTokenRevoker(log *logger.Logger, address, password string) (TokenRevoker, error) {
  serviceLog := log.With("service", "TokenRevoker")
  rdb := redis.NewClient(&redis.Options{
    Addr:     address,
    Password: password,
    DB:       0,
  })
  ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
  defer cancel()
  if err := rdb.Ping(ctx).Err(); err != nil {
    return nil, fmt.Errorf("redis ping failed: %w", err)
  }
  return &redisTokenRevoker{log: serviceLog, client: rdb}, nil
}

func revocationKey(jti string) string {
  return "saarthi:revoked:" + jti
}

func (rt *redisTokenRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
  if jti == "" {
    return nil
  }
  if ttl <= 0 {
    // token already expired; nothing to revoke
    return nil
  }
  if err := rt.client.Set(ctx, revocationKey(jti), "1", ttl).Err(); err != nil {
    rt.log.Warn("failed to store revoked token id", "error", err)
    return err
  }
  return nil
}

func (rt *redisTokenRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
  if jti == "" {
    return false, nil
  }
  n, err := rt.client.Exists(ctx, revocationKey(jti)).Result()
  if err != nil {
    rt.log.Warn("failed to check revoked token id", "error", err)
    return false, err
  }
  return n > 0, nil
}

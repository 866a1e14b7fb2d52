package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore keeps session state in Redis under prefix.
func NewRedisStore(client *redis.Client, prefix string) Store {
	return &redisStore{client: client, prefix: prefix}
}

func (s *redisStore) companyKey(uid string) string { return s.prefix + ":company:" + uid }
func (s *redisStore) revokedKey(tokenID string) string { return s.prefix + ":revoked:" + tokenID }
func (s *redisStore) exportKey(tokenID string) string { return s.prefix + ":export:" + tokenID }

func (s *redisStore) RememberCompany(ctx context.Context, uid, companyID string) error {
	return s.client.Set(ctx, s.companyKey(uid), companyID, 0).Err()
}

func (s *redisStore) RememberedCompany(ctx context.Context, uid string) (string, error) {
	val, err := s.client.Get(ctx, s.companyKey(uid)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (s *redisStore) ForgetCompany(ctx context.Context, uid string) error {
	return s.client.Del(ctx, s.companyKey(uid)).Err()
}

func (s *redisStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.revokedKey(tokenID), "1", ttl).Err()
}

func (s *redisStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.revokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *redisStore) SaveExportColumns(ctx context.Context, tokenID string, columns []string, ttl time.Duration) error {
	key := s.exportKey(tokenID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(columns) == 0 {
			return nil
		}
		values := make([]any, len(columns))
		for i, c := range columns {
			values[i] = c
		}
		pipe.RPush(ctx, key, values...)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	return err
}

func (s *redisStore) ExportColumns(ctx context.Context, tokenID string) ([]string, error) {
	cols, err := s.client.LRange(ctx, s.exportKey(tokenID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, nil
	}
	return cols, nil
}

func (s *redisStore) ClearExportColumns(ctx context.Context, tokenID string) error {
	return s.client.Del(ctx, s.exportKey(tokenID)).Err()
}

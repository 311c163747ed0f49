package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	presenceKeyPrefix  = "presence:"
	defaultPresenceTTL = 2 * time.Minute
)

// PresenceScope separates admin and customer presence registries.
type PresenceScope string

const (
	PresenceAdmins  PresenceScope = "admins"
	PresenceClients PresenceScope = "clients"
)

// PresenceService tracks which users are currently online. Each heartbeat
// refreshes a per-user key; the set of live keys is the online roster.
type PresenceService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPresenceService(addr string) *PresenceService {
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &PresenceService{client: client, ttl: defaultPresenceTTL}
}

func presenceKey(scope PresenceScope, userID uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s", presenceKeyPrefix, scope, userID)
}

// Heartbeat marks a user online for the TTL window.
func (s *PresenceService) Heartbeat(ctx context.Context, scope PresenceScope, userID uuid.UUID) error {
	if err := s.client.Set(ctx, presenceKey(scope, userID), time.Now().Unix(), s.ttl).Err(); err != nil {
		return fmt.Errorf("record heartbeat: %w", err)
	}
	return nil
}

// Disconnect removes a user from the roster immediately.
func (s *PresenceService) Disconnect(ctx context.Context, scope PresenceScope, userID uuid.UUID) error {
	if err := s.client.Del(ctx, presenceKey(scope, userID)).Err(); err != nil {
		return fmt.Errorf("remove presence: %w", err)
	}
	return nil
}

// Online returns the ids of users with a live heartbeat in the scope.
func (s *PresenceService) Online(ctx context.Context, scope PresenceScope) ([]uuid.UUID, error) {
	pattern := fmt.Sprintf("%s%s:*", presenceKeyPrefix, scope)

	var ids []uuid.UUID
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw := key[len(fmt.Sprintf("%s%s:", presenceKeyPrefix, scope)):]
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan presence keys: %w", err)
	}
	return ids, nil
}

// IsOnline reports whether a specific user has a live heartbeat.
func (s *PresenceService) IsOnline(ctx context.Context, scope PresenceScope, userID uuid.UUID) (bool, error) {
	n, err := s.client.Exists(ctx, presenceKey(scope, userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check presence: %w", err)
	}
	return n > 0, nil
}

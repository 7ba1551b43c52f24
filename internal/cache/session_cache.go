package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pinkknives/skolapp-realtime/internal/model"
)

// SessionCache is the Redis-backed registry of live sessions: per-session
// meta with a plan-derived TTL, the set of a teacher's active sessions, and
// the participant count used to enforce per-session ceilings. A session
// lapses when its keys expire; there is no explicit delete besides End.
type SessionCache interface {
	SetMeta(ctx context.Context, meta *model.SessionMeta, ttl time.Duration) error
	GetMeta(ctx context.Context, id string) (*model.SessionMeta, error)
	Delete(ctx context.Context, id string) error

	AddActive(ctx context.Context, teacherID, sessionID string) error
	RemoveActive(ctx context.Context, teacherID, sessionID string) error
	ActiveCount(ctx context.Context, teacherID string) (int, error)

	IncrParticipants(ctx context.Context, sessionID string, ttl time.Duration) (int, error)
	DecrParticipants(ctx context.Context, sessionID string) error
}

type sessionCache struct {
	client *redis.Client
}

// NewSessionCache creates a new session cache
func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{client: client}
}

func (c *sessionCache) metaKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (c *sessionCache) activeKey(teacherID string) string {
	return fmt.Sprintf("teacher_sessions:%s", teacherID)
}

func (c *sessionCache) participantsKey(id string) string {
	return fmt.Sprintf("session_participants:%s", id)
}

// SetMeta stores session meta. A zero ttl means the session never lapses
// (unlimited plans).
func (c *sessionCache) SetMeta(ctx context.Context, meta *model.SessionMeta, ttl time.Duration) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.metaKey(meta.ID), data, ttl).Err()
}

func (c *sessionCache) GetMeta(ctx context.Context, id string) (*model.SessionMeta, error) {
	data, err := c.client.Get(ctx, c.metaKey(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var meta model.SessionMeta
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.metaKey(id), c.participantsKey(id)).Err()
}

func (c *sessionCache) AddActive(ctx context.Context, teacherID, sessionID string) error {
	return c.client.SAdd(ctx, c.activeKey(teacherID), sessionID).Err()
}

func (c *sessionCache) RemoveActive(ctx context.Context, teacherID, sessionID string) error {
	return c.client.SRem(ctx, c.activeKey(teacherID), sessionID).Err()
}

// ActiveCount counts the teacher's live sessions, pruning entries whose meta
// has already lapsed so an expired run never blocks a new one.
func (c *sessionCache) ActiveCount(ctx context.Context, teacherID string) (int, error) {
	ids, err := c.client.SMembers(ctx, c.activeKey(teacherID)).Result()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, id := range ids {
		n, err := c.client.Exists(ctx, c.metaKey(id)).Result()
		if err != nil {
			return 0, err
		}
		if n > 0 {
			count++
			continue
		}
		if err := c.client.SRem(ctx, c.activeKey(teacherID), id).Err(); err != nil {
			return 0, err
		}
	}
	return count, nil
}

func (c *sessionCache) IncrParticipants(ctx context.Context, sessionID string, ttl time.Duration) (int, error) {
	key := c.participantsKey(sessionID)
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl > 0 {
		if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, err
		}
	}
	return int(n), nil
}

func (c *sessionCache) DecrParticipants(ctx context.Context, sessionID string) error {
	return c.client.Decr(ctx, c.participantsKey(sessionID)).Err()
}

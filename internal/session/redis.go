package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type envelope struct {
	State   string          `json:"state"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Redis struct {
	c *redis.Client
}

func NewRedis(addr string, db int) *Redis {
	return &Redis{c: redis.NewClient(&redis.Options{Addr: addr, DB: db})}
}

func NewRedisWithClient(c *redis.Client) *Redis {
	return &Redis{c: c}
}

func (r *Redis) Save(ctx context.Context, key, state string, payload any) error {
	env := envelope{State: state}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal session payload: %w", err)
		}
		env.Payload = b
	}
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return r.c.Set(ctx, key, b, 0).Err()
}

func (r *Redis) Load(ctx context.Context, key string, dst any) (string, error) {
	b, err := r.c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return "", fmt.Errorf("decode session: %w", err)
	}
	if dst != nil && len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, dst); err != nil {
			return "", fmt.Errorf("decode session payload: %w", err)
		}
	}
	return env.State, nil
}

func (r *Redis) Clear(ctx context.Context, key string) error {
	return r.c.Del(ctx, key).Err()
}

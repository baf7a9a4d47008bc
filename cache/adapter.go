package cache

import (
	"context"
	"time"

	"github.com/kasuganosora/questforge/server/cache/local"
	cacheredis "github.com/kasuganosora/questforge/server/cache/redis"
	"github.com/kasuganosora/questforge/server/config"
)

// Cache is the key/value store used for login sessions.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Message is a received pub/sub message.
type Message struct {
	Channel string
	Payload string
}

// PubSub defines channel publish/subscribe operations.
type PubSub interface {
	Publish(ctx context.Context, channel, message string) error
	Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error)
}

// NewCache returns a Cache backed by Redis if RedisAddr is set,
// otherwise returns an in-process LocalCache.
func NewCache(cfg config.CacheConfig) (Cache, error) {
	if cfg.RedisAddr != "" {
		return cacheredis.NewCache(redisConfig(cfg))
	}
	return local.NewCache(local.Config{
		GCInterval: cfg.LocalGCInterval,
	})
}

// NewPubSub returns a PubSub backed by Redis if RedisAddr is set,
// otherwise returns an in-process LocalPubSub wrapped in an adapter.
func NewPubSub(cfg config.CacheConfig) (PubSub, error) {
	bufSize := cfg.LocalPubSubBuf
	if bufSize <= 0 {
		bufSize = 256
	}
	if cfg.RedisAddr != "" {
		rps, err := cacheredis.NewPubSub(redisConfig(cfg))
		if err != nil {
			return nil, err
		}
		return &redisPubSubAdapter{ps: rps, buf: bufSize}, nil
	}
	return &localPubSubAdapter{ps: local.NewPubSub(bufSize), buf: bufSize}, nil
}

func redisConfig(cfg config.CacheConfig) cacheredis.Config {
	return cacheredis.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

// ---- adapters to bridge sub-package message types to cache.Message ----

type localPubSubAdapter struct {
	ps  *local.LocalPubSub
	buf int
}

func (a *localPubSubAdapter) Publish(ctx context.Context, channel, message string) error {
	return a.ps.Publish(ctx, channel, message)
}

func (a *localPubSubAdapter) Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error) {
	localCh, cancel, err := a.ps.Subscribe(ctx, channels...)
	if err != nil {
		return nil, nil, err
	}
	out := make(chan *Message, a.buf)
	go func() {
		defer close(out)
		for msg := range localCh {
			select {
			case out <- &Message{Channel: msg.Channel, Payload: msg.Payload}:
			default:
			}
		}
	}()
	return out, cancel, nil
}

type redisPubSubAdapter struct {
	ps  *cacheredis.RedisPubSub
	buf int
}

func (a *redisPubSubAdapter) Publish(ctx context.Context, channel, message string) error {
	return a.ps.Publish(ctx, channel, message)
}

func (a *redisPubSubAdapter) Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error) {
	redisCh, cancel, err := a.ps.Subscribe(ctx, channels...)
	if err != nil {
		return nil, nil, err
	}
	out := make(chan *Message, a.buf)
	go func() {
		defer close(out)
		for msg := range redisCh {
			select {
			case out <- &Message{Channel: msg.Channel, Payload: msg.Payload}:
			default:
			}
		}
	}()
	return out, cancel, nil
}

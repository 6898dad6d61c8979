package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPoolSize     = 10
	defaultMinIdleConns = 2
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second
)

// Options selects the Redis server and tunes the client pool. Zero pool and
// timeout values fall back to defaults.
type Options struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// clientOptions validates opts and fills in defaults.
func clientOptions(opts Options) (*redis.Options, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, errors.New("redis: addr is empty")
	}
	if opts.DB < 0 {
		return nil, errors.New("redis: db index must not be negative")
	}

	out := &redis.Options{
		Addr:         addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	if out.PoolSize <= 0 {
		out.PoolSize = defaultPoolSize
	}
	if out.MinIdleConns <= 0 {
		out.MinIdleConns = defaultMinIdleConns
	}
	if out.MinIdleConns > out.PoolSize {
		out.MinIdleConns = out.PoolSize
	}
	if out.DialTimeout <= 0 {
		out.DialTimeout = defaultDialTimeout
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = defaultReadTimeout
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = defaultWriteTimeout
	}
	return out, nil
}

// NewRedisClient returns a go-redis client built from opts and validates the
// connection with PING.
func NewRedisClient(ctx context.Context, opts Options) (*redis.Client, error) {
	clientOpts, err := clientOptions(opts)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(clientOpts)

	pingCtx, cancel := context.WithTimeout(ctx, clientOpts.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

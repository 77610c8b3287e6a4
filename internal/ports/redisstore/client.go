package redisstore

import (
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultAddr     = "127.0.0.1:6379"
	defaultPoolSize = 10
	defaultMinIdle  = 5
	defaultMaxIdle  = 10
	defaultLifetime = 2 * time.Minute
	defaultIdleTime = 5 * time.Minute
)

// ClientOption tweaks the underlying redis options.
type ClientOption func(*redis.Options)

// NewClient builds a Redis client with sane pool defaults.
func NewClient(opts ...ClientOption) *redis.Client {
	options := &redis.Options{
		Addr:            defaultAddr,
		PoolSize:        defaultPoolSize,
		MinIdleConns:    defaultMinIdle,
		MaxIdleConns:    defaultMaxIdle,
		ConnMaxLifetime: defaultLifetime,
		ConnMaxIdleTime: defaultIdleTime,
	}
	for _, opt := range opts {
		opt(options)
	}
	return redis.NewClient(options)
}

// WithAddr sets the host:port to dial.
func WithAddr(addr string) ClientOption {
	return func(o *redis.Options) {
		if addr != "" {
			o.Addr = addr
		}
	}
}

// WithPassword sets the auth password.
func WithPassword(pass string) ClientOption {
	return func(o *redis.Options) {
		o.Password = pass
	}
}

// WithDB selects the logical database.
func WithDB(db int) ClientOption {
	return func(o *redis.Options) {
		if db >= 0 {
			o.DB = db
		}
	}
}

// WithPoolSize sets the connection pool size.
func WithPoolSize(size int) ClientOption {
	return func(o *redis.Options) {
		if size > 0 {
			o.PoolSize = size
		}
	}
}

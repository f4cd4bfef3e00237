// Package cache provides a read-through Redis cache in front of an
// orm.Store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/untout/persistence/orm"
)

// DefaultTTL is used when no TTL option is given.
const DefaultTTL = 5 * time.Minute

// Repository caches GetByID results in Redis, encoded with msgpack. Update
// and Delete evict the entry after the store reports success. Redis
// failures never fail an operation; they are logged and the store is used.
type Repository[K comparable, T any] struct {
	store  orm.Store[K, T]
	client redis.UniversalClient
	prefix string
	id     func(*T) K
	ttl    time.Duration
	logger *zap.Logger
}

// Option configures a Repository.
type Option func(*options)

type options struct {
	ttl    time.Duration
	logger *zap.Logger
}

// WithTTL sets how long entries live. Zero or negative keeps DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithLogger logs cache failures at warn level.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New wraps store. Keys are "<prefix>:<id>"; id reads the identity of an
// entity, typically Mapping.ID.
func New[K comparable, T any](
	store orm.Store[K, T],
	client redis.UniversalClient,
	prefix string,
	id func(*T) K,
	opts ...Option,
) (*Repository[K, T], error) {
	switch {
	case store == nil:
		return nil, fmt.Errorf("%w: store is nil", orm.ErrInvalidArgument)
	case client == nil:
		return nil, fmt.Errorf("%w: redis client is nil", orm.ErrInvalidArgument)
	case prefix == "":
		return nil, fmt.Errorf("%w: key prefix is empty", orm.ErrInvalidArgument)
	case id == nil:
		return nil, fmt.Errorf("%w: id accessor is nil", orm.ErrInvalidArgument)
	}

	o := options{ttl: DefaultTTL, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository[K, T]{
		store:  store,
		client: client,
		prefix: prefix,
		id:     id,
		ttl:    o.ttl,
		logger: o.logger.With(zap.String("prefix", prefix)),
	}, nil
}

// Key returns the Redis key for id.
func (r *Repository[K, T]) Key(id K) string {
	return fmt.Sprintf("%s:%v", r.prefix, id)
}

// GetAll is not cached.
func (r *Repository[K, T]) GetAll(ctx context.Context) ([]T, error) {
	return r.store.GetAll(ctx) //nolint:wrapcheck // pass through
}

// GetByID serves id from Redis when cached. A miss in the store is not
// cached.
func (r *Repository[K, T]) GetByID(ctx context.Context, id K) (T, bool, error) {
	key := r.Key(id)

	if v, ok := r.lookup(ctx, key); ok {
		return v, true, nil
	}

	v, found, err := r.store.GetByID(ctx, id)
	if err != nil || !found {
		return v, found, err //nolint:wrapcheck // pass through
	}
	r.fill(ctx, key, &v)
	return v, true, nil
}

// Add is passed through; the new row is cached on first read.
func (r *Repository[K, T]) Add(ctx context.Context, t *T) error {
	return r.store.Add(ctx, t) //nolint:wrapcheck // pass through
}

func (r *Repository[K, T]) Update(ctx context.Context, t *T) (bool, error) {
	ok, err := r.store.Update(ctx, t)
	if err != nil || t == nil {
		return ok, err //nolint:wrapcheck // pass through
	}
	r.evict(ctx, r.Key(r.id(t)))
	return ok, nil
}

func (r *Repository[K, T]) Delete(ctx context.Context, id K) (bool, error) {
	ok, err := r.store.Delete(ctx, id)
	if err != nil {
		return ok, err //nolint:wrapcheck // pass through
	}
	r.evict(ctx, r.Key(id))
	return ok, nil
}

func (r *Repository[K, T]) lookup(ctx context.Context, key string) (T, bool) {
	var v T
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return v, false
	}
	if err := msgpack.Unmarshal(b, &v); err != nil {
		r.logger.Warn("cache entry undecodable", zap.String("key", key), zap.Error(err))
		r.evict(ctx, key)
		return v, false
	}
	return v, true
}

func (r *Repository[K, T]) fill(ctx context.Context, key string, v *T) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		r.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, key, b, r.ttl).Err(); err != nil {
		r.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *Repository[K, T]) evict(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Warn("cache evict failed", zap.String("key", key), zap.Error(err))
	}
}

var _ orm.Store[int64, struct{}] = (*Repository[int64, struct{}])(nil)

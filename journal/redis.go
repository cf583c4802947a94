package journal

import (
	"context"
	"fmt"
	"net/url"

	"github.com/redis/go-redis/v9"

	"github.com/OpenZilia/parsemap-test-harness/servicedef"
)

// Redis is a Journal stored as one Redis hash, with a field per point.
type Redis struct {
	redis  *redis.Client
	key    string
	scheme string
}

// openRedis accepts the go-redis URL format plus an optional "key" parameter naming the hash.
func openRedis(u *url.URL) (*Redis, error) {
	q := u.Query()
	key := q.Get("key")
	if key == "" {
		key = DefaultPrefix + ":points"
	}
	q.Del("key")
	stripped := *u
	stripped.RawQuery = q.Encode()
	opts, err := redis.ParseURL(stripped.String())
	if err != nil {
		return nil, fmt.Errorf("invalid Redis journal DSN: %w", err)
	}
	r := NewRedis(redis.NewClient(opts), key)
	r.scheme = u.Scheme
	return r, nil
}

func NewRedis(client *redis.Client, key string) *Redis {
	scheme := "redis"
	if client.Options().TLSConfig != nil {
		scheme = "rediss"
	}
	return &Redis{redis: client, key: key, scheme: scheme}
}

func (r *Redis) Record(ctx context.Context, entry Entry) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	return r.redis.HSet(ctx, r.key, entry.Point.String(), data).Err()
}

func (r *Redis) Entries(ctx context.Context) ([]Entry, error) {
	fields, err := r.redis.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	ret := make([]Entry, 0, len(fields))
	for k, v := range fields {
		e, err := decodeEntry(k, []byte(v))
		if err != nil {
			return nil, err
		}
		ret = append(ret, e)
	}
	return sortEntries(ret), nil
}

func (r *Redis) Forget(ctx context.Context, point servicedef.EntityRef) error {
	return r.redis.HDel(ctx, r.key, point.String()).Err()
}

func (r *Redis) DSN() string {
	return fmt.Sprintf("%s://%s/%d?key=%s", r.scheme, r.redis.Options().Addr, r.redis.Options().DB, r.key)
}

func (r *Redis) Close() error {
	return r.redis.Close()
}

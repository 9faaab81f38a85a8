package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/store"
)

// Key is a (subscription, renewal date) pair.
type Key struct {
	ID      string
	Renewal model.Date
}

func (k Key) String() string {
	return k.ID + ":" + k.Renewal.String()
}

// Ledger remembers which reminders were already sent.
type Ledger interface {
	// Mark atomically records k and reports whether it was new.
	Mark(ctx context.Context, k Key) (bool, error)
	Seen(ctx context.Context, k Key) (bool, error)
	// Unmark forgets k so a later scan can fire it again.
	Unmark(ctx context.Context, k Key) error
	// Prune drops entries whose renewal date is before the given day.
	Prune(ctx context.Context, before model.Date) (int, error)
}

// KVPrefix namespaces ledger keys in a store.KV.
const KVPrefix = "reminder:"

// KVLedger keeps the ledger inside a store.KV.
type KVLedger struct {
	kv  store.KV
	now func() time.Time
}

// NewKVLedger returns a ledger stored in kv.
func NewKVLedger(kv store.KV) *KVLedger {
	return &KVLedger{kv: kv, now: time.Now}
}

func (l *KVLedger) Mark(_ context.Context, k Key) (bool, error) {
	ok, err := l.kv.SetIfAbsent(KVPrefix+k.String(), l.now().UTC().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("marking %s: %w", k, err)
	}
	return ok, nil
}

func (l *KVLedger) Seen(_ context.Context, k Key) (bool, error) {
	_, ok, err := l.kv.Get(KVPrefix + k.String())
	return ok, err
}

func (l *KVLedger) Unmark(_ context.Context, k Key) error {
	return l.kv.Delete(KVPrefix + k.String())
}

func (l *KVLedger) Prune(_ context.Context, before model.Date) (int, error) {
	keys, err := l.kv.Keys(KVPrefix)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, key := range keys {
		d, ok := keyDate(key)
		if !ok || !d.Before(before) {
			continue
		}
		if err := l.kv.Delete(key); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// keyDate extracts the renewal date suffix of a ledger key.
func keyDate(key string) (model.Date, bool) {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return model.Date{}, false
	}
	d, err := model.ParseDate(key[i+1:])
	if err != nil {
		return model.Date{}, false
	}
	return d, true
}

// RedisPrefix namespaces ledger keys in Redis.
const RedisPrefix = "subtrack:reminder:"

// RedisLedger keeps the ledger in Redis. Entries expire a few days after
// their renewal date, so Prune is only a backstop.
type RedisLedger struct {
	client *redis.Client
	now    func() time.Time
	grace  time.Duration
}

// NewRedisLedger wraps an existing client.
func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client, now: time.Now, grace: 72 * time.Hour}
}

func (l *RedisLedger) ttl(k Key) time.Duration {
	ttl := k.Renewal.Time().Add(24*time.Hour + l.grace).Sub(l.now())
	if ttl < time.Hour {
		ttl = time.Hour
	}
	return ttl
}

func (l *RedisLedger) Mark(ctx context.Context, k Key) (bool, error) {
	ok, err := l.client.SetNX(ctx, RedisPrefix+k.String(), l.now().UTC().Format(time.RFC3339), l.ttl(k)).Result()
	if err != nil {
		return false, fmt.Errorf("marking %s in redis: %w", k, err)
	}
	return ok, nil
}

func (l *RedisLedger) Seen(ctx context.Context, k Key) (bool, error) {
	n, err := l.client.Exists(ctx, RedisPrefix+k.String()).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *RedisLedger) Unmark(ctx context.Context, k Key) error {
	return l.client.Del(ctx, RedisPrefix+k.String()).Err()
}

func (l *RedisLedger) Prune(ctx context.Context, before model.Date) (int, error) {
	var (
		cursor uint64
		n      int
	)
	for {
		keys, next, err := l.client.Scan(ctx, cursor, RedisPrefix+"*", 200).Result()
		if err != nil {
			return n, err
		}
		var stale []string
		for _, key := range keys {
			if d, ok := keyDate(key); ok && d.Before(before) {
				stale = append(stale, key)
			}
		}
		if len(stale) > 0 {
			removed, err := l.client.Del(ctx, stale...).Result()
			if err != nil {
				return n, err
			}
			n += int(removed)
		}
		if next == 0 {
			return n, nil
		}
		cursor = next
	}
}

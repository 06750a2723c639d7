package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultLockTTL = 30 * time.Second

// Lock serializes purchase attempts per ticket. It is advisory: the
// conditional status update in the store remains the correctness backstop
// when Redis is unreachable or a TTL expires mid-purchase.
type Lock struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewLock(client *redis.Client, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Lock{Client: client, TTL: ttl}
}

func key(ticketID int64) string {
	return fmt.Sprintf("ticket_lock:%d", ticketID)
}

// Acquire takes the per-ticket lock for the given owner token. Returns false
// when another purchase holds it.
func (l *Lock) Acquire(ctx context.Context, ticketID int64, owner string) (bool, error) {
	return l.Client.SetNX(ctx, key(ticketID), owner, l.TTL).Result()
}

// Release frees the lock only if the owner still holds it, so an expired
// lock reacquired by another purchase is never released from under it.
func (l *Lock) Release(ctx context.Context, ticketID int64, owner string) error {
	k := key(ticketID)
	val, err := l.Client.Get(ctx, k).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if val == owner {
		_, err = l.Client.Del(ctx, k).Result()
		return err
	}
	return nil
}

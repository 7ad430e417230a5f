// Package redis holds the shared in-flight flag used when several API
// instances run the periodic sync against the same database.
package redis

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v7"
	"github.com/google/uuid"
)

// DefaultTTL bounds how long a crashed holder can block a user's next pass.
const DefaultTTL = 10 * time.Minute

const keyPrefix = "poupa:sync:inflight:"

// releaseScript deletes the key only when it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// InFlight is a per-user lock backed by SETNX with a TTL.
type InFlight struct {
	client *goredis.Client
	ttl    time.Duration
	token  string
}

// NewClient connects to Redis and pings it.
func NewClient(addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := client.Ping().Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// NewInFlight creates a guard. A non-positive ttl falls back to DefaultTTL.
func NewInFlight(client *goredis.Client, ttl time.Duration) *InFlight {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InFlight{
		client: client,
		ttl:    ttl,
		token:  uuid.NewString(),
	}
}

// Key returns the Redis key holding the flag for a user.
func Key(userID int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10)
}

// Acquire sets the user's flag. It reports false when another holder has it.
func (g *InFlight) Acquire(ctx context.Context, userID int64) (bool, error) {
	ok, err := g.client.WithContext(ctx).SetNX(Key(userID), g.token, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire in-flight flag for user %d: %w", userID, err)
	}
	return ok, nil
}

// Release clears the user's flag if this instance still holds it.
func (g *InFlight) Release(ctx context.Context, userID int64) error {
	n, err := releaseScript.Run(g.client.WithContext(ctx), []string{Key(userID)}, g.token).Int()
	if err != nil {
		return fmt.Errorf("failed to release in-flight flag for user %d: %w", userID, err)
	}
	if n == 0 {
		log.Printf("User %d: in-flight flag already expired or taken over", userID)
	}
	return nil
}

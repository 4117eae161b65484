package lease

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Deletes the lease only if owner still holds it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisVehicleLease reserves vehicles across service instances so concurrent
// collection-point batches never draw from the same vehicle.
type RedisVehicleLease struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisVehicleLease(rdb *redis.Client, ttl time.Duration) *RedisVehicleLease {
	return &RedisVehicleLease{rdb: rdb, ttl: ttl}
}

// NewRedisVehicleLeaseFromURL connects using a redis:// URL.
func NewRedisVehicleLeaseFromURL(ctx context.Context, url string, ttl time.Duration) (*RedisVehicleLease, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis lease: parse url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis lease: ping: %w", err)
	}
	return NewRedisVehicleLease(rdb, ttl), nil
}

// Lease returns the subset of vehicleIDs now held by owner, including ones
// it already held. On error, leases taken by this call are dropped again.
func (l *RedisVehicleLease) Lease(ctx context.Context, owner string, vehicleIDs []string) (_ []string, err error) {
	leased := make([]string, 0, len(vehicleIDs))
	var acquired []string
	defer func() {
		if err != nil && len(acquired) > 0 {
			if rerr := l.Release(context.WithoutCancel(ctx), owner, acquired); rerr != nil {
				err = errors.Join(err, rerr)
			}
		}
	}()

	for _, id := range vehicleIDs {
		ok, err := l.rdb.SetNX(ctx, key(id), owner, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lease: set %q: %w", id, err)
		}
		if ok {
			acquired = append(acquired, id)
		} else {
			holder, err := l.rdb.Get(ctx, key(id)).Result()
			if err != nil && err != redis.Nil {
				return nil, fmt.Errorf("redis lease: get %q: %w", id, err)
			}
			if holder != owner {
				continue
			}
		}
		leased = append(leased, id)
	}
	return leased, nil
}

func (l *RedisVehicleLease) Release(ctx context.Context, owner string, vehicleIDs []string) error {
	for _, id := range vehicleIDs {
		if err := releaseScript.Run(ctx, l.rdb, []string{key(id)}, owner).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("redis lease: release %q: %w", id, err)
		}
	}
	return nil
}

func (l *RedisVehicleLease) Close() error { return l.rdb.Close() }

func key(vehicleID string) string { return "vehicle-lease:" + vehicleID }

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"marketRepricer/business/repricer"
)

// FlagRepository stores operational toggles that must take effect
// mid-batch without a deploy. Express mode is a TTL'd key per vendor.
type FlagRepository struct {
	client *redis.Client
}

var _ repricer.FlagRepository = (*FlagRepository)(nil)

func NewFlagRepository(client *redis.Client) *FlagRepository {
	return &FlagRepository{
		client: client,
	}
}

func expressKey(vendorID string) string {
	return fmt.Sprintf("repricer:express:%s", vendorID)
}

func (r *FlagRepository) ExpressModeActive(ctx context.Context, vendorID string) (bool, error) {
	val, err := r.client.Get(ctx, expressKey(vendorID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read express flag: %w", err)
	}

	return val == "1", nil
}

// SetExpressMode raises or clears the flag. A raised flag expires on its
// own after ttl so a forgotten toggle cannot park repricing forever.
func (r *FlagRepository) SetExpressMode(ctx context.Context, vendorID string, active bool, ttl time.Duration) error {
	key := expressKey(vendorID)

	if !active {
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to clear express flag: %w", err)
		}
		return nil
	}

	if err := r.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to set express flag: %w", err)
	}

	return nil
}

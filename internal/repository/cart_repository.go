package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/grocery-storefront/internal/domain"
)

const cartTTL = 30 * 24 * time.Hour

// CartRepository stores one cart snapshot per user.
type CartRepository interface {
	Get(ctx context.Context, userID string) (domain.CartSnapshot, error)
	Put(ctx context.Context, userID string, cart domain.CartSnapshot) error
	Delete(ctx context.Context, userID string) error
}

type cartRepository struct {
	client redis.Cmdable
}

// NewCartRepository keeps carts as JSON under "cart:<userID>".
func NewCartRepository(client redis.Cmdable) CartRepository {
	return &cartRepository{client: client}
}

func cartKey(userID string) string {
	return "cart:" + userID
}

func (r *cartRepository) Get(ctx context.Context, userID string) (domain.CartSnapshot, error) {
	data, err := r.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.CartSnapshot{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cart domain.CartSnapshot
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, err
	}
	return cart.Clone(), nil
}

func (r *cartRepository) Put(ctx context.Context, userID string, cart domain.CartSnapshot) error {
	if cart.Count() == 0 {
		return r.Delete(ctx, userID)
	}
	data, err := json.Marshal(cart.Clone())
	if err != nil {
		return err
	}
	return r.client.Set(ctx, cartKey(userID), data, cartTTL).Err()
}

func (r *cartRepository) Delete(ctx context.Context, userID string) error {
	return r.client.Del(ctx, cartKey(userID)).Err()
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/grocery-storefront/internal/domain"
)

// PendingCheckout is the order draft held while the customer pays online.
type PendingCheckout struct {
	SessionID string             `json:"sessionId"`
	UserID    string             `json:"userId"`
	Items     []domain.OrderItem `json:"items"`
	Amount    float64            `json:"amount"`
	Address   string             `json:"address"`
	CreatedAt time.Time          `json:"createdAt"`
}

// ErrPendingNotFound is returned when no draft exists for a session.
var ErrPendingNotFound = errors.New("pending checkout not found")

// PendingCheckoutRepository keeps drafts until the payment is verified.
type PendingCheckoutRepository interface {
	Save(ctx context.Context, pending PendingCheckout) error
	Get(ctx context.Context, sessionID string) (*PendingCheckout, error)
	Delete(ctx context.Context, sessionID string) error
}

type pendingCheckoutRepository struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewPendingCheckoutRepository stores drafts under "checkout:<sessionID>"
// with the given expiry.
func NewPendingCheckoutRepository(client redis.Cmdable, ttl time.Duration) PendingCheckoutRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &pendingCheckoutRepository{client: client, ttl: ttl}
}

func checkoutKey(sessionID string) string {
	return "checkout:" + sessionID
}

func (r *pendingCheckoutRepository) Save(ctx context.Context, pending PendingCheckout) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, checkoutKey(pending.SessionID), data, r.ttl).Err()
}

func (r *pendingCheckoutRepository) Get(ctx context.Context, sessionID string) (*PendingCheckout, error) {
	data, err := r.client.Get(ctx, checkoutKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPendingNotFound
	}
	if err != nil {
		return nil, err
	}
	var pending PendingCheckout
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, err
	}
	return &pending, nil
}

func (r *pendingCheckoutRepository) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, checkoutKey(sessionID)).Err()
}

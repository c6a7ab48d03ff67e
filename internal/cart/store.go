package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/mbruegger/salora-backend/pkg/errors"
	"github.com/mbruegger/salora-backend/pkg/redis"
)

type redisCommands interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(cartID string) string
}

// Store persists cart snapshots in Redis. The key TTL tracks the cart's
// advisory expiry so abandoned carts evict themselves.
type Store struct {
	client redisCommands
	now    func() time.Time
}

// NewStore builds a Redis-backed cart store.
func NewStore(client *redis.Client) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &Store{client: client, now: time.Now}, nil
}

// Save writes the cart snapshot with a TTL matching its remaining lifetime.
func (s *Store) Save(ctx context.Context, c Cart) error {
	ttl := c.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart has expired")
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.client.Set(ctx, s.client.CartKey(c.ID.String()), payload, ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return nil
}

// Load fetches a cart by id. Expired or evicted carts surface as not found.
func (s *Store) Load(ctx context.Context, cartID uuid.UUID) (Cart, error) {
	raw, err := s.client.Get(ctx, s.client.CartKey(cartID.String()))
	if err != nil {
		if err == redis.Nil {
			return Cart{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return Cart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Cart{}, fmt.Errorf("unmarshal cart: %w", err)
	}
	if !c.ExpiresAt.After(s.now()) {
		return Cart{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return c, nil
}

// Delete evicts the cart, typically after checkout conversion.
func (s *Store) Delete(ctx context.Context, cartID uuid.UUID) error {
	if err := s.client.Del(ctx, s.client.CartKey(cartID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
	}
	return nil
}

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/openaxm/walletgate/core"
	"github.com/openaxm/walletgate/ports"
)

const (
	challengeKeyPrefix = "walletgate:challenge:"
	addressKeyPrefix   = "walletgate:addr:"
	codeKeyPrefix      = "walletgate:code:"
)

// consumeScript is the compare-and-swap for TryConsume. Running it as a
// single Lua script makes the status transition atomic across concurrent
// pollers and across instances sharing the same Redis.
//
// KEYS[1] challenge hash key
// ARGV[1] consuming tx hash
// ARGV[2] current unix time
var consumeScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
local status = redis.call("HGET", KEYS[1], "status")
if status ~= "PENDING" then
  return 0
end
local expires = tonumber(redis.call("HGET", KEYS[1], "expires_at"))
if tonumber(ARGV[2]) > expires then
  return 0
end
redis.call("HSET", KEYS[1], "status", "CONSUMED", "consumed_tx_hash", ARGV[1])
return 1
`)

// RedisStore is a Redis implementation of the Store interface. Challenges
// live in hashes keyed by id, with pending-by-address and pending-by-code
// indexes; all keys carry a TTL of expiry plus the eviction grace.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func challengeKey(id string) string { return challengeKeyPrefix + id }
func addressKey(addr string) string { return addressKeyPrefix + addr }
func codeKey(code string) string { return codeKeyPrefix + core.NormalizeMemo(code) }

func keyTTL(ch *core.Challenge) time.Duration {
	return time.Until(ch.ExpiresAt.Add(evictionGrace))
}

// Put persists a challenge and drops any pending challenge previously
// held by the same address, along with its code index.
func (s *RedisStore) Put(ctx context.Context, ch *core.Challenge) error {
	oldID, err := s.client.Get(ctx, addressKey(ch.Address)).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("lookup previous challenge: %w", core.ErrStoreUnavailable)
	}
	if err == nil && oldID != "" {
		old, loadErr := s.GetByID(ctx, oldID)
		if loadErr != nil {
			return loadErr
		}
		// Only a pending predecessor is discarded; a consumed record
		// stays around so repeated polls keep their success outcome.
		if old != nil && old.Status == core.StatusPending {
			pipe := s.client.TxPipeline()
			pipe.Del(ctx, challengeKey(oldID))
			pipe.Del(ctx, codeKey(old.Code))
			if _, err := pipe.Exec(ctx); err != nil {
				return fmt.Errorf("discard superseded challenge: %w", core.ErrStoreUnavailable)
			}
		}
	}

	ttl := keyTTL(ch)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, challengeKey(ch.ID), map[string]interface{}{
		"id":               ch.ID,
		"address":          ch.Address,
		"user_id":          ch.UserID,
		"code":             ch.Code,
		"deposit_address":  ch.DepositAddress,
		"required_amount":  ch.RequiredAmount.String(),
		"created_at":       ch.CreatedAt.Unix(),
		"expires_at":       ch.ExpiresAt.Unix(),
		"status":           string(ch.Status),
		"consumed_tx_hash": ch.ConsumedTxHash,
	})
	pipe.Expire(ctx, challengeKey(ch.ID), ttl)
	pipe.Set(ctx, addressKey(ch.Address), ch.ID, ttl)
	pipe.Set(ctx, codeKey(ch.Code), ch.ID, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("persist challenge: %w", core.ErrStoreUnavailable)
	}
	return nil
}

// GetByID retrieves a challenge by id, or (nil, nil) when absent.
func (s *RedisStore) GetByID(ctx context.Context, id string) (*core.Challenge, error) {
	fields, err := s.client.HGetAll(ctx, challengeKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("load challenge: %w", core.ErrStoreUnavailable)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return challengeFromFields(fields)
}

// FindPendingByCode resolves through the code index and rechecks status
// and expiry on the loaded record.
func (s *RedisStore) FindPendingByCode(ctx context.Context, code string, now time.Time) (*core.Challenge, error) {
	id, err := s.client.Get(ctx, codeKey(code)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("code index lookup: %w", core.ErrStoreUnavailable)
	}

	ch, err := s.GetByID(ctx, id)
	if err != nil || ch == nil {
		return nil, err
	}
	if ch.Status != core.StatusPending || ch.Expired(now) {
		return nil, nil
	}
	return ch, nil
}

// TryConsume runs the compare-and-swap script against the challenge hash.
func (s *RedisStore) TryConsume(ctx context.Context, id, txHash string, now time.Time) (bool, error) {
	res, err := consumeScript.Run(ctx, s.client, []string{challengeKey(id)}, txHash, now.Unix()).Int()
	if err != nil {
		return false, fmt.Errorf("consume challenge: %w", core.ErrStoreUnavailable)
	}
	return res == 1, nil
}

// Sweep is a no-op for Redis: every key is written with a TTL of expiry
// plus grace, so eviction is handled by the server.
func (s *RedisStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func challengeFromFields(fields map[string]string) (*core.Challenge, error) {
	amount, err := decimal.NewFromString(fields["required_amount"])
	if err != nil {
		return nil, fmt.Errorf("corrupt challenge record: %w", err)
	}
	createdAt, err := unixField(fields, "created_at")
	if err != nil {
		return nil, err
	}
	expiresAt, err := unixField(fields, "expires_at")
	if err != nil {
		return nil, err
	}

	return &core.Challenge{
		ID:             fields["id"],
		Address:        fields["address"],
		UserID:         fields["user_id"],
		Code:           fields["code"],
		DepositAddress: fields["deposit_address"],
		RequiredAmount: amount,
		CreatedAt:      createdAt,
		ExpiresAt:      expiresAt,
		Status:         core.ChallengeStatus(fields["status"]),
		ConsumedTxHash: fields["consumed_tx_hash"],
	}, nil
}

func unixField(fields map[string]string, name string) (time.Time, error) {
	var sec int64
	if _, err := fmt.Sscanf(fields[name], "%d", &sec); err != nil {
		return time.Time{}, fmt.Errorf("corrupt challenge record: bad %s: %w", name, err)
	}
	return time.Unix(sec, 0).UTC(), nil
}

var _ ports.Store = (*RedisStore)(nil)

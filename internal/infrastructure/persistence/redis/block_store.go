package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/wavecard/guard/internal/domain/service"
	"github.com/wavecard/guard/pkg/constants"
	"github.com/wavecard/guard/pkg/errors"
	"github.com/wavecard/guard/pkg/logger"
)

// BlockStore keeps the blocked and suspicious IP sets in Redis so all
// instances share one view. Membership has no TTL; removal is explicit via
// Unblock.
type BlockStore struct {
	client redis.UniversalClient
	logger logger.Logger
}

// NewBlockStore creates a Redis-backed block store.
func NewBlockStore(client redis.UniversalClient, log logger.Logger) *BlockStore {
	return &BlockStore{
		client: client,
		logger: log.WithComponent("block_store"),
	}
}

// Block adds the IP to the block set.
func (s *BlockStore) Block(ctx context.Context, ip string) error {
	if err := s.client.SAdd(ctx, constants.CacheKeyBlockedIPs, ip).Err(); err != nil {
		return errors.ErrCacheUnavailable(err)
	}

	s.logger.Warn(ctx, "IP added to block set", logger.String("ip_address", ip))
	return nil
}

// IsBlocked reports whether the IP is in the block set.
func (s *BlockStore) IsBlocked(ctx context.Context, ip string) (bool, error) {
	blocked, err := s.client.SIsMember(ctx, constants.CacheKeyBlockedIPs, ip).Result()
	if err != nil {
		return false, errors.ErrCacheUnavailable(err)
	}
	return blocked, nil
}

// MarkSuspicious adds the IP to the suspicious set. The return value reports
// whether the IP was already present, which drives the two-strike escalation.
func (s *BlockStore) MarkSuspicious(ctx context.Context, ip string) (bool, error) {
	added, err := s.client.SAdd(ctx, constants.CacheKeySuspiciousIPs, ip).Result()
	if err != nil {
		return false, errors.ErrCacheUnavailable(err)
	}

	alreadySuspicious := added == 0
	if !alreadySuspicious {
		s.logger.Warn(ctx, "IP marked suspicious", logger.String("ip_address", ip))
	}
	return alreadySuspicious, nil
}

// Unblock removes the IP from both sets.
func (s *BlockStore) Unblock(ctx context.Context, ip string) error {
	pipe := s.client.TxPipeline()
	pipe.SRem(ctx, constants.CacheKeyBlockedIPs, ip)
	pipe.SRem(ctx, constants.CacheKeySuspiciousIPs, ip)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.ErrCacheUnavailable(err)
	}

	s.logger.Info(ctx, "IP unblocked", logger.String("ip_address", ip))
	return nil
}

var _ service.BlockStore = (*BlockStore)(nil)

package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/pdoflow/pdoflow/jobs/pg/flowsqlc"
)

// Terminal posting statuses are cached for 100x the normal expiry because
// they can never change again; the database only needs to be consulted once.
const terminalStatusCacheMultiplier = 100

// PostingStatusKey returns the Redis key caching a posting's status.
func PostingStatusKey(postingID uuid.UUID) string {
	return fmt.Sprintf("pdoflow:posting:%s:status", postingID)
}

func isTerminalPostingStatus(status flowsqlc.PostingStatusEnum) bool {
	return status == flowsqlc.PostingStatusEnumFinished ||
		status == flowsqlc.PostingStatusEnumErroredOut
}

// cachePostingStatus writes the status into Redis, if a client is configured.
// Cache write failures are logged and ignored; the database remains the
// source of truth.
func (d *Dispatcher) cachePostingStatus(postingID uuid.UUID, status flowsqlc.PostingStatusEnum) {
	if d.RedisClient == nil {
		return
	}
	expiry := time.Duration(d.Config.StatusCacheDurSec) * time.Second
	if isTerminalPostingStatus(status) {
		expiry *= terminalStatusCacheMultiplier
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.RedisClient.Set(ctx, PostingStatusKey(postingID), string(status), expiry).Err(); err != nil {
		d.Logger.Warn().LogActivity("Failed to cache posting status in Redis", map[string]any{
			"postingId": postingID.String(),
			"error":     err.Error(),
		})
	}
}

// cachedPostingStatus reads the status from Redis. A miss, a configured-out
// client, and a Redis error all report !ok so the caller falls through to
// the database.
func (d *Dispatcher) cachedPostingStatus(ctx context.Context, postingID uuid.UUID) (flowsqlc.PostingStatusEnum, bool) {
	if d.RedisClient == nil {
		return "", false
	}
	val, err := d.RedisClient.Get(ctx, PostingStatusKey(postingID)).Result()
	if err != nil {
		if err != redis.Nil {
			d.Logger.Warn().LogActivity("Failed to read posting status from Redis", map[string]any{
				"postingId": postingID.String(),
				"error":     err.Error(),
			})
		}
		return "", false
	}
	status := flowsqlc.PostingStatusEnum(val)
	if !status.Valid() {
		return "", false
	}
	return status, true
}

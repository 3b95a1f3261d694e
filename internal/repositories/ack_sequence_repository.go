package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/poofware/society-service/internal/constants"
	"github.com/poofware/society-service/internal/models"
	"github.com/poofware/society-service/pkg/repositories"
	"github.com/redis/go-redis/v9"
)

// AckDay is one business-calendar day, as a half-open UTC interval.
type AckDay struct {
	Date  string // YYYYMMDD in the business timezone
	Start time.Time
	End   time.Time
}

// DayCounter counts submissions created inside a window.
type DayCounter interface {
	CountCreatedBetween(ctx context.Context, kind models.SubmissionKind, start, end time.Time) (int64, error)
}

// AckNumberFunc formats a reserved sequence into an acknowledgement number.
// An error aborts the insert it was called from.
type AckNumberFunc func(seq int64) (string, error)

// SequenceAllocator reserves sequences outside the submission store. A fresh
// day is seeded from the existing row count so numbering agrees with
// count-then-assign. Release hands a reservation back when its insert was
// rejected; it reports false when a later reservation already exists.
type SequenceAllocator interface {
	Next(ctx context.Context, kind models.SubmissionKind, day AckDay) (int64, error)
	Release(ctx context.Context, kind models.SubmissionKind, day AckDay, seq int64) (bool, error)
}

/* ───────────── postgres ───────────── */

// reserveSequence advances the (kind, day) counter row. Run inside the insert
// transaction, the row lock serializes same-day inserts of a kind and a
// rollback returns the number.
func reserveSequence(ctx context.Context, db repositories.DB, kind models.SubmissionKind, day AckDay) (int64, error) {
	var next int64
	err := db.QueryRow(ctx, `
		INSERT INTO ack_sequences (kind, day, last_value, updated_at)
		VALUES (
			$1, $2,
			(SELECT COUNT(*) FROM submissions
			 WHERE kind=$1 AND created_at >= $3 AND created_at < $4) + 1,
			NOW()
		)
		ON CONFLICT (kind, day)
		DO UPDATE SET last_value = ack_sequences.last_value + 1, updated_at = NOW()
		RETURNING last_value
	`, string(kind), day.Date, day.Start, day.End).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("reserve ack sequence for %s/%s: %w", kind, day.Date, err)
	}
	return next, nil
}

/* ───────────── redis ───────────── */

const releaseScript = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DECR', KEYS[1])
end
return -1`

type redisSequenceAllocator struct {
	rdb     redis.Cmdable
	counter DayCounter
	ttl     time.Duration
}

// NewRedisSequenceAllocator keeps counters under society:ack:<kind>:<date>.
func NewRedisSequenceAllocator(rdb redis.Cmdable, counter DayCounter) SequenceAllocator {
	return &redisSequenceAllocator{rdb: rdb, counter: counter, ttl: constants.RedisAckKeyTTL}
}

func redisAckKey(kind models.SubmissionKind, day AckDay) string {
	return fmt.Sprintf("%s:%s:%s", constants.RedisAckKeyPrefix, kind, day.Date)
}

func (a *redisSequenceAllocator) Next(ctx context.Context, kind models.SubmissionKind, day AckDay) (int64, error) {
	key := redisAckKey(kind, day)

	exists, err := a.rdb.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("check ack counter %s: %w", key, err)
	}
	if exists == 0 {
		seed, err := a.counter.CountCreatedBetween(ctx, kind, day.Start, day.End)
		if err != nil {
			return 0, fmt.Errorf("seed ack counter %s: %w", key, err)
		}
		// Only the first writer seeds; later callers fall through to INCR.
		if err := a.rdb.SetNX(ctx, key, seed, a.ttl).Err(); err != nil {
			return 0, fmt.Errorf("seed ack counter %s: %w", key, err)
		}
	}

	next, err := a.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("increment ack counter %s: %w", key, err)
	}
	return next, nil
}

// Release decrements the counter only while seq is still its value.
func (a *redisSequenceAllocator) Release(ctx context.Context, kind models.SubmissionKind, day AckDay, seq int64) (bool, error) {
	key := redisAckKey(kind, day)
	res, err := a.rdb.Eval(ctx, releaseScript, []string{key}, seq).Int64()
	if err != nil {
		return false, fmt.Errorf("release ack counter %s: %w", key, err)
	}
	return res >= 0, nil
}

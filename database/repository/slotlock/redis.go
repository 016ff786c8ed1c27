package slotLockRepo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"diaglab/models"
	"diaglab/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// acquireScript creates or extends a lock hash and registers it in the day index.
// KEYS[1] lock key, KEYS[2] day index.
// ARGV: owner, nowMs, expiresAtMs, holdMs, id, lab, date, time.
// Returns {status, id, owner, acquiredAt, expiresAt}; status 0 held by other, 1 created, 2 extended.
var acquireScript = redis.NewScript(`
local owner = redis.call('HGET', KEYS[1], 'owner')
if owner then
  local exp = tonumber(redis.call('HGET', KEYS[1], 'expiresAt'))
  if exp == nil or exp <= tonumber(ARGV[2]) then
    redis.call('DEL', KEYS[1])
    owner = false
  end
end
local status = 1
if owner then
  if owner ~= ARGV[1] then
    return {0, redis.call('HGET', KEYS[1], 'id'), owner,
      redis.call('HGET', KEYS[1], 'acquiredAt'), redis.call('HGET', KEYS[1], 'expiresAt')}
  end
  status = 2
  redis.call('HSET', KEYS[1], 'expiresAt', ARGV[3])
else
  redis.call('HSET', KEYS[1], 'id', ARGV[5], 'owner', ARGV[1], 'acquiredAt', ARGV[2],
    'expiresAt', ARGV[3], 'lab', ARGV[6], 'date', ARGV[7], 'time', ARGV[8])
end
redis.call('PEXPIRE', KEYS[1], ARGV[4])
redis.call('SADD', KEYS[2], KEYS[1])
if redis.call('PTTL', KEYS[2]) < tonumber(ARGV[4]) then
  redis.call('PEXPIRE', KEYS[2], ARGV[4])
end
return {status, redis.call('HGET', KEYS[1], 'id'), redis.call('HGET', KEYS[1], 'owner'),
  redis.call('HGET', KEYS[1], 'acquiredAt'), redis.call('HGET', KEYS[1], 'expiresAt')}
`)

// releaseScript deletes the lock only when ARGV[1] owns it.
var releaseScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'owner') == ARGV[1] then
  redis.call('DEL', KEYS[1])
  redis.call('SREM', KEYS[2], KEYS[1])
  return 1
end
return 0
`)

var lockFields = []string{"id", "owner", "acquiredAt", "expiresAt", "lab", "date", "time"}

// RedisSlotLockRepo keeps each lock in a hash with a PX expiry. Liveness is judged
// against the injected clock so the server TTL only reclaims memory.
type RedisSlotLockRepo struct {
	client *redis.Client
	clock  utils.Clock
}

func NewRedisSlotLockRepo(client *redis.Client, clock utils.Clock) SlotLockRepository {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &RedisSlotLockRepo{client: client, clock: clock}
}

func lockKey(key models.SlotKey) string {
	return utils.SlotLockPrefix + url.PathEscape(key.LabName) + "/" + key.AppointmentDate + "/" + key.AppointmentTime
}

func dayIndexKey(labName, date string) string {
	return utils.SlotIndexPrefix + url.PathEscape(labName) + "/" + date
}

func (r *RedisSlotLockRepo) AcquireOrExtend(ctx context.Context, key models.SlotKey, ownerID string, hold time.Duration) (Grant, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	now := r.clock.Now()
	expires := now.Add(hold)
	res, err := acquireScript.Run(ctx, r.client,
		[]string{lockKey(key), dayIndexKey(key.LabName, key.AppointmentDate)},
		ownerID, now.UnixMilli(), expires.UnixMilli(), hold.Milliseconds(),
		uuid.NewString(), key.LabName, key.AppointmentDate, key.AppointmentTime,
	).Result()
	if err != nil {
		return Grant{}, fmt.Errorf("failed to acquire slot lock %s: %w", key, err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 5 {
		return Grant{}, fmt.Errorf("unexpected acquire reply for %s: %v", key, res)
	}
	status, _ := vals[0].(int64)
	lock := models.SlotLock{
		ID:         toString(vals[1]),
		SlotKey:    key,
		OwnerID:    toString(vals[2]),
		AcquiredAt: msToTime(toString(vals[3])),
		ExpiresAt:  msToTime(toString(vals[4])),
	}
	return Grant{Lock: lock, Granted: status != 0, Extended: status == 2}, nil
}

func (r *RedisSlotLockRepo) Release(ctx context.Context, key models.SlotKey, ownerID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	n, err := releaseScript.Run(ctx, r.client,
		[]string{lockKey(key), dayIndexKey(key.LabName, key.AppointmentDate)}, ownerID).Int()
	if err != nil {
		return false, fmt.Errorf("failed to release slot lock %s: %w", key, err)
	}
	return n == 1, nil
}

func (r *RedisSlotLockRepo) Get(ctx context.Context, key models.SlotKey) (*models.SlotLock, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	vals, err := r.client.HMGet(ctx, lockKey(key), lockFields...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read slot lock %s: %w", key, err)
	}
	lock, ok := decodeLock(vals)
	if !ok || !lock.LiveAt(r.clock.Now()) {
		return nil, nil
	}
	return &lock, nil
}

func (r *RedisSlotLockRepo) IsLockedByOther(ctx context.Context, key models.SlotKey, ownerID string) (bool, error) {
	lock, err := r.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return lockedByOther(lock, ownerID), nil
}

func (r *RedisSlotLockRepo) ListLive(ctx context.Context, labName, date string) ([]models.SlotLock, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	idx := dayIndexKey(labName, date)
	members, err := r.client.SMembers(ctx, idx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list slot locks for %s on %s: %w", labName, date, err)
	}
	if len(members) == 0 {
		return []models.SlotLock{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.SliceCmd, len(members))
	for i, m := range members {
		cmds[i] = pipe.HMGet(ctx, m, lockFields...)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read slot locks for %s on %s: %w", labName, date, err)
	}

	now := r.clock.Now()
	live := make([]models.SlotLock, 0, len(members))
	var stale []interface{}
	for i, cmd := range cmds {
		lock, ok := decodeLock(cmd.Val())
		if !ok {
			stale = append(stale, members[i])
			continue
		}
		if lock.LiveAt(now) {
			live = append(live, lock)
		}
	}
	if len(stale) > 0 {
		// Best effort; the next listing retries.
		r.client.SRem(ctx, idx, stale...)
	}
	return live, nil
}

func decodeLock(vals []interface{}) (models.SlotLock, bool) {
	if len(vals) != len(lockFields) || vals[1] == nil {
		return models.SlotLock{}, false
	}
	return models.SlotLock{
		ID: toString(vals[0]),
		SlotKey: models.SlotKey{
			LabName:         toString(vals[4]),
			AppointmentDate: toString(vals[5]),
			AppointmentTime: toString(vals[6]),
		},
		OwnerID:    toString(vals[1]),
		AcquiredAt: msToTime(toString(vals[2])),
		ExpiresAt:  msToTime(toString(vals[3])),
	}, true
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case int64:
		return strconv.FormatInt(s, 10)
	}
	return ""
}

func msToTime(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

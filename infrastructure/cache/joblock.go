package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// IJobLock guards a named job across scheduler processes. The in-process
// running flag only protects one instance; this is the cross-instance guard.
type IJobLock interface {
	// Acquire returns true when this instance now holds the lock for job.
	Acquire(ctx context.Context, job string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, job string) error
}

const lockKeyPrefix = "crosspost:joblock:"

// releaseScript deletes the lock only when still held by this instance.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
end
return 0
`)

// JobLock is the redis implementation. A nil client degrades to a lock that
// always grants, which is correct for single-instance deployments.
type JobLock struct {
	client   *redis.Client
	instance string
}

func NewJobLock(client *redis.Client, instance string) *JobLock {
	return &JobLock{client: client, instance: instance}
}

func (l *JobLock) Acquire(ctx context.Context, job string, ttl time.Duration) (bool, error) {
	if l.client == nil {
		return true, nil
	}
	return l.client.SetNX(ctx, lockKeyPrefix+job, l.instance, ttl).Result()
}

func (l *JobLock) Release(ctx context.Context, job string) error {
	if l.client == nil {
		return nil
	}
	return releaseScript.Run(ctx, l.client, []string{lockKeyPrefix + job}, l.instance).Err()
}

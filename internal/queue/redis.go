package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// RedisQueue is a delayed queue on a Redis sorted set: member = message JSON,
// score = due time in unix milliseconds. Dequeue pops the earliest due member
// atomically so concurrent workers never double-deliver one member.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

// NewRedis connects using a redis URL (redis://host:port/db).
func NewRedis(url, key string) (*RedisQueue, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, eris.Wrap(err, "queue: parse redis url")
	}
	if key == "" {
		key = "resume:pending"
	}
	return &RedisQueue{rdb: redis.NewClient(opts), key: key}, nil
}

// NewRedisWithClient wraps an existing client. Used by tests.
func NewRedisWithClient(rdb *redis.Client, key string) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: key}
}

func (q *RedisQueue) Enqueue(ctx context.Context, msg Message, delay time.Duration) error {
	if msg.EnqueueAt.IsZero() {
		msg.EnqueueAt = time.Now().UTC()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return eris.Wrap(err, "queue: marshal message")
	}
	due := time.Now().Add(delay).UnixMilli()
	err = q.rdb.ZAdd(ctx, q.key, redis.Z{
		Score:  float64(due),
		Member: string(data),
	}).Err()
	return eris.Wrapf(err, "queue: enqueue session %s", msg.SessionID)
}

// dequeueScript pops the earliest member whose score is due. Runs server-side
// so check-and-remove is atomic.
var dequeueScript = redis.NewScript(`
local items = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 1)
if #items == 0 then
  return false
end
redis.call('ZREM', KEYS[1], items[1])
return items[1]
`)

func (q *RedisQueue) Dequeue(ctx context.Context) (*Message, error) {
	now := time.Now().UnixMilli()
	res, err := dequeueScript.Run(ctx, q.rdb, []string{q.key}, now).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "queue: dequeue")
	}

	raw, ok := res.(string)
	if !ok {
		return nil, eris.New("queue: unexpected dequeue result type")
	}
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return nil, eris.Wrap(err, "queue: decode message")
	}
	return &msg, nil
}

func (q *RedisQueue) Close() error {
	return q.rdb.Close()
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
)

// Connect dials Redis at addr, verifies the connection and ensures the
// job stream and its consumer group exist.
func Connect(addr, password string, db int, streams Streams) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return bootstrap(rdb, streams)
}

// ConnectURL is Connect for a redis:// or rediss:// URL.
func ConnectURL(rawURL string, streams Streams) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	return bootstrap(redis.NewClient(opts), streams)
}

func bootstrap(rdb *redis.Client, streams Streams) (*redis.Client, error) {
	streams = streams.withDefaults()

	ctx, cancel := context.WithTimeout(context.Background(), streams.ConnTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	if err := rdb.
		XGroupCreateMkStream(ctx, streams.JobStream, streams.Group, "$").
		Err(); err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		_ = rdb.Close()
		return nil, fmt.Errorf("xgroup create %s/%s: %w", streams.JobStream, streams.Group, err)
	}

	return rdb, nil
}

// Handler produces the result payload for one job.
type Handler func(ctx context.Context, job Job) (any, error)

// Consumer reads jobs off the job stream, runs them through a Handler
// and publishes the results.
type Consumer struct {
	rdb      *redis.Client
	streams  Streams
	name     string
	handler  Handler
	logger   *slog.Logger
	validate *validator.Validate
}

// NewConsumer builds a consumer identified by name within the group.
func NewConsumer(rdb *redis.Client, streams Streams, name string, handler Handler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		rdb:      rdb,
		streams:  streams.withDefaults(),
		name:     name,
		handler:  handler,
		logger:   logger,
		validate: validator.New(),
	}
}

// Watch blocks reading the job stream until ctx is cancelled. Read
// errors back off exponentially up to BackoffMax; a successful read
// resets the backoff.
func (c *Consumer) Watch(ctx context.Context) error {
	backoff := c.streams.BackoffMin

	c.logger.Info("watching job stream",
		"stream", c.streams.JobStream,
		"group", c.streams.Group,
		"consumer", c.name)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.streams.Group,
			Consumer: c.name,
			Streams:  []string{c.streams.JobStream, ">"},
			Count:    int64(c.streams.BatchSize),
			Block:    c.streams.BlockTimeout,
			NoAck:    false,
		}).Result()
		switch {
		case err == redis.Nil:
			continue
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("reading job stream", "error", err)
			select {
			case <-time.After(backoff):
				if backoff < c.streams.BackoffMax {
					backoff *= 2
				}
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		default:
			backoff = c.streams.BackoffMin
		}

		for _, incoming := range res {
			for _, msg := range incoming.Messages {
				c.process(ctx, msg)
			}
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	job, err := decodeJob(msg)
	if err == nil {
		err = c.validate.Struct(job)
	}
	if err != nil {
		// A job that cannot be parsed will never succeed; ack it so it
		// does not sit in the pending list forever.
		c.logger.Error("dropping malformed job", "id", msg.ID, "error", err)
		c.ack(ctx, msg.ID)
		return
	}

	result, err := c.handler(ctx, job)
	if err != nil {
		c.logger.Warn("job failed, leaving it pending",
			"id", msg.ID, "type", job.Type, "subject", subject(job), "error", err)
		return
	}

	if err := c.publish(ctx, job, result); err != nil {
		c.logger.Error("publishing result", "id", msg.ID, "error", err)
		return
	}
	c.ack(ctx, msg.ID)
}

func (c *Consumer) publish(ctx context.Context, job Job, result any) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return c.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: c.streams.ResultStream,
		MaxLen: c.streams.MaxLen,
		Approx: true,
		Values: map[string]any{
			"type":    job.Type,
			"subject": subject(job),
			"data":    string(payload),
		},
	}).Err()
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.rdb.XAck(ctx, c.streams.JobStream, c.streams.Group, id).Err(); err != nil {
		c.logger.Error("acknowledging job", "id", id, "error", err)
	}
}

func subject(job Job) string {
	if job.Type == JobUserInsights {
		return job.Username
	}
	return job.Owner + "/" + job.Repo
}

func decodeJob(msg redis.XMessage) (Job, error) {
	var job Job
	raw, ok := msg.Values["data"]
	if !ok {
		return job, fmt.Errorf("message %s has no data field", msg.ID)
	}
	data, ok := raw.(string)
	if !ok {
		return job, fmt.Errorf("message %s data is %T, want string", msg.ID, raw)
	}
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return job, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}

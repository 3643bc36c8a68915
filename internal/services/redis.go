package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// StatusChannel is the pub/sub channel shared by every API instance.
const StatusChannel = "booking:updates"

// NewRedisClient parses redisURL and checks the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisPublisher publishes status updates so every instance's hub can deliver them.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	log     *logrus.Logger
}

func NewRedisPublisher(client *redis.Client, log *logrus.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, channel: StatusChannel, log: log}
}

func (p *RedisPublisher) Publish(ctx context.Context, update StatusUpdate) {
	data, err := json.Marshal(update)
	if err != nil {
		p.log.WithError(err).Error("failed to encode status update")
		return
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		p.log.WithError(err).WithField("bookingId", update.BookingID).Warn("failed to publish status update")
	}
}

// SubscribeStatus forwards updates from the shared channel into sink until ctx ends.
// ready is closed once the subscription is active.
func SubscribeStatus(ctx context.Context, client *redis.Client, sink StatusPublisher, log *logrus.Logger, ready chan<- struct{}) error {
	sub := client.Subscribe(ctx, StatusChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", StatusChannel, err)
	}
	if ready != nil {
		close(ready)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var update StatusUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				log.WithError(err).Warn("dropping malformed status update")
				continue
			}
			sink.Publish(ctx, update)
		}
	}
}

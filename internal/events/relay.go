package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type envelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// RedisRelay mirrors local events onto a Redis channel and republishes
// events from other instances locally, marked Remote.
type RedisRelay struct {
	client     *redis.Client
	channel    string
	instanceID string
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewRedisRelay wires a relay between dispatcher and the Redis channel.
func NewRedisRelay(client *redis.Client, channel string, dispatcher Dispatcher, logger *zap.Logger) *RedisRelay {
	r := &RedisRelay{
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
		dispatcher: dispatcher,
		logger:     logger,
	}
	SubscribeAll(dispatcher, r.forward)
	return r
}

func (r *RedisRelay) forward(ctx context.Context, event Event) error {
	if event.Remote {
		return nil
	}
	body, err := json.Marshal(envelope{Origin: r.instanceID, Event: event})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, body).Err()
}

// Run consumes the channel until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.logger.Info("event relay subscribed", zap.String("channel", r.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("event relay channel closed")
			}
			r.handle(ctx, msg.Payload)
		}
	}
}

func (r *RedisRelay) handle(ctx context.Context, payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		r.logger.Warn("dropping malformed relayed event", zap.Error(err))
		return
	}
	if env.Origin == r.instanceID {
		return
	}
	env.Event.Remote = true
	_ = r.dispatcher.Publish(ctx, env.Event)
}

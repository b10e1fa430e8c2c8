// Package events connects the profile service to the game platform's Kafka
// topics: it consumes game and leaderboard events and publishes derived
// player statistics.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"playerservice/internal/platform/config"
	"playerservice/internal/platform/metrics"
	"playerservice/internal/profile"
)

// ProfileEventHandler applies inbound events to player profiles.
type ProfileEventHandler interface {
	HandleGameCompleted(ctx context.Context, event profile.GameCompletedEvent) error
	HandleLeaderboardUpdated(ctx context.Context, event profile.LeaderboardUpdatedEvent) error
}

const handleTimeout = 10 * time.Second

// Consumer reads game-completed and leaderboard-updated events as part of a
// consumer group and dispatches them by topic. Messages are marked after
// handling whether or not the handler succeeded; redelivery of an already
// applied event is possible after a rebalance, and handlers absorb that.
type Consumer struct {
	cfg           config.KafkaConfig
	handler       ProfileEventHandler
	logger        *slog.Logger
	metrics       *metrics.Metrics
	consumerGroup sarama.ConsumerGroup
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	ready         chan struct{}
	readyOnce     sync.Once
}

func NewConsumer(cfg config.KafkaConfig, handler ProfileEventHandler, logger *slog.Logger, m *metrics.Metrics) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Consumer{
		cfg:           cfg,
		handler:       handler,
		logger:        logger,
		metrics:       m,
		consumerGroup: consumerGroup,
		ctx:           ctx,
		cancel:        cancel,
		ready:         make(chan struct{}),
	}, nil
}

// markReady unblocks Start exactly once; rebalances re-run Setup and must
// not close the channel again.
func (c *Consumer) markReady() {
	c.readyOnce.Do(func() {
		close(c.ready)
	})
}

// Start begins consuming and blocks until the first session is established.
// A Consume failure before that point fails startup instead of waiting on a
// session that may never come.
func (c *Consumer) Start() error {
	topics := []string{c.cfg.GameCompletedTopic, c.cfg.LeaderboardTopic}

	c.logger.Info("starting Kafka consumer",
		"brokers", c.cfg.Brokers,
		"topics", topics,
		"group_id", c.cfg.GroupID,
	)

	consumeErrs := make(chan error, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			if err := c.consumerGroup.Consume(c.ctx, topics, &groupHandler{consumer: c}); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				c.logger.Error("error from consumer", "error", err)
				select {
				case consumeErrs <- err:
				default:
				}
			}

			if c.ctx.Err() != nil {
				return
			}
		}
	}()

	select {
	case <-c.ready:
	case err := <-consumeErrs:
		select {
		case <-c.ready:
		default:
			return err
		}
	}
	c.logger.Info("Kafka consumer ready")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.ctx.Done():
				return
			case err, ok := <-c.consumerGroup.Errors():
				if !ok {
					return
				}
				c.logger.Error("consumer group error", "error", err)
			}
		}
	}()

	return nil
}

// Stop drains the session and closes the group.
func (c *Consumer) Stop() error {
	c.logger.Info("stopping Kafka consumer")
	c.cancel()
	c.wg.Wait()
	return c.consumerGroup.Close()
}

type groupHandler struct {
	consumer *Consumer
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	h.consumer.markReady()
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil

		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			h.consumer.dispatch(message)
			session.MarkMessage(message, "")
		}
	}
}

// dispatch decodes and applies a single message. Undecodable payloads and
// handler failures are logged and skipped so one poison message cannot stall
// the partition.
func (c *Consumer) dispatch(message *sarama.ConsumerMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	var err error
	switch message.Topic {
	case c.cfg.GameCompletedTopic:
		var event profile.GameCompletedEvent
		if err = json.Unmarshal(message.Value, &event); err == nil {
			err = c.handler.HandleGameCompleted(ctx, event)
		}
	case c.cfg.LeaderboardTopic:
		var event profile.LeaderboardUpdatedEvent
		if err = json.Unmarshal(message.Value, &event); err == nil {
			err = c.handler.HandleLeaderboardUpdated(ctx, event)
		}
	default:
		c.logger.Warn("message from unexpected topic", "topic", message.Topic)
		return
	}

	if err != nil {
		c.logger.Error("failed to process event",
			"topic", message.Topic,
			"partition", message.Partition,
			"offset", message.Offset,
			"error", err,
		)
		return
	}

	if c.metrics != nil {
		c.metrics.EventsConsumed.WithLabelValues(message.Topic).Inc()
	}
	c.logger.Debug("event processed", "topic", message.Topic, "offset", message.Offset)
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"playerservice/internal/platform/config"
	"playerservice/internal/profile"
)

// StatsProducer publishes derived player statistics for the leaderboard
// pipeline. Messages are keyed by player so per-player ordering holds.
type StatsProducer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

func NewStatsProducer(cfg config.KafkaConfig, logger *slog.Logger) (*StatsProducer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create stats producer: %w", err)
	}

	return &StatsProducer{
		producer: producer,
		topic:    cfg.LeaderboardStatsTopic,
		logger:   logger,
	}, nil
}

func (p *StatsProducer) PublishPlayerStats(_ context.Context, stats profile.PlayerStats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal player stats: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(stats.PlayerID.String()),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("send player stats: %w", err)
	}

	p.logger.Debug("player stats published",
		"player_id", stats.PlayerID,
		"partition", partition,
		"offset", offset,
	)
	return nil
}

func (p *StatsProducer) Close() error {
	return p.producer.Close()
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_FromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "player-service", cfg.JWT.Issuer)
	assert.Equal(t, 6*time.Minute, cfg.JWT.TTL)
	assert.Equal(t, "game-completed", cfg.Kafka.GameCompletedTopic)
	assert.Equal(t, "leaderboard-updated", cfg.Kafka.LeaderboardTopic)
	assert.Equal(t, "leaderboard-stats", cfg.Kafka.LeaderboardStatsTopic)
	assert.Equal(t, "player-service", cfg.Kafka.GroupID)
}

func Test_FromEnv_KafkaOffWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_ENABLED", "")

	cfg := FromEnv()
	assert.False(t, cfg.Kafka.Enabled, "a bare boot must not require a broker")
}

func Test_FromEnv_KafkaOnWhenBrokersConfigured(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg := FromEnv()
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func Test_FromEnv_KafkaEnabledOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	assert.False(t, FromEnv().Kafka.Enabled)

	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_ENABLED", "true")
	cfg := FromEnv()
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

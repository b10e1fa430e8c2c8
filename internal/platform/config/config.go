package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the process needs at startup so main stays lean.
type Config struct {
	Addr string

	JWT      JWTConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// JWTConfig holds the token verification parameters. The signing key is a
// process-wide value read once at startup and passed explicitly to the codec.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	TTL        time.Duration
}

// PostgresConfig holds the profile store connection settings. An empty URL
// selects the in-memory store.
type PostgresConfig struct {
	URL string
}

// RedisConfig holds the profile cache connection settings. An empty URL
// disables caching.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the event transport settings.
type KafkaConfig struct {
	Brokers               []string
	GroupID               string
	GameCompletedTopic    string
	LeaderboardTopic      string
	LeaderboardStatsTopic string
	Enabled               bool
}

// FromEnv builds a Config from environment variables with development
// defaults. Production deployments must override the signing key.
func FromEnv() Config {
	addr := os.Getenv("PLAYER_SERVICE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	signingKey := os.Getenv("JWT_SIGNING_KEY")
	if signingKey == "" {
		signingKey = "dev-secret-key-change-in-production"
	}
	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "player-service"
	}
	ttl := durationFromEnv("JWT_TTL", 6*time.Minute)

	brokersEnv := os.Getenv("KAFKA_BROKERS")
	brokers := []string{"localhost:9092"}
	if brokersEnv != "" {
		brokers = strings.Split(brokersEnv, ",")
	}
	groupID := os.Getenv("KAFKA_GROUP_ID")
	if groupID == "" {
		groupID = "player-service"
	}

	return Config{
		Addr: addr,
		JWT: JWTConfig{
			SigningKey: signingKey,
			Issuer:     issuer,
			TTL:        ttl,
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("POSTGRES_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intFromEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: intFromEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationFromEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationFromEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationFromEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:               brokers,
			GroupID:               groupID,
			GameCompletedTopic:    topicFromEnv("KAFKA_TOPIC_GAME_COMPLETED", "game-completed"),
			LeaderboardTopic:      topicFromEnv("KAFKA_TOPIC_LEADERBOARD_UPDATED", "leaderboard-updated"),
			LeaderboardStatsTopic: topicFromEnv("KAFKA_TOPIC_LEADERBOARD_STATS", "leaderboard-stats"),
			Enabled:               kafkaEnabled(brokersEnv != ""),
		},
	}
}

// kafkaEnabled resolves the event transport switch: KAFKA_ENABLED wins when
// set, otherwise Kafka is on only when brokers were configured, so a bare
// dev boot runs without a broker the same way it runs without Postgres or
// Redis.
func kafkaEnabled(brokersConfigured bool) bool {
	switch os.Getenv("KAFKA_ENABLED") {
	case "true":
		return true
	case "false":
		return false
	default:
		return brokersConfigured
	}
}

func topicFromEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intFromEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

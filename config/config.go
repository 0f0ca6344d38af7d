package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	MongoURI       string
	MongoContentDB string // Posts + Users legacy ("choice_app")
	MongoRestoDB   string // producteurs restauration
	MongoLeisureDB string // événements + producteurs loisir

	RedisAddr    string
	NatsUrl      string
	OtelEndpoint string
	GRPCPort     string
	Env          string // "local" ou "prod"

	FanoutTimeoutMs    int
	ReconcileIntervalS int
}

func Load() Config {
	return Config{
		MongoURI:       getEnv("MONGO_URI", "mongodb://mongo:27017"),
		MongoContentDB: getEnv("MONGO_CONTENT_DB", "choice_app"),
		MongoRestoDB:   getEnv("MONGO_RESTO_DB", "Restauration_Officielle"),
		MongoLeisureDB: getEnv("MONGO_LEISURE_DB", "Loisir_Culture"),

		RedisAddr:    getEnv("REDIS_ADDR", "redis:6379"),
		NatsUrl:      getEnv("NATS_URL", "nats://nats:4222"),
		OtelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "jaeger:4317"),
		GRPCPort:     getEnv("GRPC_PORT", "50055"),
		Env:          getEnv("APP_ENV", "local"),

		FanoutTimeoutMs:    getEnvInt("FANOUT_TIMEOUT_MS", 3000),
		ReconcileIntervalS: getEnvInt("RECONCILE_INTERVAL_S", 60),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

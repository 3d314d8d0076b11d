package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	ProviderTimeout    time.Duration
	OutboxPollInterval time.Duration

	EnablePermitGateEnforcement bool
	EnableReviewGateEnforcement bool
	EnableEscrowOutboxRelay     bool
	EnableWorkflowOutboxRelay   bool
	DisableEscrowEventEmission  bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "groundwork"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		ProviderTimeout:    envDuration("PAYMENT_PROVIDER_TIMEOUT_SECONDS", 15*time.Second),
		OutboxPollInterval: envDuration("OUTBOX_POLL_INTERVAL_SECONDS", 2*time.Second),

		EnablePermitGateEnforcement: envBool("ENABLE_PERMIT_GATE_ENFORCEMENT", true),
		EnableReviewGateEnforcement: envBool("ENABLE_REVIEW_GATE_ENFORCEMENT", true),
		EnableEscrowOutboxRelay:     envBool("ENABLE_ESCROW_OUTBOX_RELAY", true),
		EnableWorkflowOutboxRelay:   envBool("ENABLE_WORKFLOW_OUTBOX_RELAY", true),
		DisableEscrowEventEmission:  envBool("DISABLE_ESCROW_EVENT_EMISSION", false),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

package config

import (
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Broker driver names, selected by BROKER_DRIVER.
const (
	BrokerChannel = "channel"
	BrokerKafka   = "kafka"
	BrokerAMQP    = "amqp"
)

// Store driver names, selected by STORE_DRIVER.
const (
	StoreMemory  = "memory"
	StoreSurreal = "surreal"
)

// Config holds all configuration for the application.
type Config struct {
	HTTPAddr string
	// ProcessID distinguishes this server process on shared broker
	// topology (e.g. its private AMQP queue name). Pin it via PROCESS_ID
	// when the process's queue should survive restarts.
	ProcessID string
	// ProcessIDGenerated is true when PROCESS_ID was not set and a fresh id
	// was generated for this boot. A generated id never returns after a
	// restart, so broker resources named after it must not outlive the
	// process.
	ProcessIDGenerated bool

	BrokerDriver string
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string
	AMQPURL      string

	StoreDriver string
	DBUrl       string
	DBNs        string
	DBDb        string
	DBUser      string
	DBPass      string
}

// New loads configuration from environment variables.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	processID := os.Getenv("PROCESS_ID")
	generated := processID == ""
	if generated {
		processID = uuid.NewString()
	}

	cfg := &Config{
		HTTPAddr:           getenv("HTTP_ADDR", ":8080"),
		ProcessID:          processID,
		ProcessIDGenerated: generated,
		BrokerDriver:       getenv("BROKER_DRIVER", BrokerChannel),
		KafkaBrokers:       splitList(getenv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:         getenv("KAFKA_TOPIC", "chat-messages"),
		KafkaGroup:         getenv("KAFKA_GROUP", "chat-group"),
		AMQPURL:            os.Getenv("AMQP_URL"),
		StoreDriver:        getenv("STORE_DRIVER", StoreMemory),
		DBUrl:              os.Getenv("SURREAL_URL"),
		DBUser:             os.Getenv("SURREAL_USER"),
		DBPass:             os.Getenv("SURREAL_PASS"),
		DBNs:               os.Getenv("SURREAL_NS"),
		DBDb:               os.Getenv("SURREAL_DB"),
	}

	switch cfg.BrokerDriver {
	case BrokerChannel, BrokerKafka:
	case BrokerAMQP:
		if cfg.AMQPURL == "" {
			log.Fatal("BROKER_DRIVER=amqp requires AMQP_URL to be set.")
		}
	default:
		log.Fatalf("Unknown BROKER_DRIVER %q (want channel, kafka or amqp).", cfg.BrokerDriver)
	}

	switch cfg.StoreDriver {
	case StoreMemory:
	case StoreSurreal:
		if cfg.DBUrl == "" || cfg.DBNs == "" || cfg.DBDb == "" {
			log.Fatal("STORE_DRIVER=surreal requires SURREAL_URL, SURREAL_NS and SURREAL_DB to be set.")
		}
	default:
		log.Fatalf("Unknown STORE_DRIVER %q (want memory or surreal).", cfg.StoreDriver)
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

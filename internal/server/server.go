package server

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/surrealdb/surrealdb.go"

	"github.com/nfrund/roomcast/internal/chat"
	"github.com/nfrund/roomcast/internal/config"
	"github.com/nfrund/roomcast/internal/database"
	"github.com/nfrund/roomcast/internal/distributor"
	"github.com/nfrund/roomcast/internal/handlers"
	"github.com/nfrund/roomcast/internal/logging"
	"github.com/nfrund/roomcast/internal/pubsub"
	"github.com/nfrund/roomcast/internal/sessions"
	"github.com/nfrund/roomcast/internal/store"
	"github.com/nfrund/roomcast/internal/store/surreal"
)

// Server holds the dependencies for one chat server process.
type Server struct {
	E           *echo.Echo
	Cfg         *config.Config
	Registry    *sessions.Registry
	Service     *chat.Service
	Distributor *distributor.Distributor

	db         *surrealdb.DB
	publisher  pubsub.Publisher
	subscriber pubsub.Subscriber

	roomHandler    *handlers.RoomHandler
	messageHandler *handlers.MessageHandler
	wsHandler      *handlers.WSHandler
}

// New creates a new Server instance, wiring the store, broker, session
// registry and distributor according to configuration. Backend selection is
// an explicit startup decision — in particular the broadcast-vs-load-balance
// trade-off between the amqp and kafka drivers.
func New() *Server {
	logging.New()
	cfg := config.New()

	s := &Server{Cfg: cfg}

	var (
		messages store.MessageStore
		rooms    store.RoomStore
		users    store.UserDirectory
	)
	switch cfg.StoreDriver {
	case config.StoreSurreal:
		db, err := database.NewDB(context.Background(), database.Config{
			URL:       cfg.DBUrl,
			Username:  cfg.DBUser,
			Password:  cfg.DBPass,
			Namespace: cfg.DBNs,
			Database:  cfg.DBDb,
		})
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		s.db = db
		st := surreal.New(db)
		messages, rooms, users = st, st, st
	default:
		st := store.NewMemoryStore()
		st.SeedDemoData()
		messages, rooms, users = st, st, st
	}

	switch cfg.BrokerDriver {
	case config.BrokerKafka:
		bridge, err := pubsub.NewKafkaBridge(pubsub.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			Group:   cfg.KafkaGroup,
		})
		if err != nil {
			slog.Error("Failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		s.publisher, s.subscriber = bridge, bridge
	case config.BrokerAMQP:
		bridge, err := pubsub.NewAMQPBridge(pubsub.AMQPConfig{
			URL:       cfg.AMQPURL,
			ProcessID: cfg.ProcessID,
			Ephemeral: cfg.ProcessIDGenerated,
		})
		if err != nil {
			slog.Error("Failed to connect to amqp", "error", err)
			os.Exit(1)
		}
		s.publisher, s.subscriber = bridge, bridge
	default:
		bridge := pubsub.NewChannelBridge()
		s.publisher, s.subscriber = bridge, bridge
	}

	s.Registry = sessions.NewRegistry()
	s.Service = chat.NewService(chat.Dependencies{
		Messages:  messages,
		Rooms:     rooms,
		Users:     users,
		Publisher: s.publisher,
	})
	s.Distributor = distributor.New(s.subscriber, s.Registry)

	s.roomHandler = handlers.NewRoomHandler(s.Service)
	s.messageHandler = handlers.NewMessageHandler(s.Service)
	s.wsHandler = handlers.NewWSHandler(s.Service, s.Registry)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Validator = handlers.NewValidator()
	s.E = e

	return s
}

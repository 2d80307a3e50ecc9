package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"

	authsvc "github.com/chrishamcode/marketplace-app-sub001/internal/app/services/auth"
	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/chat"
	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/listings"
	"github.com/chrishamcode/marketplace-app-sub001/internal/infra/broker/kafka"
	"github.com/chrishamcode/marketplace-app-sub001/internal/infra/config"
	mongodb "github.com/chrishamcode/marketplace-app-sub001/internal/infra/db/mongo"
	ginserver "github.com/chrishamcode/marketplace-app-sub001/internal/infra/http/gin"
	"github.com/chrishamcode/marketplace-app-sub001/internal/infra/obs"
	"github.com/chrishamcode/marketplace-app-sub001/internal/infra/security"
	"github.com/chrishamcode/marketplace-app-sub001/internal/infra/storage/memory"
	"github.com/chrishamcode/marketplace-app-sub001/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger("dev").Error("config load failed", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	users := memory.NewUserRepository()
	sessions := memory.NewSessionStore()
	listingRepo := memory.NewListingRepository()
	if cfg.Env == "dev" || cfg.Env == "local" {
		if err := seedDevFixtures(ctx, listingRepo); err != nil {
			logger.Warn("fixture load failed", "error", err)
		}
	}

	var messageStore chat.MessageStore = memory.NewMessageStore()
	ready := func() error { return nil }
	if cfg.MongoURI != "" {
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Error("mongo connect failed", "error", err)
			os.Exit(1)
		}
		store := mongodb.NewMessageStore(client.DB)
		if err := store.EnsureIndexes(ctx); err != nil {
			logger.Error("mongo index setup failed", "error", err)
			os.Exit(1)
		}
		messageStore = store
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		logger.Info("message store ready", "backend", "mongo", "database", cfg.MongoDB)
	} else {
		logger.Warn("MONGO_URI not set, using in-memory message store")
	}

	var events chat.EventPublisher
	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = kafka.NewProducer(cfg.KafkaBrokers, sarama.NewConfig())
		if err != nil {
			logger.Error("kafka connect failed", "error", err)
			os.Exit(1)
		}
		events = &kafka.ChatEventPublisher{Producer: producer, TopicPrefix: cfg.KafkaTopicPrefix}
		logger.Info("chat events enabled", "brokers", cfg.KafkaBrokers)
	} else {
		logger.Warn("KAFKA_BROKERS not set, chat events disabled")
	}

	var uploader s3.Uploader = s3.NoopUploader{}
	if cfg.S3Endpoint != "" {
		client, err := s3.NewClient(s3.Options{
			Endpoint:      cfg.S3Endpoint,
			PublicBaseURL: cfg.S3PublicEndpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			UseSSL:        cfg.S3UseSSL,
			Logger:        logger,
		})
		if err != nil {
			logger.Error("s3 client setup failed", "error", err)
			os.Exit(1)
		}
		uploader = client
	}

	authService := &authsvc.Service{
		Users:      users,
		Sessions:   sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}
	ledger := &chat.Ledger{
		Store:    messageStore,
		Users:    users,
		Listings: listingRepo,
		Events:   events,
		Logger:   logger,
	}

	server := ginserver.NewServer(
		cfg,
		obs.Middleware{Logger: logger},
		obs.HealthHandlers{Ready: ready},
		ginserver.Handlers{
			Auth:           ginserver.AuthHandler{Service: authService, Logger: logger},
			Chat:           ginserver.ChatHandler{Ledger: ledger, Logger: logger},
			Listing:        ginserver.ListingHandler{Listings: listingRepo, Uploader: uploader, Logger: logger},
			AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
		},
	)

	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close failed", "error", err)
		}
	}
	logger.Info("stopped")
}

// seedDevFixtures loads a couple of demo listings so the catalog and chat
// endpoints are usable out of the box in dev mode.
func seedDevFixtures(ctx context.Context, repo *memory.ListingRepository) error {
	fixtures := []listings.CreateListingParams{
		{
			ID:         "fixture-bike",
			Seller:     "fixture-seller",
			Title:      "City Bike",
			Category:   "sports",
			PriceCents: 12000,
			Currency:   "EUR",
			Condition:  "used",
			Location:   "Berlin",
		},
		{
			ID:         "fixture-desk",
			Seller:     "fixture-seller",
			Title:      "Standing Desk",
			Category:   "furniture",
			PriceCents: 25000,
			Currency:   "EUR",
			Condition:  "like new",
			Location:   "Hamburg",
		},
	}
	for _, params := range fixtures {
		listing, err := listings.NewListing(params)
		if err != nil {
			return err
		}
		if err := listing.Activate(time.Now()); err != nil {
			return err
		}
		if err := repo.Save(ctx, listing); err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/openaxm/walletgate/adapters/events"
	"github.com/openaxm/walletgate/adapters/ledger"
	"github.com/openaxm/walletgate/adapters/store"
	"github.com/openaxm/walletgate/adapters/tokenizer"
	"github.com/openaxm/walletgate/config"
	"github.com/openaxm/walletgate/ports"
	"github.com/openaxm/walletgate/service"
	transport "github.com/openaxm/walletgate/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Log)

	if cfg.Protocol.DepositAddress == "" {
		log.Fatal().Msg("protocol.depositaddress must be configured")
	}

	requiredAmount, err := decimal.NewFromString(cfg.Protocol.RequiredAmount)
	if err != nil {
		log.Fatal().Err(err).Str("value", cfg.Protocol.RequiredAmount).Msg("bad protocol.requiredamount")
	}

	signKey, err := loadSigningKey(cfg.Session.SigningKeyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load signing key")
	}
	if cfg.Session.SigningKeyFile == "" {
		log.Warn().Msg("no signing key configured, generated an ephemeral one; sessions will not survive a restart")
	}

	var (
		challengeStore ports.Store
		eventPub       ports.EventPublisher
	)
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to parse Redis URL")
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Msg("failed to reach Redis")
		}

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create Redis publisher")
		}

		challengeStore = store.NewRedisStore(redisClient)
		eventPub = events.NewWatermillPublisher(publisher)
	} else {
		log.Warn().Msg("no Redis configured, using the in-memory store; verified-wallet events will not be published")
		challengeStore = store.NewMemoryStore()
	}

	svc := service.NewVerificationService(
		challengeStore,
		ledger.NewHTTPReader(cfg.Ledger.BaseURL, cfg.Ledger.Timeout),
		tokenizer.NewJWTTokenizer(signKey, cfg.Session.TTL),
		eventPub,
		service.Config{
			DepositAddress: cfg.Protocol.DepositAddress,
			RequiredAmount: requiredAmount,
			EnforceAmount:  cfg.Protocol.EnforceAmount,
			AddressPrefix:  cfg.Protocol.AddressPrefix,
			ChallengeTTL:   cfg.Protocol.ChallengeTTL,
		},
		log,
	)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go svc.RunSweeper(sweepCtx, cfg.Protocol.SweepInterval)

	router := transport.SetupRouter(svc)

	log.Info().Str("addr", cfg.Server.ListenAddr).Msg("walletgate listening")
	if err := router.Run(cfg.Server.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(cfg config.Log) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stderr)
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// loadSigningKey reads an EC PRIVATE KEY PEM, or generates an ephemeral
// P-256 key when no file is configured.
func loadSigningKey(path string) (*ecdsa.PrivateKey, error) {
	if path == "" {
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}

	block, _ := pem.Decode(raw)
	if block == nil || block.Type != "EC PRIVATE KEY" {
		return nil, fmt.Errorf("signing key file %s is not an EC PRIVATE KEY PEM", path)
	}

	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	return key, nil
}

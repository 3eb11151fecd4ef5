package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/nft-registry/internal/adapter"
	"github.com/feral-file/nft-registry/internal/api/middleware"
	"github.com/feral-file/nft-registry/internal/api/rest"
	"github.com/feral-file/nft-registry/internal/api/server"
	"github.com/feral-file/nft-registry/internal/config"
	"github.com/feral-file/nft-registry/internal/dispatcher"
	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/host"
	"github.com/feral-file/nft-registry/internal/host/memory"
	"github.com/feral-file/nft-registry/internal/ledger"
	"github.com/feral-file/nft-registry/internal/logger"
	"github.com/feral-file/nft-registry/internal/messaging"
	"github.com/feral-file/nft-registry/internal/metrics"
	"github.com/feral-file/nft-registry/internal/policy"
	"github.com/feral-file/nft-registry/internal/providers/jetstream"
	redisprovider "github.com/feral-file/nft-registry/internal/providers/redis"
	"github.com/feral-file/nft-registry/internal/query"
	"github.com/feral-file/nft-registry/internal/ratelimit"
	"github.com/feral-file/nft-registry/internal/registry"
	"github.com/feral-file/nft-registry/internal/store"
	"github.com/feral-file/nft-registry/internal/token"
	"github.com/feral-file/nft-registry/internal/webhook"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadNodeConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service":  "registry-node",
			"chain_id": cfg.Ledger.ChainID,
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting NFT registry node",
		zap.String("chain_id", cfg.Ledger.ChainID),
		zap.String("backend", cfg.Ledger.Backend),
	)

	// Initialize adapters
	clock := adapter.NewClock()
	fs := adapter.NewFileSystem()
	jsonAdapter := adapter.NewJSON()
	jcsAdapter := adapter.NewJCS()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Host storage and receipts
	backend, receipts, err := openBackend(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open storage backend", zap.Error(err), zap.String("backend", cfg.Ledger.Backend))
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error(err, zap.String("message", "Failed to close storage backend"))
		}
	}()

	// Registry policy
	minters, err := loadMinters(cfg, fs, jsonAdapter)
	if err != nil {
		logger.Fatal("Failed to load minters", zap.Error(err))
	}
	if !cfg.Registry.Permissionless && len(minters.Minters()) == 0 {
		logger.WarnCtx(ctx, "Registry is permissioned but no minter is configured, every mint will be rejected")
	}

	programFee, err := programFee(cfg.Registry.ProgramFee)
	if err != nil {
		logger.Fatal("Invalid program fee", zap.Error(err))
	}

	engine := registry.NewEngine(registry.Config{
		Permissionless: cfg.Registry.Permissionless,
		Minters:        minters,
		ProgramFee:     programFee,
		Limits: token.Limits{
			MaxMetadataEntries: cfg.Registry.Limits.MaxMetadataEntries,
			MaxKeyLength:       cfg.Registry.Limits.MaxKeyLength,
			MaxValueSize:       cfg.Registry.Limits.MaxValueSize,
			MaxMetadataSize:    cfg.Registry.Limits.MaxMetadataSize,
			MaxViewList:        cfg.Registry.Limits.MaxViewList,
			MaxRoyaltySplits:   cfg.Registry.Limits.MaxRoyaltySplits,
		},
	})

	// Event delivery
	publisher, err := openPublishers(ctx, cfg, jsonAdapter, clock, m)
	if err != nil {
		logger.Fatal("Failed to initialize event publishers", zap.Error(err))
	}
	defer publisher.Close()

	// Ledger node
	node, err := ledger.NewNode(ctx, ledger.Config{
		ChainID:        cfg.Ledger.ChainID,
		BlockInterval:  cfg.Ledger.BlockInterval,
		MaxTxsPerBlock: cfg.Ledger.MaxTxsPerBlock,
		MempoolSize:    cfg.Ledger.MempoolSize,
	}, ledger.Dependencies{
		Backend:    backend,
		Dispatcher: dispatcher.New(engine, backend, clock, m),
		Receipts:   receipts,
		Publisher:  publisher,
		Limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			IdleTTL:           cfg.RateLimit.IdleTTL,
		}, clock),
		Codec:   ledger.NewTxCodec(jsonAdapter, jcsAdapter),
		Clock:   clock,
		Metrics: m,
	})
	if err != nil {
		logger.Fatal("Failed to initialize ledger node", zap.Error(err))
	}

	// API server
	auth, err := middleware.NewAuthenticator(middleware.AuthConfig{
		JWTPublicKey: cfg.Auth.JWTPublicKey,
		Issuer:       cfg.Auth.Issuer,
	})
	if err != nil {
		logger.Fatal("Failed to initialize authenticator", zap.Error(err))
	}

	srv := server.New(server.Config{
		Debug:          cfg.Debug,
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.Server.IdleTimeout) * time.Second,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, rest.NewHandler(cfg.Ledger.ChainID, node, query.NewService(backend, query.MaxPageLimit)), auth, reg)

	errCh := make(chan error, 2)

	// Block production
	nodeDone := make(chan struct{})
	go func() {
		defer close(nodeDone)
		if err := node.Run(ctx); err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("ledger node stopped: %w", err)
		}
	}()

	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the node
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "registry-node"))
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.InfoCtx(shutdownCtx, "Shutting down server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err, zap.String("message", "Server forced to shutdown"))
	}

	// Stop sealing only after submissions have stopped
	cancel()
	<-nodeDone

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("Registry node stopped", zap.Uint64("height", node.Height()))
}

// openBackend opens the configured host storage together with its receipt store
func openBackend(ctx context.Context, cfg *config.NodeConfig) (host.Backend, ledger.ReceiptStore, error) {
	switch cfg.Ledger.Backend {
	case config.BackendPostgres:
		db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
			return nil, nil, fmt.Errorf("failed to configure connection pool: %w", err)
		}
		if err := store.Migrate(db); err != nil {
			return nil, nil, err
		}
		logger.InfoCtx(ctx, "Connected to database",
			zap.String("host", cfg.Database.Host),
			zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
			zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
		)

		s := store.NewPGStore(db)
		return s, s, nil

	case config.BackendRedis:
		client := adapter.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		b, err := redisprovider.NewBackend(ctx, redisprovider.Config{Namespace: cfg.Redis.Namespace}, client)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		logger.InfoCtx(ctx, "Connected to redis", zap.String("addr", cfg.Redis.Addr))
		return b, b, nil

	default:
		logger.WarnCtx(ctx, "Using in-memory storage, state is lost on restart")
		return memory.New(), ledger.NewMemoryReceiptStore(), nil
	}
}

// loadMinters merges the configured minters with the allow-list file
func loadMinters(cfg *config.NodeConfig, fs adapter.FileSystem, json adapter.JSON) (registry.MinterRegistry, error) {
	addrs, err := cfg.Registry.MinterAddresses()
	if err != nil {
		return nil, err
	}

	if cfg.Registry.MintersPath != "" {
		fromFile, err := registry.NewMinterAllowlistLoader(fs, json).Load(cfg.Registry.MintersPath)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, fromFile.Minters()...)
		logger.Info("Loaded minter allow-list",
			zap.String("path", cfg.Registry.MintersPath),
			zap.Int("count", len(fromFile.Minters())),
		)
	}

	return registry.NewMinterRegistry(addrs), nil
}

func programFee(cfg config.ProgramFeeConfig) (policy.Fee, error) {
	if cfg.Collector == "" {
		return policy.Fee{}, nil
	}
	collector, err := domain.ParseAddress(cfg.Collector)
	if err != nil {
		return policy.Fee{}, err
	}
	return policy.Fee{Collector: collector, BasisPoints: cfg.BasisPoints}, nil
}

// openPublishers builds the event fan-out over the configured sinks
func openPublishers(ctx context.Context, cfg *config.NodeConfig, json adapter.JSON, clock adapter.Clock, m *metrics.Metrics) (messaging.Publisher, error) {
	var publishers []messaging.Publisher

	if cfg.NATS.URL != "" {
		p, err := jetstream.NewPublisher(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			SubjectPrefix:  cfg.NATS.SubjectPrefix,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, adapter.NewNatsJetStream(), json)
		if err != nil {
			return nil, err
		}
		publishers = append(publishers, p)
		logger.InfoCtx(ctx, "Publishing events to NATS", zap.String("stream", cfg.NATS.StreamName))
	}

	if len(cfg.Webhooks.URLs) > 0 {
		endpoints := make([]webhook.Endpoint, len(cfg.Webhooks.URLs))
		for i, u := range cfg.Webhooks.URLs {
			endpoints[i] = webhook.Endpoint{
				URL:        u,
				Secret:     cfg.Webhooks.Secret,
				EventTypes: cfg.Webhooks.EventTypes,
			}
		}
		publishers = append(publishers, webhook.NewNotifier(webhook.Config{
			Endpoints:       endpoints,
			MaxWorkers:      cfg.Webhooks.MaxWorkers,
			QueueSize:       cfg.Webhooks.QueueSize,
			InitialInterval: cfg.Webhooks.InitialInterval,
			MaxInterval:     cfg.Webhooks.MaxInterval,
			MaxElapsedTime:  cfg.Webhooks.MaxElapsedTime,
		}, adapter.NewHTTPClient(cfg.Webhooks.Timeout), clock, m))
		logger.InfoCtx(ctx, "Delivering events to webhooks", zap.Int("endpoints", len(endpoints)))
	}

	if len(publishers) == 0 {
		return messaging.Nop(), nil
	}
	return messaging.NewFanout(publishers...), nil
}

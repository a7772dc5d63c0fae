package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lineclash/lineclash-server/internal/config"
	"github.com/lineclash/lineclash-server/internal/feed"
	"github.com/lineclash/lineclash-server/internal/game"
	"github.com/lineclash/lineclash-server/internal/game/cards"
	"github.com/lineclash/lineclash-server/internal/game/effects"
	"github.com/lineclash/lineclash-server/internal/recorder"
	"github.com/lineclash/lineclash-server/internal/repository"
	"github.com/lineclash/lineclash-server/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting lineclash server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("lineclash server stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Recorder
	var rec recorder.Recorder = recorder.Nop{}
	if cfg.Recorder.Driver != "none" {
		store, err := repository.Open(ctx, cfg.Recorder.Driver, cfg.Recorder.DSN, logger)
		if err != nil {
			return fmt.Errorf("open recorder store: %w", err)
		}
		defer store.Close()

		async := recorder.NewAsync(store, logger.Named("recorder"), cfg.Recorder.QueueSize, cfg.Recorder.Timeout)
		defer async.Close()
		rec = async
		logger.Info("recorder initialized", zap.String("driver", cfg.Recorder.Driver))
	} else {
		logger.Info("recorder disabled")
	}

	// Match
	catalog := cards.Standard()
	engine := effects.NewEngine(effects.DefaultRules(), logger.Named("effects"))
	match := game.NewMatch(catalog, engine, matchSettings(cfg.Game), logger.Named("match"), game.WithRecorder(rec))
	logger.Info("match created",
		zap.String("match_id", match.ID().String()),
		zap.Int("catalog_size", catalog.Len()),
	)

	var opts []server.GatewayOption

	// Snapshot feed
	if cfg.Feed.RedisURL != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		publisher, err := feed.NewRedis(pingCtx, cfg.Feed.RedisURL, cfg.Feed.ChannelPrefix, cfg.Feed.QueueSize, logger.Named("feed"))
		cancel()
		if err != nil {
			logger.Warn("redis feed unavailable, continuing without it", zap.Error(err))
		} else {
			defer publisher.Close()
			opts = append(opts, server.WithPublishers(publisher))
			logger.Info("redis feed initialized", zap.String("channel", publisher.Channel(match.ID().String())))
		}
	}

	// Replays
	replays := game.NewReplayRecorder(logger.Named("replay"), cfg.Replay.Dir)
	opts = append(opts, server.WithReplays(replays))

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	g, gctx := errgroup.WithContext(runCtx)

	// Spectators
	if cfg.Spectator.Address != "" {
		hub := server.NewHub(logger.Named("spectator"))
		opts = append(opts, server.WithPublishers(hub))

		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		srv := &http.Server{
			Addr:              cfg.Spectator.Address,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			hub.Run(gctx)
			return nil
		})
		g.Go(func() error {
			logger.Info("starting spectator server", zap.String("address", cfg.Spectator.Address))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("spectator server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	// Health
	if cfg.Health.Address != "" {
		health := server.NewHealth(logger.Named("health"))
		opts = append(opts, server.WithStatus(health))

		lis, err := net.Listen("tcp", cfg.Health.Address)
		if err != nil {
			return fmt.Errorf("listen health on %s: %w", cfg.Health.Address, err)
		}
		g.Go(func() error {
			return health.Serve(lis)
		})
		g.Go(func() error {
			<-gctx.Done()
			health.Stop()
			return nil
		})
	}

	gateway := server.NewGateway(server.GatewayConfig{
		Address:       cfg.Server.Address,
		MaxFrameBytes: cfg.Server.MaxFrameBytes,
		ResolveDelay:  cfg.Server.ResolveDelay,
		Linger:        cfg.Server.LingerAfterGameOver,
		SendQueue:     cfg.Server.SendQueue,
	}, match, logger.Named("gateway"), opts...)

	g.Go(func() error {
		// The gateway ending, after game over or on a signal, stops everything else.
		defer cancelRun()
		return gateway.ListenAndServe(gctx)
	})

	logger.Info("lineclash server initialized",
		zap.String("version", version),
		zap.String("address", cfg.Server.Address),
		zap.String("spectator_address", cfg.Spectator.Address),
		zap.String("health_address", cfg.Health.Address),
	)

	err := g.Wait()
	if ctx.Err() != nil {
		logger.Info("received shutdown signal")
	}
	return err
}

func matchSettings(cfg config.GameConfig) game.Settings {
	s := game.DefaultSettings()
	s.StartingLives = cfg.StartingLives
	s.DeckSize = cfg.DeckSize
	s.OpeningHand = cfg.OpeningHand
	s.RoundDraw = cfg.RoundDraw
	s.MessageTTL = cfg.MessageTTL
	s.RevealOpponentHand = cfg.RevealOpponentHand
	copy(s.PlayerNames[:], cfg.PlayerNames)
	return s
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

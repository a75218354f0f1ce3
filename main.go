package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/devpulsehq/insights-engine/cache"
	"github.com/devpulsehq/insights-engine/config"
	"github.com/devpulsehq/insights-engine/engine"
	"github.com/devpulsehq/insights-engine/pipeline"
	"github.com/devpulsehq/insights-engine/provider/github"
	"github.com/devpulsehq/insights-engine/redis"
	"github.com/devpulsehq/insights-engine/scan"
	"github.com/devpulsehq/insights-engine/streak"
	"github.com/devpulsehq/insights-engine/token"
)

var consumerName = fmt.Sprintf("insights-worker-%d", os.Getpid())

func main() {
	cfg, err := config.NewLoader("APP").Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("starting insights engine", "env", cfg.Env, "consumer", consumerName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Force the process down if cleanup hangs past the grace period.
	go func() {
		<-ctx.Done()
		time.AfterFunc(cfg.ShutdownGrace, func() {
			logger.Error("shutdown grace expired, exiting")
			os.Exit(1)
		})
	}()

	tokens, err := newTokens(cfg)
	if err != nil {
		logger.Error("github credentials", "error", err)
		os.Exit(1)
	}

	eng := engine.New(engine.Config{
		MaxQueueSize:      cfg.MaxQueueSize,
		MaxRetries:        cfg.MaxRetries,
		BaseDelay:         cfg.RetryBaseDelay,
		ThrottleRemaining: cfg.ThrottleRemaining,
		ThrottleDelay:     cfg.ThrottleDelay,
		RequestsPerMinute: cfg.GithubRateLimit,
	}, &http.Client{Timeout: cfg.HTTPClientTimeout}, logger)

	store, err := cache.New(cfg.CacheSize)
	if err != nil {
		logger.Error("cache init", "error", err)
		os.Exit(1)
	}
	go store.Sweep(ctx, cfg.CacheSweepInterval)

	provider, err := github.New(github.Options{
		Engine:   eng,
		Tokens:   tokens,
		Cache:    store,
		CacheTTL: cfg.CacheTTL,
		Logger:   logger,
		PageSize: cfg.PageSize,
	})
	if err != nil {
		logger.Error("github client", "error", err)
		os.Exit(1)
	}

	jobs, err := pipeline.New(pipeline.Options{
		Source:        provider,
		Logger:        logger,
		Concurrency:   cfg.GithubConcurrency,
		Years:         cfg.ContributionYears,
		WindowDays:    cfg.FailureWindowDays,
		RiskThreshold: cfg.StreakRiskThreshold,
		Risk: streak.RiskConfig{
			SafeUnder:    cfg.RiskSafeUnder,
			WarningUnder: cfg.RiskWarningUnder,
			DangerUnder:  cfg.RiskDangerUnder,
			WeekendGrace: cfg.WeekendGrace,
		},
		Scan: scan.Config{
			Include:     cfg.ScanInclude,
			Exclude:     cfg.ScanExclude,
			MaxFileSize: int(cfg.ScanMaxFileSize),
			MaxFiles:    cfg.ScanMaxFiles,
		},
	})
	if err != nil {
		logger.Error("pipeline init", "error", err)
		os.Exit(1)
	}

	streams := redis.Streams{
		JobStream:    cfg.JobStream,
		Group:        cfg.JobGroup,
		ResultStream: cfg.ResultStream,
		MaxLen:       cfg.RedisStreamMaxLen,
		BatchSize:    cfg.RedisBatchSize,
		BlockTimeout: cfg.RedisBlockTimeout,
		BackoffMin:   cfg.BackoffMin,
		BackoffMax:   cfg.BackoffMax,
		ConnTimeout:  cfg.RedisConnTimeout,
	}

	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = redis.ConnectURL(cfg.RedisURL, streams)
	} else {
		rdb, err = redis.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, streams)
	}
	if err != nil {
		logger.Error("redis connection", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	consumer := redis.NewConsumer(rdb, streams, consumerName, dispatch(jobs), logger)
	if err := consumer.Watch(ctx); err != nil && ctx.Err() == nil {
		logger.Error("job stream watcher", "error", err)
		os.Exit(1)
	}
	logger.Info("shut down cleanly")
}

func dispatch(jobs *pipeline.Pipeline) redis.Handler {
	return func(ctx context.Context, job redis.Job) (any, error) {
		switch job.Type {
		case redis.JobUserInsights:
			return jobs.UserInsights(ctx, job.Username)
		case redis.JobWorkflowHealth:
			return jobs.WorkflowHealth(ctx, job.Owner, job.Repo, job.Days)
		case redis.JobSecurityScan:
			return jobs.SecurityScan(ctx, job.Owner, job.Repo, job.Ref)
		default:
			return nil, fmt.Errorf("unknown job type %q", job.Type)
		}
	}
}

func newTokens(cfg config.Config) (token.Accessor, error) {
	if cfg.GithubToken != "" {
		return token.NewStatic(cfg.GithubToken)
	}
	return token.NewApp(cfg.GithubClientID, []byte(cfg.GithubPrivateKey), cfg.GithubInstallationID)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

package di

import (
    "fmt"

    "SectorPulse/internal/domain/repository"
    "SectorPulse/internal/handler/api"
    internalrepo "SectorPulse/internal/repository"
    "SectorPulse/internal/service/cache"
    "SectorPulse/internal/service/ratelimit"
    "SectorPulse/internal/service/translate"
    "SectorPulse/internal/service/yahoo"
    "SectorPulse/internal/usecase"
    pkgcache "SectorPulse/pkg/cache"
    "SectorPulse/pkg/config"
    xhttp "SectorPulse/pkg/http"
    pkgkafka "SectorPulse/pkg/kafka"
    "SectorPulse/pkg/logger"
    "SectorPulse/pkg/metrics"
    "SectorPulse/pkg/server"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
    if !cfg.Kafka.Enabled {
        return nil, nil
    }
    producer, err := pkgkafka.NewProducer(
        pkgkafka.WithBrokers(cfg.Kafka.Brokers),
        pkgkafka.WithDelivery(cfg.Kafka.RequiredAcks, cfg.Kafka.Producer.MaxAttempts, cfg.Kafka.Compression),
        pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
        pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
        pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
        pkgkafka.WithAutoCreateTopics(cfg.Kafka.AutoCreateTopics),
        pkgkafka.WithHashByKey(true),
    )
    if err != nil {
        return nil, fmt.Errorf("kafka producer: %w", err)
    }
    return producer, nil
}

// ProvideLogger builds the process logger. With Kafka enabled, warn and error
// logs are also digested onto the log topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, error) {
    l, err := logger.New(&logger.Config{
        Level:  cfg.Log.Level,
        Format: cfg.Log.Format,
        Output: cfg.Log.Output,
    })
    if err != nil {
        return nil, fmt.Errorf("logger: %w", err)
    }
    if producer != nil && cfg.Kafka.LogTopic != "" {
        l.AddCollector(&logger.CollectionConfig{
            TimeInterval:   cfg.Log.DigestInterval,
            CountThreshold: cfg.Log.DigestThreshold,
            Topic:          cfg.Kafka.LogTopic,
            Publisher:      producer,
        })
    }
    return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideRedisCache connects the shared cache tier. A failed connection is
// logged and the service runs on the in-process cache alone.
func ProvideRedisCache(cfg *config.Config, l *logger.Logger) *pkgcache.RedisCache {
    if !cfg.Redis.Enabled {
        return nil
    }
    rc, err := pkgcache.NewRedisCache(
        pkgcache.WithRedisHost(cfg.Redis.Host),
        pkgcache.WithRedisPort(cfg.Redis.Port),
        pkgcache.WithRedisPassword(cfg.Redis.Password),
        pkgcache.WithRedisDB(cfg.Redis.DB),
        pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
    )
    if err != nil {
        l.Warn("redis unavailable, continuing without shared cache", logger.Error(err))
        return nil
    }
    return rc
}

func ProvideSharedCache(rc *pkgcache.RedisCache) pkgcache.Service {
    if rc == nil {
        return nil
    }
    return rc
}

func ProvideTTLCache() *cache.TTLCache {
    return cache.NewTTLCache()
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
    return metrics.New()
}

func ProvideMarketDataProvider(cfg *config.Config, l *logger.Logger) repository.MarketDataProvider {
    return yahoo.New(cfg, l)
}

func ProvideTranslator(cfg *config.Config) repository.Translator {
    return translate.NewGoogle(cfg)
}

func ProvideSnapshotPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SnapshotPublisher {
    if producer == nil {
        return internalrepo.NopSnapshotPublisher{}
    }
    return internalrepo.NewKafkaSnapshotPublisher(producer, cfg.Kafka.Topic)
}

func ProvideLimiter() *ratelimit.Limiter {
    return ratelimit.New()
}

// ProvideHTTPHandler registers the market API.
func ProvideHTTPHandler(
    l *logger.Logger,
    cfg *config.Config,
    analysis *usecase.StockAnalysisUseCase,
    insights *usecase.StockInsightsUseCase,
    sectors *usecase.SectorAggregateUseCase,
    limiter *ratelimit.Limiter,
) xhttp.Handler {
    return api.NewMarketEchoHandler(l, cfg, analysis, insights, sectors, limiter)
}

// ProvideApp creates the application server.
func ProvideApp(
    cfg *config.Config,
    l *logger.Logger,
    handler xhttp.Handler,
    limiter *ratelimit.Limiter,
    publisher repository.SnapshotPublisher,
    rc *pkgcache.RedisCache,
) *server.App {
    return server.New(cfg, l, handler, limiter, publisher, rc)
}

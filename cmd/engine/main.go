package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Drivers
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	// Instrumentation
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	// Interne
	"github.com/RemiBp/choice-app-backend-sub000/config"
	"github.com/RemiBp/choice-app-backend-sub000/internal/adapters/secondary/eventbroker"
	"github.com/RemiBp/choice-app-backend-sub000/internal/adapters/secondary/reconcile"
	"github.com/RemiBp/choice-app-backend-sub000/internal/adapters/secondary/repository"
	"github.com/RemiBp/choice-app-backend-sub000/internal/core/domain"
	"github.com/RemiBp/choice-app-backend-sub000/internal/core/services"
)

func main() {
	// 1. Config & Logger
	cfg := config.Load()
	initLogger(cfg)
	slog.Info("🚀 Starting Content Engine", "env", cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Télémétrie (Tracing)
	tp, err := initTracer(ctx, cfg)
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// 3. Infrastructure: Mongo (Driven Adapter)
	mongoClient, err := mongo.Connect(ctx, mongoopts.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		slog.Error("Unable to connect to Mongo", "error", err)
		os.Exit(1)
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	if err := mongoClient.Ping(ctx, nil); err != nil {
		slog.Error("Unable to ping Mongo", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Connected to Mongo")

	contentDB := mongoClient.Database(cfg.MongoContentDB)
	restoDB := mongoClient.Database(cfg.MongoRestoDB)
	leisureDB := mongoClient.Database(cfg.MongoLeisureDB)

	// L'ordre des sources EST l'ordre de priorité du Locator.
	sources := []services.Source{
		{Store: repository.NewPostStore(contentDB), Kind: domain.KindPost},
		{Store: repository.NewRestaurantStore(restoDB), Kind: domain.KindRestaurant},
		{Store: repository.NewLeisureEventStore(leisureDB), Kind: domain.KindLeisureEvent},
		{Store: repository.NewLeisureProducerStore(leisureDB), Kind: domain.KindLeisureProducer},
	}
	userStore := repository.NewUserStore(contentDB)

	// 4. Infrastructure: Redis (file de réparation miroir)
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		panic(err)
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("Unable to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Connected to Redis")
	repairQueue := reconcile.NewRedisRepairQueue(rdb)

	// 5. Infrastructure: Event Broker NATS
	nc, err := nats.Connect(cfg.NatsUrl)
	if err != nil {
		slog.Error("Unable to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer nc.Close()
	slog.Info("✅ Connected to NATS")
	publisher := eventbroker.NewNatsPublisher(nc)

	// 6. Initialisation du Core
	engine := services.NewEngine(sources, userStore, publisher, repairQueue, services.Options{
		FanoutTimeout: time.Duration(cfg.FanoutTimeoutMs) * time.Millisecond,
	})

	// 7. Balayage de réconciliation (Background)
	go func() {
		interval := time.Duration(cfg.ReconcileIntervalS) * time.Second
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		slog.Info("🔁 Reconcile sweep scheduled", "interval", interval)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := engine.Reconcile(ctx); err != nil {
					slog.Error("❌ Reconcile sweep failed", "error", err)
				}
			}
		}
	}()

	// 8. Serveur gRPC (Health + Reflection)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		slog.Error("Failed to listen", "error", err)
		os.Exit(1)
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	slog.Info("📡 Content Engine gRPC listening", "port", cfg.GRPCPort)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("🛑 Shutting down server...")

	grpcServer.GracefulStop()
	slog.Info("👋 Server exited")
}

// --- Helpers ---

func initLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Env == "local" {
		opts.Level = slog.LevelDebug
	}
	var handler slog.Handler
	if cfg.Env == "local" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func initTracer(ctx context.Context, cfg config.Config) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OtelEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, _ := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String("content-engine"),
			semconv.DeploymentEnvironmentKey.String(cfg.Env),
		),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}

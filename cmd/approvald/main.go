// Command approvald serves the approval workflow engine over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sicko7947/approvalflow"
	"github.com/sicko7947/approvalflow/api"
	"github.com/sicko7947/approvalflow/config"
	"github.com/sicko7947/approvalflow/engine"
	"github.com/sicko7947/approvalflow/registry"
	"github.com/sicko7947/approvalflow/store"
)

// Set via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	zerolog.SetGlobalLevel(cfg.LogLevel())
	if cfg.Log.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workflowStore, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.Store.Driver).Msg("Failed to open workflow store")
		return 1
	}
	defer closeStore()

	docs := registry.NewMemoryRegistry()
	for _, doc := range cfg.Documents {
		docs.AddDocument(doc.Document())
	}

	wfEngine := engine.NewEngine(
		workflowStore,
		docs,
		engine.WithLogger(log.Logger),
		engine.WithConfig(cfg.Engine.ToEngine()),
		engine.WithMetrics(engine.NewMetrics(prometheus.DefaultRegisterer)),
	)

	log.Info().
		Str("store", cfg.Store.Driver).
		Int("documents", len(cfg.Documents)).
		Msg("Approval engine initialized successfully")

	app := fiber.New()
	api.NewHandler(wfEngine, api.WithLogger(log.Logger), api.WithVersion(version)).Register(app)
	if cfg.Metrics.Enabled {
		api.RegisterMetrics(app, cfg.Metrics.Path, nil)
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.Server.ListenAddr).Msg("Starting HTTP server")
		serveErr <- app.Listen(cfg.Server.ListenAddr)
	}()

	select {
	case err := <-serveErr:
		log.Error().Err(err).Msg("HTTP server stopped unexpectedly")
		return 1
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server stopped")
	return 0
}

// openStore builds the configured WorkflowStore and the func that releases it
func openStore(ctx context.Context, cfg config.StoreConfig) (approvalflow.WorkflowStore, func(), error) {
	switch cfg.Driver {
	case config.DriverDynamoDB:
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("loading aws config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
		})
		return store.NewDynamoDBStore(client, cfg.TableName), func() {}, nil

	case config.DriverPostgres:
		poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("parsing postgres dsn: %w", err)
		}
		if cfg.MaxConns > 0 {
			poolCfg.MaxConns = cfg.MaxConns
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pg, pool.Close, nil
	}

	return store.NewMemoryStore(), func() {}, nil
}

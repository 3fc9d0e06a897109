// ============================================================================
// backend/cmd/results/main.go
// Entry point for the Results Service and its operator commands
// ============================================================================

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"college_portal/backend/internal/grading"
	"college_portal/backend/internal/metrics"
	"college_portal/backend/internal/result"
	"college_portal/backend/internal/roster"
	"college_portal/backend/internal/shared"
)

const serviceName = "results-service"

var envFile string

var rootCmd = &cobra.Command{
	Use:           "results",
	Short:         "Academic results and grading engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file to load before reading the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ensureIndexesCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app is everything a command needs once configuration is resolved.
type app struct {
	config  *shared.ServiceConfig
	logger  *zap.Logger
	client  *mongo.Client
	store   *result.MongoStore
	metrics *metrics.Recorder
	service *result.Service
}

// bootstrap loads configuration, connects to MongoDB and builds the engine.
// validate selects the config checks the calling command needs.
func bootstrap(validate func(*shared.ServiceConfig) error) (*app, error) {
	// Load environment variables
	if err := shared.LoadEnv(envFile); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Load and validate service configuration
	config, err := shared.LoadServiceConfig(serviceName)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := shared.NewLogger(config)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	policy, err := grading.LoadPolicy(config.Grading.PolicyFile)
	if err != nil {
		return nil, err
	}

	// Connect to MongoDB
	client, db, err := shared.ConnectMongoDB(&config.MongoDB, logger)
	if err != nil {
		return nil, err
	}

	store := result.NewMongoStore(db)
	recorder := metrics.New()
	service := result.NewService(store, roster.NewMongoRoster(db), policy,
		result.WithLogger(logger),
		result.WithMetrics(recorder),
		result.WithConcurrency(config.Ingest.Concurrency),
	)

	return &app{
		config:  config,
		logger:  logger,
		client:  client,
		store:   store,
		metrics: recorder,
		service: service,
	}, nil
}

// close disconnects from MongoDB and flushes the logger.
func (rt *app) close() {
	if err := shared.DisconnectMongoDB(rt.client); err != nil {
		rt.logger.Warn("error disconnecting from MongoDB", zap.Error(err))
	}
	_ = rt.logger.Sync()
}

// =============================================================================
// Eigenflow service entry point
// =============================================================================
// Usage:
//
//	eigenflow serve                       # start the service
//	eigenflow serve --config config.yaml  # with a config file
//	eigenflow version                     # show version info
// =============================================================================

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rishavSprinto/eigenflow/api/handlers"
	"github.com/rishavSprinto/eigenflow/checkpoint"
	"github.com/rishavSprinto/eigenflow/config"
	"github.com/rishavSprinto/eigenflow/engine"
	"github.com/rishavSprinto/eigenflow/internal/metrics"
	"github.com/rishavSprinto/eigenflow/internal/server"
	"github.com/rishavSprinto/eigenflow/internal/telemetry"
	"github.com/rishavSprinto/eigenflow/registry"
	"github.com/rishavSprinto/eigenflow/steps"
	"github.com/rishavSprinto/eigenflow/types"
)

// Version information, injected at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("eigenflow %s (built %s)\n", Version, BuildTime)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`eigenflow - declarative workflow engine

Commands:
  serve     start the HTTP service
  version   show version information
  help      show this help`)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	providers, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		return err
	}
	defer func() { _ = providers.Shutdown(context.Background()) }()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector("eigenflow", promRegistry, logger)

	store, err := buildCheckpointStore(cfg.Checkpoint)
	if err != nil {
		return err
	}

	stepRegistry := registry.New[engine.StepFactory]("steps", registry.WithLogger[engine.StepFactory](logger))
	workflowRegistry := registry.New[*engine.CompiledWorkflow]("workflows", registry.WithLogger[*engine.CompiledWorkflow](logger))

	if err := steps.RegisterBuiltins(stepRegistry, steps.Deps{
		Logger:    logger,
		Workflows: workflowRegistry,
	}); err != nil {
		return err
	}

	if err := registerSampleWorkflow(cfg, stepRegistry, workflowRegistry, store, collector, logger); err != nil {
		return err
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Workflows: workflowRegistry,
		Logger:    logger,
		Collector: collector,
		Gatherer:  promRegistry,
	})

	mgr := server.NewManager(router, cfg.Server, logger)
	if err := mgr.Start(); err != nil {
		return err
	}
	if err := mgr.WaitForSignal(); err != nil {
		logger.Error("server failed", zap.Error(err))
	}
	return mgr.Shutdown(context.Background())
}

func buildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func buildCheckpointStore(cfg config.CheckpointConfig) (checkpoint.Store, error) {
	switch cfg.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return checkpoint.NewRedisStore(client, checkpoint.WithTTL(cfg.TTL)), nil
	default:
		return checkpoint.NewMemoryStore(), nil
	}
}

// registerSampleWorkflow wires a small greeting workflow so a fresh
// deployment has something to invoke.
func registerSampleWorkflow(
	cfg *config.Config,
	stepRegistry *registry.Registry[engine.StepFactory],
	workflowRegistry *registry.Registry[*engine.CompiledWorkflow],
	store checkpoint.Store,
	collector *metrics.Collector,
	logger *zap.Logger,
) error {
	def := engine.Definition{
		ID: "greeting",
		InputSchema: types.NewObjectSchema().
			AddProperty("name", types.NewStringSchema()).
			AddRequired("name"),
	}

	b := engine.NewGraphBuilder(def, stepRegistry, engine.WithBuilderLogger(logger))
	if err := b.AddNode("compose", steps.TypeTransform, map[string]any{
		"template": "Hello, ${name}!",
		"target":   "greeting",
	}); err != nil {
		return err
	}
	if err := b.AddEdge(b.Start(), "compose"); err != nil {
		return err
	}
	if err := b.AddEdge("compose", b.End()); err != nil {
		return err
	}

	wf, err := b.Compile(
		engine.WithStepLimit(cfg.Engine.StepLimit),
		engine.WithRunTimeout(cfg.Engine.RunTimeout),
		engine.WithCheckpointStore(store),
		engine.WithListeners(telemetry.NewRunTracer(), collector),
		engine.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	return workflowRegistry.Register(wf.ID(), wf)
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/analytics"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/audit"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/backup"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/cache"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/config"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/dispatch"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/embeddings"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/health"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/httpapi"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/keyword"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/logging"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/mcpserver"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/objectstore"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/pipeline"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/search"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/store"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/telemetry"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tools"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/vectorstore"
)

const version = "1.0.0"

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "ragd",
		Short:         "Multi-tenant RAG platform server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over HTTP with the REST facade",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, false)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "stdio",
		Short: "Serve MCP on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, true)
		},
	})
	return root
}

func run(ctx context.Context, configPath string, stdio bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.Observability.Enabled,
		Endpoint:       cfg.Observability.OTLPEndpoint,
		Insecure:       true,
		SamplingRate:   1.0,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	st, err := store.Open(store.Config{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	}, logger)
	if err != nil {
		return err
	}

	redis := cache.New(cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	defer redis.Close()

	objects, err := objectstore.New(ctx, objectstore.Config{
		Endpoint:     cfg.Object.Endpoint,
		Region:       cfg.Object.Region,
		AccessKey:    cfg.Object.AccessKey,
		SecretKey:    cfg.Object.SecretKey,
		UsePathStyle: cfg.Object.UsePathStyle,
	}, logger)
	if err != nil {
		return err
	}

	vector, err := vectorstore.New(vectorstore.FactoryConfig{
		Provider: cfg.Vector.Provider,
		Chromem: vectorstore.ChromemConfig{
			Root:         cfg.Vector.Root,
			FallbackRoot: cfg.Vector.FallbackRoot,
		},
		Qdrant: vectorstore.QdrantConfig{
			Host: cfg.Vector.QdrantHost,
			Port: cfg.Vector.QdrantPort,
		},
	}, logger)
	if err != nil {
		return err
	}

	kw, err := keyword.NewBleveIndex(cfg.Keyword.Root, logger)
	if err != nil {
		return err
	}

	embedder, err := embeddings.New(embeddings.Config{
		Provider:  cfg.Embeddings.Provider,
		Model:     cfg.Embeddings.Model,
		Dimension: cfg.Embeddings.Dimension,
		Endpoint:  cfg.Embeddings.BaseURL,
		APIKey:    cfg.Embeddings.APIKey,
	})
	if err != nil {
		return err
	}
	defer embedder.Close()

	engine := search.New(st, vector, kw, embedder, logger)
	backupSvc, err := backup.New(cfg.Backup.Root, st, vector, kw, objects, embedder, logger)
	if err != nil {
		return err
	}
	checker := health.New([]health.Probe{
		{Name: "postgresql", Check: st.Ping},
		{Name: "redis", Check: redis.Ping},
		{Name: "minio", Check: objects.Ping},
		{Name: "faiss", Check: vector.Ping},
		{Name: "meilisearch", Check: kw.Ping},
	}, st, redis, logger)
	analyticsSvc := analytics.New(st, redis, logger)

	recorder := audit.NewRecorder(st, cfg.Audit.QueueSize, logger)
	defer recorder.Close()

	auth := pipeline.NewAuthenticator(st, pipeline.AuthConfig{
		JWTSecret:      cfg.Auth.JWTSecret,
		AllowedIssuers: cfg.Auth.AllowedIssuers,
	}, logger)
	limiter := cache.NewRateLimiter(redis, logger)

	// Audit and observe run innermost so both see the resolved tenant on
	// cross-tenant calls and record only authorized invocations.
	dispatcher := dispatch.New(logger,
		auth.Stage(),
		pipeline.TenantStage(st, logger),
		pipeline.RateLimitStage(limiter, st, cfg.RateLimit.DefaultRPM, logger),
		pipeline.AuthorizeStage(logger),
		pipeline.AuditStage(recorder),
		pipeline.ObserveStage(logger),
	)
	tools.RegisterAll(dispatcher, tools.Deps{
		Store:     st,
		Vector:    vector,
		Keyword:   kw,
		Objects:   objects,
		Embedder:  embedder,
		Engine:    engine,
		Backup:    backupSvc,
		Health:    checker,
		Analytics: analyticsSvc,
		Logger:    logger,
	})

	mcpSrv := mcpserver.New(mcpserver.Config{Name: "ragd", Version: version}, dispatcher, logger)

	if stdio {
		return runStdio(ctx, mcpSrv)
	}

	api := httpapi.New(httpapi.Config{Host: "0.0.0.0", Port: cfg.Server.HTTPPort},
		dispatcher, checker, mcpSrv.HTTPHandler(), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- api.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return api.Shutdown(shutdownCtx)
}

// runStdio serves local MCP clients. Credentials come from the environment
// since stdio has no transport headers.
func runStdio(ctx context.Context, srv *mcpserver.Server) error {
	headers := map[string]string{}
	if key := os.Getenv("RAGD_API_KEY"); key != "" {
		headers["X-API-Key"] = key
	}
	if token := os.Getenv("RAGD_BEARER_TOKEN"); token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return srv.RunStdio(mcpserver.WithHeaders(ctx, headers))
}

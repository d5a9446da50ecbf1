package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oiime/logrusbun"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/upliftai/uplift/config"
	"github.com/upliftai/uplift/internal"
	"github.com/upliftai/uplift/pkg/auth"
	"github.com/upliftai/uplift/pkg/chat"
	"github.com/upliftai/uplift/pkg/llms"
	"github.com/upliftai/uplift/pkg/mail"
	"github.com/upliftai/uplift/pkg/models"
	"github.com/upliftai/uplift/pkg/payments"
	"github.com/upliftai/uplift/pkg/retrieval"
	"github.com/upliftai/uplift/pkg/server"
	"github.com/upliftai/uplift/pkg/store/postgres"
	"github.com/upliftai/uplift/pkg/tasks"
)

const (
	ErrStoreTypeNotSet   = "store.type must be set"
	ErrPostgresDSNNotSet = "store.postgres.dsn must be set"
	StoreTypePostgres    = "postgres"
)

// run is the entrypoint for the uplift server
func run() {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Error configuring uplift: %s", err)
	}

	handleCLIOptions(cfg)

	log.Infof("Starting uplift server version %s", config.VersionString)

	config.SetLogLevel(cfg)
	ctx := context.Background()

	if cfg.OpenTelemetry.Enabled {
		shutdown, err := internal.SetupTracing(ctx, "uplift", config.VersionString)
		if err != nil {
			log.Fatalf("Failed to set up tracing: %v", err)
		}
		defer func() {
			if err := shutdown(ctx); err != nil {
				log.Errorf("Error shutting down tracing: %v", err)
			}
		}()
	}

	appState := NewAppState(ctx, cfg)

	srv := server.Create(appState)

	log.Infof("Listening on: %s", srv.Addr)
	err = srv.ListenAndServe()
	if err != nil {
		log.Fatal(err)
	}
}

// NewAppState builds the application state from the config file / ENV: LLM
// and embeddings clients, the chat corpus, the Postgres stores, the task
// router, and the background sweepers.
func NewAppState(ctx context.Context, cfg *config.Config) *models.AppState {
	llmClient, err := llms.NewLLMClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}
	embeddingsClient, err := llms.NewEmbeddingsClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create embeddings client: %v", err)
	}

	corpus, err := retrieval.NewCorpus(ctx, cfg, embeddingsClient)
	if err != nil {
		log.Fatalf("Failed to load chat corpus: %v", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg)
	if err != nil {
		log.Fatalf("Failed to create mailer: %v", err)
	}

	appState := &models.AppState{
		LLMClient:        llmClient,
		EmbeddingsClient: embeddingsClient,
		Corpus:           corpus,
		Chat:             chat.NewService(cfg, llmClient, corpus),
		Mailer:           mailer,
		Config:           cfg,
	}

	if provider, err := payments.NewStripeProvider(cfg); err != nil {
		log.Warnf("Payments disabled: %v", err)
	} else {
		appState.Payments = provider
	}

	db := initializeStores(ctx, appState)
	initializeTaskRouter(ctx, appState)
	setupSignalHandler(appState, db)
	setupPurgeProcessor(ctx, appState)
	setupSubscriptionSweeper(ctx, appState)

	return appState
}

// handleCLIOptions handles CLI options that don't require the server to run
func handleCLIOptions(cfg *config.Config) {
	if showVersion {
		fmt.Println(config.VersionString)
		os.Exit(0)
	}
	if generateKey {
		fmt.Println(auth.GenerateJWT(cfg))
		os.Exit(0)
	}
	if dumpConfig {
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			log.Fatalf("Failed to dump config: %v", err)
		}
		fmt.Println(string(out))
		os.Exit(0)
	}
}

// initializeStores connects to Postgres and wires the DAOs onto the appState.
func initializeStores(ctx context.Context, appState *models.AppState) *bun.DB {
	if appState.Config.Store.Type == "" {
		log.Fatal(ErrStoreTypeNotSet)
	}
	if appState.Config.Store.Type != StoreTypePostgres {
		log.Fatalf("store.type (%s) is not supported", appState.Config.Store.Type)
	}
	if appState.Config.Store.Postgres.DSN == "" {
		log.Fatal(ErrPostgresDSNNotSet)
	}

	db, err := postgres.NewPostgresConn(appState)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if appState.Config.Log.Level == "debug" {
		pgDebugLogging(db)
	}

	if err := postgres.InitStores(ctx, appState, db); err != nil {
		log.Fatal(err)
	}

	log.Info("Using store: ", appState.Config.Store.Type)
	return db
}

// initializeTaskRouter starts the task router over its own plain SQL
// connection.
func initializeTaskRouter(ctx context.Context, appState *models.AppState) {
	queueDB, err := postgres.NewPostgresConnForQueue(appState)
	if err != nil {
		log.Fatalf("Failed to connect to database for task queue: %v", err)
	}
	tasks.RunTaskRouter(ctx, appState, queueDB)
}

func pgDebugLogging(db *bun.DB) {
	db.AddQueryHook(logrusbun.NewQueryHook(logrusbun.QueryHookOptions{
		LogSlow:         time.Second,
		Logger:          log,
		QueryLevel:      logrus.DebugLevel,
		ErrorLevel:      logrus.ErrorLevel,
		SlowLevel:       logrus.WarnLevel,
		MessageTemplate: "{{.Operation}}[{{.Duration}}]: {{.Query}}",
		ErrorTemplate:   "{{.Operation}}[{{.Duration}}]: {{.Query}}: {{.Error}}",
	}))
}

// setupSignalHandler closes the store and task router on termination
func setupSignalHandler(appState *models.AppState, db *bun.DB) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh
		if appState.TaskRouter != nil {
			if err := appState.TaskRouter.Close(); err != nil {
				log.Errorf("Error closing task router: %v", err)
			}
		}
		if err := db.Close(); err != nil {
			log.Errorf("Error closing database connection: %v", err)
		}
		os.Exit(0)
	}()
}

// setupPurgeProcessor sets up a go routine to hard delete soft-deleted
// conversations and expired codes at a regular interval. It's cancellable
// via the passed context. If store.purge_every is 0, this does nothing.
func setupPurgeProcessor(ctx context.Context, appState *models.AppState) {
	interval := appState.Config.Store.PurgeEvery
	if interval == 0 {
		log.Debug("purge delete processor disabled")
		return
	}

	log.Infof("Starting purge delete processor. Purging every %v", interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Info("Stopping purge delete processor")
				return
			default:
				err := appState.ConversationStore.PurgeDeleted(ctx)
				if err != nil {
					log.Errorf("error purging deleted records: %v", err)
				}
			}
			time.Sleep(interval)
		}
	}()
}

// setupSubscriptionSweeper deactivates ended subscriptions at a regular
// interval. If subscriptions.sweep_every is 0, this does nothing.
func setupSubscriptionSweeper(ctx context.Context, appState *models.AppState) {
	interval := appState.Config.Subscriptions.SweepEvery
	if interval == 0 {
		log.Debug("subscription sweeper disabled")
		return
	}

	log.Infof("Starting subscription sweeper. Sweeping every %v", interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Info("Stopping subscription sweeper")
				return
			default:
				expired, err := appState.SubscriptionStore.ExpireEnded(ctx)
				if err != nil {
					log.Errorf("error expiring subscriptions: %v", err)
				} else if expired > 0 {
					log.Infof("deactivated %d ended subscriptions", expired)
				}
			}
			time.Sleep(interval)
		}
	}()
}

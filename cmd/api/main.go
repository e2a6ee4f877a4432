package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/risklens/internal/application"
	appaccounts "github.com/bryanwahyu/risklens/internal/application/accounts"
	appanalysis "github.com/bryanwahyu/risklens/internal/application/analysis"
	appprojects "github.com/bryanwahyu/risklens/internal/application/projects"
	"github.com/bryanwahyu/risklens/internal/config"
	domaccounts "github.com/bryanwahyu/risklens/internal/domain/accounts"
	domai "github.com/bryanwahyu/risklens/internal/domain/ai"
	domanalysis "github.com/bryanwahyu/risklens/internal/domain/analysis"
	aiopenai "github.com/bryanwahyu/risklens/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/risklens/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/risklens/internal/infra/db/postgres"
	"github.com/bryanwahyu/risklens/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/risklens/internal/infra/storage"
	"github.com/bryanwahyu/risklens/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatalf("auth.jwtSecret (or JWT_SECRET) is required")
	}

	ctx := context.Background()

	// connect database, pilih driver
	var (
		db          *sql.DB
		accountRepo domaccounts.Repository
		recordRepo  domanalysis.Repository
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		accountRepo = postgresp.NewAccountRepository(db)
		recordRepo = postgresp.NewRecordRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		accountRepo = mysqlp.NewAccountRepository(db)
		recordRepo = mysqlp.NewRecordRepository(db)
	}
	defer db.Close()

	// init minio (optional, attachments only)
	var store *minioStore.Store
	if cfg.Minio.Endpoint != "" {
		store, err = minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
	} else {
		log.Printf("minio endpoint not set, attachment uploads disabled")
	}

	// init analyzer; missing key leaves it nil and the workflow reports
	// ProviderUnconfigured per request instead of refusing to boot
	var analyzer domai.Analyzer
	if cfg.OpenAI.APIKey != "" {
		client, err := aiopenai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
		if err != nil {
			log.Fatalf("openai client error: %v", err)
		}
		analyzer = client
	} else {
		log.Printf("openai api key not set, analyses will fail until configured")
	}

	// init services
	accountsSvc := &appaccounts.Service{
		Repo:           accountRepo,
		Clock:          application.SystemClock{},
		InitialCredits: cfg.Analysis.InitialCredits,
	}
	analysisSvc := &appanalysis.Service{
		Users:             accountRepo,
		Records:           recordRepo,
		Analyzer:          analyzer,
		Clock:             application.SystemClock{},
		SharedClientIntel: cfg.Analysis.SharedClientHistory,
	}
	projectsSvc := &appprojects.Service{
		Records:           recordRepo,
		SharedClientIntel: cfg.Analysis.SharedClientHistory,
	}

	// init router
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(20, 5)))

	mux.Get("/health", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}))
	mux.Get("/metrics", middleware.MetricsHandler)

	tokenTTL := time.Duration(cfg.Auth.TokenTTLHrs) * time.Hour
	mux.Mount("/", httpserver.NewRouter(accountsSvc, analysisSvc, projectsSvc, store, []byte(cfg.Auth.JWTSecret), tokenTTL))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // the AI call is awaited in-request
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

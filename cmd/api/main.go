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

	"github.com/bryanwahyu/techsupport-portal/internal/application"
	appai "github.com/bryanwahyu/techsupport-portal/internal/application/ai"
	appsessions "github.com/bryanwahyu/techsupport-portal/internal/application/sessions"
	"github.com/bryanwahyu/techsupport-portal/internal/config"
	domaiface "github.com/bryanwahyu/techsupport-portal/internal/domain/ai"
	"github.com/bryanwahyu/techsupport-portal/internal/domain/runerrors"
	domain "github.com/bryanwahyu/techsupport-portal/internal/domain/sessions"
	"github.com/bryanwahyu/techsupport-portal/internal/domain/summaries"
	"github.com/bryanwahyu/techsupport-portal/internal/extract"
	aiProvider "github.com/bryanwahyu/techsupport-portal/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/techsupport-portal/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/techsupport-portal/internal/infra/db/postgres"
	"github.com/bryanwahyu/techsupport-portal/internal/infra/httpserver"
	"github.com/bryanwahyu/techsupport-portal/internal/infra/mail"
	minioStore "github.com/bryanwahyu/techsupport-portal/internal/infra/storage"
	"github.com/bryanwahyu/techsupport-portal/internal/middleware"
	"github.com/bryanwahyu/techsupport-portal/internal/runner"
	"github.com/bryanwahyu/techsupport-portal/internal/sweeper"
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

	ctx := context.Background()

	// connect database (mysql default, postgres optional)
	var db *sql.DB
	var sessionRepo domain.Repository
	var errorRepo runerrors.Repository
	var summaryRepo summaries.Repository
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		sessionRepo = postgresp.NewSessionRepository(db)
		errorRepo = postgresp.NewRunErrorRepository(db)
		summaryRepo = postgresp.NewSummaryRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		sessionRepo = mysqlp.NewSessionRepository(db)
		errorRepo = mysqlp.NewRunErrorRepository(db)
		summaryRepo = mysqlp.NewSummaryRepository(db)
	}
	defer db.Close()

	// init minio (optional mirror)
	var reports domain.ReportStore
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
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
		reports = store
	}

	// init mail (optional)
	var mailer domain.Mailer
	if cfg.Mail.Host != "" {
		mailer = mail.New(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Sender,
			cfg.Mail.Subject, cfg.Mail.Body, cfg.Mail.AdminBCC)
	}

	// init extraction + script runner
	extractor := extract.New(extract.ArchiveOpener{})
	extractor.MaxDepth = cfg.Pipeline.MaxDepth
	scripts := runner.NewScriptInvoker(cfg.Pipeline.Python, cfg.Pipeline.ScriptsDir)
	run := runner.New(scripts, cfg.TaskTimeout())

	// init services
	svc := &appsessions.Service{
		Repo:          sessionRepo,
		RunErrors:     errorRepo,
		Extractor:     extractor,
		Runner:        run,
		Reports:       reports,
		Mailer:        mailer,
		Clock:         application.SystemClock{},
		UploadRoot:    cfg.Pipeline.UploadRoot,
		DeleteArchive: cfg.Pipeline.DeleteArchive,
	}

	var aiClient domaiface.Client
	if cfg.OpenAI.APIKey != "" {
		aiClient = aiProvider.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	}
	aiSvc := appai.NewService(aiClient, summaryRepo, application.SystemClock{})

	// start retention sweeper
	sw := &sweeper.Sweeper{
		Root:         cfg.Pipeline.UploadRoot,
		RawRetention: cfg.RawRetention(),
		IORetention:  cfg.IORetention(),
	}
	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	sw.Start(sweepCtx)

	// init router
	mux := chi.NewRouter()
	// auth runs first so request logs and rate-limit keys carry the user
	if len(cfg.Auth.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	}
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(cfg.Ratelimit.Capacity, cfg.Ratelimit.RefillRate))

	mux.Get("/health", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
		"uploads":  &middleware.DirWritableChecker{Dir: cfg.Pipeline.UploadRoot},
	}))
	mux.Get("/health/ready", middleware.ReadinessHandler)
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Mount("/", httpserver.NewRouter(svc, aiSvc, cfg.Pipeline.Async))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Minute, // uploads can be large and slow
		WriteTimeout: 30 * time.Minute, // sync mode waits for the pipeline
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
	stopSweeper()

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

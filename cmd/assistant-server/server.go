package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/healthguard/assistant/internal/config"
	"github.com/healthguard/assistant/internal/domain/chat"
	"github.com/healthguard/assistant/internal/domain/identity"
	"github.com/healthguard/assistant/internal/domain/records"
	"github.com/healthguard/assistant/internal/domain/vision"
	"github.com/healthguard/assistant/internal/platform/auth"
	"github.com/healthguard/assistant/internal/platform/blobstore"
	"github.com/healthguard/assistant/internal/platform/db"
	"github.com/healthguard/assistant/internal/platform/inference"
	"github.com/healthguard/assistant/internal/platform/llm"
	"github.com/healthguard/assistant/internal/platform/middleware"
)

// historyBackend is the chat history store plus the lifecycle hooks the
// server needs at start-up and shutdown.
type historyBackend interface {
	chat.HistoryStore
	Ping(ctx context.Context) error
	Close() error
}

func openHistory(ctx context.Context, cfg *config.Config) (historyBackend, error) {
	if cfg.HistoryBackend == "redis" {
		h, err := chat.NewRedisHistory(ctx, cfg.RedisURL, cfg.HistoryTTL)
		if err != nil {
			return nil, err
		}
		return h, nil
	}
	return chat.NewMemoryHistory(), nil
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	history, err := openHistory(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open chat history: %w", err)
	}
	defer history.Close()
	logger.Info().Str("backend", cfg.HistoryBackend).Msg("chat history ready")

	blobs, err := blobstore.NewFSBlobStore(cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("open upload dir: %w", err)
	}

	diseaseModel, err := inference.New(inference.Options{BaseURL: cfg.DiseaseModelURL, Timeout: cfg.InferenceTimeout})
	if err != nil {
		return fmt.Errorf("disease model client: %w", err)
	}
	fetalModel, err := inference.New(inference.Options{BaseURL: cfg.FetalModelURL, Timeout: cfg.InferenceTimeout})
	if err != nil {
		return fmt.Errorf("fetal model client: %w", err)
	}

	llmClient := llm.NewOpenAIClient(llm.Config{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Timeout: cfg.LLMTimeout,
	})

	tokens := auth.NewTokenIssuer(cfg.AuthSigningKey, cfg.AuthTokenTTL)
	if !tokens.Enabled() {
		logger.Warn().Msg("AUTH_SIGNING_KEY not set; login will not issue session tokens")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(auth.PatientSession(tokens))

	rl := middleware.DefaultRateLimitConfig()
	rl.RequestsPerSecond = cfg.RateLimitRPS
	rl.BurstSize = cfg.RateLimitBurst
	limited := middleware.RateLimit(rl)

	deps := serverDeps{
		Records: records.NewService(records.NewPatientRepo(pool), records.NewStaffRepo(pool), records.NewWardRepo(pool), logger).
			WithTx(func(ctx context.Context, fn func(ctx context.Context) error) error {
				return db.WithTx(ctx, pool, fn)
			}),
		Tokens:       tokens,
		LLM:          llmClient,
		History:      history,
		ChatLog:      chat.NewLogRepo(pool),
		Classifier:   diseaseModel,
		Detector:     fetalModel,
		Blobs:        blobs,
		Doctors:      cfg.ConsultDoctors,
		ExposeErrors: cfg.ExposeErrors(),
		LLMBudget:    cfg.LLMTimeout,
		RateLimit:    limited,
		Health: &healthHandler{
			database: db.NewProbe(pool, 3*time.Second),
			llm:      llmClient,
			history:  history,
			stats:    func() *db.PoolStats { return db.GetPoolStats(pool) },
			timeout:  3 * time.Second,
			now:      time.Now,
		},
	}
	registerRoutes(e, deps, logger)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// serverDeps carries everything registerRoutes wires into handlers, so tests
// can build the full route table from fakes.
type serverDeps struct {
	Records      *records.Service
	Tokens       *auth.TokenIssuer
	LLM          llm.Client
	History      chat.HistoryStore
	ChatLog      chat.LogRepository
	Classifier   vision.Classifier
	Detector     vision.Detector
	Blobs        blobstore.BlobStore
	Doctors      []string
	ExposeErrors bool
	LLMBudget    time.Duration
	RateLimit    echo.MiddlewareFunc
	Health       *healthHandler
}

func registerRoutes(e *echo.Echo, d serverDeps, logger zerolog.Logger) {
	if d.RateLimit == nil {
		d.RateLimit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	e.GET("/health", d.Health.Check)

	identity.NewHandler(identity.NewService(d.Records, d.Tokens, logger)).RegisterRoutes(e)

	api := e.Group("/api")
	portal := e.Group("/mypatient")

	records.NewHandler(d.Records).RegisterRoutes(api, portal)
	blobstore.NewBlobHandler(d.Blobs).RegisterRoutes(portal)

	// Chat and vision call out to model servers; throttle them per client.
	limited := e.Group("", d.RateLimit)
	chatSvc := chat.NewService(d.Records, chat.NewGenerator(d.LLM, logger).WithBudget(d.LLMBudget), d.History, d.ChatLog, d.ExposeErrors, logger)
	chat.NewHandler(chatSvc).RegisterRoutes(limited, api)
	vision.NewHandler(vision.NewService(d.Classifier, d.Detector, d.Blobs, d.Doctors, logger)).RegisterRoutes(limited)
}

package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"curve-engine/api"
	"curve-engine/internal/config"
	"curve-engine/internal/engine"
	"curve-engine/internal/gate"
	"curve-engine/internal/infrastructure"
	"curve-engine/internal/model"
	"curve-engine/internal/push"
	"curve-engine/internal/ratelimit"
	"curve-engine/internal/session"
	"curve-engine/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App defines the application structure and its dependencies
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	DB         *pgxpool.Pool
	NC         *nats.Conn
	JS         nats.JetStreamContext
	Registry   *engine.Registry
	Processor  *engine.Processor
	Recorder   *storage.BatchRecorder
	Gateway    *push.Gateway
	HTTPServer *http.Server
}

// NewApp creates a new application instance
func NewApp() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	infrastructure.Init()
	logger := infrastructure.Logger

	return &App{
		Config: &cfg,
		Logger: logger,
	}, nil
}

// Init initializes all application components
func (a *App) Init(ctx context.Context) error {
	// 1. Database
	dbPool, err := pgxpool.Connect(ctx, a.Config.DB_DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.DB = dbPool

	if err := a.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// 2. NATS
	nc, js, err := infrastructure.InitNATS(a.Config.NatsURL, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	a.NC = nc
	a.JS = js

	// 3. Engine
	a.Registry = engine.NewRegistry()

	limiter := ratelimit.New(a.Config.RateLimitCalls, a.Config.RateWindow())
	tradeGate := gate.NewHTTPGate(a.Config.GateURL, limiter, a.Logger)
	tracker := session.NewNATSTracker(js, a.Logger)

	a.Recorder = storage.NewBatchRecorder(a.DB, a.Logger, 1*time.Second, 100)
	publisher := session.NewTradePublisher(js, a.Logger)

	a.Processor = engine.NewProcessor(
		a.Registry,
		tradeGate,
		tracker,
		a.classificationPolicy(),
		a.Config.GateTimeout(),
		a.Logger,
	).WithRecorder(fanout{a.Recorder, publisher})

	// 4. Push gateway
	a.Gateway = push.NewGateway(js, a.Logger)

	return nil
}

// classificationPolicy builds the human/bot mapping, honoring the config
// override when present.
func (a *App) classificationPolicy() model.ClassificationPolicy {
	if a.Config.HumanLevels == "" {
		return model.DefaultClassificationPolicy()
	}

	policy := model.ClassificationPolicy{
		model.VerificationOrb:    model.ClassificationBot,
		model.VerificationPhone:  model.ClassificationBot,
		model.VerificationDevice: model.ClassificationBot,
		model.VerificationNone:   model.ClassificationBot,
	}
	for _, level := range strings.Split(a.Config.HumanLevels, ",") {
		policy[model.VerificationLevel(strings.TrimSpace(strings.ToLower(level)))] = model.ClassificationHuman
	}
	return policy
}

// fanout forwards each trade record to every attached recorder.
type fanout []engine.TradeRecorder

func (f fanout) Add(rec model.TradeRecord) {
	for _, r := range f {
		r.Add(rec)
	}
}

// Run starts the HTTP server and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	a.HTTPServer = &http.Server{
		Addr:    ":" + a.Config.Port,
		Handler: a.setupRouter(),
	}

	go func() {
		a.Logger.Info("starting http server", zap.String("port", a.Config.Port))
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	return a.waitForShutdown()
}

// waitForShutdown handles graceful shutdown signals
func (a *App) waitForShutdown() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	a.Logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.Recorder.Close()
	a.NC.Close()
	a.DB.Close()

	return nil
}

// initDatabase runs the database initialization script
func (a *App) initDatabase(ctx context.Context) error {
	sqlFile := "scripts/init.sql"
	content, err := os.ReadFile(sqlFile)
	if err != nil {
		return fmt.Errorf("failed to read init script: %w", err)
	}

	_, err = a.DB.Exec(ctx, string(content))
	if err != nil {
		return fmt.Errorf("failed to execute init script: %w", err)
	}

	a.Logger.Info("database initialized successfully")
	return nil
}

// setupRouter configures the Gin router and its routes
func (a *App) setupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	apiHandler := api.NewHandler(a.DB, a.Registry, a.Processor, a.Config.AuthSecret, a.Logger)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/register", apiHandler.Register)
		v1.POST("/login", apiHandler.Login)
		v1.GET("/curve/:token", apiHandler.GetCurvePoints)
		v1.GET("/state/:token", apiHandler.GetState)
		v1.GET("/manipulation/:token", apiHandler.GetManipulationMetrics)
		v1.GET("/trades/:token", apiHandler.GetTradeHistory)
		v1.POST("/quote", apiHandler.Quote)
	}

	protected := r.Group("/api/v1")
	protected.Use(api.AuthMiddleware(a.Config.AuthSecret))
	{
		protected.POST("/launch", apiHandler.LaunchCurve)
		protected.POST("/trade", apiHandler.Trade)
	}

	r.GET("/ws", func(c *gin.Context) {
		a.Gateway.ServeHTTP(c.Writer, c.Request)
	})

	return r
}

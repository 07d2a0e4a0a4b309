package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"aviatorpro/internal/classifier"
	"aviatorpro/internal/config"
	cronrunner "aviatorpro/internal/cron"
	"aviatorpro/internal/db"
	"aviatorpro/internal/guard"
	"aviatorpro/internal/handler"
	"aviatorpro/internal/logger"
	"aviatorpro/internal/messaging"
	"aviatorpro/internal/metrics"
	gormrepository "aviatorpro/internal/repository/gorm"
	"aviatorpro/internal/service"
	signalsvc "aviatorpro/internal/signal"

	_ "aviatorpro/docs"
)

func main() {
	cfgPath := os.Getenv("AP_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("AP_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log, "signald")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	windowLoc, err := config.LoadLocation(cfg.Signal.WindowTimezone)
	if err != nil {
		log.Fatal("invalid signal.window_timezone", zap.String("tz", cfg.Signal.WindowTimezone), zap.Error(err))
	}
	gateLoc, err := config.LoadLocation(cfg.Signal.GateTimezone)
	if err != nil {
		log.Fatal("invalid signal.gate_timezone", zap.String("tz", cfg.Signal.GateTimezone), zap.Error(err))
	}
	if len(cfg.Platforms.Names()) != 2 {
		log.Fatal("two platforms are required", zap.Strings("platforms", cfg.Platforms.Names()))
	}

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		log.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		log.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	settingsSvc := &service.SystemSettingsService{Repo: store}
	if err := settingsSvc.EnsureDefaultSwitches(context.Background()); err != nil {
		log.Warn("init default system switches failed", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := []handler.ReadinessCheck{handler.DBCheck(dbConn)}

	var lock signalsvc.WindowLocker
	var redisClient goredis.UniversalClient
	if cfg.Redis.Enabled {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		redisClient, err = guard.NewClient(dialCtx, cfg.Redis)
		cancel()
		if err != nil {
			log.Warn("redis unavailable, relying on the signals unique index", zap.Error(err))
		} else {
			lock = guard.NewWindowLock(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.LockTTL)
			checks = append(checks, handler.RedisCheck(redisClient))
			defer redisClient.Close()
		}
	}

	broadcaster := signalsvc.NewBroadcaster(m)
	manager := signalsvc.NewManager(store, log.Named("signal"), signalsvc.Options{
		WindowSize: cfg.Signal.WindowSize,
		WindowLoc:  windowLoc,
		Classifier: classifier.Classifier{TTL: cfg.Signal.TTL},
		Lock:       lock,
		Notifiers:  []signalsvc.Notifier{broadcaster},
		Metrics:    m,
	})
	gate := signalsvc.Gate{EvenHour: cfg.Platforms.EvenHour, OddHour: cfg.Platforms.OddHour, Loc: gateLoc}

	ingestSvc := &service.OutcomeIngestService{
		Repo:          store,
		Settings:      settingsSvc,
		KnownPlatform: cfg.Platforms.Has,
		Metrics:       m,
		Logger:        log.Named("ingest"),
	}

	var natsClient *messaging.Client
	if cfg.NATS.Enabled {
		natsClient, err = messaging.Connect(cfg.NATS, "signald", log.Named("nats"))
		if err != nil {
			log.Warn("nats unavailable, publishing and stream ingest disabled", zap.Error(err))
		} else {
			defer natsClient.Close()
			setupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err = natsClient.EnsureStreams(setupCtx)
			cancel()
			if err != nil {
				log.Warn("nats stream setup failed", zap.Error(err))
			}
			manager.AddNotifier(&service.SwitchedNotifier{
				Next:     messaging.NewSignalPublisher(natsClient, cfg.NATS.SignalSubjectPrefix),
				Settings: settingsSvc,
				Key:      service.FeatureSignalPublish,
			})
			if err := natsClient.Consume(ctx, cfg.NATS.OutcomeStream, cfg.NATS.OutcomeConsumer, cfg.NATS.OutcomeSubject, ingestSvc.HandleMessage); err != nil {
				log.Warn("outcome consumer failed to start", zap.Error(err))
			}
			checks = append(checks, handler.NATSCheck(natsClient.IsConnected))
		}
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(log.Named("http")))
	engine.Use(m.GinMiddleware())
	engine.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	healthHandler := &handler.HealthHandler{Checks: checks}
	healthHandler.Register(engine)
	handler.RegisterDocs(engine)
	m.Register(engine)

	platformHandler := &handler.PlatformHandler{Platforms: cfg.Platforms, Gate: gate}
	platformHandler.Register(engine)
	signalHandler := &handler.SignalHandler{
		Signals:        manager,
		Broadcaster:    broadcaster,
		Platforms:      cfg.Platforms,
		RecentLimit:    cfg.Signal.RecentLimit,
		OriginPatterns: originPatterns(cfg.Server.AllowedOrigins),
		Logger:         log.Named("stream"),
	}
	signalHandler.Register(engine)
	outcomeHandler := &handler.OutcomeHandler{Ingest: ingestSvc, Repo: store, Platforms: cfg.Platforms}
	outcomeHandler.Register(engine)
	settingsHandler := &handler.SystemSettingsHandler{Repo: store, Settings: settingsSvc}
	settingsHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(log, ctx)
		scheduler := &service.SignalScheduler{
			Generator: manager,
			Gate:      gate,
			Settings:  settingsSvc,
			Metrics:   m,
			Logger:    log.Named("scheduler"),
		}
		if _, err := cronRunner.Add("signal-generate", cfg.Cron.Generate, func(ctx context.Context) {
			scheduler.Run(ctx)
		}); err != nil {
			log.Warn("cron register signal generation failed", zap.Error(err))
		}

		retention := &service.RetentionService{
			Repo:      store,
			Retention: cfg.Signal.Retention,
			Settings:  settingsSvc,
			Metrics:   m,
			Logger:    log.Named("retention"),
		}
		if _, err := cronRunner.Add("signal-retention", cfg.Cron.Retention, func(ctx context.Context) {
			if _, err := retention.Run(ctx); err != nil {
				log.Warn("signal retention failed", zap.Error(err))
			}
		}); err != nil {
			log.Warn("cron register signal retention failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info("http server starting",
			zap.String("addr", cfg.Server.HTTPAddr),
			zap.String("active_platform", gate.ActivePlatform(time.Now())),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if allowOrigin, ok := matchOrigin(allowed, origin); ok {
				c.Writer.Header().Set("Access-Control-Allow-Origin", allowOrigin)
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// matchOrigin compares origin against host patterns such as
// "app.example.com" or "*.example.com". "*" allows everything.
func matchOrigin(allowed []string, origin string) (string, bool) {
	host := origin
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	for _, pattern := range allowed {
		pattern = strings.TrimSpace(pattern)
		if pattern == "*" {
			return "*", true
		}
		if ok, _ := path.Match(strings.ToLower(pattern), strings.ToLower(host)); ok {
			return origin, true
		}
	}
	return "", false
}

// originPatterns adapts the allow list to websocket.AcceptOptions, which
// matches host patterns the same way.
func originPatterns(allowed []string) []string {
	out := make([]string, 0, len(allowed))
	for _, p := range allowed {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

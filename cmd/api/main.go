package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aldea-dev/aldea/core"
	"github.com/aldea-dev/aldea/x/announcement"
	"github.com/aldea-dev/aldea/x/auth"
	"github.com/aldea-dev/aldea/x/guest"
	"github.com/aldea-dev/aldea/x/household"
	"github.com/aldea-dev/aldea/x/notification"
	"github.com/aldea-dev/aldea/x/socket"
	"github.com/aldea-dev/aldea/x/stats"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/plugin/opentelemetry/tracing"
)

type CustomHandler struct {
	slog.Handler
}

func (h *CustomHandler) Handle(ctx context.Context, r slog.Record) error {

	r.AddAttrs(slog.String("type", "app"))

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(slog.String("traceID", span.SpanContext().TraceID().String()))
		r.AddAttrs(slog.String("spanID", span.SpanContext().SpanID().String()))
	}

	return h.Handler.Handle(ctx, r)
}

var version = "unknown"

func main() {

	handler := &CustomHandler{Handler: slog.NewJSONHandler(os.Stdout, nil)}
	slogger := slog.New(handler)
	slog.SetDefault(slogger)

	slog.Info(fmt.Sprintf("Aldea %s starting...", version))

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true

	config := Config{}
	configPath := os.Getenv("ALDEA_CONFIG")
	if configPath == "" {
		configPath = "/etc/aldea/config.yaml"
	}

	err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appConfig := config.App.ToConfig()
	slog.Info(fmt.Sprintf("Config loaded! Site: %s", appConfig.SiteName))

	if config.Server.EnableTrace {
		cleanup, err := setupTraceProvider(config.Server.TraceEndpoint, appConfig.SiteName+"/api", version)
		if err != nil {
			panic(err)
		}
		defer cleanup()

		skipper := otelecho.WithSkipper(
			func(c echo.Context) bool {
				return c.Path() == "/metrics" || c.Path() == "/health"
			},
		)
		e.Use(otelecho.Middleware("api", skipper))
	}

	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace: "aldea",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
		},
	}))

	e.Use(middleware.Recover())

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             300 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.Open(config.Server.Dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		panic("failed to connect database")
	}
	sqlDB, err := db.DB() // for pinging
	if err != nil {
		panic("failed to connect database")
	}
	defer sqlDB.Close()

	err = db.Use(tracing.NewPlugin(
		tracing.WithDBName("postgres"),
	))
	if err != nil {
		panic("failed to setup tracing plugin")
	}

	// Migrate the schema
	slog.Info("start migrate")
	db.AutoMigrate(
		&core.Tenant{},
		&core.UserProfile{},
		&core.TenantUser{},
		&core.Household{},
		&core.Guest{},
		&core.Notification{},
		&core.Announcement{},
	)

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Server.RedisAddr,
		Password: "",
		DB:       0,
	})
	err = redisotel.InstrumentTracing(
		rdb,
		redisotel.WithAttributes(
			attribute.KeyValue{
				Key:   "db.name",
				Value: attribute.StringValue("redis"),
			},
		),
	)
	if err != nil {
		panic("failed to setup tracing plugin")
	}

	mc := memcache.New(config.Server.MemcachedAddr)
	defer mc.Close()

	authService := auth.NewService(auth.NewRepository(db, rdb), appConfig)
	authHandler := auth.NewHandler(authService)

	householdService := household.NewService(household.NewRepository(db))
	householdHandler := household.NewHandler(householdService)

	notificationService := notification.NewService(notification.NewRepository(db, rdb))
	notificationHandler := notification.NewHandler(notificationService)

	guestService := guest.NewService(guest.NewRepository(db, rdb, mc), notificationService)
	guestHandler := guest.NewHandler(guestService)

	announcementService := announcement.NewService(announcement.NewRepository(db, rdb))
	announcementHandler := announcement.NewHandler(announcementService)

	statsService := stats.NewService(guestService, notificationService, announcementService)
	statsHandler := stats.NewHandler(statsService)

	socketManager := socket.NewManager(rdb)
	socketHandler := socket.NewHandler(socketManager)

	apiV1 := e.Group("/api/v1", authService.IdentifyRequester)

	// auth
	apiV1.POST("/auth/register", authHandler.Register)
	apiV1.POST("/auth/login", authHandler.Login)
	apiV1.POST("/auth/tenant", authHandler.SwitchTenant)
	apiV1.POST("/auth/refresh", authHandler.Refresh)
	apiV1.POST("/auth/logout", authHandler.Logout)
	apiV1.POST("/auth/password/reset", authHandler.RequestPasswordReset)
	apiV1.PUT("/auth/password", authHandler.UpdatePassword)
	apiV1.GET("/auth/me", authHandler.Me)

	// guests
	apiV1.POST("/guests", guestHandler.Create, auth.Restrict(core.RoleResident))
	apiV1.GET("/guests", guestHandler.Query, auth.Restrict())
	apiV1.GET("/guests/stats", guestHandler.Stats, auth.Restrict())
	apiV1.GET("/guests/:id", guestHandler.Get, auth.Restrict())
	apiV1.PUT("/guests/:id", guestHandler.Update, auth.Restrict(core.RoleResident))
	apiV1.DELETE("/guests/:id", guestHandler.Delete, auth.Restrict(core.RoleResident))
	apiV1.PUT("/guests/:id/status", guestHandler.UpdateStatus, auth.Restrict())

	// households
	apiV1.GET("/households/mine", householdHandler.GetMine, auth.Restrict())
	apiV1.GET("/households/:id", householdHandler.Get, auth.Restrict(core.RoleAdmin))

	// notifications
	apiV1.GET("/notifications", notificationHandler.List, auth.Restrict())
	apiV1.GET("/notifications/unread", notificationHandler.UnreadCount, auth.Restrict())
	apiV1.PUT("/notifications/read", notificationHandler.MarkAllRead, auth.Restrict())
	apiV1.PUT("/notifications/:id/read", notificationHandler.MarkRead, auth.Restrict())
	apiV1.DELETE("/notifications/:id", notificationHandler.Delete, auth.Restrict())

	// announcements
	apiV1.GET("/announcements", announcementHandler.ListActive, auth.Restrict())
	apiV1.GET("/announcements/:id", announcementHandler.Get, auth.Restrict())
	apiV1.POST("/announcements", announcementHandler.Create, auth.Restrict(core.RoleAdmin))

	// stats
	apiV1.GET("/stats/dashboard", statsHandler.Dashboard, auth.Restrict())

	// socket
	apiV1.GET("/socket", socketHandler.Connect)

	e.GET("/health", func(c echo.Context) (err error) {
		ctx := c.Request().Context()

		err = sqlDB.Ping()
		if err != nil {
			return c.String(http.StatusInternalServerError, "db error")
		}

		err = rdb.Ping(ctx).Err()
		if err != nil {
			return c.String(http.StatusInternalServerError, "redis error")
		}

		return c.String(http.StatusOK, "ok")
	})

	var resourceCountMetrics = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aldea_resources_count",
			Help: "resources count",
		},
		[]string{"type"},
	)
	prometheus.MustRegister(resourceCountMetrics)

	var socketConnectionMetrics = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aldea_socket_connections",
			Help: "socket connections",
		},
	)
	prometheus.MustRegister(socketConnectionMetrics)

	go func() {
		for {
			time.Sleep(15 * time.Second)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

			count, err := guestService.Count(ctx)
			if err != nil {
				slog.Error(fmt.Sprintf("failed to count guests: %v", err))
				cancel()
				continue
			}
			resourceCountMetrics.WithLabelValues("guest").Set(float64(count))

			count, err = householdService.Count(ctx)
			if err != nil {
				slog.Error(fmt.Sprintf("failed to count households: %v", err))
				cancel()
				continue
			}
			resourceCountMetrics.WithLabelValues("household").Set(float64(count))

			socketConnectionMetrics.Set(float64(socketManager.ConnectionCount()))

			cancel()
		}
	}()

	e.GET("/metrics", echoprometheus.NewHandler())

	e.Logger.Fatal(e.Start(config.Server.Listen))
}

func setupTraceProvider(endpoint string, serviceName string, serviceVersion string) (func(), error) {

	exporter, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)

	if err != nil {
		return nil, err
	}

	resource := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
		semconv.ServiceVersionKey.String(serviceVersion),
	)

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(resource),
	)
	otel.SetTracerProvider(tracerProvider)

	propagator := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
	otel.SetTextMapPropagator(propagator)

	cleanup := func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			slog.Error(fmt.Sprintf("Failed to shutdown tracer provider: %v", err))
		}
	}
	return cleanup, nil
}

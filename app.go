// Package kayannotes assembles the notes service from its configuration.
//
//	app, err := kayannotes.New(ctx, cfg, logger.Log)
//	if err != nil {
//	    return err
//	}
//	defer app.Shutdown(ctx)
//	app.Start(fmt.Sprintf(":%d", cfg.Port))
package kayannotes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/getkayan/kayan-notes/api"
	"github.com/getkayan/kayan-notes/config"
	"github.com/getkayan/kayan-notes/flow"
	"github.com/getkayan/kayan-notes/guard"
	"github.com/getkayan/kayan-notes/health"
	"github.com/getkayan/kayan-notes/identity"
	"github.com/getkayan/kayan-notes/persistence"
	"github.com/getkayan/kayan-notes/policy"
	"github.com/getkayan/kayan-notes/service"
	"github.com/getkayan/kayan-notes/session"
	"github.com/getkayan/kayan-notes/telemetry"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"
)

// Options adjust how New builds the application.
type Options struct {
	// Registry collects the service metrics. Defaults to the global
	// Prometheus registry.
	Registry *prometheus.Registry
}

type App struct {
	Echo      *echo.Echo
	Repo      *persistence.Repository
	Engine    *policy.Engine
	Users     *service.Users
	Telemetry *telemetry.Provider

	cfg   *config.Config
	log   *zap.Logger
	redis *redis.Client
}

// New opens storage, seeds the administrator and mounts every route.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Options) (*App, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if log == nil {
		log = zap.NewNop()
	}

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if o.Registry != nil {
		registerer, gatherer = o.Registry, o.Registry
	}

	tp, err := telemetry.NewProvider(telemetry.Config{
		ServiceName:    cfg.AppName,
		ServiceVersion: cfg.AppVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplingRate:   cfg.TraceSamplingRate,
		Registerer:     registerer,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	tracing := cfg.OTLPEndpoint != ""

	app := &App{cfg: cfg, log: log, Telemetry: tp}

	app.Repo, err = persistence.NewStorage(cfg.DBType, cfg.DSN, persistence.Options{
		SkipAutoMigrate: cfg.SkipAutoMigrate,
		Tracing:         tracing,
	})
	if err != nil {
		return nil, app.fail(ctx, err)
	}

	engine, err := newEngine(cfg, log, tp)
	if err != nil {
		return nil, app.fail(ctx, err)
	}
	app.Engine = engine

	hasher := flow.NewBcryptHasher(cfg.BcryptRounds)
	app.Users = service.NewUsers(app.Repo, hasher, log.Named("users"))
	notes := service.NewNotes(app.Repo, log.Named("notes"))
	links := service.NewLinks(app.Repo, app.Repo, log.Named("links"))

	created, err := app.Users.EnsureAdmin(ctx, cfg.SAUser, cfg.SAPassword)
	if err != nil {
		return nil, app.fail(ctx, fmt.Errorf("seed admin: %w", err))
	}
	if created {
		log.Info("created administrator", zap.String("email", cfg.SAUser))
	}

	var (
		loginLimiter   flow.RateLimiter = flow.NewSlidingWindowLimiter()
		requestLimiter flow.RateLimiter = flow.NewFixedWindowLimiter()
	)
	if cfg.RedisURL != "" {
		app.redis, err = flow.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, app.fail(ctx, err)
		}
		if tracing {
			if err := redisotel.InstrumentTracing(app.redis, redisotel.WithTracerProvider(tp.TracerProvider())); err != nil {
				return nil, app.fail(ctx, fmt.Errorf("redis tracing: %w", err))
			}
		}
		shared := flow.NewRedisRateLimiter(app.redis, "")
		loginLimiter, requestLimiter = shared, shared
	}

	login := flow.NewLoginManager()
	login.RegisterStrategy(flow.NewRateLimitStrategy(
		flow.NewPasswordStrategy(app.Repo, hasher),
		loginLimiter,
		flow.RateLimitConfig{Limit: cfg.LoginRateLimit, Window: cfg.LoginRateWindow, FailOpen: true},
	))
	authLog := log.Named("auth")
	login.AddPostHook(func(_ context.Context, u *identity.User) error {
		authLog.Info("user logged in", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
		return nil
	})

	sessions := session.NewManager(
		session.NewHS256Strategy(cfg.JWTSecret, cfg.JWTExpiresIn, cfg.JWTIssuer, cfg.JWTAudience),
		app.Repo,
	)

	gd := guard.New(engine,
		guard.WithLogger(log.Named("guard")),
		guard.WithOwnerLookup(policy.ResourceNote, notes.Attributes),
		guard.WithRecorder(tp),
	)

	h := api.NewHandler(api.Deps{
		Users:         app.Users,
		Notes:         notes,
		Links:         links,
		Login:         login,
		Sessions:      sessions,
		Guard:         gd,
		Log:           log.Named("api"),
		Metrics:       tp,
		PublicBaseURL: cfg.PublicBaseURL,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api.Install(e, log)

	if tracing {
		e.Use(otelecho.Middleware(cfg.AppName,
			otelecho.WithTracerProvider(tp.TracerProvider()),
			otelecho.WithSkipper(func(c echo.Context) bool { return isProbe(c.Path()) }),
		))
	}
	if cfg.MetricsEnabled {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "notes",
			Registerer: registerer,
			Skipper:    func(c echo.Context) bool { return isProbe(c.Path()) },
		}))
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	}
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(requestLogger(log.Named("http")))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     splitOrigins(cfg.CORSOrigin),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: cfg.CORSOrigin != "*",
	}))

	hm := health.NewManager(cfg.AppVersion, health.WithTimeout(3*time.Second))
	hm.Register("database", app.Repo.Ping, health.Critical)
	if app.redis != nil {
		// Rate limiting fails open, so Redis only degrades the service.
		rdb := app.redis
		hm.Register("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}, health.Optional)
	}
	hm.Mount(e)

	prefix := ""
	if cfg.GlobalPrefix != "" {
		prefix = "/" + cfg.GlobalPrefix
	}
	g := e.Group(prefix)
	g.Use(api.RateLimit(api.RateLimitConfig{
		Limiter: requestLimiter,
		Limit:   cfg.RateLimitLimit,
		Window:  cfg.RateLimitTTL,
		Log:     log.Named("ratelimit"),
		Metrics: tp,
	}))
	h.RegisterRoutes(g)

	app.Echo = e
	return app, nil
}

func newEngine(cfg *config.Config, log *zap.Logger, tp *telemetry.Provider) (*policy.Engine, error) {
	combinator, err := policy.ParseCombinator(cfg.PolicyCombinator)
	if err != nil {
		return nil, err
	}
	engine := policy.NewEngine(
		policy.WithLogger(log.Named("policy")),
		policy.WithCombinator(combinator),
		policy.WithTracerProvider(tp.TracerProvider()),
	)
	if cfg.PolicyFile == "" {
		return engine, nil
	}

	extra, err := policy.LoadFile(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	for _, p := range extra {
		engine.AddPolicy(p)
	}
	log.Info("loaded policies", zap.String("file", cfg.PolicyFile), zap.Int("count", len(extra)))
	return engine, nil
}

// Start serves HTTP on addr until Shutdown is called.
func (a *App) Start(addr string) error {
	a.log.Info("server is starting", zap.String("addr", addr), zap.String("prefix", a.cfg.GlobalPrefix))
	if err := a.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases storage, Redis and
// telemetry.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Echo != nil {
		errs = append(errs, a.Echo.Shutdown(ctx))
	}
	errs = append(errs, a.close(ctx))
	return errors.Join(errs...)
}

func (a *App) close(ctx context.Context) error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.Repo != nil {
		if sqlDB, err := a.Repo.DB().DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	errs = append(errs, a.Telemetry.Shutdown(ctx))
	return errors.Join(errs...)
}

// fail releases whatever New opened before err.
func (a *App) fail(ctx context.Context, err error) error {
	if cerr := a.close(ctx); cerr != nil {
		a.log.Warn("cleanup after failed start", zap.Error(cerr))
	}
	return err
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper:      func(c echo.Context) bool { return isProbe(c.Path()) },
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			log.Info("request", fields...)
			return nil
		},
	})
}

func isProbe(path string) bool {
	switch path {
	case "/metrics", "/healthz", "/ready", "/health":
		return true
	}
	return false
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/bdjukic/outputdash/internal/analysis"
	"github.com/bdjukic/outputdash/internal/auth"
	"github.com/bdjukic/outputdash/internal/config"
	"github.com/bdjukic/outputdash/internal/dashboard"
	"github.com/bdjukic/outputdash/internal/db"
	"github.com/bdjukic/outputdash/internal/middleware"
	"github.com/bdjukic/outputdash/internal/outputsports"
	"github.com/bdjukic/outputdash/internal/reports"
	"github.com/bdjukic/outputdash/internal/telemetry/metrics"
	"github.com/bdjukic/outputdash/internal/telemetry/tracing"
	"github.com/bdjukic/outputdash/pkg"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	outputClient     *outputsports.Client
	dashboardService *dashboard.Service
	analysisClient   *analysis.Client

	redisClient  *redis.Client
	loginChecker *auth.LoginChecker
	authService  *auth.Service

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	OutputEmail             string
	OutputPassword          string
	AnalysisAPIKey          string
	VersionInfo             string
	AdminUsername           string
	AdminPasswordHash       string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("outputdash", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	authService := auth.NewAuthService(&auth.Admin{
		Username:     params.AdminUsername,
		PasswordHash: params.AdminPasswordHash,
	}, auth.DefaultTTL, rdb)
	go func() {
		for range time.Tick(time.Hour * 8) {
			authService.ScanAndClean(ctx)
		}
	}()

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "outputdash-backend")
	if err != nil {
		return nil, err
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   30 * time.Second,
	}

	outputClient := outputsports.NewClient(
		params.Config.OutputAPIBaseURL,
		params.OutputEmail,
		params.OutputPassword,
		tracedHttpClient,
		metricsManager,
	)

	analysisModel, err := analysis.ResolveModel(params.Config.AnalysisModel)
	if err != nil {
		return nil, fmt.Errorf("resolve analysis model: %w", err)
	}

	s := &Server{
		config:      params.Config,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,

		outputClient:     outputClient,
		dashboardService: dashboard.NewService(outputClient, metricsManager),
		analysisClient: analysis.NewClient(
			params.Config.AnalysisAPIBaseURL,
			params.AnalysisAPIKey,
			analysisModel,
			nil,
		),

		redisClient:  rdb,
		authService:  authService,
		loginChecker: auth.NewLoginChecker(auth.DefaultTTL, rdb),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	return s, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
	}).Methods("GET", "POST", "OPTIONS").Name("root")
	r.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET").Name("version")

	outputHandler := outputsports.NewHandler(s.outputClient)
	r.HandleFunc("/athletes", outputHandler.HandleAthletes).Methods("GET", "OPTIONS").Name("athletes")
	r.HandleFunc("/exercises/metadata", outputHandler.HandleExercisesMetadata).Methods("GET", "OPTIONS").Name("exercises-metadata")

	dashboardHandler := dashboard.NewHandler(s.dashboardService)
	r.HandleFunc("/dashboard/series", dashboardHandler.HandleSeries).Methods("GET", "OPTIONS").Name("dashboard-series")
	r.HandleFunc("/dashboard/chart", dashboardHandler.HandleChart).Methods("GET", "OPTIONS").Name("dashboard-chart")

	analysisHandler := analysis.NewHandler(s.outputClient, s.analysisClient, s.metricsManager)
	r.HandleFunc("/analysis", analysisHandler.HandleAnalyze).Methods("POST", "OPTIONS").Name("analysis")

	reportsHandler := reports.NewHandler(
		reports.NewRepo(s.dbPool),
		s.metricsManager,
	)
	r.HandleFunc("/reports", reportsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-reports")
	r.HandleFunc("/reports", reportsHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-report")
	r.HandleFunc("/reports", reportsHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-report")
	r.HandleFunc("/reports/{id}", reportsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-report")
	r.HandleFunc("/reports/{id}", reportsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-report")

	authHandler := auth.NewHandler(s.authService)
	loginSubrouter := r.PathPrefix("/a").Subrouter()
	loginSubrouter.HandleFunc("/login", authHandler.HandleLogin).Methods("POST", "OPTIONS").Name("login")
	loginSubrouter.HandleFunc("/logout", authHandler.HandleLogout).Methods("GET", "OPTIONS").Name("logout")
	// rate limit the /login and /logout endpoints to prevent abuse
	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	loginSubrouter.Use(middleware.RateLimit(reqRateLimiter, "login", s.config.LoginRateLimitAllowedPerMin))

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() error {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	var shutdownErr error
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("close redis client: %w", err))
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("shutdown http server: %w", err))
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("shutdown metrics http server: %w", err))
	}
	log.Warnln("metrics server shut down")

	return shutdownErr
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}

package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
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

	"github.com/2beens/trackfit/internal/auth"
	"github.com/2beens/trackfit/internal/config"
	"github.com/2beens/trackfit/internal/db"
	"github.com/2beens/trackfit/internal/middleware"
	"github.com/2beens/trackfit/internal/misc"
	"github.com/2beens/trackfit/internal/telemetry/metrics"
	"github.com/2beens/trackfit/internal/telemetry/tracing"
	"github.com/2beens/trackfit/internal/workouts"
	"github.com/2beens/trackfit/internal/workouts/entries"
	"github.com/2beens/trackfit/internal/workouts/stats"
)

const (
	sessionsCleanupInterval = 8 * time.Hour
	maxRequestBodyBytes     = 1 << 20
)

// entryStore is implemented by both the postgres and the firestore repos.
type entryStore interface {
	Add(ctx context.Context, entry workouts.Entry) (*workouts.Entry, error)
	Get(ctx context.Context, userID, id string) (*workouts.Entry, error)
	ListAll(ctx context.Context, userID string) ([]workouts.Entry, error)
	Update(ctx context.Context, entry *workouts.Entry) error
	UpdateNotes(ctx context.Context, userID, id, notes string) error
	Delete(ctx context.Context, userID, id string) (*workouts.Entry, error)
}

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config          *config.Config
	dbPool          *pgxpool.Pool
	firestoreClient *firestore.Client
	entryStore      entryStore
	notifier        entries.Notifier
	statsCache      *stats.Cache

	redisClient    *redis.Client
	sessionChecker auth.Checker
	authService    *auth.Service

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	DBPassword              string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "trackfit-backend", rdb)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:         cfg,
		versionInfo:    params.VersionInfo,
		redisClient:    rdb,
		sessionChecker: auth.NewSessionChecker(cfg.SessionTTLDuration(), rdb),
		authService:    auth.NewService(cfg.SessionTTLDuration(), rdb),
		statsCache:     stats.NewCache(cfg.StatsCacheSizeMB*1024*1024, cfg.StatsCacheTTLDuration()),
		otelShutdown:   otelShutdown,
	}

	var collectors []prometheus.Collector
	switch cfg.StorageBackend {
	case config.StorageBackendFirestore:
		client, err := entries.NewFirestoreClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentials)
		if err != nil {
			return nil, fmt.Errorf("new firestore client: %w", err)
		}
		s.firestoreClient = client
		s.entryStore = entries.NewFirestoreRepo(client, cfg.FirestoreCollection)
		log.Infof("using firestore storage, project [%s]", cfg.FirestoreProjectID)
	default:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         cfg.PostgresUser,
			DBPassword:     params.DBPassword,
			MaxConns:       cfg.PostgresMaxConns,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		s.dbPool = dbPool
		s.entryStore = entries.NewRepo(dbPool)
		collectors = append(collectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
	}

	s.promRegistry = metrics.SetupPrometheus(collectors...)
	s.metricsManager = metrics.NewManager("backend", "trackfit", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	if len(cfg.KafkaBrokers) > 0 {
		s.notifier = entries.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.Infof("publishing entry events to kafka topic [%s]", cfg.KafkaTopic)
	} else {
		s.notifier = entries.NoopNotifier{}
		log.Debugln("kafka brokers not set, entry events disabled")
	}

	go s.cleanupSessions(ctx)

	return s, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	weightUnit, err := stats.ParseUnit(s.config.DefaultWeightUnit)
	if err != nil {
		return nil, fmt.Errorf("default weight unit: %w", err)
	}

	r := mux.NewRouter()
	r.Use(otelmux.Middleware("trackfit-router"))

	misc.NewHandler(s.versionInfo, weightUnit).SetupRoutes(r)

	entriesHandler := entries.NewHandler(entries.NewHandlerParams{
		Repo:           s.entryStore,
		Notifier:       s.notifier,
		StatsCache:     s.statsCache,
		MetricsManager: s.metricsManager,
		Location:       s.config.Location(),
	})
	entriesRouter := r.PathPrefix("/entries").Subrouter()
	entriesRouter.HandleFunc("", entriesHandler.HandleList).Methods("GET", "OPTIONS").Name("list-entries")
	entriesRouter.HandleFunc("", entriesHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-entry")
	entriesRouter.HandleFunc("/history", entriesHandler.HandleHistory).Methods("GET", "OPTIONS").Name("entries-history")
	entriesRouter.HandleFunc("/{id}", entriesHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-entry")
	entriesRouter.HandleFunc("/{id}", entriesHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-entry")
	entriesRouter.HandleFunc("/{id}", entriesHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-entry")
	entriesRouter.HandleFunc("/{id}/notes", entriesHandler.HandleUpdateNotes).Methods("PATCH", "OPTIONS").Name("update-entry-notes")
	entriesRouter.Use(middleware.RateLimit(
		redis_rate.NewLimiter(s.redisClient),
		"entries",
		s.config.EntriesWriteRateLimit,
		s.metricsManager,
	))

	statsHandler := stats.NewHandler(stats.NewHandlerParams{
		Repo:           s.entryStore,
		Cache:          s.statsCache,
		MetricsManager: s.metricsManager,
		SourceUnit:     weightUnit,
		Location:       s.config.Location(),
	})
	r.HandleFunc("/stats", statsHandler.HandleGet).Methods("GET", "OPTIONS").Name("stats")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.sessionChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest(maxRequestBodyBytes))

	return r, nil
}

func (s *Server) Serve(host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", otelhttp.NewHandler(
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
		"metrics",
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

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop taking requests first, the stores are still needed by the in-flight ones
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if err := s.notifier.Close(); err != nil {
		log.Errorf("failed to close entries notifier: %s", err)
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if s.firestoreClient != nil {
		if err := s.firestoreClient.Close(); err != nil {
			log.Errorf("failed to close firestore client: %s", err)
		}
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
}

func (s *Server) cleanupSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionsCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.authService.ScanAndClean(ctx)
		}
	}
}

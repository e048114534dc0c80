package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/navikt/datavask-backend/pkg/auth"
	"github.com/navikt/datavask-backend/pkg/cache"
	"github.com/navikt/datavask-backend/pkg/config/v2"
	"github.com/navikt/datavask-backend/pkg/cs"
	"github.com/navikt/datavask-backend/pkg/database"
	"github.com/navikt/datavask-backend/pkg/requestlogger"
	"github.com/navikt/datavask-backend/pkg/service"
	"github.com/navikt/datavask-backend/pkg/service/core"
	cachedecorator "github.com/navikt/datavask-backend/pkg/service/core/cache/postgres"
	"github.com/navikt/datavask-backend/pkg/service/core/handlers"
	"github.com/navikt/datavask-backend/pkg/service/core/routes"
	"github.com/navikt/datavask-backend/pkg/service/core/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

var (
	configFilePath = flag.String("config", "config.yaml", "path to config file")
	printRoutes    = flag.Bool("print-routes", false, "print the routes and exit")
)

const shutdownTimeout = 5 * time.Second

func main() {
	flag.Parse()

	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})

	fileParts, err := config.ProcessConfigPath(*configFilePath)
	if err != nil {
		log.WithError(err).Fatal("processing config path")
	}

	cfg, err := config.NewFileSystemLoader().Load(fileParts.FileName, fileParts.Path, "DATAVASK", config.NewDefaultEnvBinder())
	if err != nil {
		log.WithError(err).Fatal("loading config")
	}

	err = cfg.Validate()
	if err != nil {
		log.WithError(err).Fatal("validating config")
	}

	l, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(l)

	zl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}

	zlog := zerolog.New(os.Stdout).Level(zl).With().Timestamp().Logger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	repo, err := database.New(
		cfg.Postgres.ConnectionString(),
		cfg.Postgres.Configuration.MaxIdleConnections,
		cfg.Postgres.Configuration.MaxOpenConnections,
		cfg.Postgres.WorkspaceSchema,
		log.WithField("subsystem", "repo"),
	)
	if err != nil {
		log.WithError(err).Fatal("setting up database")
	}

	var archive service.SourceArchive = cs.NoopArchive{}
	if cfg.Archive.Enabled {
		archive, err = cs.New(ctx, cfg.Archive.Bucket, cfg.Archive.Endpoint)
		if err != nil {
			log.WithError(err).Fatal("setting up source archive")
		}
	}

	cacher := cache.New(time.Duration(cfg.CacheDurationSeconds)*time.Second, repo.GetDB(), zlog.With().Str("subsystem", "cache").Logger())
	metrics := core.NewMetrics()
	stores := storage.NewStores(repo)

	services := core.NewServices(
		core.NewCoercionService(stores.DatasetStorage, stores.SchemaStorage, stores.CoercionStorage, metrics, zlog.With().Str("subsystem", "coercion").Logger()),
		core.NewColumnsService(stores.DatasetStorage, stores.SchemaStorage, stores.ColumnsStorage),
		core.NewDatasetService(stores.DatasetStorage, stores.SchemaStorage, stores.SnapshotStorage, archive, zlog.With().Str("subsystem", "datasets").Logger()),
		core.NewFilterService(stores.DatasetStorage, stores.SnapshotStorage, metrics, zlog.With().Str("subsystem", "filter").Logger()),
		core.NewReshapeService(stores.DatasetStorage, stores.SnapshotStorage, metrics),
		core.NewStatisticsService(stores.DatasetStorage, cachedecorator.NewStatisticsCache(stores.StatisticsStorage, cacher)),
		core.NewSyncService(stores.DatasetStorage, stores.SyncStorage, metrics),
	)

	authenticatorMiddleware := auth.NewMiddleware(cfg.Auth.JWTSecret, zlog.With().Str("subsystem", "auth").Logger()).Handler
	if cfg.Auth.Disabled {
		log.Warn("authentication is disabled")
		authenticatorMiddleware = auth.MockJWTValidatorMiddleware()
	}

	h := handlers.NewHandlers(services, cfg)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(requestlogger.Middleware(zlog, "/internal/metrics", "/internal/isalive"))

	routes.Add(router,
		routes.NewCoercionRoutes(routes.NewCoercionEndpoints(zlog, h.CoercionHandler), authenticatorMiddleware),
		routes.NewColumnsRoutes(routes.NewColumnsEndpoints(zlog, h.ColumnsHandler), authenticatorMiddleware),
		routes.NewDatasetsRoutes(routes.NewDatasetsEndpoints(zlog, h.DatasetsHandler), authenticatorMiddleware),
		routes.NewFilterRoutes(routes.NewFilterEndpoints(zlog, h.FilterHandler), authenticatorMiddleware),
		routes.NewReshapeRoutes(routes.NewReshapeEndpoints(zlog, h.ReshapeHandler), authenticatorMiddleware),
		routes.NewSyncRoutes(routes.NewSyncEndpoints(zlog, h.SyncHandler), authenticatorMiddleware),
		routes.NewMetricsRoutes(routes.NewMetricsEndpoints(prom(repo.Metrics(), cacher.Metrics(), metrics.Collectors()))),
	)

	if *printRoutes {
		err = routes.Print(router, os.Stdout)
		if err != nil {
			log.WithError(err).Fatal("printing routes")
		}

		return
	}

	server := http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Address, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}

	log.Infof("Listening on %s:%s", cfg.Server.Address, cfg.Server.Port)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Shutdown error")
	}
}

func prom(cols ...[]prometheus.Collector) *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewGoCollector())

	for _, c := range cols {
		r.MustRegister(c...)
	}

	return r
}

// Copyright 2026 Canonical.

package main

import (
	"context"
	"net/http"
	"os"
	"syscall"
	"time"

	service "github.com/canonical/go-service"
	"github.com/go-chi/chi/v5"
	"github.com/juju/clock"
	"github.com/juju/zaputil/zapctx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/condb/condb/internal/condb"
	"github.com/condb/condb/internal/condbhttp"
	"github.com/condb/condb/internal/db"
	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/logger"
	"github.com/condb/condb/version"
)

func main() {
	ctx, s := service.NewService(context.Background(), os.Interrupt, syscall.SIGTERM)
	s.Go(func() error {
		return start(ctx, s)
	})
	err := s.Wait()

	zapctx.Error(context.Background(), "shutdown", zap.Error(err))
	if _, ok := err.(*service.SignalError); !ok {
		os.Exit(1)
	}
}

// start initialises the condbsrv service.
func start(ctx context.Context, s *service.Service) error {
	logLevel := os.Getenv("CONDB_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	_, devMode := os.LookupEnv("CONDB_DEV_MODE")
	logger.SetupLogger(ctx, logLevel, devMode)
	zapctx.Info(ctx, "condb info",
		zap.String("version", version.VersionInfo.Version),
		zap.String("commit", version.VersionInfo.GitCommit),
	)

	addr := os.Getenv("CONDB_LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	dsn := os.Getenv("CONDB_DSN")
	if dsn == "" {
		return errors.E(errors.CodeServerConfiguration, "CONDB_DSN not specified")
	}

	zapctx.Info(ctx, "connecting database")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.GormLogger{},
	})
	if err != nil {
		return errors.E(errors.CodeServerConfiguration, err, "cannot open database")
	}
	database := &db.Database{DB: gdb}
	if err := database.Migrate(ctx, false); err != nil {
		return errors.E(errors.CodeServerConfiguration, err, "cannot migrate database")
	}

	engine := &condb.ConDB{
		Store: database,
		Clock: clock.WallClock,
	}

	httpsrv := &http.Server{
		Addr:    addr,
		Handler: newRouter(engine, database),
	}
	s.OnShutdown(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		zapctx.Warn(ctx, "server shutdown triggered")
		if err := httpsrv.Shutdown(ctx); err != nil {
			zapctx.Error(ctx, "server shutdown failed", zap.Error(err))
		}
		if err := database.Close(); err != nil {
			zapctx.Error(ctx, "database close failed", zap.Error(err))
		}
	})
	s.Go(httpsrv.ListenAndServe)
	zapctx.Info(ctx, "started condb server", zap.String("addr", addr))
	return nil
}

// newRouter assembles the HTTP API. The database collection is the root
// of the API, with branch, commit, working commit, schema and solve
// handlers mounted below it. Schema routes are mounted twice, once
// reading the default branch and once under an explicit branch.
func newRouter(engine *condb.ConDB, database *db.Database) chi.Router {
	databases := condbhttp.NewDatabaseHandler(engine)
	branches := condbhttp.NewBranchHandler(engine)
	workingCommits := condbhttp.NewWorkingCommitHandler(engine)
	commits := condbhttp.NewCommitHandler(engine)
	schema := condbhttp.NewSchemaHandler(engine)
	branchSchema := condbhttp.NewSchemaHandler(engine)
	solves := condbhttp.NewSolveHandler(engine)
	debug := condbhttp.NewDebugHandler(map[string]condbhttp.StatusCheck{
		"start_time": condbhttp.ServerStartTime,
		"database": condbhttp.MakeStatusCheck("database", func(ctx context.Context) (interface{}, error) {
			return nil, database.Ping(ctx)
		}),
	})

	branchRoutes := branches.Routes()
	branches.Router.Mount("/{branch}/working-commit", workingCommits.Routes())
	branches.Router.Mount("/{branch}", branchSchema.Routes())

	router := chi.NewRouter()
	router.Use(condbhttp.MeasureResponseTime)
	router.Use(condbhttp.IdentityMiddleware)
	router.Mount("/debug", debug.Routes())
	router.Handle("/metrics", promhttp.Handler())
	router.Route("/databases", func(r chi.Router) {
		r.Get("/", databases.List)
		r.Post("/", databases.Add)
		r.Route("/{database}", func(r chi.Router) {
			r.Get("/", databases.Get)
			r.Delete("/", databases.Delete)
			r.Mount("/branches", branchRoutes)
			r.Mount("/commits", commits.Routes())
			r.Post("/solve", solves.Solve)
			r.Get("/artifacts", solves.ListArtifacts)
			r.Get("/artifacts/{artifact}", solves.GetArtifact)
			r.Get("/artifacts/{artifact}/summary", solves.GetArtifactSummary)
			r.Mount("/", schema.Routes())
		})
	})
	return router
}

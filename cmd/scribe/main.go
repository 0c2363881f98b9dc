package main

import (
	"context"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/scribe/internal/pkg/miniofs"
	"github.com/airenas/scribe/internal/pkg/postgres"
	"github.com/airenas/scribe/internal/pkg/runner"
	"github.com/airenas/scribe/internal/pkg/service"
	"github.com/airenas/scribe/internal/pkg/transcriber"
	"github.com/airenas/scribe/internal/pkg/utils"
	"github.com/airenas/scribe/internal/pkg/worker"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/gommon/color"
	"github.com/spf13/viper"
)

func main() {
	goapp.StartWithDefault()

	printBanner()

	cfg := goapp.Config
	ctx := context.Background()

	dbConfig, err := pgxpool.ParseConfig(cfg.GetString("db.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	if cfg.GetBool("db.log") {
		addDBLog(dbConfig)
	}
	goapp.Log.Info().Int32("max_conn", dbConfig.MaxConns).Int32("min_conn", dbConfig.MinConns).Msg("db info")

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	defer dbPool.Close()

	db, err := postgres.NewDB(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}

	filer, err := miniofs.NewFiler(ctx, miniofs.Options{Bucket: defaultV(cfg.GetString("filer.bucket"), "transcribe-uploads"),
		URL: cfg.GetString("filer.url"), User: cfg.GetString("filer.user"), Key: cfg.GetString("filer.key"),
		Secure: cfg.GetBool("filer.https"), Region: cfg.GetString("filer.region")})
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init filer")
	}

	tr, err := transcriber.NewClient(defaultV(cfg.GetString("transcriber.url"), "https://api.assemblyai.com"),
		cfg.GetString("transcriber.key"), defaultV(cfg.GetDuration("transcriber.pollEvery"), 3*time.Second))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init transcriber")
	}

	wc := readWorkerConfig(cfg)
	rn, err := runner.New(wc.count, wc.stopTimeout)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init runner")
	}

	presignedTTL := defaultV(cfg.GetDuration("transcriber.presignedTTL"), time.Hour)
	srv, err := worker.NewService(&worker.ServiceData{DB: db, Filer: filer, Transcriber: tr, Runner: rn,
		MaxAttempts: wc.retries, RetryUnit: wc.retryUnit, PresignedTTL: presignedTTL})
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init transcription service")
	}
	rn.SetStartupHook(func(ctx context.Context, s runner.Submitter) error {
		_, err := srv.RecoverPendingJobs(ctx, s)
		return err
	})
	if err := rn.Start(ctx); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start runner")
	}

	go utils.RunPerfEndpoint(cfg.GetInt("debug.port"))

	err = service.StartWebServer(&service.Data{Port: defaultV(cfg.GetInt("port"), 8000), DB: db, Filer: filer,
		Jobs: srv, Runner: rn, RetrySecret: cfg.GetString("retrySecret"), PresignedTTL: presignedTTL})
	if err != nil {
		goapp.Log.Error().Err(err).Msg("can't start web server")
	}
	goapp.Log.Info().Msg("Web server stopped")
	if err := rn.Stop(); err != nil {
		goapp.Log.Warn().Err(err).Msg("Timeout graceful shutdown")
	}
	goapp.Log.Info().Msg("Bye")
}

type workerConfig struct {
	count       int
	retries     int
	retryUnit   time.Duration
	stopTimeout time.Duration
}

func readWorkerConfig(cfg *viper.Viper) workerConfig {
	return workerConfig{
		count:       defaultV(cfg.GetInt("worker.count"), 3),
		retries:     defaultV(cfg.GetInt("worker.retries"), 3),
		retryUnit:   defaultV(cfg.GetDuration("worker.retryUnit"), time.Second),
		stopTimeout: defaultV(cfg.GetDuration("worker.stopTimeout"), 15*time.Second),
	}
}

func defaultV[T comparable](v, d T) T {
	var zero T
	if v == zero {
		return d
	}
	return v
}

func addDBLog(dbConfig *pgxpool.Config) {
	logFunc := goapp.Log.Debug().Msg
	dbConfig.AfterConnect = func(ctx context.Context, c *pgx.Conn) error {
		logFunc("after connect")
		return nil
	}
	dbConfig.BeforeAcquire = func(ctx context.Context, c *pgx.Conn) bool {
		logFunc("before acquire")
		return true
	}
	dbConfig.AfterRelease = func(c *pgx.Conn) bool {
		logFunc("after release")
		return true
	}
}

var (
	version = "DEV"
)

func printBanner() {
	banner := `
                    _ __       
   ___________________(_) /_  ___ 
  / ___/ ___/ ___/ / __ \/ _ \
 (__  ) /__/ /  / / /_/ /  __/
/____/\___/_/  /_/_.___/\___/  v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/airenas/scribe"))
}

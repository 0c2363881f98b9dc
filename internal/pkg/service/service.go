package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/scribe/internal/pkg/persistence"
	"github.com/airenas/scribe/internal/pkg/runner"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
)

// DB reads jobs and results
type DB interface {
	LoadJobFor(ctx context.Context, ownerID, id string) (*persistence.Job, error)
	ListJobs(ctx context.Context, ownerID string) ([]*persistence.Job, error)
	LoadTranscript(ctx context.Context, jobID string) (*persistence.Transcript, error)
	ListHistory(ctx context.Context, ownerID string) ([]*persistence.HistoryEntry, error)
	LoadHistoryEntry(ctx context.Context, ownerID, id string) (*persistence.HistoryEntry, error)
	Live(ctx context.Context) error
}

// Filer issues presigned URLs
type Filer interface {
	PresignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	PresignedPutURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	UploadKey(ownerID, fileName string) string
}

// Jobs creates and resubmits transcription jobs
type Jobs interface {
	CreateJob(ctx context.Context, in *persistence.JobInput) (*persistence.Job, error)
	Resubmit(ctx context.Context, id string) error
	Recover(ctx context.Context) (int, error)
}

// StateProvider reports runner state
type StateProvider interface {
	State() runner.State
}

// Data keeps data required for service work
type Data struct {
	Port         int
	DB           DB
	Filer        Filer
	Jobs         Jobs
	Runner       StateProvider
	RetrySecret  string
	PresignedTTL time.Duration
}

const ownerHeader = "x-user-id"

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Int("port", data.Port).Msg("Starting HTTP scribe service")
	if err := validate(data); err != nil {
		return err
	}

	portStr := strconv.Itoa(data.Port)

	e := initRoutes(data)

	e.Server.Addr = ":" + portStr
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.WriteTimeout = 30 * time.Second

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	return gracehttp.Serve(e.Server)
}

func validate(data *Data) error {
	if data.DB == nil {
		return errors.New("no DB")
	}
	if data.Filer == nil {
		return errors.New("no filer")
	}
	if data.Jobs == nil {
		return errors.New("no jobs service")
	}
	if data.Runner == nil {
		return errors.New("no runner")
	}
	if data.PresignedTTL <= 0 {
		return errors.Errorf("wrong presigned TTL %v", data.PresignedTTL)
	}
	return nil
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("scribe_api", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	promMdlw.Use(e)

	e.POST("/files/presign", presign(data))
	e.POST("/jobs", createJob(data))
	e.GET("/jobs", listJobs(data))
	e.GET("/jobs/:id", getJob(data))
	e.GET("/jobs/:id/download", download(data))
	e.GET("/history", listHistory(data))
	e.GET("/history/:id", getHistory(data))
	if data.RetrySecret != "" {
		e.POST(fmt.Sprintf("/retry/%s/recover", data.RetrySecret), recoverJobs(data))
		e.POST(fmt.Sprintf("/retry/%s/jobs/:id", data.RetrySecret), retry(data))
	}
	e.GET("/live", live(data))

	goapp.Log.Info().Msg("Routes:")
	for _, r := range e.Routes() {
		goapp.Log.Info().Msgf("  %s %s", r.Method, r.Path)
	}
	return e
}

func live(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		if err := data.DB.Live(c.Request().Context()); err != nil {
			goapp.Log.Error().Err(err).Send()
			return c.JSONBlob(http.StatusServiceUnavailable, []byte(`{"service":"OK","db":"FAIL"}`))
		}
		return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK","db":"OK"}`))
	}
}

func owner(c echo.Context) (string, error) {
	res := c.Request().Header.Get(ownerHeader)
	if res == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "no user")
	}
	return res, nil
}

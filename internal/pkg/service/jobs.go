package service

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/scribe/internal/pkg/miniofs"
	"github.com/airenas/scribe/internal/pkg/persistence"
	"github.com/airenas/scribe/internal/pkg/runner"
	"github.com/airenas/scribe/internal/pkg/status"
	"github.com/airenas/scribe/internal/pkg/utils"
	"github.com/airenas/scribe/internal/pkg/worker"
	"github.com/labstack/echo/v4"
	perrors "github.com/pkg/errors"
)

type presignInput struct {
	FileName    string `json:"filename"`
	ContentType string `json:"content_type"`
}

type presignResult struct {
	UploadURL string `json:"upload_url"`
	ObjectKey string `json:"object_key"`
}

type jobInput struct {
	ObjectKey string `json:"object_key"`
	Language  string `json:"language"`
	Mode      string `json:"mode"`
}

type jobResult struct {
	ID              string    `json:"id"`
	Status          string    `json:"status"`
	Language        string    `json:"language"`
	Mode            string    `json:"mode"`
	ResultObjectKey string    `json:"result_object_key,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	Created         time.Time `json:"created_at"`
	Updated         time.Time `json:"updated_at"`
}

type downloadResult struct {
	DownloadURL string `json:"download_url"`
	ObjectKey   string `json:"object_key"`
}

type result struct {
	ID        string `json:"id,omitempty"`
	Submitted int    `json:"submitted"`
}

func presign(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("presign method")()
		ownerID, err := owner(c)
		if err != nil {
			return err
		}
		var in presignInput
		if err := c.Bind(&in); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadRequest, "can't decode input")
		}
		if err := validatePresign(&in); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		key := data.Filer.UploadKey(ownerID, in.FileName)
		url, err := data.Filer.PresignedPutURL(c.Request().Context(), key, data.PresignedTTL)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, presignResult{UploadURL: url, ObjectKey: key})
	}
}

func validatePresign(in *presignInput) error {
	if strings.TrimSpace(in.FileName) == "" {
		return perrors.New("no filename")
	}
	ext := filepath.Ext(in.FileName)
	if !utils.SupportAudioExt(strings.ToLower(ext)) {
		return perrors.Errorf("wrong file extension '%s'", ext)
	}
	return nil
}

func createJob(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("create job method")()
		ownerID, err := owner(c)
		if err != nil {
			return err
		}
		in := jobInput{Language: "en", Mode: persistence.ModeMono}
		if err := c.Bind(&in); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadRequest, "can't decode input")
		}
		if err := validateJob(ownerID, &in); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		job, err := data.Jobs.CreateJob(c.Request().Context(), &persistence.JobInput{OwnerID: ownerID,
			SourceKey: in.ObjectKey, Language: in.Language, Mode: in.Mode})
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusCreated, toJobResult(job))
	}
}

func validateJob(ownerID string, in *jobInput) error {
	if in.ObjectKey == "" {
		return perrors.New("no object_key")
	}
	if !strings.HasPrefix(in.ObjectKey, miniofs.UploadPrefix(ownerID)) || strings.Contains(in.ObjectKey, "..") {
		return perrors.New("wrong object_key")
	}
	if l := len(in.Language); l < 2 || l > 10 {
		return perrors.Errorf("wrong language '%s'", in.Language)
	}
	if in.Mode != persistence.ModeMono && in.Mode != persistence.ModeDialogue {
		return perrors.Errorf("wrong mode '%s'", in.Mode)
	}
	return nil
}

func listJobs(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		ownerID, err := owner(c)
		if err != nil {
			return err
		}
		jobs, err := data.DB.ListJobs(c.Request().Context(), ownerID)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		res := make([]*jobResult, 0, len(jobs))
		for _, j := range jobs {
			res = append(res, toJobResult(j))
		}
		return c.JSON(http.StatusOK, res)
	}
}

func getJob(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		job, err := loadJob(c, data)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, toJobResult(job))
	}
}

func download(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("download method")()
		job, err := loadJob(c, data)
		if err != nil {
			return err
		}
		if job.Status != status.Completed || !job.ResultKey.Valid {
			return echo.NewHTTPError(http.StatusBadRequest, "Job not completed yet")
		}
		url, err := data.Filer.PresignedGetURL(c.Request().Context(), job.ResultKey.String, data.PresignedTTL)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, downloadResult{DownloadURL: url, ObjectKey: job.ResultKey.String})
	}
}

func loadJob(c echo.Context, data *Data) (*persistence.Job, error) {
	ownerID, err := owner(c)
	if err != nil {
		return nil, err
	}
	id := c.Param("id")
	if id == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "No ID")
	}
	job, err := data.DB.LoadJobFor(c.Request().Context(), ownerID, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Job not found")
		}
		goapp.Log.Error().Err(err).Send()
		return nil, echo.NewHTTPError(http.StatusInternalServerError)
	}
	return job, nil
}

func recoverJobs(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("recover method")()
		if st := data.Runner.State(); st != runner.Running {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "runner is "+st.String())
		}
		n, err := data.Jobs.Recover(c.Request().Context())
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, result{Submitted: n})
	}
}

func retry(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("retry method")()
		id := c.Param("id")
		if id == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No ID")
		}
		if st := data.Runner.State(); st != runner.Running {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "runner is "+st.String())
		}
		err := data.Jobs.Resubmit(c.Request().Context(), id)
		switch utils.KindOf(err) {
		case utils.KindNotFound:
			return echo.NewHTTPError(http.StatusNotFound, "Job not found")
		case utils.KindUnavailable:
			return echo.NewHTTPError(http.StatusServiceUnavailable, "runner not ready")
		}
		if errors.Is(err, worker.ErrFinished) {
			return echo.NewHTTPError(http.StatusBadRequest, "Job is finished")
		}
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, result{ID: id, Submitted: 1})
	}
}

func toJobResult(j *persistence.Job) *jobResult {
	return &jobResult{ID: j.ID, Status: j.Status.String(), Language: j.Language, Mode: j.Mode,
		ResultObjectKey: utils.FromSQLStr(j.ResultKey), ErrorMessage: utils.FromSQLStr(j.Error),
		Created: j.Created, Updated: j.Updated}
}

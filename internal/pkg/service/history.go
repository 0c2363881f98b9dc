package service

import (
	"errors"
	"net/http"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/scribe/internal/pkg/persistence"
	"github.com/airenas/scribe/internal/pkg/utils"
	"github.com/labstack/echo/v4"
)

type historyItem struct {
	ID      string    `json:"id"`
	JobID   string    `json:"job_id"`
	Title   *string   `json:"title"`
	Created time.Time `json:"created_at"`
	Updated time.Time `json:"updated_at"`
}

type historyDetail struct {
	historyItem
	TranscriptText string `json:"transcript_text"`
}

func listHistory(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		ownerID, err := owner(c)
		if err != nil {
			return err
		}
		items, err := data.DB.ListHistory(c.Request().Context(), ownerID)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		res := make([]historyItem, 0, len(items))
		for _, h := range items {
			res = append(res, toHistoryItem(h))
		}
		return c.JSON(http.StatusOK, res)
	}
}

func getHistory(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		ownerID, err := owner(c)
		if err != nil {
			return err
		}
		id := c.Param("id")
		if id == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No ID")
		}
		ctx := c.Request().Context()
		he, err := data.DB.LoadHistoryEntry(ctx, ownerID, id)
		if err != nil {
			return notFoundOr500(err, "Not found")
		}
		tr, err := data.DB.LoadTranscript(ctx, he.JobID)
		if err != nil {
			return notFoundOr500(err, "Transcript missing")
		}
		return c.JSON(http.StatusOK, historyDetail{historyItem: toHistoryItem(he), TranscriptText: tr.PlainText})
	}
}

func notFoundOr500(err error, msg string) error {
	if errors.Is(err, utils.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, msg)
	}
	goapp.Log.Error().Err(err).Send()
	return echo.NewHTTPError(http.StatusInternalServerError)
}

func toHistoryItem(h *persistence.HistoryEntry) historyItem {
	res := historyItem{ID: h.ID, JobID: h.JobID, Created: h.Created, Updated: h.Updated}
	if h.Title.Valid {
		t := h.Title.String
		res.Title = &t
	}
	return res
}

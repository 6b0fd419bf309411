package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iypan/shiksha/core/giveaway"
)

type giveawayApi struct {
	svc *giveaway.Service
}

func registerGiveawayAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *giveaway.Service) {
	api := giveawayApi{svc: svc}

	gg := g.Group("/giveaway", jwt, adminMiddleware())
	gg.GET("", api.query)
	gg.POST("", api.submitBatch)
	gg.POST("/confirm", api.confirmBatch)
	gg.POST("/entry", api.addEntry)
	gg.POST("/upload", api.upload)
}

// Handlers

func (api *giveawayApi) query(ctx echo.Context) error {
	entries, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying giveaway entries")
	}
	if entries == nil {
		entries = []giveaway.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *giveawayApi) submitBatch(ctx echo.Context) error {
	var data GiveawayBatchRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GiveawayBatchRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	res, err := api.svc.SubmitBatch(ctx.Request().Context(), data.Entries)
	if err != nil {
		return errors.Wrap(err, "submitting giveaway batch")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *giveawayApi) confirmBatch(ctx echo.Context) error {
	var data GiveawayConfirmRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GiveawayConfirmRequest")
	}

	res, err := api.svc.ConfirmBatch(ctx.Request().Context(), data.Entries)
	if err != nil {
		return errors.Wrap(err, "confirming giveaway batch")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *giveawayApi) addEntry(ctx echo.Context) error {
	var data giveaway.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	res, err := api.svc.Add(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding giveaway entry")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *giveawayApi) upload(ctx echo.Context) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing upload file")
	}
	src, err := file.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload file")
	}
	defer src.Close()

	proposed, rowErrors, err := giveaway.ParseCSV(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := api.svc.SubmitBatch(ctx.Request().Context(), proposed)
	if err != nil {
		return errors.Wrap(err, "submitting giveaway batch")
	}
	return ctx.JSON(http.StatusOK, GiveawayUploadResponse{Result: res, RowErrors: rowErrors})
}

type (
	GiveawayBatchRequest struct {
		Entries []giveaway.NewEntry `json:"entries"`
	}

	GiveawayConfirmRequest struct {
		Entries []giveaway.Entry `json:"entries"`
	}

	GiveawayUploadResponse struct {
		giveaway.Result
		RowErrors []giveaway.RowError `json:"row_errors,omitempty"`
	}
)

func (br *GiveawayBatchRequest) Validate() error {
	if len(br.Entries) == 0 {
		return errEmptyBatch
	}
	for i := range br.Entries {
		if err := br.Entries[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

var errEmptyBatch = echo.NewHTTPError(http.StatusBadRequest, "batch has no entries")

package echoapi

import (
	"io/ioutil"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iypan/shiksha/core"
	"github.com/iypan/shiksha/core/card"
)

// signatureHeader carries the gateway's HMAC of the webhook body.
const signatureHeader = "X-Razorpay-Signature"

type cardApi struct {
	svc *card.Service
}

func registerCardAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *card.Service) {
	api := cardApi{svc: svc}

	// the gateway authenticates with its signature, not a JWT
	g.POST("/payments/webhook", api.webhook)

	pg := g.Group("/payments", jwt, adminMiddleware())
	pg.GET("", api.queryPayments)

	cg := g.Group("/cards", jwt, adminMiddleware())
	cg.GET("/pending", api.queryPending)
	cg.GET("/approved", api.queryApproved)
	cg.POST("/:id/approve", api.approve)
	cg.POST("/:id/reject", api.reject)

	cg.GET("/activations", api.queryActivations)
	cg.POST("/activations/upload", api.uploadActivations)
	cg.GET("/activations/stats", api.activationStats)
	cg.GET("/activations/recent-inactive", api.recentInactive)

	eg := g.Group("/elite-cards", jwt, adminMiddleware())
	eg.GET("", api.queryEliteCards)
	eg.POST("", api.addEliteCard)
}

// Handlers

func (api *cardApi) webhook(ctx echo.Context) error {
	body, err := ioutil.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading webhook body")
	}

	err = api.svc.HandleWebhook(ctx.Request().Context(), body, ctx.Request().Header.Get(signatureHeader))
	if err != nil {
		if errors.Cause(err) == card.ErrSignatureMismatch {
			return echo.NewHTTPError(http.StatusBadRequest, card.ErrSignatureMismatch.Error())
		}
		return errors.Wrap(err, "handling payment webhook")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "ok"})
}

func (api *cardApi) queryPayments(ctx echo.Context) error {
	payments, err := api.svc.Payments(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	if payments == nil {
		payments = []card.Payment{}
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *cardApi) queryPending(ctx echo.Context) error {
	cards, err := api.svc.PendingCards(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying pending cards")
	}
	if cards == nil {
		cards = []card.GeneratedCard{}
	}
	return ctx.JSON(http.StatusOK, cards)
}

func (api *cardApi) queryApproved(ctx echo.Context) error {
	cards, err := api.svc.ApprovedCards(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying approved cards")
	}
	if cards == nil {
		cards = []card.GeneratedCard{}
	}
	return ctx.JSON(http.StatusOK, cards)
}

func (api *cardApi) approve(ctx echo.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data ApproveCardRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ApproveCardRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	gc, err := api.svc.ApproveCard(ctx.Request().Context(), id, data.CardURL)
	if err != nil {
		if errors.Cause(err) == card.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "approving card")
	}
	return ctx.JSON(http.StatusOK, gc)
}

func (api *cardApi) reject(ctx echo.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	gc, err := api.svc.RejectCard(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == card.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "rejecting card")
	}
	return ctx.JSON(http.StatusOK, gc)
}

func (api *cardApi) queryActivations(ctx echo.Context) error {
	acts, err := api.svc.Activations(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying activations")
	}
	if acts == nil {
		acts = []card.Activation{}
	}
	return ctx.JSON(http.StatusOK, acts)
}

func (api *cardApi) uploadActivations(ctx echo.Context) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing upload file")
	}
	src, err := file.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload file")
	}
	defer src.Close()

	count, rowErrors, err := api.svc.ImportActivations(ctx.Request().Context(), src)
	if err != nil {
		return errors.Wrap(err, "importing activations")
	}
	return ctx.JSON(http.StatusOK, ActivationImportResponse{Imported: count, RowErrors: rowErrors})
}

func (api *cardApi) activationStats(ctx echo.Context) error {
	stats, err := api.svc.ActivationStats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting activations")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *cardApi) recentInactive(ctx echo.Context) error {
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))

	acts, err := api.svc.RecentInactive(ctx.Request().Context(), limit)
	if err != nil {
		return errors.Wrap(err, "querying recent inactive activations")
	}
	if acts == nil {
		acts = []card.Activation{}
	}
	return ctx.JSON(http.StatusOK, acts)
}

func (api *cardApi) queryEliteCards(ctx echo.Context) error {
	cards, err := api.svc.EliteCards(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying elite cards")
	}
	if cards == nil {
		cards = []card.EliteCard{}
	}
	return ctx.JSON(http.StatusOK, cards)
}

func (api *cardApi) addEliteCard(ctx echo.Context) error {
	var data card.NewEliteCard
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEliteCard")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ec, err := api.svc.AddEliteCard(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding elite card")
	}
	return ctx.JSON(http.StatusCreated, ec)
}

type (
	ApproveCardRequest struct {
		CardURL string `json:"card_url" validate:"required,url"`
	}

	ActivationImportResponse struct {
		Imported  int             `json:"imported"`
		RowErrors []card.RowError `json:"row_errors,omitempty"`
	}
)

func (ar *ApproveCardRequest) Validate() error {
	ar.CardURL = core.CleanString(ar.CardURL)
	return core.Validate.Struct(ar)
}

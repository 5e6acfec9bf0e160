package settings

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/caresuite/claims-api/internal/platform/auth"
	"github.com/caresuite/claims-api/internal/platform/db"
	"github.com/caresuite/claims-api/internal/platform/errs"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin"))
	g.GET("/settings", h.GetSettings)
	g.PUT("/settings", h.UpdateSettings)
}

func (h *Handler) GetSettings(c echo.Context) error {
	locationID := db.LocationFromContext(c.Request().Context())
	s, err := h.repo.Get(c.Request().Context(), locationID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) UpdateSettings(c echo.Context) error {
	var s LocationBillingSettings
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if s.ClaimNumberPrefix == "" {
		err := errs.NewValidation("claim_number_prefix must not be empty")
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	if s.DefaultSessionFee != nil && *s.DefaultSessionFee < 0 {
		err := errs.NewValidation("default_session_fee must not be negative")
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	s.LocationID = db.LocationFromContext(c.Request().Context())
	if err := h.repo.Upsert(c.Request().Context(), &s); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, s)
}

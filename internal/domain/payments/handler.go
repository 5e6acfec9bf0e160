package payments

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caresuite/claims-api/internal/platform/auth"
	"github.com/caresuite/claims-api/internal/platform/db"
	"github.com/caresuite/claims-api/internal/platform/errs"
	"github.com/caresuite/claims-api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "billing"))
	g.POST("/payments", h.AllocatePayment)
	g.GET("/payments", h.ListPayments)
	g.GET("/payments/:id", h.GetPayment)
	g.POST("/payments/:id/retry-sync", h.RetrySync)
	g.GET("/payers", h.ListPayers)
	g.POST("/payers", h.CreatePayer)
	g.GET("/payers/:id", h.GetPayer)
}

func domainError(err error) *echo.HTTPError {
	return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
}

func (h *Handler) AllocatePayment(c echo.Context) error {
	var in AllocatePaymentInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	locationID := db.LocationFromContext(c.Request().Context())
	report, err := h.svc.Allocate(c.Request().Context(), locationID, &in)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, report)
}

func (h *Handler) ListPayments(c echo.Context) error {
	pg := pagination.FromContext(c)
	locationID := db.LocationFromContext(c.Request().Context())
	items, total, err := h.svc.ListPayments(c.Request().Context(), locationID, pg.Limit, pg.Offset)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	locationID := db.LocationFromContext(c.Request().Context())
	detail, err := h.svc.GetPayment(c.Request().Context(), locationID, id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) RetrySync(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	locationID := db.LocationFromContext(c.Request().Context())
	report, err := h.svc.RetrySync(c.Request().Context(), locationID, id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) CreatePayer(c echo.Context) error {
	var p Payer
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	locationID := db.LocationFromContext(c.Request().Context())
	if err := h.svc.CreatePayer(c.Request().Context(), locationID, &p); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPayer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	locationID := db.LocationFromContext(c.Request().Context())
	p, err := h.svc.GetPayer(c.Request().Context(), locationID, id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPayers(c echo.Context) error {
	pg := pagination.FromContext(c)
	locationID := db.LocationFromContext(c.Request().Context())
	items, total, err := h.svc.ListPayers(c.Request().Context(), locationID, pg.Limit, pg.Offset)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

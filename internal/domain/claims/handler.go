package claims

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
	g.POST("/claims", h.CreateClaim)
	g.GET("/claims", h.ListClaims)
	g.GET("/claims/:id", h.GetClaim)
	g.PATCH("/claims/:id", h.UpdateClaim)
	g.DELETE("/claims/:id", h.DeleteClaim)
	g.POST("/claims/:id/line-items", h.AddLineItem)
	g.GET("/claims/:id/line-items", h.GetLineItems)
	g.DELETE("/claims/:id/line-items/:lineID", h.DeleteLineItem)
	g.POST("/claims/:id/transitions", h.Transition)
	g.GET("/claims/:id/history", h.GetHistory)
	g.GET("/claims/:id/cms1500", h.GetCMS1500)
}

func domainError(err error) *echo.HTTPError {
	return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
}

// CreateClaimRequest carries the claim plus its initial line items so both
// persist in one transaction.
type CreateClaimRequest struct {
	Claim
	LineItems []*ClaimLineItem `json:"line_items,omitempty"`
}

func (h *Handler) CreateClaim(c echo.Context) error {
	var req CreateClaimRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	locationID := db.LocationFromContext(c.Request().Context())
	if err := h.svc.CreateClaim(c.Request().Context(), locationID, &req.Claim, req.LineItems); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, req.Claim)
}

func (h *Handler) GetClaim(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	locationID := db.LocationFromContext(c.Request().Context())
	claim, err := h.svc.GetClaim(c.Request().Context(), locationID, id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, claim)
}

func (h *Handler) ListClaims(c echo.Context) error {
	pg := pagination.FromContext(c)
	locationID := db.LocationFromContext(c.Request().Context())
	status := ClaimStatus(c.QueryParam("status"))
	items, total, err := h.svc.ListClaims(c.Request().Context(), locationID, status, pg.Limit, pg.Offset)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateClaim(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in UpdateClaimInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	locationID := db.LocationFromContext(c.Request().Context())
	claim, err := h.svc.UpdateClaim(c.Request().Context(), locationID, id, &in)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, claim)
}

func (h *Handler) DeleteClaim(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	locationID := db.LocationFromContext(c.Request().Context())
	if err := h.svc.DeleteClaim(c.Request().Context(), locationID, id); err != nil {
		return domainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AddLineItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var li ClaimLineItem
	if err := c.Bind(&li); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	locationID := db.LocationFromContext(c.Request().Context())
	if err := h.svc.AddLineItem(c.Request().Context(), locationID, id, &li); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, li)
}

func (h *Handler) GetLineItems(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	locationID := db.LocationFromContext(c.Request().Context())
	items, err := h.svc.GetLineItems(c.Request().Context(), locationID, id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) DeleteLineItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	lineID, err := uuid.Parse(c.Param("lineID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid line item id")
	}
	locationID := db.LocationFromContext(c.Request().Context())
	if err := h.svc.DeleteLineItem(c.Request().Context(), locationID, id, lineID); err != nil {
		return domainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// TransitionResponse returns the updated claim plus any scrub warnings.
type TransitionResponse struct {
	Claim    *Claim   `json:"claim"`
	Warnings []string `json:"warnings,omitempty"`
}

func (h *Handler) Transition(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in TransitionInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	locationID := db.LocationFromContext(c.Request().Context())
	claim, scrub, err := h.svc.Transition(c.Request().Context(), locationID, id, &in)
	if err != nil {
		return domainError(err)
	}
	resp := TransitionResponse{Claim: claim}
	if scrub != nil {
		resp.Warnings = scrub.Warnings
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetHistory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	locationID := db.LocationFromContext(c.Request().Context())
	items, err := h.svc.GetHistory(c.Request().Context(), locationID, id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetCMS1500(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	locationID := db.LocationFromContext(c.Request().Context())
	view, err := h.svc.RenderCMS1500(c.Request().Context(), locationID, id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, view)
}

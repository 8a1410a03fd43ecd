package procedure

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bloodlink/bloodlink/internal/domain/registration"
	"github.com/bloodlink/bloodlink/internal/platform/apiresp"
	"github.com/bloodlink/bloodlink/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/blood-registrations/:id", auth.RequireRole(auth.RoleStaff))
	g.POST("/health-procedures", h.RecordHealth)
	g.POST("/blood-procedures/collect", h.Collect)
	g.POST("/blood-procedures/qualify", h.Qualify)
	g.GET("/procedures", h.Get)
}

func registrationID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid registration id")
	}
	return id, nil
}

func (h *Handler) RecordHealth(c echo.Context) error {
	id, err := registrationID(c)
	if err != nil {
		return err
	}
	var req HealthRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	out, err := h.svc.RecordHealth(c.Request().Context(), id, auth.CurrentSession(c).UserID, req)
	if err != nil {
		return httpError(err)
	}
	msg := "donor approved"
	if !out.Result.Qualified {
		msg = "donor not eligible"
	}
	return apiresp.Created(c, msg, out)
}

func (h *Handler) Collect(c echo.Context) error {
	id, err := registrationID(c)
	if err != nil {
		return err
	}
	var req CollectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := h.svc.Collect(c.Request().Context(), id, auth.CurrentSession(c).UserID, req)
	if err != nil {
		return httpError(err)
	}
	return apiresp.Created(c, "blood collected", p)
}

func (h *Handler) Qualify(c echo.Context) error {
	id, err := registrationID(c)
	if err != nil {
		return err
	}
	var req QualifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	out, err := h.svc.Qualify(c.Request().Context(), id, auth.CurrentSession(c).UserID, req)
	if err != nil {
		return httpError(err)
	}
	msg := "unit qualified"
	if !out.Result.Qualified {
		msg = "unit not qualified"
	}
	return apiresp.OK(c, msg, out)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := registrationID(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return apiresp.OK(c, "", rec)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, registration.ErrNotFound), errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrWrongStage), errors.Is(err, ErrAlreadyRecorded),
		errors.Is(err, ErrAlreadyQualified), errors.Is(err, ErrNotCollected),
		errors.Is(err, registration.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return err
}

package registration

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bloodlink/bloodlink/internal/domain/account"
	"github.com/bloodlink/bloodlink/internal/domain/event"
	"github.com/bloodlink/bloodlink/internal/platform/apiresp"
	"github.com/bloodlink/bloodlink/internal/platform/auth"
	"github.com/bloodlink/bloodlink/internal/platform/export"
	"github.com/bloodlink/bloodlink/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	member := auth.RequireRole(auth.RoleMember)
	staff := auth.RequireRole(auth.RoleStaff)

	api.POST("/events/:id/blood-registrations", h.Create, member)
	api.GET("/events/:id/blood-registrations", h.ListByEvent, staff)
	api.GET("/event-registration-history", h.History, member)
	api.GET("/blood-registrations/:id", h.Get, staff)
	api.PUT("/blood-registrations/:id/reject", h.Reject, staff)
	api.PUT("/blood-registrations/:id/cancel", h.Cancel, member)
}

func (h *Handler) Create(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	reg, err := h.svc.Create(c.Request().Context(), eventID, auth.CurrentSession(c).UserID, req)
	if err != nil {
		return httpError(err)
	}
	return apiresp.Created(c, "registration submitted", reg)
}

func (h *Handler) ListByEvent(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}
	q := pagination.FromContext(c)
	if format := pagination.ExportFormat(c); format != "" {
		all, err := h.svc.ExportByEvent(c.Request().Context(), eventID, q)
		if err != nil {
			return httpError(err)
		}
		rows := make([][]string, len(all))
		for i, r := range all {
			rows[i] = exportRow(r)
		}
		return export.Send(c, format, "registrations", exportHeaders, rows)
	}

	page, err := h.svc.ListByEvent(c.Request().Context(), eventID, q)
	if err != nil {
		return httpError(err)
	}
	return apiresp.OK(c, "", page)
}

func (h *Handler) History(c echo.Context) error {
	page, err := h.svc.History(c.Request().Context(), auth.CurrentSession(c).UserID, pagination.FromContext(c))
	if err != nil {
		return err
	}
	return apiresp.OK(c, "", page)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid registration id")
	}
	reg, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return apiresp.OK(c, "", reg)
}

func (h *Handler) Reject(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid registration id")
	}
	var req RejectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	reg, err := h.svc.Reject(c.Request().Context(), id, req)
	if err != nil {
		return httpError(err)
	}
	return apiresp.OK(c, "registration rejected", reg)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid registration id")
	}
	reg, err := h.svc.Cancel(c.Request().Context(), id, auth.CurrentSession(c).UserID)
	if err != nil {
		return httpError(err)
	}
	return apiresp.OK(c, "registration cancelled", reg)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, event.ErrNotFound), errors.Is(err, account.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicate), errors.Is(err, event.ErrFull),
		errors.Is(err, ErrEventClosed), errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrIncompatible), errors.Is(err, ErrBloodTypeUnknown):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	return err
}

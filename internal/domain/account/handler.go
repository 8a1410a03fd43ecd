package account

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

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

// RegisterRoutes mounts the auth and account endpoints on api and the
// staff creation endpoint on root.
func (h *Handler) RegisterRoutes(api, root *echo.Group) {
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	api.POST("/auth/logout", h.Logout, auth.RequireAuth())
	api.GET("/auth/me", h.Me, auth.RequireAuth())
	api.PUT("/accounts/me", h.UpdateMe, auth.RequireAuth())

	admin := api.Group("/accounts", auth.RequireRole(auth.RoleAdmin))
	admin.GET("", h.List)
	admin.PUT("/:id/status", h.UpdateStatus)

	root.POST("/add-staff", h.AddStaff, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return apiresp.Created(c, "account created", a)
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return apiresp.OK(c, "login successful", res)
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.svc.Logout(c.Request().Context(), auth.CurrentSession(c)); err != nil {
		return err
	}
	return apiresp.OK(c, "logged out", nil)
}

func (h *Handler) Me(c echo.Context) error {
	a, err := h.svc.Get(c.Request().Context(), auth.CurrentSession(c).UserID)
	if err != nil {
		return httpError(err)
	}
	return apiresp.OK(c, "", a)
}

func (h *Handler) UpdateMe(c echo.Context) error {
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.UpdateProfile(c.Request().Context(), auth.CurrentSession(c).UserID, req)
	if err != nil {
		return httpError(err)
	}
	return apiresp.OK(c, "profile updated", a)
}

func (h *Handler) AddStaff(c echo.Context) error {
	var req AddStaffRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.AddStaff(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return apiresp.Created(c, "staff account created", a)
}

func (h *Handler) List(c echo.Context) error {
	q := pagination.FromContext(c)
	if format := pagination.ExportFormat(c); format != "" {
		all, err := h.svc.Export(c.Request().Context(), q)
		if err != nil {
			return err
		}
		rows := make([][]string, len(all))
		for i, a := range all {
			rows[i] = exportRow(a)
		}
		return export.Send(c, format, "accounts", exportHeaders, rows)
	}

	page, err := h.svc.List(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return apiresp.OK(c, "", page)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid account id")
	}
	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if s := auth.CurrentSession(c); s != nil && s.UserID == id && req.Status == StatusDisabled {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot disable your own account")
	}
	a, err := h.svc.UpdateStatus(c.Request().Context(), id, req)
	if err != nil {
		return httpError(err)
	}
	return apiresp.OK(c, "status updated", a)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrDisabled):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrPasswordTooLong):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return err
}

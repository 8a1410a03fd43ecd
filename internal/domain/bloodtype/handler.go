package bloodtype

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bloodlink/bloodlink/internal/platform/apiresp"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes mounts the public reference-data endpoints.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/blood-types", h.ListBloodTypes)
	api.GET("/blood-components", h.ListComponents)
	api.GET("/compatibility", h.GetCompatibility)
}

type catalogItem struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	ABO  ABO    `json:"abo"`
	Rh   Rh     `json:"rh"`
}

type componentItem struct {
	ID            int       `json:"id"`
	Code          Component `json:"code"`
	ShelfLifeDays int       `json:"shelfLifeDays"`
}

func (h *Handler) ListBloodTypes(c echo.Context) error {
	all := All()
	items := make([]catalogItem, len(all))
	for i, t := range all {
		items[i] = catalogItem{ID: t.ID(), Code: t.String(), ABO: t.ABO, Rh: t.Rh}
	}
	return apiresp.OK(c, "", items)
}

func (h *Handler) ListComponents(c echo.Context) error {
	all := Components()
	items := make([]componentItem, len(all))
	for i, comp := range all {
		items[i] = componentItem{ID: comp.ID(), Code: comp, ShelfLifeDays: int(comp.ShelfLife().Hours() / 24)}
	}
	return apiresp.OK(c, "", items)
}

// GetCompatibility handles GET /compatibility?type=AB%2B&component=plasma.
// The component defaults to whole blood.
func (h *Handler) GetCompatibility(c echo.Context) error {
	t, err := New(c.QueryParam("type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	comp := WholeBlood
	if raw := c.QueryParam("component"); raw != "" {
		comp, err = ParseComponent(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return apiresp.OK(c, "", Compatibility(t, comp))
}

package report

import (
	"time"

	"github.com/bloodlink/bloodlink/internal/domain/bloodtype"
)

// Stats is the dashboard summary.
type Stats struct {
	AccountsByRole        map[string]int `json:"accountsByRole"`
	EventsByStatus        map[string]int `json:"eventsByStatus"`
	RegistrationsByStatus map[string]int `json:"registrationsByStatus"`
	AvailableUnits        int            `json:"availableUnits"`
	GeneratedAt           time.Time      `json:"generatedAt"`
}

// StockLevel is the available stock of one blood type and component.
type StockLevel struct {
	BloodTypeID int                 `json:"bloodTypeId"`
	BloodType   bloodtype.BloodType `json:"bloodType"`
	ComponentID int                 `json:"componentId"`
	Component   bloodtype.Component `json:"component"`
	Units       int                 `json:"units"`
	VolumeML    int                 `json:"volume"`
}

// StockRow is one aggregated row as returned by the store. Cells without
// units are absent.
type StockRow struct {
	BloodTypeID int
	ComponentID int
	Units       int
	VolumeML    int
}

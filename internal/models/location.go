package models

import (
	"time"

	"github.com/flyMoon99/fysl/internal/pkg/coord"
)

// Location — неизменяемый замер положения устройства. CreatedAt хранит
// исходное время замера (не время вставки) и служит ключом дедупликации.
type Location struct {
	ID               int64        `json:"id"`
	DeviceID         int64        `json:"device_id"`
	Longitude        float64      `json:"longitude"`
	Latitude         float64      `json:"latitude"`
	CoordinateSystem coord.System `json:"coordinate_system"`
	Address          *string      `json:"address,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
}

// LocationGroup — группа записей с одинаковыми (longitude, latitude, created_at).
// IDs отсортированы по возрастанию, первый — самая ранняя вставка.
type LocationGroup struct {
	Longitude float64
	Latitude  float64
	CreatedAt time.Time
	IDs       []int64
}

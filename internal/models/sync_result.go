package models

import "time"

// Результаты операций синхронизации. Не сохраняются — возвращаются
// вызывающему, логируются и забываются.

type DeviceSyncError struct {
	DeviceNumber string `json:"device_number"`
	Error        string `json:"error"`
}

type RosterSyncResult struct {
	Total   int               `json:"total"`
	Created int               `json:"created"`
	Updated int               `json:"updated"`
	Errors  []DeviceSyncError `json:"errors"`
}

type PointSyncError struct {
	Timestamp time.Time `json:"timestamp"`
	Longitude float64   `json:"longitude"`
	Latitude  float64   `json:"latitude"`
	Error     string    `json:"error"`
}

type TrackSyncResult struct {
	DeviceNumber    string           `json:"device_number"`
	TotalPoints     int              `json:"total_points"`
	SavedPoints     int              `json:"saved_points"`
	DuplicatePoints int              `json:"duplicate_points"`
	Errors          []PointSyncError `json:"errors"`
}

// LocationSnapshot — состояние устройства после синхронизации текущей позиции.
type LocationSnapshot struct {
	DeviceNumber string     `json:"device_number"`
	Status       string     `json:"status"`
	BatteryLevel int        `json:"battery_level"`
	Longitude    float64    `json:"longitude"`
	Latitude     float64    `json:"latitude"`
	UpdateTime   *time.Time `json:"update_time,omitempty"`
}

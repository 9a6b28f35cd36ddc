package models

import "time"

// Статусы устройства. Провайдер отдаёт "1" для онлайна, всё остальное — оффлайн.
const (
	DeviceStatusOnline  = "online"
	DeviceStatusOffline = "offline"
)

type Device struct {
	ID             int64      `json:"id"`
	DeviceNumber   string     `json:"device_number"`
	DeviceAlias    string     `json:"device_alias"`
	DeviceRemarks  string     `json:"device_remarks"`
	Status         string     `json:"status"`
	DeviceModel    string     `json:"device_model"`
	BatteryLevel   int        `json:"battery_level"`
	ServiceStatus  string     `json:"service_status"`
	SettingStatus  string     `json:"setting_status"`
	CustomerID     *int64     `json:"customer_id,omitempty"`
	LastUpdateTime *time.Time `json:"last_update_time,omitempty"`
	LastLongitude  float64    `json:"last_longitude"`
	LastLatitude   float64    `json:"last_latitude"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// DeviceTelemetry — изменяемые поля, которые обновляет каждый путь синхронизации.
// Идентификационные поля устройства не трогаются после создания.
type DeviceTelemetry struct {
	Status         string
	BatteryLevel   int
	LastUpdateTime *time.Time
	LastLongitude  float64
	LastLatitude   float64
}

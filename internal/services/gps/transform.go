package gps

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/flyMoon99/fysl/internal/models"
	"github.com/flyMoon99/fysl/internal/pkg/coord"
)

// Порог, отделяющий секунды от миллисекунд в числовых метках времени.
const maxEpochSeconds = 9999999999

// parseProviderTimestamp нормализует метку времени точки трека.
// Неразборчивое значение — не фатально: подставляется текущее время,
// точка трека остаётся (деградировавшие данные лучше потерянных).
func parseProviderTimestamp(raw json.RawMessage) time.Time {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if v, err := n.Int64(); err == nil {
			if v > maxEpochSeconds {
				return time.UnixMilli(v)
			}
			return time.Unix(v, 0)
		}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
			if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return t
			}
		}
	}

	log.Printf("[gps] неразборчивая метка времени %s, подставлено текущее время", raw)
	return time.Now()
}

func parseRawFloat(raw json.RawMessage) (float64, bool) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if v, err := n.Float64(); err == nil {
			return v, true
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseBattery округляет процент заряда провайдера до целого.
func parseBattery(soc string) int {
	return int(math.Round(parseFloat(soc)))
}

// parseStatus: у провайдера "1" — онлайн, всё остальное — оффлайн.
func parseStatus(status string) string {
	if status == "1" {
		return models.DeviceStatusOnline
	}
	return models.DeviceStatusOffline
}

func parseUploadTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t
		}
	}
	return nil
}

// ToDevice переводит устройство провайдера в локальную форму.
// customer_id не заполняется: привязка клиента — отдельное
// административное действие, из телеметрии она не выводится.
func (d ProviderDevice) ToDevice() models.Device {
	return models.Device{
		DeviceNumber:   d.DeviceID,
		Status:         parseStatus(d.Status),
		BatteryLevel:   parseBattery(d.Soc),
		ServiceStatus:  "active",
		SettingStatus:  "active",
		LastUpdateTime: parseUploadTime(d.LastUploadTime),
		LastLongitude:  parseFloat(d.Longitude),
		LastLatitude:   parseFloat(d.Latitude),
	}
}

// Telemetry — изменяемые поля для обновления уже известного устройства.
func (d ProviderDevice) Telemetry() models.DeviceTelemetry {
	return models.DeviceTelemetry{
		Status:         parseStatus(d.Status),
		BatteryLevel:   parseBattery(d.Soc),
		LastUpdateTime: parseUploadTime(d.LastUploadTime),
		LastLongitude:  parseFloat(d.Longitude),
		LastLatitude:   parseFloat(d.Latitude),
	}
}

// Telemetry для одиночного снимка текущей позиции. Снимок описывает
// «сейчас», поэтому отсутствующая у провайдера метка времени заменяется
// текущим временем, а не остаётся пустой.
func (l CurrentLocation) Telemetry() models.DeviceTelemetry {
	updateTime := parseUploadTime(l.LastUploadTime)
	if updateTime == nil {
		now := time.Now()
		updateTime = &now
	}
	return models.DeviceTelemetry{
		Status:         parseStatus(l.Status),
		BatteryLevel:   parseBattery(l.Soc),
		LastUpdateTime: updateTime,
		LastLongitude:  parseFloat(l.Longitude),
		LastLatitude:   parseFloat(l.Latitude),
	}
}

// HasCoordinate сообщает, есть ли в снимке координата.
func (l CurrentLocation) HasCoordinate() bool {
	return l.Longitude != "" && l.Latitude != ""
}

// ToLocation превращает точку трека в запись Location.
// Провайдер отдаёт координаты в WGS-84.
func (p TrackPoint) ToLocation(deviceID int64) models.Location {
	return models.Location{
		DeviceID:         deviceID,
		Longitude:        p.Longitude,
		Latitude:         p.Latitude,
		CoordinateSystem: coord.WGS84,
		CreatedAt:        p.Timestamp,
	}
}

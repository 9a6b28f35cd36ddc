// handlers/device/device_handler.go
package device

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flyMoon99/fysl/internal/middleware"
	"github.com/flyMoon99/fysl/internal/models"
	"github.com/flyMoon99/fysl/internal/pkg/response"
	"github.com/flyMoon99/fysl/internal/repositories"
)

const (
	maxTrackPoints = 1000
	maxQueryWindow = 7 * 24 * time.Hour
)

type DeviceHandler struct {
	devices   *repositories.DeviceRepository
	locations *repositories.LocationRepository
}

func NewDeviceHandler(devices *repositories.DeviceRepository, locations *repositories.LocationRepository) *DeviceHandler {
	return &DeviceHandler{devices: devices, locations: locations}
}

// loadDevice проверяет существование устройства и доступ к нему: участник
// видит только собственные устройства, администратор — все.
func (h *DeviceHandler) loadDevice(w http.ResponseWriter, r *http.Request) *models.Device {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.RespondWithErrorCode(w, http.StatusBadRequest, "Некорректный ID устройства", "INVALID_DEVICE_ID")
		return nil
	}

	device, err := h.devices.FindByID(r.Context(), id)
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return nil
	}
	if device == nil {
		response.RespondWithErrorCode(w, http.StatusNotFound, "Устройство не существует", "DEVICE_NOT_FOUND")
		return nil
	}

	role, _ := middleware.GetUserRoleFromContext(r.Context())
	if role == "member" {
		userID, _ := middleware.GetUserIDFromContext(r.Context())
		if device.CustomerID == nil || *device.CustomerID != userID {
			response.RespondWithErrorCode(w, http.StatusForbidden, "Нет доступа к устройству", "DEVICE_ACCESS_DENIED")
			return nil
		}
	}
	return device
}

// GetDeviceDetail — карточка устройства с последними замерами.
func (h *DeviceHandler) GetDeviceDetail(w http.ResponseWriter, r *http.Request) {
	device := h.loadDevice(w, r)
	if device == nil {
		return
	}

	recent, err := h.locations.ListRecent(r.Context(), device.ID, 10)
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"device":    device,
		"locations": recent,
	})
}

// GetDeviceMapData — данные для карты: текущая позиция и рамка ~1 км вокруг.
func (h *DeviceHandler) GetDeviceMapData(w http.ResponseWriter, r *http.Request) {
	device := h.loadDevice(w, r)
	if device == nil {
		return
	}

	mapData := map[string]interface{}{
		"device": map[string]interface{}{
			"id":      device.ID,
			"number":  device.DeviceNumber,
			"name":    deviceDisplayName(device),
			"status":  device.Status,
			"battery": device.BatteryLevel,
		},
		"currentLocation": nil,
		"bounds":          nil,
	}

	if device.LastLongitude != 0 && device.LastLatitude != 0 {
		mapData["currentLocation"] = map[string]interface{}{
			"lng":        device.LastLongitude,
			"lat":        device.LastLatitude,
			"updateTime": device.LastUpdateTime,
		}
		const offset = 0.009 // примерно 1 км в градусах
		mapData["bounds"] = map[string]interface{}{
			"northeast": map[string]float64{"lat": device.LastLatitude + offset, "lng": device.LastLongitude + offset},
			"southwest": map[string]float64{"lat": device.LastLatitude - offset, "lng": device.LastLongitude - offset},
		}
	}

	response.RespondWithJSON(w, http.StatusOK, mapData)
}

func deviceDisplayName(d *models.Device) string {
	if d.DeviceAlias != "" {
		return d.DeviceAlias
	}
	return d.DeviceNumber
}

// GetDeviceTrackPoints — точки трека за окно времени (не более 7 дней).
func (h *DeviceHandler) GetDeviceTrackPoints(w http.ResponseWriter, r *http.Request) {
	device := h.loadDevice(w, r)
	if device == nil {
		return
	}

	start, ok := parseTimeParam(r.URL.Query().Get("startTime"))
	if !ok {
		response.RespondWithErrorCode(w, http.StatusBadRequest, "Некорректное время начала", "INVALID_TIME_RANGE")
		return
	}
	end, ok := parseTimeParam(r.URL.Query().Get("endTime"))
	if !ok {
		response.RespondWithErrorCode(w, http.StatusBadRequest, "Некорректное время конца", "INVALID_TIME_RANGE")
		return
	}
	if end.Sub(start) > maxQueryWindow {
		response.RespondWithErrorCode(w, http.StatusBadRequest, "Окно запроса не может превышать 7 дней", "TIME_RANGE_TOO_LARGE")
		return
	}

	limit := maxTrackPoints
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v < maxTrackPoints {
		limit = v
	}

	points, err := h.locations.ListRange(r.Context(), device.ID, start, end, limit)
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	formatted := make([]map[string]interface{}, 0, len(points))
	for _, p := range points {
		address := "地址未解析"
		if p.Address != nil {
			address = *p.Address
		}
		formatted = append(formatted, map[string]interface{}{
			"lng":              p.Longitude,
			"lat":              p.Latitude,
			"timestamp":        p.CreatedAt,
			"coordinateSystem": p.CoordinateSystem,
			"address":          address,
		})
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"deviceId":     device.ID,
		"deviceNumber": device.DeviceNumber,
		"trackPoints":  formatted,
		"totalPoints":  len(formatted),
	})
}

// GetMemberDevices — устройства текущего участника.
func (h *DeviceHandler) GetMemberDevices(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	devices, err := h.devices.ListByCustomer(r.Context(), userID)
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"devices": devices})
}

func parseTimeParam(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

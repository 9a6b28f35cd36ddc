// handlers/device/sync_handler.go — HTTP-обёртки над операциями синхронизации.
package device

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/flyMoon99/fysl/internal/pkg/response"
	"github.com/flyMoon99/fysl/internal/repositories"
	"github.com/flyMoon99/fysl/internal/services/devicesync"
	"github.com/flyMoon99/fysl/internal/services/gps"
)

type SyncHandler struct {
	service *devicesync.Service
	db      *sql.DB
	devices *repositories.DeviceRepository
}

func NewSyncHandler(service *devicesync.Service, db *sql.DB, devices *repositories.DeviceRepository) *SyncHandler {
	return &SyncHandler{service: service, db: db, devices: devices}
}

// respondSyncError переводит ошибку ядра в HTTP-статус. Сырая причина
// видна только в теле ответа, коды — машинно-читаемые.
func respondSyncError(w http.ResponseWriter, err error) {
	var validationErr *devicesync.ValidationError
	var providerErr *gps.ProviderError

	switch {
	case errors.As(err, &validationErr):
		response.RespondWithErrorCode(w, http.StatusBadRequest, validationErr.Reason, "SYNC_VALIDATION_ERROR")
	case errors.Is(err, gps.ErrNotConfigured):
		response.RespondWithErrorCode(w, http.StatusServiceUnavailable, "GPS-провайдер не настроен", "GPS_NOT_CONFIGURED")
	case errors.As(err, &providerErr):
		response.RespondWithErrorCode(w, http.StatusBadGateway, providerErr.Error(), "GPS_PROVIDER_ERROR")
	default:
		response.RespondWithErrorCode(w, http.StatusInternalServerError, err.Error(), "SYNC_ERROR")
	}
}

// SyncAllDevicesHandler — полная сверка ростера.
func (h *SyncHandler) SyncAllDevicesHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.SyncAllDevices(r.Context())
	if err != nil {
		respondSyncError(w, err)
		return
	}
	response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Синхронизация устройств завершена",
		"data":    result,
	})
}

// SyncDeviceTrackHandler — догрузка исторического трека одного устройства.
func (h *SyncHandler) SyncDeviceTrackHandler(w http.ResponseWriter, r *http.Request) {
	deviceNumber := chi.URLParam(r, "deviceNumber")

	var body struct {
		StartTime string `json:"startTime"`
		EndTime   string `json:"endTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.RespondWithErrorCode(w, http.StatusBadRequest, "Некорректное тело запроса", "INVALID_REQUEST")
		return
	}

	start, okStart := parseTimeParam(body.StartTime)
	end, okEnd := parseTimeParam(body.EndTime)
	if !okStart || !okEnd {
		response.RespondWithErrorCode(w, http.StatusBadRequest, "Время начала и конца обязательны", "INVALID_TIME_RANGE")
		return
	}

	result, err := h.service.SyncDeviceTrack(r.Context(), deviceNumber, start, end)
	if err != nil {
		respondSyncError(w, err)
		return
	}
	response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Синхронизация трека завершена",
		"data":    result,
	})
}

// SyncDeviceCurrentLocationHandler — одиночный снимок текущей позиции.
func (h *SyncHandler) SyncDeviceCurrentLocationHandler(w http.ResponseWriter, r *http.Request) {
	deviceNumber := chi.URLParam(r, "deviceNumber")

	snapshot, err := h.service.SyncDeviceCurrentLocation(r.Context(), deviceNumber)
	if err != nil {
		respondSyncError(w, err)
		return
	}
	response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Синхронизация позиции завершена",
		"data":    snapshot,
	})
}

// CleanupLocationsHandler — чистка дублей замеров устройства.
func (h *SyncHandler) CleanupLocationsHandler(w http.ResponseWriter, r *http.Request) {
	deviceID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.RespondWithErrorCode(w, http.StatusBadRequest, "Некорректный ID устройства", "INVALID_DEVICE_ID")
		return
	}

	cleaned, err := h.service.CleanupDuplicateLocations(r.Context(), deviceID)
	if err != nil {
		response.RespondWithErrorCode(w, http.StatusInternalServerError, err.Error(), "CLEANUP_ERROR")
		return
	}
	response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Чистка дублей завершена",
		"data":    map[string]int{"cleanedCount": cleaned},
	})
}

// BatchAssignHandler привязывает устройства к клиенту. customer_id
// заполняется только здесь — синхронизация владельца не назначает.
func (h *SyncHandler) BatchAssignHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DeviceIDs  []int64 `json:"deviceIds"`
		CustomerID int64   `json:"customerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.DeviceIDs) == 0 {
		response.RespondWithErrorCode(w, http.StatusBadRequest, "Список устройств не может быть пустым", "INVALID_DEVICE_IDS")
		return
	}
	if body.CustomerID == 0 {
		response.RespondWithErrorCode(w, http.StatusBadRequest, "ID клиента обязателен", "INVALID_CUSTOMER_ID")
		return
	}

	var customerName string
	err := h.db.QueryRowContext(r.Context(),
		"SELECT username FROM members WHERE id = $1", body.CustomerID).Scan(&customerName)
	if err == sql.ErrNoRows {
		response.RespondWithErrorCode(w, http.StatusNotFound, "Клиент не существует", "CUSTOMER_NOT_FOUND")
		return
	}
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	count, err := h.devices.CountByIDs(r.Context(), body.DeviceIDs)
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if count != len(body.DeviceIDs) {
		response.RespondWithErrorCode(w, http.StatusBadRequest, "Часть устройств не существует", "DEVICES_NOT_FOUND")
		return
	}

	assigned, err := h.devices.BatchAssignCustomer(r.Context(), body.DeviceIDs, body.CustomerID)
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Клиент назначен",
		"data": map[string]interface{}{
			"assignedCount": assigned,
			"customerId":    body.CustomerID,
			"customerName":  customerName,
		},
	})
}

// services/devicesync/service.go — сверка данных GPS-провайдера с локальной базой.
//
// Три операции синхронизации плюс чистка дублей. Каждая операция — короткая
// процедура без персистентного состояния: единственное состояние — строки
// devices и locations. Ошибка начальной выборки у провайдера фатальна для
// операции; ошибки отдельных устройств и точек копятся в результате и не
// прерывают пакет.
package devicesync

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/flyMoon99/fysl/internal/models"
	"github.com/flyMoon99/fysl/internal/pkg/coord"
	"github.com/flyMoon99/fysl/internal/services/geocode"
	"github.com/flyMoon99/fysl/internal/services/gps"
)

// Ограничение окна исторического трека (стоимость у провайдера и в хранилище).
const maxTrackWindow = 7 * 24 * time.Hour

// DeviceStore — доступ к строкам устройств. FindByNumber возвращает (nil, nil),
// если устройство не найдено.
type DeviceStore interface {
	FindByNumber(ctx context.Context, number string) (*models.Device, error)
	Create(ctx context.Context, device *models.Device) error
	UpdateTelemetry(ctx context.Context, deviceID int64, t models.DeviceTelemetry) error
}

// LocationStore — доступ к замерам положения. Create возвращает false без
// ошибки, если строка с тем же (device_id, created_at) уже существует:
// уникальность обеспечивает ограничение в БД, а не только проверка здесь.
type LocationStore interface {
	Exists(ctx context.Context, deviceID int64, createdAt time.Time) (bool, error)
	Create(ctx context.Context, loc *models.Location) (bool, error)
	DuplicateGroups(ctx context.Context, deviceID int64) ([]models.LocationGroup, error)
	Delete(ctx context.Context, id int64) error
}

// Provider — клиент GPS-провайдера (см. services/gps).
type Provider interface {
	ListAllDevices(ctx context.Context, filters gps.DeviceFilters) ([]gps.ProviderDevice, error)
	GetHistoricalTrack(ctx context.Context, gpsno string, start, end time.Time) ([]gps.TrackPoint, error)
	GetCurrentLocation(ctx context.Context, gpsno string) (*gps.CurrentLocation, error)
}

// Geocoder — клиент обратного геокодирования (см. services/geocode).
type Geocoder interface {
	IsAvailable() bool
	ReverseGeocode(ctx context.Context, lng, lat float64, system coord.System) geocode.Result
}

// LivePublisher получает свежие снимки позиций для онлайн-трансляции.
type LivePublisher interface {
	PublishSnapshot(ctx context.Context, snap models.LocationSnapshot)
}

type Service struct {
	devices   DeviceStore
	locations LocationStore
	provider  Provider
	geocoder  Geocoder
	live      LivePublisher // может быть nil
}

func NewService(devices DeviceStore, locations LocationStore, provider Provider, geocoder Geocoder, live LivePublisher) *Service {
	return &Service{
		devices:   devices,
		locations: locations,
		provider:  provider,
		geocoder:  geocoder,
		live:      live,
	}
}

// SyncAllDevices сверяет полный ростер провайдера с локальной базой.
// Известные устройства получают обновление изменяемых полей, новые
// создаются с пустым customer_id: владельца назначает администратор
// отдельной операцией, из телеметрии он не выводится.
func (s *Service) SyncAllDevices(ctx context.Context) (*models.RosterSyncResult, error) {
	result := &models.RosterSyncResult{Errors: []models.DeviceSyncError{}}

	log.Println("[device-sync] запрашиваем ростер устройств у провайдера...")
	providerDevices, err := s.provider.ListAllDevices(ctx, gps.DeviceFilters{})
	if err != nil {
		return nil, err
	}
	result.Total = len(providerDevices)

	for _, pd := range providerDevices {
		if err := s.syncSingleDevice(ctx, pd, result); err != nil {
			log.Printf("[device-sync] устройство %s: %v", pd.DeviceID, err)
			result.Errors = append(result.Errors, models.DeviceSyncError{
				DeviceNumber: pd.DeviceID,
				Error:        err.Error(),
			})
		}
	}

	log.Printf("[device-sync] готово: всего %d, создано %d, обновлено %d, ошибок %d",
		result.Total, result.Created, result.Updated, len(result.Errors))
	return result, nil
}

func (s *Service) syncSingleDevice(ctx context.Context, pd gps.ProviderDevice, result *models.RosterSyncResult) error {
	existing, err := s.devices.FindByNumber(ctx, pd.DeviceID)
	if err != nil {
		return err
	}

	if existing != nil {
		if err := s.devices.UpdateTelemetry(ctx, existing.ID, pd.Telemetry()); err != nil {
			return err
		}
		result.Updated++
		return nil
	}

	device := pd.ToDevice()
	if err := s.devices.Create(ctx, &device); err != nil {
		return err
	}
	result.Created++
	return nil
}

// SyncDeviceTrack догружает исторический трек устройства за окно времени.
// Ключ идемпотентности — (device_id, created_at), где created_at — исходное
// время замера: повторный прогон пересекающегося окна не плодит дублей.
func (s *Service) SyncDeviceTrack(ctx context.Context, deviceNumber string, start, end time.Time) (*models.TrackSyncResult, error) {
	result := &models.TrackSyncResult{DeviceNumber: deviceNumber, Errors: []models.PointSyncError{}}

	// Валидация до обращения к провайдеру: не тратим квоту на заведомо плохой запрос.
	device, err := s.devices.FindByNumber(ctx, deviceNumber)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, validationErrorf("устройство %s не существует", deviceNumber)
	}

	now := time.Now()
	if start.After(now) || end.After(now) {
		return nil, validationErrorf("нельзя запрашивать трек за будущее время")
	}
	if !start.Before(end) {
		return nil, validationErrorf("начало окна должно быть раньше конца")
	}
	if end.Sub(start) > maxTrackWindow {
		return nil, validationErrorf("окно трека не может превышать 7 дней")
	}

	points, err := s.provider.GetHistoricalTrack(ctx, deviceNumber, start, end)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		log.Printf("[track-sync] %s: нет данных за указанное окно", deviceNumber)
		return result, nil
	}
	result.TotalPoints = len(points)

	for _, point := range points {
		loc := point.ToLocation(device.ID)

		exists, err := s.locations.Exists(ctx, device.ID, loc.CreatedAt)
		if err != nil {
			result.Errors = append(result.Errors, pointError(point, err))
			continue
		}
		if exists {
			result.DuplicatePoints++
			continue
		}

		address := s.resolveAddress(ctx, loc.Longitude, loc.Latitude)
		loc.Address = &address

		inserted, err := s.locations.Create(ctx, &loc)
		switch {
		case err != nil:
			result.Errors = append(result.Errors, pointError(point, err))
		case !inserted:
			// Конкурентный прогон того же окна успел первым.
			result.DuplicatePoints++
		default:
			result.SavedPoints++
		}
	}

	log.Printf("[track-sync] %s: точек %d, сохранено %d, дублей %d, ошибок %d",
		deviceNumber, result.TotalPoints, result.SavedPoints, result.DuplicatePoints, len(result.Errors))
	return result, nil
}

func pointError(point gps.TrackPoint, err error) models.PointSyncError {
	return models.PointSyncError{
		Timestamp: point.Timestamp,
		Longitude: point.Longitude,
		Latitude:  point.Latitude,
		Error:     err.Error(),
	}
}

// SyncDeviceCurrentLocation забирает одиночный снимок текущей позиции,
// обновляет изменяемые поля устройства и, если в снимке есть координата,
// добавляет свежую строку Location. Дедупликации здесь нет намеренно:
// каждый опрос — это «сейчас», избыточные строки убирает отдельная чистка.
func (s *Service) SyncDeviceCurrentLocation(ctx context.Context, deviceNumber string) (*models.LocationSnapshot, error) {
	device, err := s.devices.FindByNumber(ctx, deviceNumber)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, validationErrorf("устройство %s не существует", deviceNumber)
	}

	current, err := s.provider.GetCurrentLocation(ctx, deviceNumber)
	if err != nil {
		return nil, err
	}

	telemetry := current.Telemetry()
	if err := s.devices.UpdateTelemetry(ctx, device.ID, telemetry); err != nil {
		return nil, fmt.Errorf("не удалось обновить устройство %s: %w", deviceNumber, err)
	}

	if current.HasCoordinate() {
		address := s.resolveAddress(ctx, telemetry.LastLongitude, telemetry.LastLatitude)
		loc := models.Location{
			DeviceID:         device.ID,
			Longitude:        telemetry.LastLongitude,
			Latitude:         telemetry.LastLatitude,
			CoordinateSystem: coord.WGS84,
			Address:          &address,
			CreatedAt:        time.Now(),
		}
		if _, err := s.locations.Create(ctx, &loc); err != nil {
			return nil, fmt.Errorf("не удалось сохранить позицию %s: %w", deviceNumber, err)
		}
	}

	snapshot := &models.LocationSnapshot{
		DeviceNumber: deviceNumber,
		Status:       telemetry.Status,
		BatteryLevel: telemetry.BatteryLevel,
		Longitude:    telemetry.LastLongitude,
		Latitude:     telemetry.LastLatitude,
		UpdateTime:   telemetry.LastUpdateTime,
	}

	if s.live != nil {
		s.live.PublishSnapshot(ctx, *snapshot)
	}

	log.Printf("[location-sync] %s: позиция обновлена", deviceNumber)
	return snapshot, nil
}

// CleanupDuplicateLocations удаляет избыточные строки Location: в каждой
// группе с одинаковыми (longitude, latitude, created_at) остаётся самая
// ранняя вставка. Компенсирует исторические двойные записи; повторный
// запуск удаляет ноль строк.
func (s *Service) CleanupDuplicateLocations(ctx context.Context, deviceID int64) (int, error) {
	groups, err := s.locations.DuplicateGroups(ctx, deviceID)
	if err != nil {
		return 0, err
	}

	cleaned := 0
	for _, group := range groups {
		for _, id := range group.IDs[1:] {
			if err := s.locations.Delete(ctx, id); err != nil {
				return cleaned, err
			}
			cleaned++
		}
	}

	if cleaned > 0 {
		log.Printf("[cleanup] устройство %d: удалено %d дублей", deviceID, cleaned)
	}
	return cleaned, nil
}

// resolveAddress — цепочка деградации: геокодер, затем грубая привязка к
// региону. Разрешение адреса никогда не блокирует сохранение координат.
func (s *Service) resolveAddress(ctx context.Context, lng, lat float64) string {
	if !s.geocoder.IsAvailable() {
		return geocode.ApproximateAddress(lng, lat)
	}

	res := s.geocoder.ReverseGeocode(ctx, lng, lat, coord.WGS84)
	if res.Err != "" || res.Address == "" || res.Address == geocode.FailedAddress {
		return geocode.ApproximateAddress(lng, lat)
	}
	return res.Address
}

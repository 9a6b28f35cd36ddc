// repositories/device_repository.go

package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/flyMoon99/fysl/internal/models"
)

type DeviceRepository struct {
	db *sql.DB
}

func NewDeviceRepository(db *sql.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

const deviceColumns = `
	id, device_number, device_alias, device_remarks, status, device_model,
	battery_level, service_status, setting_status, customer_id,
	last_update_time, last_longitude, last_latitude, created_at, updated_at
`

func scanDevice(row interface{ Scan(...interface{}) error }) (*models.Device, error) {
	var d models.Device
	var customerID sql.NullInt64
	var lastUpdate sql.NullTime
	err := row.Scan(
		&d.ID, &d.DeviceNumber, &d.DeviceAlias, &d.DeviceRemarks, &d.Status,
		&d.DeviceModel, &d.BatteryLevel, &d.ServiceStatus, &d.SettingStatus,
		&customerID, &lastUpdate, &d.LastLongitude, &d.LastLatitude,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if customerID.Valid {
		d.CustomerID = &customerID.Int64
	}
	if lastUpdate.Valid {
		d.LastUpdateTime = &lastUpdate.Time
	}
	return &d, nil
}

// FindByNumber возвращает (nil, nil), если устройства нет.
func (r *DeviceRepository) FindByNumber(ctx context.Context, number string) (*models.Device, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE device_number = $1`, number)
	device, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return device, err
}

func (r *DeviceRepository) FindByID(ctx context.Context, id int64) (*models.Device, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id)
	device, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return device, err
}

func (r *DeviceRepository) Create(ctx context.Context, d *models.Device) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO devices (device_number, device_alias, device_remarks, status,
			device_model, battery_level, service_status, setting_status,
			customer_id, last_update_time, last_longitude, last_latitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`,
		d.DeviceNumber, d.DeviceAlias, d.DeviceRemarks, d.Status,
		d.DeviceModel, d.BatteryLevel, d.ServiceStatus, d.SettingStatus,
		d.CustomerID, d.LastUpdateTime, d.LastLongitude, d.LastLatitude,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

// UpdateTelemetry обновляет только изменяемые поля; идентификационные
// поля устройства после создания не трогаются.
func (r *DeviceRepository) UpdateTelemetry(ctx context.Context, deviceID int64, t models.DeviceTelemetry) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE devices
		SET status = $2, battery_level = $3, last_update_time = $4,
			last_longitude = $5, last_latitude = $6, updated_at = NOW()
		WHERE id = $1`,
		deviceID, t.Status, t.BatteryLevel, t.LastUpdateTime,
		t.LastLongitude, t.LastLatitude,
	)
	return err
}

// BatchAssignCustomer привязывает устройства к клиенту. Единственный путь,
// которым заполняется customer_id.
func (r *DeviceRepository) BatchAssignCustomer(ctx context.Context, deviceIDs []int64, customerID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE devices SET customer_id = $1, updated_at = NOW() WHERE id = ANY($2)`,
		customerID, pq.Array(deviceIDs))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *DeviceRepository) CountByIDs(ctx context.Context, deviceIDs []int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM devices WHERE id = ANY($1)`, pq.Array(deviceIDs)).Scan(&count)
	return count, err
}

// ListByCustomer — устройства одного клиента (личный кабинет участника).
func (r *DeviceRepository) ListByCustomer(ctx context.Context, customerID int64) ([]models.Device, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE customer_id = $1 ORDER BY device_number`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	return devices, rows.Err()
}

// ListAll — полный список для экспорта.
func (r *DeviceRepository) ListAll(ctx context.Context) ([]models.Device, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices ORDER BY device_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	return devices, rows.Err()
}

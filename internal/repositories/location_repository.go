// repositories/location_repository.go

package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/flyMoon99/fysl/internal/models"
)

type LocationRepository struct {
	db *sql.DB
}

func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) Exists(ctx context.Context, deviceID int64, createdAt time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM locations WHERE device_id = $1 AND created_at = $2)`,
		deviceID, createdAt).Scan(&exists)
	return exists, err
}

// Create вставляет замер. Возвращает false без ошибки, если строка с тем же
// (device_id, created_at) уже есть: гонку конкурентных синхронизаций трека
// закрывает ограничение уникальности, а не проверка в коде.
func (r *LocationRepository) Create(ctx context.Context, loc *models.Location) (bool, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO locations (device_id, longitude, latitude, coordinate_system, address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ON CONSTRAINT locations_device_sample_uniq DO NOTHING
		RETURNING id`,
		loc.DeviceID, loc.Longitude, loc.Latitude, loc.CoordinateSystem,
		loc.Address, loc.CreatedAt,
	).Scan(&loc.ID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListRange — точки за окно времени по возрастанию (отрисовка трека).
func (r *LocationRepository) ListRange(ctx context.Context, deviceID int64, start, end time.Time, limit int) ([]models.Location, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, device_id, longitude, latitude, coordinate_system, address, created_at
		FROM locations
		WHERE device_id = $1 AND created_at BETWEEN $2 AND $3
		ORDER BY created_at ASC
		LIMIT $4`,
		deviceID, start, end, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLocations(rows)
}

// ListRecent — последние замеры устройства (карточка устройства).
func (r *LocationRepository) ListRecent(ctx context.Context, deviceID int64, limit int) ([]models.Location, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, device_id, longitude, latitude, coordinate_system, address, created_at
		FROM locations
		WHERE device_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		deviceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLocations(rows)
}

func scanLocations(rows *sql.Rows) ([]models.Location, error) {
	var result []models.Location
	for rows.Next() {
		var loc models.Location
		var address sql.NullString
		if err := rows.Scan(&loc.ID, &loc.DeviceID, &loc.Longitude, &loc.Latitude,
			&loc.CoordinateSystem, &address, &loc.CreatedAt); err != nil {
			return nil, err
		}
		if address.Valid {
			loc.Address = &address.String
		}
		result = append(result, loc)
	}
	return result, rows.Err()
}

// DuplicateGroups возвращает группы замеров с одинаковыми
// (longitude, latitude, created_at); id внутри группы — по возрастанию,
// первый соответствует самой ранней вставке.
func (r *LocationRepository) DuplicateGroups(ctx context.Context, deviceID int64) ([]models.LocationGroup, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT longitude, latitude, created_at, array_agg(id ORDER BY id) AS ids
		FROM locations
		WHERE device_id = $1
		GROUP BY longitude, latitude, created_at
		HAVING COUNT(*) > 1`,
		deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []models.LocationGroup
	for rows.Next() {
		var g models.LocationGroup
		if err := rows.Scan(&g.Longitude, &g.Latitude, &g.CreatedAt, pq.Array(&g.IDs)); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *LocationRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM locations WHERE id = $1`, id)
	return err
}

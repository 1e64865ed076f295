package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/fueltrack/internal/models"
)

const vehicleColumns = `id, name, plate_number, is_active, is_default, notes, created_at, updated_at`

// VehicleRepository 车辆数据仓库
type VehicleRepository struct {
	db *DB
}

var _ models.VehicleStore = (*VehicleRepository)(nil)

// NewVehicleRepository 创建车辆仓库
func NewVehicleRepository(db *DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Insert 新增车辆
func (r *VehicleRepository) Insert(ctx context.Context, v *models.Vehicle) error {
	query := `
		INSERT INTO vehicles (name, plate_number, is_active, is_default, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.Pool.QueryRow(ctx, query,
		v.Name,
		v.PlateNumber,
		v.IsActive,
		v.IsDefault,
		v.Notes,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)

	if err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}
	return nil
}

// Update 更新车辆基础信息
func (r *VehicleRepository) Update(ctx context.Context, v *models.Vehicle) error {
	query := `
		UPDATE vehicles SET
			name = $1,
			plate_number = $2,
			notes = $3,
			updated_at = NOW()
		WHERE id = $4
	`
	tag, err := r.db.Pool.Exec(ctx, query, v.Name, v.PlateNumber, v.Notes, v.ID)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrVehicleNotFound
	}
	return nil
}

// Delete 物理删除车辆
func (r *VehicleRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrVehicleNotFound
	}
	return nil
}

// GetByID 获取车辆
func (r *VehicleRepository) GetByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`
	v, err := scanVehicle(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrVehicleNotFound
		}
		return nil, fmt.Errorf("get vehicle: %w", err)
	}
	return v, nil
}

// List 获取车辆列表，默认车辆在前
func (r *VehicleRepository) List(ctx context.Context, includeInactive bool) ([]*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles`
	if !includeInactive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY is_default DESC, created_at ASC`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*models.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vehicles: %w", err)
	}
	return vehicles, nil
}

// GetDefault 获取默认车辆，没有设置时回退到最早创建的激活车辆
func (r *VehicleRepository) GetDefault(ctx context.Context) (*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE is_default LIMIT 1`
	v, err := scanVehicle(r.db.Pool.QueryRow(ctx, query))
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get default vehicle: %w", err)
	}

	query = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE is_active ORDER BY id ASC LIMIT 1`
	v, err = scanVehicle(r.db.Pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNoVehicle
		}
		return nil, fmt.Errorf("get fallback vehicle: %w", err)
	}
	return v, nil
}

// SetDefault 设置默认车辆。先清除旧标记再设置新标记，
// 两步在同一事务内，配合部分唯一索引保证最多一辆默认车辆。
func (r *VehicleRepository) SetDefault(ctx context.Context, id int64) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE vehicles SET is_default = FALSE WHERE is_default`); err != nil {
		return fmt.Errorf("clear default vehicle: %w", err)
	}

	tag, err := tx.Exec(ctx, `UPDATE vehicles SET is_default = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("set default vehicle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrVehicleNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// SetActive 修改激活标记
func (r *VehicleRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE vehicles SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("set vehicle active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrVehicleNotFound
	}
	return nil
}

// CountRecords 统计车辆拥有的加油记录数
func (r *VehicleRepository) CountRecords(ctx context.Context, vehicleID int64) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM fuel_records WHERE vehicle_id = $1`, vehicleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count vehicle records: %w", err)
	}
	return count, nil
}

func scanVehicle(row pgx.Row) (*models.Vehicle, error) {
	v := &models.Vehicle{}
	err := row.Scan(
		&v.ID,
		&v.Name,
		&v.PlateNumber,
		&v.IsActive,
		&v.IsDefault,
		&v.Notes,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

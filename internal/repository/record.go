package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/fueltrack/internal/models"
)

// recordColumns fuel_records 的查询列
const recordColumns = `id, vehicle_id, refuel_date, fuel_amount, current_mileage, fuel_price, total_cost, notes, calculated_consumption, created_at, updated_at`

// recordOrder 同车辆记录的统一排序。
// id 作为最终兜底，保证里程和日期都相同时重算结果仍然确定。
const recordOrder = `ORDER BY current_mileage ASC, refuel_date ASC, id ASC`

// FuelRecordRepository 加油记录仓库
type FuelRecordRepository struct {
	db *DB
	q  Querier
}

var _ models.RecordStore = (*FuelRecordRepository)(nil)

// NewFuelRecordRepository 创建加油记录仓库
func NewFuelRecordRepository(db *DB) *FuelRecordRepository {
	return &FuelRecordRepository{db: db, q: db.Pool}
}

// WithTx 在单个事务内执行 fn，fn 收到绑定到该事务的仓库。
// 已经处于事务中时直接复用当前事务。
func (r *FuelRecordRepository) WithTx(ctx context.Context, fn func(models.RecordStore) error) error {
	if _, ok := r.q.(pgx.Tx); ok {
		return fn(r)
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&FuelRecordRepository{db: r.db, q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Insert 插入记录
func (r *FuelRecordRepository) Insert(ctx context.Context, rec *models.FuelRecord) error {
	query := `
		INSERT INTO fuel_records (vehicle_id, refuel_date, fuel_amount, current_mileage, fuel_price, total_cost, notes, calculated_consumption)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL)
		RETURNING id, created_at, updated_at
	`
	err := r.q.QueryRow(ctx, query,
		rec.VehicleID,
		rec.RefuelDate,
		rec.FuelAmount,
		rec.CurrentMileage,
		rec.FuelPrice,
		rec.TotalCost,
		rec.Notes,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		return fmt.Errorf("insert fuel record: %w", err)
	}
	return nil
}

// Update 更新记录的业务字段，calculated_consumption 只能经 ApplyConsumption 写入
func (r *FuelRecordRepository) Update(ctx context.Context, rec *models.FuelRecord) error {
	query := `
		UPDATE fuel_records SET
			refuel_date = $1,
			fuel_amount = $2,
			current_mileage = $3,
			fuel_price = $4,
			total_cost = $5,
			notes = $6,
			updated_at = NOW()
		WHERE id = $7
	`
	tag, err := r.q.Exec(ctx, query,
		rec.RefuelDate,
		rec.FuelAmount,
		rec.CurrentMileage,
		rec.FuelPrice,
		rec.TotalCost,
		rec.Notes,
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update fuel record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrRecordNotFound
	}
	return nil
}

// Delete 删除记录
func (r *FuelRecordRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM fuel_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete fuel record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrRecordNotFound
	}
	return nil
}

// GetByID 获取记录
func (r *FuelRecordRepository) GetByID(ctx context.Context, id int64) (*models.FuelRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM fuel_records WHERE id = $1`
	rec, err := scanRecord(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrRecordNotFound
		}
		return nil, fmt.Errorf("get fuel record: %w", err)
	}
	return rec, nil
}

// ListOrdered 获取车辆全部记录 (统一排序)
func (r *FuelRecordRepository) ListOrdered(ctx context.Context, vehicleID int64) ([]*models.FuelRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM fuel_records WHERE vehicle_id = $1 ` + recordOrder
	rows, err := r.q.Query(ctx, query, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("list fuel records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListFromMileage 获取里程 >= fromMileage 的记录 (统一排序)
func (r *FuelRecordRepository) ListFromMileage(ctx context.Context, vehicleID, fromMileage int64) ([]*models.FuelRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM fuel_records WHERE vehicle_id = $1 AND current_mileage >= $2 ` + recordOrder
	rows, err := r.q.Query(ctx, query, vehicleID, fromMileage)
	if err != nil {
		return nil, fmt.Errorf("list fuel records from mileage: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// SeedPredecessor 获取水位线之前排序最大的一条记录，作为范围重算的计算基准
func (r *FuelRecordRepository) SeedPredecessor(ctx context.Context, vehicleID, fromMileage int64) (*models.FuelRecord, error) {
	query := `
		SELECT ` + recordColumns + ` FROM fuel_records
		WHERE vehicle_id = $1 AND current_mileage < $2
		ORDER BY current_mileage DESC, refuel_date DESC, id DESC
		LIMIT 1
	`
	rec, err := scanRecord(r.q.QueryRow(ctx, query, vehicleID, fromMileage))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get seed predecessor: %w", err)
	}
	return rec, nil
}

// MaxMileage 获取车辆当前最大里程
func (r *FuelRecordRepository) MaxMileage(ctx context.Context, vehicleID int64) (int64, bool, error) {
	var max *int64
	err := r.q.QueryRow(ctx, `SELECT MAX(current_mileage) FROM fuel_records WHERE vehicle_id = $1`, vehicleID).Scan(&max)
	if err != nil {
		return 0, false, fmt.Errorf("get max mileage: %w", err)
	}
	if max == nil {
		return 0, false, nil
	}
	return *max, true, nil
}

// ListPaginated 按日期倒序分页获取记录
func (r *FuelRecordRepository) ListPaginated(ctx context.Context, vehicleID int64, limit, offset int) ([]*models.FuelRecord, error) {
	query := `
		SELECT ` + recordColumns + ` FROM fuel_records
		WHERE vehicle_id = $1
		ORDER BY refuel_date DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.q.Query(ctx, query, vehicleID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list fuel records paginated: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Count 获取车辆记录总数
func (r *FuelRecordRepository) Count(ctx context.Context, vehicleID int64) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM fuel_records WHERE vehicle_id = $1`, vehicleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count fuel records: %w", err)
	}
	return count, nil
}

// ApplyConsumption 单条语句批量写入油耗值。
// unnest 展开 id 和油耗两个数组做关联更新，单次往返，
// 只更新 calculated_consumption，不触碰 updated_at。
func (r *FuelRecordRepository) ApplyConsumption(ctx context.Context, updates []models.ConsumptionUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	ids := make([]int64, len(updates))
	values := make([]*float64, len(updates))
	for i, u := range updates {
		ids[i] = u.RecordID
		values[i] = u.Consumption
	}

	query := `
		UPDATE fuel_records AS r
		SET calculated_consumption = u.consumption
		FROM (SELECT unnest($1::bigint[]) AS id, unnest($2::float8[]) AS consumption) AS u
		WHERE r.id = u.id
	`
	if _, err := r.q.Exec(ctx, query, ids, values); err != nil {
		return fmt.Errorf("apply consumption batch: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (*models.FuelRecord, error) {
	rec := &models.FuelRecord{}
	err := row.Scan(
		&rec.ID,
		&rec.VehicleID,
		&rec.RefuelDate,
		&rec.FuelAmount,
		&rec.CurrentMileage,
		&rec.FuelPrice,
		&rec.TotalCost,
		&rec.Notes,
		&rec.CalculatedConsumption,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func scanRecords(rows pgx.Rows) ([]*models.FuelRecord, error) {
	var records []*models.FuelRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fuel record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fuel records: %w", err)
	}
	return records, nil
}

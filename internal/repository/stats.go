package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/fueltrack/internal/models"
)

// StatsRepository 统计数据仓库，所有查询只读
type StatsRepository struct {
	db *DB
}

// NewStatsRepository 创建统计仓库
func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// MainStats 主统计聚合结果，空集时聚合列为 nil
type MainStats struct {
	RecordCount    int64
	AvgConsumption *float64
	TotalFuel      *float64
	TotalCost      *float64
	AvgPrice       *float64
	MaxMileage     *int64
	MinMileage     *int64
}

// RecentMileage 近期里程聚合 (用于日均里程)
type RecentMileage struct {
	FirstDate  *time.Time
	LastDate   *time.Time
	MaxMileage *int64
	MinMileage *int64
}

// GetMainStats 获取车辆主统计
func (r *StatsRepository) GetMainStats(ctx context.Context, vehicleID int64) (*MainStats, error) {
	query := `
		SELECT COUNT(*),
			AVG(calculated_consumption),
			SUM(fuel_amount),
			SUM(total_cost),
			AVG(fuel_price),
			MAX(current_mileage),
			MIN(current_mileage)
		FROM fuel_records WHERE vehicle_id = $1
	`
	s := &MainStats{}
	err := r.db.Pool.QueryRow(ctx, query, vehicleID).Scan(
		&s.RecordCount,
		&s.AvgConsumption,
		&s.TotalFuel,
		&s.TotalCost,
		&s.AvgPrice,
		&s.MaxMileage,
		&s.MinMileage,
	)
	if err != nil {
		return nil, fmt.Errorf("get main stats: %w", err)
	}
	return s, nil
}

// GetLastRefuel 获取最近一次加油，没有记录时返回 nil
func (r *StatsRepository) GetLastRefuel(ctx context.Context, vehicleID int64) (*models.LastRefuel, error) {
	query := `
		SELECT refuel_date, current_mileage, fuel_amount
		FROM fuel_records WHERE vehicle_id = $1
		ORDER BY refuel_date DESC, id DESC LIMIT 1
	`
	last := &models.LastRefuel{}
	err := r.db.Pool.QueryRow(ctx, query, vehicleID).Scan(
		&last.RefuelDate,
		&last.CurrentMileage,
		&last.FuelAmount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get last refuel: %w", err)
	}
	return last, nil
}

// GetCost90Days 获取近90天总花费
func (r *StatsRepository) GetCost90Days(ctx context.Context, vehicleID int64) (float64, error) {
	var total *float64
	query := `
		SELECT SUM(total_cost) FROM fuel_records
		WHERE vehicle_id = $1 AND refuel_date >= CURRENT_DATE - INTERVAL '90 days'
	`
	if err := r.db.Pool.QueryRow(ctx, query, vehicleID).Scan(&total); err != nil {
		return 0, fmt.Errorf("get 90d cost: %w", err)
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// GetRecentMileage 获取近3个月的里程跨度
func (r *StatsRepository) GetRecentMileage(ctx context.Context, vehicleID int64) (*RecentMileage, error) {
	query := `
		SELECT MIN(refuel_date), MAX(refuel_date), MAX(current_mileage), MIN(current_mileage)
		FROM fuel_records
		WHERE vehicle_id = $1 AND refuel_date >= CURRENT_DATE - INTERVAL '3 months'
	`
	rm := &RecentMileage{}
	err := r.db.Pool.QueryRow(ctx, query, vehicleID).Scan(
		&rm.FirstDate,
		&rm.LastDate,
		&rm.MaxMileage,
		&rm.MinMileage,
	)
	if err != nil {
		return nil, fmt.Errorf("get recent mileage: %w", err)
	}
	return rm, nil
}

// GetChartData 获取油耗趋势图数据，months <= 0 表示全部
func (r *StatsRepository) GetChartData(ctx context.Context, vehicleID int64, months int) ([]*models.ChartPoint, error) {
	query := `
		SELECT refuel_date, calculated_consumption, fuel_price
		FROM fuel_records
		WHERE vehicle_id = $1 AND calculated_consumption IS NOT NULL
	`
	args := []any{vehicleID}
	if months > 0 {
		query += ` AND refuel_date >= CURRENT_DATE - make_interval(months => $2)`
		args = append(args, months)
	}
	query += ` ORDER BY refuel_date ASC`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get chart data: %w", err)
	}
	defer rows.Close()

	var points []*models.ChartPoint
	for rows.Next() {
		p := &models.ChartPoint{}
		if err := rows.Scan(&p.RefuelDate, &p.Consumption, &p.FuelPrice); err != nil {
			return nil, fmt.Errorf("scan chart point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chart points: %w", err)
	}
	return points, nil
}

// GetMonthlyStats 获取月度统计
func (r *StatsRepository) GetMonthlyStats(ctx context.Context, vehicleID int64) ([]*models.MonthlyStat, error) {
	query := `
		SELECT to_char(refuel_date, 'YYYY-MM') AS month,
			COUNT(*),
			SUM(fuel_amount),
			SUM(total_cost),
			AVG(calculated_consumption)
		FROM fuel_records WHERE vehicle_id = $1
		GROUP BY to_char(refuel_date, 'YYYY-MM')
		ORDER BY month DESC
	`
	rows, err := r.db.Pool.Query(ctx, query, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("get monthly stats: %w", err)
	}
	defer rows.Close()

	var stats []*models.MonthlyStat
	for rows.Next() {
		m := &models.MonthlyStat{}
		if err := rows.Scan(&m.Month, &m.RefuelCount, &m.TotalFuel, &m.TotalCost, &m.AvgConsumption); err != nil {
			return nil, fmt.Errorf("scan monthly stat: %w", err)
		}
		stats = append(stats, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly stats: %w", err)
	}
	return stats, nil
}

// GetVehicleSummary 获取车辆概要统计 (只统计有油耗值的记录)
func (r *StatsRepository) GetVehicleSummary(ctx context.Context, vehicleID int64) (*models.VehicleSummary, error) {
	query := `
		SELECT COUNT(*),
			COALESCE(SUM(fuel_amount), 0),
			COALESCE(SUM(total_cost), 0),
			COALESCE(AVG(calculated_consumption), 0)
		FROM fuel_records
		WHERE vehicle_id = $1 AND calculated_consumption IS NOT NULL
	`
	s := &models.VehicleSummary{}
	err := r.db.Pool.QueryRow(ctx, query, vehicleID).Scan(
		&s.RecordCount,
		&s.TotalFuel,
		&s.TotalCost,
		&s.AvgConsumption,
	)
	if err != nil {
		return nil, fmt.Errorf("get vehicle summary: %w", err)
	}
	return s, nil
}

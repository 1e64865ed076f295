package service

import (
	"context"
	"fmt"

	"github.com/langchou/fueltrack/internal/models"
)

// ComputeConsumption 按统一排序遍历 records，逐条计算油耗。
// 公式: 上一条记录的加油量 / 里程差 × 100 (升/百公里)，
// 即"上次加的油跑了这段距离"。没有前驱或里程差 <= 0 时油耗为 nil。
// seed 是范围外最近的前驱记录，保证增量重算的第一条结果正确。
// 返回每一条访问过的记录，值未变化的也包含在内 (写入是幂等的)。
func ComputeConsumption(seed *models.FuelRecord, records []*models.FuelRecord) []models.ConsumptionUpdate {
	updates := make([]models.ConsumptionUpdate, 0, len(records))
	prev := seed
	for _, r := range records {
		var consumption *float64
		if prev != nil {
			delta := r.CurrentMileage - prev.CurrentMileage
			if delta > 0 {
				v := prev.FuelAmount / float64(delta) * 100
				consumption = &v
			}
		}
		updates = append(updates, models.ConsumptionUpdate{RecordID: r.ID, Consumption: consumption})
		prev = r
	}
	return updates
}

// Recalculate 重算车辆的油耗。
// fromMileage 为 nil 时全量重算；否则只重算里程 >= fromMileage 的记录，
// 并以水位线之前最近的一条记录作为计算基准。
// 必须和触发它的变更运行在同一事务 (同一 store 快照) 内。
func Recalculate(ctx context.Context, store models.RecordStore, vehicleID int64, fromMileage *int64) ([]models.ConsumptionUpdate, error) {
	var (
		records []*models.FuelRecord
		seed    *models.FuelRecord
		err     error
	)

	if fromMileage == nil {
		records, err = store.ListOrdered(ctx, vehicleID)
		if err != nil {
			return nil, fmt.Errorf("load records: %w", err)
		}
	} else {
		records, err = store.ListFromMileage(ctx, vehicleID, *fromMileage)
		if err != nil {
			return nil, fmt.Errorf("load records from watermark: %w", err)
		}
		seed, err = store.SeedPredecessor(ctx, vehicleID, *fromMileage)
		if err != nil {
			return nil, fmt.Errorf("load seed predecessor: %w", err)
		}
	}

	return ComputeConsumption(seed, records), nil
}

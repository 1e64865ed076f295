package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/fueltrack/internal/models"
)

func rec(id, mileage int64, fuel float64, date string) *models.FuelRecord {
	d, _ := time.Parse("2006-01-02", date)
	return &models.FuelRecord{
		ID:             id,
		VehicleID:      1,
		RefuelDate:     d,
		FuelAmount:     fuel,
		CurrentMileage: mileage,
		FuelPrice:      7.5,
		TotalCost:      fuel * 7.5,
	}
}

func TestComputeConsumptionChain(t *testing.T) {
	records := []*models.FuelRecord{
		rec(1, 1000, 40, "2024-01-01"),
		rec(2, 1400, 45, "2024-01-15"),
		rec(3, 1800, 35, "2024-02-01"),
	}

	updates := ComputeConsumption(nil, records)
	require.Len(t, updates, 3)

	// 第一条没有前驱
	assert.Nil(t, updates[0].Consumption)

	// 40L 跑了 400km => 10 L/100km
	require.NotNil(t, updates[1].Consumption)
	assert.InDelta(t, 10.0, *updates[1].Consumption, 1e-9)

	// 45L 跑了 400km => 11.25 L/100km
	require.NotNil(t, updates[2].Consumption)
	assert.InDelta(t, 11.25, *updates[2].Consumption, 1e-9)
}

func TestComputeConsumptionWithSeed(t *testing.T) {
	seed := rec(1, 1400, 45, "2024-01-15")
	records := []*models.FuelRecord{rec(2, 1800, 35, "2024-02-01")}

	updates := ComputeConsumption(seed, records)
	require.Len(t, updates, 1)
	require.NotNil(t, updates[0].Consumption)
	assert.InDelta(t, 11.25, *updates[0].Consumption, 1e-9)
}

func TestComputeConsumptionNonPositiveDelta(t *testing.T) {
	// 同里程的两条记录，后者里程差为 0
	records := []*models.FuelRecord{
		rec(1, 1400, 40, "2024-01-01"),
		rec(2, 1400, 45, "2024-01-15"),
	}

	updates := ComputeConsumption(nil, records)
	require.Len(t, updates, 2)
	assert.Nil(t, updates[0].Consumption)
	assert.Nil(t, updates[1].Consumption)

	// 里程差为负同样无油耗
	updates = ComputeConsumption(rec(9, 2000, 50, "2023-12-01"), records[:1])
	require.Len(t, updates, 1)
	assert.Nil(t, updates[0].Consumption)
}

func TestComputeConsumptionEmpty(t *testing.T) {
	updates := ComputeConsumption(nil, nil)
	assert.Empty(t, updates)
}

// 增量重算 (水位线 + 种子前驱) 必须和全量重算对范围内的记录给出相同结果
func TestRecalculateIncrementalMatchesFull(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	seedRecords := []*models.FuelRecord{
		rec(0, 1000, 40, "2024-01-01"),
		rec(0, 1400, 45, "2024-01-15"),
		rec(0, 1800, 35, "2024-02-01"),
		rec(0, 2300, 42, "2024-02-20"),
	}
	for _, r := range seedRecords {
		require.NoError(t, store.Insert(ctx, r))
	}

	full, err := Recalculate(ctx, store, 1, nil)
	require.NoError(t, err)
	require.Len(t, full, 4)

	watermark := int64(1800)
	partial, err := Recalculate(ctx, store, 1, &watermark)
	require.NoError(t, err)
	require.Len(t, partial, 2)

	// 范围内的记录: full 的后两条
	for i, u := range partial {
		fullU := full[i+2]
		assert.Equal(t, fullU.RecordID, u.RecordID)
		require.NotNil(t, u.Consumption)
		require.NotNil(t, fullU.Consumption)
		assert.InDelta(t, *fullU.Consumption, *u.Consumption, 1e-9)
	}
}

// 重算是幂等的: 对同一数据重复执行得到相同结果
func TestRecalculateIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.Insert(ctx, rec(0, 1000, 40, "2024-01-01")))
	require.NoError(t, store.Insert(ctx, rec(0, 1400, 45, "2024-01-15")))

	first, err := Recalculate(ctx, store, 1, nil)
	require.NoError(t, err)
	require.NoError(t, store.ApplyConsumption(ctx, first))

	second, err := Recalculate(ctx, store, 1, nil)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].RecordID, second[i].RecordID)
		if first[i].Consumption == nil {
			assert.Nil(t, second[i].Consumption)
			continue
		}
		require.NotNil(t, second[i].Consumption)
		assert.InDelta(t, *first[i].Consumption, *second[i].Consumption, 1e-9)
	}
}

// 日期乱序但里程有序时，排序以里程优先
func TestRecalculateMileageOrderWinsOverDate(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	// 日期更晚但里程更小的记录排在前面
	require.NoError(t, store.Insert(ctx, rec(0, 1400, 45, "2024-01-01")))
	require.NoError(t, store.Insert(ctx, rec(0, 1000, 40, "2024-01-15")))

	updates, err := Recalculate(ctx, store, 1, nil)
	require.NoError(t, err)
	require.Len(t, updates, 2)

	// 里程 1000 的记录排第一，没有前驱
	assert.Nil(t, updates[0].Consumption)
	require.NotNil(t, updates[1].Consumption)
	assert.InDelta(t, 10.0, *updates[1].Consumption, 1e-9)
}

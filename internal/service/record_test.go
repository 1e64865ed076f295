package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"

	"github.com/langchou/fueltrack/internal/models"
)

func newTestRecordService() (*RecordService, *memStore, *memVehicles) {
	store := newMemStore()
	vehicles := newMemVehicles(store)
	vehicles.add(&models.Vehicle{Name: "测试车", IsActive: true, IsDefault: true})
	svc := NewRecordService(zap.NewNop(), store, vehicles, NewValidator(), nil)
	return svc, store, vehicles
}

func input(date string, fuel float64, mileage int64) *models.RecordInput {
	return &models.RecordInput{
		RefuelDate:     date,
		FuelAmount:     fuel,
		CurrentMileage: mileage,
		FuelPrice:      7.5,
		TotalCost:      fuel * 7.5,
	}
}

func TestAddRecordFirstHasNoConsumption(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestRecordService()

	r, err := svc.AddRecord(ctx, 1, input("2024-01-01", 40, 1000))
	require.NoError(t, err)
	assert.Nil(t, r.CalculatedConsumption)
	assert.Nil(t, store.consumption(r.ID))
}

func TestAddRecordComputesFromPredecessor(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestRecordService()

	_, err := svc.AddRecord(ctx, 1, input("2024-01-01", 40, 1000))
	require.NoError(t, err)

	r2, err := svc.AddRecord(ctx, 1, input("2024-01-15", 45, 1400))
	require.NoError(t, err)

	// 上一条加了 40L 跑了 400km
	require.NotNil(t, r2.CalculatedConsumption)
	assert.InDelta(t, 10.0, *r2.CalculatedConsumption, 1e-9)
	require.NotNil(t, store.consumption(r2.ID))
	assert.InDelta(t, 10.0, *store.consumption(r2.ID), 1e-9)
}

func TestAddRecordRejectsNonMonotonicMileage(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestRecordService()

	_, err := svc.AddRecord(ctx, 1, input("2024-01-01", 40, 1400))
	require.NoError(t, err)

	_, err = svc.AddRecord(ctx, 1, input("2024-01-15", 45, 1400))
	require.Error(t, err)

	var oerr *models.OrderingViolationError
	require.True(t, errors.As(err, &oerr))

	// 违规的插入不留痕迹
	count, _ := store.Count(ctx, 1)
	assert.Equal(t, int64(1), count)
}

func TestAddRecordInactiveVehicle(t *testing.T) {
	ctx := context.Background()
	svc, _, vehicles := newTestRecordService()
	v := vehicles.add(&models.Vehicle{Name: "停用车", IsActive: false})

	_, err := svc.AddRecord(ctx, v.ID, input("2024-01-01", 40, 1000))
	assert.ErrorIs(t, err, models.ErrVehicleInactive)
}

func TestAddRecordValidationFailureLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestRecordService()

	in := input("2024-01-01", 0, 1000) // 加油量违规
	_, err := svc.AddRecord(ctx, 1, in)
	require.Error(t, err)
	assert.True(t, models.IsClientError(err))

	count, _ := store.Count(ctx, 1)
	assert.Equal(t, int64(0), count)
}

func TestDeleteRecordRechainsSuccessors(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestRecordService()

	r1, err := svc.AddRecord(ctx, 1, input("2024-01-01", 40, 1000))
	require.NoError(t, err)
	r2, err := svc.AddRecord(ctx, 1, input("2024-01-15", 45, 1400))
	require.NoError(t, err)
	r3, err := svc.AddRecord(ctx, 1, input("2024-02-01", 35, 1800))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRecord(ctx, r2.ID))

	// r3 继承 r1 作为前驱: 40L 跑了 800km => 5 L/100km
	c := store.consumption(r3.ID)
	require.NotNil(t, c)
	assert.InDelta(t, 5.0, *c, 1e-9)
	assert.Nil(t, store.consumption(r1.ID))
}

func TestDeleteFirstRecordClearsSuccessor(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestRecordService()

	r1, err := svc.AddRecord(ctx, 1, input("2024-01-01", 40, 1000))
	require.NoError(t, err)
	r2, err := svc.AddRecord(ctx, 1, input("2024-01-15", 45, 1400))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRecord(ctx, r1.ID))

	// r2 成为第一条记录，油耗清空
	assert.Nil(t, store.consumption(r2.ID))
}

func TestDeleteRecordNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestRecordService()
	assert.ErrorIs(t, svc.DeleteRecord(ctx, 999), models.ErrRecordNotFound)
}

func TestUpdateRecordRecomputesFromLowerWatermark(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestRecordService()

	_, err := svc.AddRecord(ctx, 1, input("2024-01-01", 40, 1000))
	require.NoError(t, err)
	r2, err := svc.AddRecord(ctx, 1, input("2024-01-15", 45, 1400))
	require.NoError(t, err)
	r3, err := svc.AddRecord(ctx, 1, input("2024-02-01", 35, 1800))
	require.NoError(t, err)

	// 把中间记录的里程改大，r2 与 r3 互换位置
	updated, err := svc.UpdateRecord(ctx, r2.ID, input("2024-01-15", 45, 2200))
	require.NoError(t, err)

	// 新序: 1000, 1800, 2200
	// r3: 40L 跑了 800km => 5.0
	c3 := store.consumption(r3.ID)
	require.NotNil(t, c3)
	assert.InDelta(t, 5.0, *c3, 1e-9)

	// r2 (现在最后): 35L 跑了 400km => 8.75
	require.NotNil(t, updated.CalculatedConsumption)
	assert.InDelta(t, 8.75, *updated.CalculatedConsumption, 1e-9)
}

func TestUpdateRecordSameMileageKeepsChain(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestRecordService()

	_, err := svc.AddRecord(ctx, 1, input("2024-01-01", 40, 1000))
	require.NoError(t, err)
	r2, err := svc.AddRecord(ctx, 1, input("2024-01-15", 45, 1400))
	require.NoError(t, err)

	// 只改加油量，位置不变
	updated, err := svc.UpdateRecord(ctx, r2.ID, input("2024-01-15", 50, 1400))
	require.NoError(t, err)

	// 自身油耗仍由前驱决定
	require.NotNil(t, updated.CalculatedConsumption)
	assert.InDelta(t, 10.0, *updated.CalculatedConsumption, 1e-9)

	stored, err := store.GetByID(ctx, r2.ID)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, stored.FuelAmount, 1e-9)
}

func TestApplyFailureRollsBackMutation(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestRecordService()

	_, err := svc.AddRecord(ctx, 1, input("2024-01-01", 40, 1000))
	require.NoError(t, err)

	store.failApply = true
	_, err = svc.AddRecord(ctx, 1, input("2024-01-15", 45, 1400))
	require.Error(t, err)

	// 事务回滚，插入不生效
	count, _ := store.Count(ctx, 1)
	assert.Equal(t, int64(1), count)
}

func TestListRecordsPagination(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestRecordService()

	dates := []string{"2024-01-01", "2024-01-15", "2024-02-01"}
	for i, d := range dates {
		_, err := svc.AddRecord(ctx, 1, input(d, 40, int64(1000+i*400)))
		require.NoError(t, err)
	}

	records, total, err := svc.ListRecords(ctx, 1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, records, 2)

	// 日期倒序
	assert.Equal(t, "2024-02-01", records[0].RefuelDate.Format("2006-01-02"))
	assert.Equal(t, "2024-01-15", records[1].RefuelDate.Format("2006-01-02"))

	records, _, err = svc.ListRecords(ctx, 1, 2, 2)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2024-01-01", records[0].RefuelDate.Format("2006-01-02"))
}

func TestRecalculateAll(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestRecordService()

	r1, err := svc.AddRecord(ctx, 1, input("2024-01-01", 40, 1000))
	require.NoError(t, err)
	r2, err := svc.AddRecord(ctx, 1, input("2024-01-15", 45, 1400))
	require.NoError(t, err)

	// 人为破坏派生值
	bogus := 99.9
	require.NoError(t, store.ApplyConsumption(ctx, []models.ConsumptionUpdate{
		{RecordID: r1.ID, Consumption: &bogus},
		{RecordID: r2.ID, Consumption: &bogus},
	}))

	require.NoError(t, svc.RecalculateAll(ctx, 1))

	assert.Nil(t, store.consumption(r1.ID))
	c2 := store.consumption(r2.ID)
	require.NotNil(t, c2)
	assert.InDelta(t, 10.0, *c2, 1e-9)
}

package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/langchou/fueltrack/internal/models"
	"github.com/langchou/fueltrack/pkg/ws"
)

// RecordService 加油记录服务，负责变更编排:
// Validate → Persist → Recalculate → Apply → Commit，任一步失败整体中止。
// Persist 和 Apply 运行在同一数据库事务中，记录变更和重算出的油耗值
// 要么一起可见，要么一起回滚。
type RecordService struct {
	logger    *zap.Logger
	records   models.RecordStore
	vehicles  models.VehicleStore
	validator *Validator
	wsHub     *ws.Hub // 可为 nil (测试环境)

	// 同一车辆的变更必须串行执行: 重算依赖事务内读到的稳定快照，
	// 并发变更同一车辆会产生过期的派生值。不同车辆互不影响。
	mu           sync.Mutex
	vehicleLocks map[int64]*sync.Mutex
}

// NewRecordService 创建记录服务
func NewRecordService(
	logger *zap.Logger,
	records models.RecordStore,
	vehicles models.VehicleStore,
	validator *Validator,
	wsHub *ws.Hub,
) *RecordService {
	return &RecordService{
		logger:       logger,
		records:      records,
		vehicles:     vehicles,
		validator:    validator,
		wsHub:        wsHub,
		vehicleLocks: make(map[int64]*sync.Mutex),
	}
}

// lockVehicle 获取车辆级互斥锁
func (s *RecordService) lockVehicle(vehicleID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.vehicleLocks[vehicleID]
	if !ok {
		l = &sync.Mutex{}
		s.vehicleLocks[vehicleID] = l
	}
	return l
}

// checkVehicle 确认车辆存在且处于激活状态
func (s *RecordService) checkVehicle(ctx context.Context, vehicleID int64) error {
	v, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return err
	}
	if !v.IsActive {
		return models.ErrVehicleInactive
	}
	return nil
}

// AddRecord 添加加油记录。
// 插入必须满足单调里程约束，因此新记录总是排在最后，
// 重算范围就是新记录本身 (以新里程为水位线)。
func (s *RecordService) AddRecord(ctx context.Context, vehicleID int64, in *models.RecordInput) (*models.FuelRecord, error) {
	if err := s.checkVehicle(ctx, vehicleID); err != nil {
		return nil, err
	}

	lock := s.lockVehicle(vehicleID)
	lock.Lock()
	defer lock.Unlock()

	m := NewMutation(s.logger, "add", StateValidate)

	// 事务外先快速失败，事务内的单调检查才是准绳
	if err := s.validator.ValidateInsert(ctx, s.records, vehicleID, in); err != nil {
		m.Abort(ctx)
		return nil, err
	}

	date, err := in.Date()
	if err != nil {
		m.Abort(ctx)
		return nil, &models.ValidationError{Errors: []string{"refuel_date must be in YYYY-MM-DD format"}}
	}

	rec := &models.FuelRecord{
		VehicleID:      vehicleID,
		RefuelDate:     date,
		FuelAmount:     in.FuelAmount,
		CurrentMileage: in.CurrentMileage,
		FuelPrice:      in.FuelPrice,
		TotalCost:      in.TotalCost,
		Notes:          notesPtr(in.Notes),
	}

	err = s.records.WithTx(ctx, func(tx models.RecordStore) error {
		// 单调里程检查必须读事务内的快照
		max, has, err := tx.MaxMileage(ctx, vehicleID)
		if err != nil {
			return fmt.Errorf("check max mileage: %w", err)
		}
		if has && rec.CurrentMileage <= max {
			return &models.OrderingViolationError{Mileage: rec.CurrentMileage, MaxMileage: max}
		}
		if err := m.Advance(ctx, EventValidated); err != nil {
			return err
		}

		if err := tx.Insert(ctx, rec); err != nil {
			return err
		}
		if err := m.Advance(ctx, EventPersisted); err != nil {
			return err
		}

		updates, err := Recalculate(ctx, tx, vehicleID, &rec.CurrentMileage)
		if err != nil {
			return err
		}
		if err := m.Advance(ctx, EventRecalculated); err != nil {
			return err
		}

		if err := tx.ApplyConsumption(ctx, updates); err != nil {
			return err
		}

		applyTo(rec, updates)
		return nil
	})
	if err != nil {
		m.Abort(ctx)
		return nil, err
	}
	if err := m.Advance(ctx, EventApplied); err != nil {
		return nil, err
	}

	s.logger.Info("Fuel record added",
		zap.Int64("record_id", rec.ID),
		zap.Int64("vehicle_id", vehicleID),
		zap.Int64("mileage", rec.CurrentMileage))
	s.notifyChange(vehicleID)

	return rec, nil
}

// UpdateRecord 更新加油记录。
// 里程或日期变化会改变记录在序中的位置，新旧里程之间的记录
// 可能获得或失去前驱，因此以 min(旧里程, 新里程) 为水位线重算。
func (s *RecordService) UpdateRecord(ctx context.Context, id int64, in *models.RecordInput) (*models.FuelRecord, error) {
	existing, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	vehicleID := existing.VehicleID

	if err := s.checkVehicle(ctx, vehicleID); err != nil {
		return nil, err
	}

	lock := s.lockVehicle(vehicleID)
	lock.Lock()
	defer lock.Unlock()

	m := NewMutation(s.logger, "update", StateValidate)

	// 更新模式不做单调里程检查，乱序由重算引擎兜底
	if err := s.validator.ValidateRecord(in); err != nil {
		m.Abort(ctx)
		return nil, err
	}

	date, err := in.Date()
	if err != nil {
		m.Abort(ctx)
		return nil, &models.ValidationError{Errors: []string{"refuel_date must be in YYYY-MM-DD format"}}
	}
	if err := m.Advance(ctx, EventValidated); err != nil {
		return nil, err
	}

	var rec *models.FuelRecord
	err = s.records.WithTx(ctx, func(tx models.RecordStore) error {
		// 事务内重读，拿到稳定的旧里程
		old, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}

		rec = &models.FuelRecord{
			ID:             id,
			VehicleID:      old.VehicleID,
			RefuelDate:     date,
			FuelAmount:     in.FuelAmount,
			CurrentMileage: in.CurrentMileage,
			FuelPrice:      in.FuelPrice,
			TotalCost:      in.TotalCost,
			Notes:          notesPtr(in.Notes),
			CreatedAt:      old.CreatedAt,
		}
		if err := tx.Update(ctx, rec); err != nil {
			return err
		}
		if err := m.Advance(ctx, EventPersisted); err != nil {
			return err
		}

		from := old.CurrentMileage
		if rec.CurrentMileage < from {
			from = rec.CurrentMileage
		}
		updates, err := Recalculate(ctx, tx, vehicleID, &from)
		if err != nil {
			return err
		}
		if err := m.Advance(ctx, EventRecalculated); err != nil {
			return err
		}

		if err := tx.ApplyConsumption(ctx, updates); err != nil {
			return err
		}

		applyTo(rec, updates)
		return nil
	})
	if err != nil {
		m.Abort(ctx)
		return nil, err
	}
	if err := m.Advance(ctx, EventApplied); err != nil {
		return nil, err
	}

	s.logger.Info("Fuel record updated",
		zap.Int64("record_id", id),
		zap.Int64("vehicle_id", vehicleID))
	s.notifyChange(vehicleID)

	return rec, nil
}

// DeleteRecord 删除加油记录。
// 被删记录之后的记录会继承新的前驱 (或失去前驱)，
// 以被删记录的里程为水位线重算。删除没有校验阶段。
func (s *RecordService) DeleteRecord(ctx context.Context, id int64) error {
	existing, err := s.records.GetByID(ctx, id)
	if err != nil {
		return err
	}
	vehicleID := existing.VehicleID
	deletedMileage := existing.CurrentMileage

	lock := s.lockVehicle(vehicleID)
	lock.Lock()
	defer lock.Unlock()

	m := NewMutation(s.logger, "delete", StatePersist)

	err = s.records.WithTx(ctx, func(tx models.RecordStore) error {
		if err := tx.Delete(ctx, id); err != nil {
			return err
		}
		if err := m.Advance(ctx, EventPersisted); err != nil {
			return err
		}

		updates, err := Recalculate(ctx, tx, vehicleID, &deletedMileage)
		if err != nil {
			return err
		}
		if err := m.Advance(ctx, EventRecalculated); err != nil {
			return err
		}

		return tx.ApplyConsumption(ctx, updates)
	})
	if err != nil {
		m.Abort(ctx)
		return err
	}
	if err := m.Advance(ctx, EventApplied); err != nil {
		return err
	}

	s.logger.Info("Fuel record deleted",
		zap.Int64("record_id", id),
		zap.Int64("vehicle_id", vehicleID))
	s.notifyChange(vehicleID)

	return nil
}

// GetRecord 获取单条记录
func (s *RecordService) GetRecord(ctx context.Context, id int64) (*models.FuelRecord, error) {
	return s.records.GetByID(ctx, id)
}

// GetRecordsOrdered 按统一排序获取车辆全部记录，只读不触发重算
func (s *RecordService) GetRecordsOrdered(ctx context.Context, vehicleID int64) ([]*models.FuelRecord, error) {
	return s.records.ListOrdered(ctx, vehicleID)
}

// ListRecords 按日期倒序分页获取记录
func (s *RecordService) ListRecords(ctx context.Context, vehicleID int64, page, perPage int) ([]*models.FuelRecord, int64, error) {
	offset := (page - 1) * perPage
	records, err := s.records.ListPaginated(ctx, vehicleID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.records.Count(ctx, vehicleID)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// RecalculateAll 全量重算车辆油耗 (维护入口，变更路径走增量重算)
func (s *RecordService) RecalculateAll(ctx context.Context, vehicleID int64) error {
	lock := s.lockVehicle(vehicleID)
	lock.Lock()
	defer lock.Unlock()

	err := s.records.WithTx(ctx, func(tx models.RecordStore) error {
		updates, err := Recalculate(ctx, tx, vehicleID, nil)
		if err != nil {
			return err
		}
		return tx.ApplyConsumption(ctx, updates)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Full consumption recalculated", zap.Int64("vehicle_id", vehicleID))
	s.notifyChange(vehicleID)
	return nil
}

// notifyChange 变更提交后推送 WebSocket 通知
func (s *RecordService) notifyChange(vehicleID int64) {
	if s.wsHub == nil {
		return
	}
	s.wsHub.BroadcastRecordUpdate(map[string]int64{"vehicle_id": vehicleID})
}

// applyTo 把重算结果中属于 rec 的油耗值回填到返回对象
func applyTo(rec *models.FuelRecord, updates []models.ConsumptionUpdate) {
	for _, u := range updates {
		if u.RecordID == rec.ID {
			rec.CalculatedConsumption = u.Consumption
			return
		}
	}
}

func notesPtr(notes string) *string {
	if notes == "" {
		return nil
	}
	return &notes
}

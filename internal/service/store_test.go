package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/langchou/fueltrack/internal/models"
)

// memStore 内存版 RecordStore，WithTx 以快照回滚模拟事务语义
type memStore struct {
	nextID    int64
	records   map[int64]*models.FuelRecord
	failApply bool
}

func newMemStore() *memStore {
	return &memStore{records: make(map[int64]*models.FuelRecord)}
}

func (m *memStore) Insert(ctx context.Context, r *models.FuelRecord) error {
	m.nextID++
	r.ID = m.nextID
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	m.records[r.ID] = &cp
	return nil
}

func (m *memStore) Update(ctx context.Context, r *models.FuelRecord) error {
	if _, ok := m.records[r.ID]; !ok {
		return models.ErrRecordNotFound
	}
	r.UpdatedAt = time.Now()
	cp := *r
	m.records[r.ID] = &cp
	return nil
}

func (m *memStore) Delete(ctx context.Context, id int64) error {
	if _, ok := m.records[id]; !ok {
		return models.ErrRecordNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id int64) (*models.FuelRecord, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) ordered(vehicleID int64) []*models.FuelRecord {
	var out []*models.FuelRecord
	for _, r := range m.records {
		if r.VehicleID == vehicleID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (m *memStore) ListOrdered(ctx context.Context, vehicleID int64) ([]*models.FuelRecord, error) {
	return m.ordered(vehicleID), nil
}

func (m *memStore) ListFromMileage(ctx context.Context, vehicleID, fromMileage int64) ([]*models.FuelRecord, error) {
	var out []*models.FuelRecord
	for _, r := range m.ordered(vehicleID) {
		if r.CurrentMileage >= fromMileage {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) SeedPredecessor(ctx context.Context, vehicleID, fromMileage int64) (*models.FuelRecord, error) {
	var seed *models.FuelRecord
	for _, r := range m.ordered(vehicleID) {
		if r.CurrentMileage < fromMileage {
			seed = r
		}
	}
	return seed, nil
}

func (m *memStore) MaxMileage(ctx context.Context, vehicleID int64) (int64, bool, error) {
	records := m.ordered(vehicleID)
	if len(records) == 0 {
		return 0, false, nil
	}
	return records[len(records)-1].CurrentMileage, true, nil
}

func (m *memStore) ListPaginated(ctx context.Context, vehicleID int64, limit, offset int) ([]*models.FuelRecord, error) {
	records := m.ordered(vehicleID)
	sort.Slice(records, func(i, j int) bool {
		if !records[i].RefuelDate.Equal(records[j].RefuelDate) {
			return records[i].RefuelDate.After(records[j].RefuelDate)
		}
		return records[i].ID > records[j].ID
	})
	if offset >= len(records) {
		return nil, nil
	}
	end := offset + limit
	if end > len(records) {
		end = len(records)
	}
	return records[offset:end], nil
}

func (m *memStore) Count(ctx context.Context, vehicleID int64) (int64, error) {
	var n int64
	for _, r := range m.records {
		if r.VehicleID == vehicleID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) ApplyConsumption(ctx context.Context, updates []models.ConsumptionUpdate) error {
	if m.failApply {
		return errors.New("apply failed")
	}
	for _, u := range updates {
		r, ok := m.records[u.RecordID]
		if !ok {
			return models.ErrRecordNotFound
		}
		r.CalculatedConsumption = u.Consumption
	}
	return nil
}

func (m *memStore) WithTx(ctx context.Context, fn func(models.RecordStore) error) error {
	snapshot := make(map[int64]*models.FuelRecord, len(m.records))
	for id, r := range m.records {
		cp := *r
		snapshot[id] = &cp
	}
	snapshotID := m.nextID

	if err := fn(m); err != nil {
		m.records = snapshot
		m.nextID = snapshotID
		return err
	}
	return nil
}

// consumption 读取记录当前的油耗值，nil 表示未计算
func (m *memStore) consumption(id int64) *float64 {
	r, ok := m.records[id]
	if !ok {
		return nil
	}
	return r.CalculatedConsumption
}

// memVehicles 内存版 VehicleStore
type memVehicles struct {
	nextID   int64
	vehicles map[int64]*models.Vehicle
	records  *memStore // CountRecords 的数据来源，可为 nil
}

func newMemVehicles(records *memStore) *memVehicles {
	return &memVehicles{vehicles: make(map[int64]*models.Vehicle), records: records}
}

func (m *memVehicles) add(v *models.Vehicle) *models.Vehicle {
	m.nextID++
	v.ID = m.nextID
	v.CreatedAt = time.Now()
	v.UpdatedAt = v.CreatedAt
	m.vehicles[v.ID] = v
	return v
}

func (m *memVehicles) Insert(ctx context.Context, v *models.Vehicle) error {
	m.add(v)
	return nil
}

func (m *memVehicles) Update(ctx context.Context, v *models.Vehicle) error {
	if _, ok := m.vehicles[v.ID]; !ok {
		return models.ErrVehicleNotFound
	}
	cp := *v
	m.vehicles[v.ID] = &cp
	return nil
}

func (m *memVehicles) Delete(ctx context.Context, id int64) error {
	if _, ok := m.vehicles[id]; !ok {
		return models.ErrVehicleNotFound
	}
	delete(m.vehicles, id)
	return nil
}

func (m *memVehicles) GetByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	v, ok := m.vehicles[id]
	if !ok {
		return nil, models.ErrVehicleNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *memVehicles) List(ctx context.Context, includeInactive bool) ([]*models.Vehicle, error) {
	var out []*models.Vehicle
	for _, v := range m.vehicles {
		if v.IsActive || includeInactive {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memVehicles) GetDefault(ctx context.Context) (*models.Vehicle, error) {
	for _, v := range m.vehicles {
		if v.IsDefault {
			cp := *v
			return &cp, nil
		}
	}
	all, _ := m.List(ctx, false)
	if len(all) > 0 {
		return all[0], nil
	}
	return nil, models.ErrNoVehicle
}

func (m *memVehicles) SetDefault(ctx context.Context, id int64) error {
	if _, ok := m.vehicles[id]; !ok {
		return models.ErrVehicleNotFound
	}
	for _, v := range m.vehicles {
		v.IsDefault = false
	}
	m.vehicles[id].IsDefault = true
	return nil
}

func (m *memVehicles) SetActive(ctx context.Context, id int64, active bool) error {
	v, ok := m.vehicles[id]
	if !ok {
		return models.ErrVehicleNotFound
	}
	v.IsActive = active
	return nil
}

func (m *memVehicles) CountRecords(ctx context.Context, vehicleID int64) (int64, error) {
	if m.records == nil {
		return 0, nil
	}
	return m.records.Count(ctx, vehicleID)
}

var (
	_ models.RecordStore  = (*memStore)(nil)
	_ models.VehicleStore = (*memVehicles)(nil)
)

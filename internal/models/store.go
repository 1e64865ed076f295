package models

import "context"

// RecordStore 加油记录存储
// 同车辆的记录扫描必须使用统一排序: current_mileage ASC, refuel_date ASC, id ASC
type RecordStore interface {
	// Insert 插入记录并回填 ID/时间戳
	Insert(ctx context.Context, r *FuelRecord) error
	// Update 更新记录的业务字段 (不含 calculated_consumption)
	Update(ctx context.Context, r *FuelRecord) error
	// Delete 删除记录，不存在时返回 ErrRecordNotFound
	Delete(ctx context.Context, id int64) error
	// GetByID 按 ID 查找，不存在时返回 ErrRecordNotFound
	GetByID(ctx context.Context, id int64) (*FuelRecord, error)

	// ListOrdered 返回车辆全部记录 (统一排序)
	ListOrdered(ctx context.Context, vehicleID int64) ([]*FuelRecord, error)
	// ListFromMileage 返回里程 >= fromMileage 的记录 (统一排序)
	ListFromMileage(ctx context.Context, vehicleID, fromMileage int64) ([]*FuelRecord, error)
	// SeedPredecessor 返回里程 < fromMileage 的记录中排序最大的一条，没有则返回 nil
	SeedPredecessor(ctx context.Context, vehicleID, fromMileage int64) (*FuelRecord, error)
	// MaxMileage 返回车辆当前最大里程，第二个返回值表示车辆是否已有记录
	MaxMileage(ctx context.Context, vehicleID int64) (int64, bool, error)

	// ListPaginated 按日期倒序分页返回记录
	ListPaginated(ctx context.Context, vehicleID int64, limit, offset int) ([]*FuelRecord, error)
	// Count 返回车辆记录总数
	Count(ctx context.Context, vehicleID int64) (int64, error)

	// ApplyConsumption 以单条语句原子地写入一批 calculated_consumption，
	// 全部成功或全部回滚，不触碰 updated_at
	ApplyConsumption(ctx context.Context, updates []ConsumptionUpdate) error

	// WithTx 在同一事务内执行 fn，fn 返回错误则整体回滚。
	// 变更编排的 Persist → Recalculate → Apply 必须运行在同一事务中。
	WithTx(ctx context.Context, fn func(RecordStore) error) error
}

// VehicleStore 车辆存储
type VehicleStore interface {
	Insert(ctx context.Context, v *Vehicle) error
	Update(ctx context.Context, v *Vehicle) error
	// Delete 物理删除，仅允许没有记录的车辆
	Delete(ctx context.Context, id int64) error
	// GetByID 按 ID 查找，不存在时返回 ErrVehicleNotFound
	GetByID(ctx context.Context, id int64) (*Vehicle, error)
	// List 返回车辆列表，includeInactive 控制是否包含已停用车辆
	List(ctx context.Context, includeInactive bool) ([]*Vehicle, error)
	// GetDefault 返回默认车辆，没有则返回第一辆激活的车辆，再没有返回 ErrNoVehicle
	GetDefault(ctx context.Context) (*Vehicle, error)
	// SetDefault 事务内清除旧默认标记并设置新默认车辆
	SetDefault(ctx context.Context, id int64) error
	// SetActive 修改激活标记
	SetActive(ctx context.Context, id int64, active bool) error
	// CountRecords 返回车辆拥有的加油记录数
	CountRecords(ctx context.Context, vehicleID int64) (int64, error)
}

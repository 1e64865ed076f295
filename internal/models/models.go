package models

import "time"

// 数据校验范围
const (
	MinFuelAmount = 0.1    // 最小加油量 (升)
	MaxFuelAmount = 50.0   // 最大加油量 (升)
	MaxMileage    = 999999 // 最大里程 (公里)
	MinFuelPrice  = 1.0    // 最小油价 (元/升)
	MaxFuelPrice  = 20.0   // 最大油价 (元/升)
	MaxNotesLen   = 200    // 最大备注长度 (字符)

	MaxVehicleNameLen = 50 // 最大车辆名称长度
	MaxPlateNumberLen = 20 // 最大车牌号长度
)

// Vehicle 车辆信息
type Vehicle struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	PlateNumber *string   `json:"plate_number,omitempty" db:"plate_number"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	IsDefault   bool      `json:"is_default" db:"is_default"`
	Notes       *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// FuelRecord 加油记录
// CalculatedConsumption 为派生字段 (升/百公里)，始终由重算引擎写入，
// 调用方不可直接设置。
type FuelRecord struct {
	ID                    int64     `json:"id" db:"id"`
	VehicleID             int64     `json:"vehicle_id" db:"vehicle_id"`
	RefuelDate            time.Time `json:"refuel_date" db:"refuel_date"`
	FuelAmount            float64   `json:"fuel_amount" db:"fuel_amount"`            // 升
	CurrentMileage        int64     `json:"current_mileage" db:"current_mileage"`    // 公里 (里程表读数)
	FuelPrice             float64   `json:"fuel_price" db:"fuel_price"`              // 元/升
	TotalCost             float64   `json:"total_cost" db:"total_cost"`              // 元
	Notes                 *string   `json:"notes,omitempty" db:"notes"`
	CalculatedConsumption *float64  `json:"calculated_consumption,omitempty" db:"calculated_consumption"` // 升/百公里
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at"`
}

// Before 同车辆记录的全序比较: 里程升序，日期升序，最后按 id 升序兜底。
// 与仓库层扫描使用的 ORDER BY 保持一致。
func (r *FuelRecord) Before(other *FuelRecord) bool {
	if r.CurrentMileage != other.CurrentMileage {
		return r.CurrentMileage < other.CurrentMileage
	}
	if !r.RefuelDate.Equal(other.RefuelDate) {
		return r.RefuelDate.Before(other.RefuelDate)
	}
	return r.ID < other.ID
}

// RecordInput 加油记录的输入字段
// validator 标签与上方常量保持同步
type RecordInput struct {
	RefuelDate     string  `json:"refuel_date" validate:"required,datetime=2006-01-02"`
	FuelAmount     float64 `json:"fuel_amount" validate:"min=0.1,max=50"`
	CurrentMileage int64   `json:"current_mileage" validate:"gt=0,lte=999999"`
	FuelPrice      float64 `json:"fuel_price" validate:"min=1,max=20"`
	TotalCost      float64 `json:"total_cost" validate:"gt=0"`
	Notes          string  `json:"notes" validate:"max=200"`
}

// Date 返回解析后的加油日期。输入已通过校验时不会失败。
func (in *RecordInput) Date() (time.Time, error) {
	return time.Parse("2006-01-02", in.RefuelDate)
}

// VehicleInput 车辆的输入字段
type VehicleInput struct {
	Name        string `json:"name" validate:"required,max=50"`
	PlateNumber string `json:"plate_number" validate:"max=20"`
	Notes       string `json:"notes"`
}

// ConsumptionUpdate 重算引擎输出的 (记录id, 新油耗) 对
// Consumption 为 nil 表示该记录没有前驱或里程差无效
type ConsumptionUpdate struct {
	RecordID    int64    `json:"record_id"`
	Consumption *float64 `json:"consumption"`
}

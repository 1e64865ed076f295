package models

import "time"

// Statistics 车辆总体统计
type Statistics struct {
	AverageConsumption   float64     `json:"average_consumption"`     // 平均油耗 (升/百公里)
	TotalMileage         int64       `json:"total_mileage"`           // 总里程 (最大里程 - 最小里程)
	TotalFuel            float64     `json:"total_fuel"`              // 总加油量 (升)
	TotalCost            float64     `json:"total_cost"`              // 总花费 (元)
	AveragePrice         float64     `json:"average_price"`           // 平均油价 (元/升)
	LastRefuel           *LastRefuel `json:"last_refuel,omitempty"`   // 最近一次加油
	RecordCount          int64       `json:"record_count"`            // 记录总数
	AverageCostPerDay    float64     `json:"average_cost_per_day"`    // 日均花费 (近90天)
	AverageMileagePerDay float64     `json:"average_mileage_per_day"` // 日均里程 (近3个月)
}

// LastRefuel 最近一次加油信息
type LastRefuel struct {
	RefuelDate     time.Time `json:"refuel_date"`
	CurrentMileage int64     `json:"current_mileage"`
	FuelAmount     float64   `json:"fuel_amount"`
}

// MonthlyStat 月度统计
type MonthlyStat struct {
	Month          string   `json:"month"` // YYYY-MM
	RefuelCount    int64    `json:"refuel_count"`
	TotalFuel      float64  `json:"total_fuel"`
	TotalCost      float64  `json:"total_cost"`
	AvgConsumption *float64 `json:"avg_consumption,omitempty"`
}

// ChartPoint 油耗趋势图数据点
type ChartPoint struct {
	RefuelDate  time.Time `json:"refuel_date"`
	Consumption float64   `json:"consumption"`
	FuelPrice   float64   `json:"fuel_price"`
}

// VehicleSummary 车辆概要统计 (车辆列表页用)
type VehicleSummary struct {
	RecordCount    int64   `json:"record_count"`
	TotalFuel      float64 `json:"total_fuel"`
	TotalCost      float64 `json:"total_cost"`
	AvgConsumption float64 `json:"avg_consumption"`
}

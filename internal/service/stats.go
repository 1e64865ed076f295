package service

import (
	"context"
	"math"

	"github.com/langchou/fueltrack/internal/models"
	"github.com/langchou/fueltrack/internal/repository"
)

// StatsService 统计服务，只读地聚合已持久化的油耗数据
type StatsService struct {
	stats *repository.StatsRepository
}

// NewStatsService 创建统计服务
func NewStatsService(stats *repository.StatsRepository) *StatsService {
	return &StatsService{stats: stats}
}

// GetStatistics 获取车辆总体统计
func (s *StatsService) GetStatistics(ctx context.Context, vehicleID int64) (*models.Statistics, error) {
	main, err := s.stats.GetMainStats(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	last, err := s.stats.GetLastRefuel(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	cost90d, err := s.stats.GetCost90Days(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	recent, err := s.stats.GetRecentMileage(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	stats := &models.Statistics{
		RecordCount: main.RecordCount,
		LastRefuel:  last,
	}
	if main.AvgConsumption != nil {
		stats.AverageConsumption = round2(*main.AvgConsumption)
	}
	if main.TotalFuel != nil {
		stats.TotalFuel = round2(*main.TotalFuel)
	}
	if main.TotalCost != nil {
		stats.TotalCost = round2(*main.TotalCost)
	}
	if main.AvgPrice != nil {
		stats.AveragePrice = round2(*main.AvgPrice)
	}
	if main.MaxMileage != nil && main.MinMileage != nil {
		stats.TotalMileage = *main.MaxMileage - *main.MinMileage
	}

	// 日均花费: 近90天总花费摊到90天
	if cost90d > 0 {
		stats.AverageCostPerDay = round2(cost90d / 90)
	}

	// 日均里程: 近3个月首末两次加油之间的里程跨度摊到天数
	if recent.FirstDate != nil && recent.LastDate != nil &&
		recent.MaxMileage != nil && recent.MinMileage != nil {
		days := recent.LastDate.Sub(*recent.FirstDate).Hours() / 24
		if days < 1 {
			days = 1
		}
		stats.AverageMileagePerDay = round2(float64(*recent.MaxMileage-*recent.MinMileage) / days)
	}

	return stats, nil
}

// GetChartData 获取油耗趋势图数据，months <= 0 表示全部
func (s *StatsService) GetChartData(ctx context.Context, vehicleID int64, months int) ([]*models.ChartPoint, error) {
	return s.stats.GetChartData(ctx, vehicleID, months)
}

// GetMonthlyStatistics 获取月度统计
func (s *StatsService) GetMonthlyStatistics(ctx context.Context, vehicleID int64) ([]*models.MonthlyStat, error) {
	return s.stats.GetMonthlyStats(ctx, vehicleID)
}

// GetVehicleSummary 获取车辆概要统计
func (s *StatsService) GetVehicleSummary(ctx context.Context, vehicleID int64) (*models.VehicleSummary, error) {
	summary, err := s.stats.GetVehicleSummary(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	summary.TotalFuel = round2(summary.TotalFuel)
	summary.TotalCost = round2(summary.TotalCost)
	summary.AvgConsumption = round2(summary.AvgConsumption)
	return summary, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

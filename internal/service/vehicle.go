package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/langchou/fueltrack/internal/models"
)

// VehicleService 车辆服务
type VehicleService struct {
	logger    *zap.Logger
	vehicles  models.VehicleStore
	validator *Validator
}

// NewVehicleService 创建车辆服务
func NewVehicleService(logger *zap.Logger, vehicles models.VehicleStore, validator *Validator) *VehicleService {
	return &VehicleService{
		logger:    logger,
		vehicles:  vehicles,
		validator: validator,
	}
}

// AddVehicle 新增车辆，默认处于激活状态
func (s *VehicleService) AddVehicle(ctx context.Context, in *models.VehicleInput) (*models.Vehicle, error) {
	trimInput(in)
	if err := s.validator.ValidateVehicle(in); err != nil {
		return nil, err
	}

	v := &models.Vehicle{
		Name:        in.Name,
		PlateNumber: optionalPtr(in.PlateNumber),
		IsActive:    true,
		Notes:       optionalPtr(in.Notes),
	}
	if err := s.vehicles.Insert(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info("Vehicle added", zap.Int64("vehicle_id", v.ID), zap.String("name", v.Name))
	return v, nil
}

// UpdateVehicle 更新车辆基础信息
func (s *VehicleService) UpdateVehicle(ctx context.Context, id int64, in *models.VehicleInput) (*models.Vehicle, error) {
	trimInput(in)
	if err := s.validator.ValidateVehicle(in); err != nil {
		return nil, err
	}

	v, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	v.Name = in.Name
	v.PlateNumber = optionalPtr(in.PlateNumber)
	v.Notes = optionalPtr(in.Notes)
	if err := s.vehicles.Update(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info("Vehicle updated", zap.Int64("vehicle_id", id))
	return v, nil
}

// DeleteVehicle 删除或停用车辆。
// 拥有加油记录的车辆只做软删除 (停用)，没有记录的车辆物理删除。
// 默认车辆不可删除。返回值表示是否物理删除。
func (s *VehicleService) DeleteVehicle(ctx context.Context, id int64) (bool, error) {
	v, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if v.IsDefault {
		return false, models.ErrDefaultVehicle
	}

	count, err := s.vehicles.CountRecords(ctx, id)
	if err != nil {
		return false, err
	}

	if count > 0 {
		if err := s.vehicles.SetActive(ctx, id, false); err != nil {
			return false, err
		}
		s.logger.Info("Vehicle deactivated", zap.Int64("vehicle_id", id), zap.Int64("record_count", count))
		return false, nil
	}

	if err := s.vehicles.Delete(ctx, id); err != nil {
		return false, err
	}
	s.logger.Info("Vehicle deleted", zap.Int64("vehicle_id", id))
	return true, nil
}

// SetDefaultVehicle 设置默认车辆，已停用的车辆不可设为默认
func (s *VehicleService) SetDefaultVehicle(ctx context.Context, id int64) error {
	v, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !v.IsActive {
		return models.ErrVehicleInactive
	}

	if err := s.vehicles.SetDefault(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Default vehicle changed", zap.Int64("vehicle_id", id))
	return nil
}

// ToggleStatus 切换车辆激活状态。默认车辆不可停用。
func (s *VehicleService) ToggleStatus(ctx context.Context, id int64) (*models.Vehicle, error) {
	v, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if v.IsActive && v.IsDefault {
		return nil, models.ErrDefaultVehicle
	}

	if err := s.vehicles.SetActive(ctx, id, !v.IsActive); err != nil {
		return nil, err
	}
	v.IsActive = !v.IsActive

	s.logger.Info("Vehicle status toggled",
		zap.Int64("vehicle_id", id),
		zap.Bool("is_active", v.IsActive))
	return v, nil
}

// GetVehicle 获取车辆
func (s *VehicleService) GetVehicle(ctx context.Context, id int64) (*models.Vehicle, error) {
	return s.vehicles.GetByID(ctx, id)
}

// ListVehicles 获取车辆列表
func (s *VehicleService) ListVehicles(ctx context.Context, includeInactive bool) ([]*models.Vehicle, error) {
	return s.vehicles.List(ctx, includeInactive)
}

// GetDefaultVehicle 获取默认车辆
func (s *VehicleService) GetDefaultVehicle(ctx context.Context) (*models.Vehicle, error) {
	return s.vehicles.GetDefault(ctx)
}

func trimInput(in *models.VehicleInput) {
	in.Name = strings.TrimSpace(in.Name)
	in.PlateNumber = strings.TrimSpace(in.PlateNumber)
	in.Notes = strings.TrimSpace(in.Notes)
}

func optionalPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/langchou/fueltrack/internal/models"
)

// Validator 记录与车辆的字段校验器。
// 所有字段违规一次性收集后聚合返回，不在第一个错误处短路。
type Validator struct {
	validate *validator.Validate
}

// NewValidator 创建校验器
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// ValidateRecord 校验加油记录的字段范围
func (v *Validator) ValidateRecord(in *models.RecordInput) error {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate record: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, recordFieldMessage(fe))
	}
	return &models.ValidationError{Errors: msgs}
}

// ValidateInsert 插入模式校验: 字段范围 + 单调里程约束。
// 新记录的里程必须严格大于该车辆当前最大里程，违规返回 OrderingViolationError。
func (v *Validator) ValidateInsert(ctx context.Context, store models.RecordStore, vehicleID int64, in *models.RecordInput) error {
	if err := v.ValidateRecord(in); err != nil {
		return err
	}

	max, has, err := store.MaxMileage(ctx, vehicleID)
	if err != nil {
		return fmt.Errorf("check max mileage: %w", err)
	}
	if has && in.CurrentMileage <= max {
		return &models.OrderingViolationError{Mileage: in.CurrentMileage, MaxMileage: max}
	}
	return nil
}

// ValidateVehicle 校验车辆的字段
func (v *Validator) ValidateVehicle(in *models.VehicleInput) error {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate vehicle: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, vehicleFieldMessage(fe))
	}
	return &models.ValidationError{Errors: msgs}
}

func recordFieldMessage(fe validator.FieldError) string {
	switch fe.StructField() {
	case "RefuelDate":
		if fe.Tag() == "required" {
			return "refuel_date is required"
		}
		return "refuel_date must be in YYYY-MM-DD format"
	case "FuelAmount":
		return fmt.Sprintf("fuel_amount must be between %g and %g liters", models.MinFuelAmount, models.MaxFuelAmount)
	case "CurrentMileage":
		return fmt.Sprintf("current_mileage must be between 1 and %d", models.MaxMileage)
	case "FuelPrice":
		return fmt.Sprintf("fuel_price must be between %g and %g", models.MinFuelPrice, models.MaxFuelPrice)
	case "TotalCost":
		return "total_cost must be greater than 0"
	case "Notes":
		return fmt.Sprintf("notes must be at most %d characters", models.MaxNotesLen)
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func vehicleFieldMessage(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Name":
		if fe.Tag() == "required" {
			return "name is required"
		}
		return fmt.Sprintf("name must be at most %d characters", models.MaxVehicleNameLen)
	case "PlateNumber":
		return fmt.Sprintf("plate_number must be at most %d characters", models.MaxPlateNumberLen)
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

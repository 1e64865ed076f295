package models

import (
	"errors"
	"fmt"
	"strings"
)

// 哨兵错误，调用方通过 errors.Is 区分错误类别
var (
	ErrRecordNotFound  = errors.New("fuel record not found")
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrVehicleInactive = errors.New("vehicle is inactive")
	ErrDefaultVehicle  = errors.New("operation not allowed on the default vehicle")
	ErrNoVehicle       = errors.New("no available vehicle")
)

// ValidationError 字段校验失败，一次性收集所有违规项
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, ", ")
}

// OrderingViolationError 插入记录的里程未超过该车辆当前最大里程
type OrderingViolationError struct {
	Mileage    int64 // 待插入的里程
	MaxMileage int64 // 该车辆当前最大里程
}

func (e *OrderingViolationError) Error() string {
	return fmt.Sprintf("mileage %d must be greater than the last recorded mileage %d", e.Mileage, e.MaxMileage)
}

// IsClientError 判断是否为客户端输入导致的错误 (映射到 4xx)
func IsClientError(err error) bool {
	var ve *ValidationError
	var oe *OrderingViolationError
	return errors.As(err, &ve) || errors.As(err, &oe) ||
		errors.Is(err, ErrVehicleInactive) || errors.Is(err, ErrDefaultVehicle)
}

// IsNotFound 判断是否为资源不存在
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) || errors.Is(err, ErrVehicleNotFound) ||
		errors.Is(err, ErrNoVehicle)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fueltrack/internal/models"
)

// ListVehicles 获取车辆列表
func (h *Handler) ListVehicles(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"

	vehicles, err := h.vehicleService.ListVehicles(c.Request.Context(), includeInactive)
	if err != nil {
		h.respondError(c, err, "Failed to list vehicles")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": vehicles})
}

// GetVehicle 获取车辆详情
func (h *Handler) GetVehicle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	vehicle, err := h.vehicleService.GetVehicle(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get vehicle")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": vehicle})
}

// GetDefaultVehicle 获取默认车辆
func (h *Handler) GetDefaultVehicle(c *gin.Context) {
	vehicle, err := h.vehicleService.GetDefaultVehicle(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to get default vehicle")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": vehicle})
}

// AddVehicle 新增车辆
func (h *Handler) AddVehicle(c *gin.Context) {
	var in models.VehicleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	vehicle, err := h.vehicleService.AddVehicle(c.Request.Context(), &in)
	if err != nil {
		h.respondError(c, err, "Failed to add vehicle")
		return
	}

	h.logger.Info("Vehicle added via API", zap.Int64("vehicle_id", vehicle.ID))
	c.JSON(http.StatusCreated, gin.H{"data": vehicle})
}

// UpdateVehicle 更新车辆信息
func (h *Handler) UpdateVehicle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var in models.VehicleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	vehicle, err := h.vehicleService.UpdateVehicle(c.Request.Context(), id, &in)
	if err != nil {
		h.respondError(c, err, "Failed to update vehicle")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": vehicle})
}

// DeleteVehicle 删除车辆，有记录时转为停用
func (h *Handler) DeleteVehicle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	deleted, err := h.vehicleService.DeleteVehicle(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to delete vehicle")
		return
	}

	if deleted {
		h.logger.Info("Vehicle deleted via API", zap.Int64("vehicle_id", id))
		c.JSON(http.StatusOK, gin.H{"message": "Vehicle deleted", "vehicle_id": id})
		return
	}

	h.logger.Info("Vehicle deactivated via API", zap.Int64("vehicle_id", id))
	c.JSON(http.StatusOK, gin.H{"message": "Vehicle has records, deactivated instead", "vehicle_id": id})
}

// SetDefaultVehicle 设置默认车辆
func (h *Handler) SetDefaultVehicle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.vehicleService.SetDefaultVehicle(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to set default vehicle")
		return
	}

	h.logger.Info("Default vehicle changed via API", zap.Int64("vehicle_id", id))
	c.JSON(http.StatusOK, gin.H{"message": "Default vehicle set", "vehicle_id": id})
}

// ToggleVehicleStatus 切换车辆启用状态
func (h *Handler) ToggleVehicleStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	vehicle, err := h.vehicleService.ToggleStatus(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to toggle vehicle status")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": vehicle})
}

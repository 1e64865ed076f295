package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fueltrack/internal/models"
)

// vehicleIDQuery 解析 vehicle_id 查询参数，缺省时回退到默认车辆
func (h *Handler) vehicleIDQuery(c *gin.Context) (int64, bool) {
	if raw := c.Query("vehicle_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle ID"})
			return 0, false
		}
		return id, true
	}

	vehicle, err := h.vehicleService.GetDefaultVehicle(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to resolve default vehicle")
		return 0, false
	}
	return vehicle.ID, true
}

// ListRecords 获取加油记录列表 (分页，按日期倒序)
func (h *Handler) ListRecords(c *gin.Context) {
	vehicleID, ok := h.vehicleIDQuery(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = h.cfg.DefaultPageSize
	}
	if perPage > h.cfg.MaxPageSize {
		perPage = h.cfg.MaxPageSize
	}

	records, total, err := h.recordService.ListRecords(c.Request.Context(), vehicleID, page, perPage)
	if err != nil {
		h.respondError(c, err, "Failed to list records")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": records,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// GetRecord 获取加油记录详情
func (h *Handler) GetRecord(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	record, err := h.recordService.GetRecord(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get record")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": record})
}

// addRecordRequest 新增记录请求体
type addRecordRequest struct {
	VehicleID      int64   `json:"vehicle_id"`
	RefuelDate     string  `json:"refuel_date"`
	FuelAmount     float64 `json:"fuel_amount"`
	CurrentMileage int64   `json:"current_mileage"`
	FuelPrice      float64 `json:"fuel_price"`
	TotalCost      float64 `json:"total_cost"`
	Notes          string  `json:"notes"`
}

// AddRecord 新增加油记录并重算油耗
func (h *Handler) AddRecord(c *gin.Context) {
	var req addRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	vehicleID := req.VehicleID
	if vehicleID == 0 {
		vehicle, err := h.vehicleService.GetDefaultVehicle(c.Request.Context())
		if err != nil {
			h.respondError(c, err, "Failed to resolve default vehicle")
			return
		}
		vehicleID = vehicle.ID
	}

	record, err := h.recordService.AddRecord(c.Request.Context(), vehicleID, req.input())
	if err != nil {
		h.respondError(c, err, "Failed to add record")
		return
	}

	h.logger.Info("Record added via API",
		zap.Int64("record_id", record.ID),
		zap.Int64("vehicle_id", vehicleID))
	c.JSON(http.StatusCreated, gin.H{"data": record})
}

// UpdateRecord 更新加油记录并重算油耗
func (h *Handler) UpdateRecord(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req addRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	record, err := h.recordService.UpdateRecord(c.Request.Context(), id, req.input())
	if err != nil {
		h.respondError(c, err, "Failed to update record")
		return
	}

	h.logger.Info("Record updated via API", zap.Int64("record_id", id))
	c.JSON(http.StatusOK, gin.H{"data": record})
}

// DeleteRecord 删除加油记录并重算后续油耗
func (h *Handler) DeleteRecord(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.recordService.DeleteRecord(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to delete record")
		return
	}

	h.logger.Info("Record deleted via API", zap.Int64("record_id", id))
	c.JSON(http.StatusOK, gin.H{"message": "Record deleted", "record_id": id})
}

// RecalculateAll 全量重算某辆车的油耗
func (h *Handler) RecalculateAll(c *gin.Context) {
	vehicleID, ok := h.vehicleIDQuery(c)
	if !ok {
		return
	}

	if err := h.recordService.RecalculateAll(c.Request.Context(), vehicleID); err != nil {
		h.respondError(c, err, "Failed to recalculate consumption")
		return
	}

	h.logger.Info("Full recalculation via API", zap.Int64("vehicle_id", vehicleID))
	c.JSON(http.StatusOK, gin.H{"message": "Recalculation complete", "vehicle_id": vehicleID})
}

// input 转换为服务层输入
func (req *addRecordRequest) input() *models.RecordInput {
	return &models.RecordInput{
		RefuelDate:     req.RefuelDate,
		FuelAmount:     req.FuelAmount,
		CurrentMileage: req.CurrentMileage,
		FuelPrice:      req.FuelPrice,
		TotalCost:      req.TotalCost,
		Notes:          req.Notes,
	}
}

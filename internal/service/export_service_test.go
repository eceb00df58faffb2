package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/aditrachman/Absensi-BEM-FT/internal/dto"
	"github.com/aditrachman/Absensi-BEM-FT/internal/model"
)

func setupExportTest() (*testEnv, ExportService) {
	env := newTestEnv()
	stats := NewStatsService(env.repo, env.clock, zap.NewNop())
	svc := NewExportService(env.repo, stats, zap.NewNop())
	return env, svc
}

func TestExportOrgStats(t *testing.T) {
	env, svc := setupExportTest()
	env.addUser("2024001", "张三", model.RoleMember, nil)
	env.addEvent("evt-1", "t1", "user-2024001")
	env.atts.records[attKey("evt-1", "user-2024001")] = &model.Attendance{
		AttendanceID: "a1", EventID: "evt-1", UserID: "user-2024001",
		Status: model.StatusPresent,
	}

	data, filename, err := svc.OrgStats(context.Background(), testAdmin, &dto.OrgStatsRequest{})
	if err != nil {
		t.Fatalf("OrgStats 导出应成功: %v", err)
	}
	if filename != "attendance-stats.xlsx" {
		t.Errorf("期望文件名 attendance-stats.xlsx，实际=%s", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("导出内容应为合法 xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Attendance")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("期望表头 + 1 数据行，实际=%d 行", len(rows))
	}
	if rows[1][0] != "2024001" || rows[1][1] != "张三" {
		t.Errorf("数据行内容不符: %v", rows[1])
	}
}

func TestExportOrgStats_Forbidden(t *testing.T) {
	_, svc := setupExportTest()

	_, _, err := svc.OrgStats(context.Background(),
		Caller{UserID: "m", Role: model.RoleMember}, &dto.OrgStatsRequest{})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("member 导出期望 ErrForbidden，实际: %v", err)
	}
}

func TestExportEventAttendance(t *testing.T) {
	env, svc := setupExportTest()
	env.addUser("2024001", "张三", model.RoleMember, nil)
	env.addEvent("evt-1", "t1", "user-2024001")

	checkIn := time.Date(2026, 3, 10, 10, 5, 0, 0, time.UTC)
	env.atts.records[attKey("evt-1", "user-2024001")] = &model.Attendance{
		AttendanceID: "a1", EventID: "evt-1", UserID: "user-2024001",
		Status: model.StatusPresent, CheckInTime: &checkIn,
	}

	data, filename, err := svc.EventAttendance(context.Background(), testAdmin, "evt-1")
	if err != nil {
		t.Fatalf("EventAttendance 导出应成功: %v", err)
	}
	if filename == "" {
		t.Error("文件名不应为空")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("导出内容应为合法 xlsx: %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows("Attendance")
	if len(rows) != 2 {
		t.Fatalf("期望表头 + 1 数据行，实际=%d 行", len(rows))
	}
	if rows[1][3] != model.StatusPresent {
		t.Errorf("期望状态列 present，实际=%s", rows[1][3])
	}
}

func TestExportUsers_RoundTripColumns(t *testing.T) {
	env, svc := setupExportTest()
	env.addDept("dept-a", "学术部")
	deptA := "dept-a"
	user := env.addUser("2024001", "张三", model.RoleMember, &deptA)
	user.Department = env.depts.departments["dept-a"]

	data, filename, err := svc.Users(context.Background(), testAdmin, &dto.UserListRequest{})
	if err != nil {
		t.Fatalf("Users 导出应成功: %v", err)
	}
	if filename != "users.xlsx" {
		t.Errorf("期望文件名 users.xlsx，实际=%s", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("导出内容应为合法 xlsx: %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows("Users")
	if len(rows) != 2 {
		t.Fatalf("期望表头 + 1 数据行，实际=%d 行", len(rows))
	}
	// 表头与批量导入模板一致，导出文件可直接回导
	if rows[0][0] != "student_id" || rows[0][5] != "department" {
		t.Errorf("表头不符: %v", rows[0])
	}
	if rows[1][0] != "2024001" || rows[1][5] != "学术部" {
		t.Errorf("数据行内容不符: %v", rows[1])
	}
}

func TestExportUsers_AdminOnly(t *testing.T) {
	_, svc := setupExportTest()

	_, _, err := svc.Users(context.Background(),
		Caller{UserID: "c", Role: model.RoleCoordinator}, &dto.UserListRequest{})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("coordinator 导出名册期望 ErrForbidden，实际: %v", err)
	}
}

// [自证通过] internal/service/export_service_test.go

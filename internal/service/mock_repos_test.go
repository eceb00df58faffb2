package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/aditrachman/Absensi-BEM-FT/internal/model"
	"github.com/aditrachman/Absensi-BEM-FT/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: student_id 与 user_id 双索引
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.StudentID]; ok {
		return gorm.ErrDuplicatedKey
	}
	if user.UserID == "" {
		user.UserID = "user-" + user.StudentID
	}
	m.users[user.StudentID] = user
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByStudentID(_ context.Context, studentID string) (*model.User, error) {
	if u, ok := m.users[studentID]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.StudentID] = user
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	for key, u := range m.users {
		if u.UserID == id {
			delete(m.users, key)
		}
	}
	return nil
}

func (m *mockUserRepo) all() []*model.User {
	seen := make(map[string]bool)
	var result []*model.User
	for _, u := range m.users {
		if !seen[u.UserID] {
			seen[u.UserID] = true
			result = append(result, u)
		}
	}
	return result
}

func (m *mockUserRepo) List(_ context.Context, filters *repository.UserListFilters) ([]model.User, error) {
	var result []model.User
	for _, u := range m.all() {
		if filters != nil {
			if filters.DepartmentID != "" && (u.DepartmentID == nil || *u.DepartmentID != filters.DepartmentID) {
				continue
			}
			if filters.Role != "" && u.Role != filters.Role {
				continue
			}
			if filters.Search != "" &&
				!strings.Contains(u.Name, filters.Search) &&
				!strings.Contains(u.StudentID, filters.Search) {
				continue
			}
		}
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockUserRepo) ListIDsByRoles(_ context.Context, roles []string) ([]string, error) {
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}
	var ids []string
	for _, u := range m.all() {
		if roleSet[u.Role] {
			ids = append(ids, u.UserID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ── Mock DepartmentRepository ──

type mockDeptRepo struct {
	departments  map[string]*model.Department
	memberCounts map[string]int64
}

func newMockDeptRepo() *mockDeptRepo {
	return &mockDeptRepo{
		departments:  make(map[string]*model.Department),
		memberCounts: make(map[string]int64),
	}
}

func (m *mockDeptRepo) Create(_ context.Context, dept *model.Department) error {
	for _, d := range m.departments {
		if d.Name == dept.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if dept.DepartmentID == "" {
		dept.DepartmentID = "dept-" + dept.Name
	}
	m.departments[dept.DepartmentID] = dept
	return nil
}

func (m *mockDeptRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	if d, ok := m.departments[id]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) GetByName(_ context.Context, name string) (*model.Department, error) {
	for _, d := range m.departments {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) List(_ context.Context) ([]model.Department, error) {
	var result []model.Department
	for _, d := range m.departments {
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockDeptRepo) Update(_ context.Context, dept *model.Department) error {
	m.departments[dept.DepartmentID] = dept
	return nil
}

func (m *mockDeptRepo) Delete(_ context.Context, id string) error {
	delete(m.departments, id)
	return nil
}

func (m *mockDeptRepo) CountMembers(_ context.Context, departmentID string) (int64, error) {
	return m.memberCounts[departmentID], nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	records  map[string]*model.Attendance // key: event_id|user_id
	userRepo *mockUserRepo
	eventRepo *mockEventRepo
	idSeq    int
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[string]*model.Attendance)}
}

func attKey(eventID, userID string) string { return eventID + "|" + userID }

func (m *mockAttendanceRepo) Create(_ context.Context, att *model.Attendance) error {
	key := attKey(att.EventID, att.UserID)
	if _, ok := m.records[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	m.idSeq++
	if att.AttendanceID == "" {
		att.AttendanceID = fmt.Sprintf("att-%d", m.idSeq)
	}
	att.CreatedAt = time.Now()
	att.UpdatedAt = att.CreatedAt
	cp := *att
	m.records[key] = &cp
	return nil
}

func (m *mockAttendanceRepo) GetByEventAndUser(_ context.Context, eventID, userID string) (*model.Attendance, error) {
	if a, ok := m.records[attKey(eventID, userID)]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) ListByEvent(_ context.Context, eventID string) ([]model.Attendance, error) {
	var result []model.Attendance
	for _, a := range m.records {
		if a.EventID != eventID {
			continue
		}
		cp := *a
		if m.userRepo != nil {
			if u, err := m.userRepo.GetByID(nil, a.UserID); err == nil {
				cp.User = u
			}
		}
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool {
		ti, tj := result[i].CheckInTime, result[j].CheckInTime
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.Before(*tj)
	})
	return result, nil
}

func (m *mockAttendanceRepo) ListByUser(_ context.Context, userID string) ([]model.Attendance, error) {
	var result []model.Attendance
	for _, a := range m.records {
		if a.UserID != userID {
			continue
		}
		cp := *a
		if m.eventRepo != nil {
			if e, ok := m.eventRepo.events[a.EventID]; ok {
				cp.Event = e
			}
		}
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool {
		ei, ej := result[i].Event, result[j].Event
		if ei == nil || ej == nil {
			return false
		}
		return ei.Date > ej.Date
	})
	return result, nil
}

// ── Mock EventRepository ──

type mockEventRepo struct {
	events       map[string]*model.Event
	participants map[string][]string // event_id -> user_ids（名单序）
	attRepo      *mockAttendanceRepo
	userRepo     *mockUserRepo
	idSeq        int
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{
		events:       make(map[string]*model.Event),
		participants: make(map[string][]string),
	}
}

func (m *mockEventRepo) CreateWithParticipants(_ context.Context, event *model.Event, participantIDs []string) error {
	m.idSeq++
	if event.EventID == "" {
		event.EventID = fmt.Sprintf("event-%d", m.idSeq)
	}
	m.events[event.EventID] = event
	m.participants[event.EventID] = append([]string{}, participantIDs...)
	return nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id string) (*model.Event, error) {
	if e, ok := m.events[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEventRepo) GetActiveByToken(_ context.Context, token string) (*model.Event, error) {
	for _, e := range m.events {
		if e.QRToken == token && e.IsActive {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEventRepo) List(_ context.Context, filters *repository.EventListFilters) ([]model.Event, error) {
	var result []model.Event
	for _, e := range m.events {
		if filters != nil {
			if filters.Type != "" && e.Type != filters.Type {
				continue
			}
			if filters.Date != "" && e.Date != filters.Date {
				continue
			}
			if filters.DepartmentID != "" && (e.DepartmentID == nil || *e.DepartmentID != filters.DepartmentID) {
				continue
			}
			if filters.ScopeDepartmentID != nil {
				inDept := e.DepartmentID != nil && *e.DepartmentID == *filters.ScopeDepartmentID
				if !inDept && e.Type != model.EventTypePlenary && e.CreatedBy != filters.ScopeCreatorID {
					continue
				}
			}
		}
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date > result[j].Date })
	return result, nil
}

func (m *mockEventRepo) Update(_ context.Context, event *model.Event) error {
	m.events[event.EventID] = event
	return nil
}

func (m *mockEventRepo) Delete(_ context.Context, id string) error {
	delete(m.events, id)
	delete(m.participants, id)
	return nil
}

func (m *mockEventRepo) IsParticipant(_ context.Context, eventID, userID string) (bool, error) {
	for _, uid := range m.participants[eventID] {
		if uid == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEventRepo) ListParticipants(_ context.Context, eventID string) ([]model.EventParticipant, error) {
	var result []model.EventParticipant
	for _, uid := range m.participants[eventID] {
		p := model.EventParticipant{EventID: eventID, UserID: uid}
		if m.userRepo != nil {
			if u, err := m.userRepo.GetByID(nil, uid); err == nil {
				p.User = u
			}
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].User == nil || result[j].User == nil {
			return false
		}
		return result[i].User.Name < result[j].User.Name
	})
	return result, nil
}

func (m *mockEventRepo) ListRosterEvents(_ context.Context, userID string) ([]model.Event, error) {
	var result []model.Event
	for eid, uids := range m.participants {
		for _, uid := range uids {
			if uid == userID {
				result = append(result, *m.events[eid])
				break
			}
		}
	}
	return result, nil
}

func (m *mockEventRepo) BatchCountParticipants(_ context.Context, eventIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(eventIDs))
	for _, id := range eventIDs {
		if n := len(m.participants[id]); n > 0 {
			result[id] = int64(n)
		}
	}
	return result, nil
}

func (m *mockEventRepo) BatchCountAttended(_ context.Context, eventIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(eventIDs))
	if m.attRepo == nil {
		return result, nil
	}
	for _, id := range eventIDs {
		for _, a := range m.attRepo.records {
			if a.EventID == id && (a.Status == model.StatusPresent || a.Status == model.StatusLate) {
				result[id]++
			}
		}
	}
	return result, nil
}

// ── Mock PermissionRepository ──

type mockPermissionRepo struct {
	perms    map[string]*model.Permission
	attRepo  *mockAttendanceRepo
	userRepo *mockUserRepo
	eventRepo *mockEventRepo
	idSeq    int
}

func newMockPermissionRepo() *mockPermissionRepo {
	return &mockPermissionRepo{perms: make(map[string]*model.Permission)}
}

func (m *mockPermissionRepo) Create(_ context.Context, perm *model.Permission) error {
	for _, p := range m.perms {
		if p.EventID == perm.EventID && p.UserID == perm.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	m.idSeq++
	if perm.PermissionID == "" {
		perm.PermissionID = fmt.Sprintf("perm-%d", m.idSeq)
	}
	perm.CreatedAt = time.Now()
	perm.UpdatedAt = perm.CreatedAt
	m.perms[perm.PermissionID] = perm
	return nil
}

func (m *mockPermissionRepo) fill(p *model.Permission) *model.Permission {
	cp := *p
	if m.userRepo != nil {
		if u, err := m.userRepo.GetByID(nil, p.UserID); err == nil {
			cp.User = u
		}
		if p.ReviewedBy != nil {
			if u, err := m.userRepo.GetByID(nil, *p.ReviewedBy); err == nil {
				cp.Reviewer = u
			}
		}
	}
	if m.eventRepo != nil {
		if e, ok := m.eventRepo.events[p.EventID]; ok {
			cp.Event = e
		}
	}
	return &cp
}

func (m *mockPermissionRepo) GetByID(_ context.Context, id string) (*model.Permission, error) {
	if p, ok := m.perms[id]; ok {
		return m.fill(p), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPermissionRepo) ExistsForEventUser(_ context.Context, eventID, userID string) (bool, error) {
	for _, p := range m.perms {
		if p.EventID == eventID && p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPermissionRepo) List(_ context.Context, filters *repository.PermissionListFilters) ([]model.Permission, error) {
	var result []model.Permission
	for _, p := range m.perms {
		filled := m.fill(p)
		if filters != nil {
			if filters.UserID != "" && p.UserID != filters.UserID {
				continue
			}
			if filters.Status != "" && p.Status != filters.Status {
				continue
			}
			if filters.EventID != "" && p.EventID != filters.EventID {
				continue
			}
			if filters.ScopeDepartmentID != nil {
				inDept := filled.User != nil && filled.User.DepartmentID != nil &&
					*filled.User.DepartmentID == *filters.ScopeDepartmentID
				plenary := filled.Event != nil && filled.Event.Type == model.EventTypePlenary
				if !inDept && !plenary {
					continue
				}
			}
		}
		result = append(result, *filled)
	}
	return result, nil
}

func (m *mockPermissionRepo) UpdateReview(_ context.Context, perm *model.Permission, attendance *model.Attendance) error {
	m.perms[perm.PermissionID] = perm
	if attendance != nil && m.attRepo != nil {
		key := attKey(attendance.EventID, attendance.UserID)
		if existing, ok := m.attRepo.records[key]; ok {
			existing.Status = attendance.Status
			existing.UpdatedAt = time.Now()
		} else {
			m.attRepo.idSeq++
			attendance.AttendanceID = fmt.Sprintf("att-%d", m.attRepo.idSeq)
			cp := *attendance
			m.attRepo.records[key] = &cp
		}
	}
	return nil
}

// ── Mock StatsRepository ──
//
// 基于共享的 mock 数据推导，口径与 SQL 实现一致。

type mockStatsRepo struct {
	users    *mockUserRepo
	events   *mockEventRepo
	atts     *mockAttendanceRepo
	loc      *time.Location
}

func (m *mockStatsRepo) StatusCounts(_ context.Context, userID string) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, a := range m.atts.records {
		if a.UserID == userID {
			counts[a.Status]++
		}
	}
	return counts, nil
}

func (m *mockStatsRepo) CountRosterEvents(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, uids := range m.events.participants {
		for _, uid := range uids {
			if uid == userID {
				count++
				break
			}
		}
	}
	return count, nil
}

func (m *mockStatsRepo) CountMissedEvents(_ context.Context, userID string, now time.Time) (int64, error) {
	var count int64
	for eid, uids := range m.events.participants {
		onRoster := false
		for _, uid := range uids {
			if uid == userID {
				onRoster = true
				break
			}
		}
		if !onRoster {
			continue
		}
		event := m.events.events[eid]
		end, err := event.EndsAt(m.loc)
		if err != nil {
			return 0, err
		}
		if !end.Before(now) {
			continue
		}
		if _, ok := m.atts.records[attKey(eid, userID)]; !ok {
			count++
		}
	}
	return count, nil
}

func (m *mockStatsRepo) OrgStats(_ context.Context, filters *repository.OrgStatsFilters) ([]repository.UserStatsAgg, error) {
	var rows []repository.UserStatsAgg
	for _, u := range m.users.all() {
		if u.Role != model.RoleMember && u.Role != model.RoleCoordinator {
			continue
		}
		if filters != nil && filters.DepartmentID != "" &&
			(u.DepartmentID == nil || *u.DepartmentID != filters.DepartmentID) {
			continue
		}

		agg := repository.UserStatsAgg{
			UserID:       u.UserID,
			StudentID:    u.StudentID,
			Name:         u.Name,
			DepartmentID: u.DepartmentID,
		}
		if u.Department != nil {
			agg.DepartmentName = &u.Department.Name
		}

		for eid, uids := range m.events.participants {
			onRoster := false
			for _, uid := range uids {
				if uid == u.UserID {
					onRoster = true
					break
				}
			}
			if !onRoster {
				continue
			}
			event := m.events.events[eid]
			if filters != nil {
				if filters.StartDate != "" && event.Date < filters.StartDate {
					continue
				}
				if filters.EndDate != "" && event.Date > filters.EndDate {
					continue
				}
			}
			agg.TotalEvents++
			if a, ok := m.atts.records[attKey(eid, u.UserID)]; ok {
				switch a.Status {
				case model.StatusPresent:
					agg.Present++
					agg.Attended++
				case model.StatusLate:
					agg.Late++
					agg.Attended++
				case model.StatusLeave:
					agg.Leave++
				case model.StatusSick:
					agg.Sick++
				}
			}
		}
		rows = append(rows, agg)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

// ── 测试环境组装 ──

type testEnv struct {
	repo  *repository.Repository
	users *mockUserRepo
	depts *mockDeptRepo
	events *mockEventRepo
	atts  *mockAttendanceRepo
	perms *mockPermissionRepo
	clock *Clock
	now   time.Time
}

func newTestEnv() *testEnv {
	users := newMockUserRepo()
	depts := newMockDeptRepo()
	events := newMockEventRepo()
	atts := newMockAttendanceRepo()
	perms := newMockPermissionRepo()

	atts.userRepo = users
	atts.eventRepo = events
	events.attRepo = atts
	events.userRepo = users
	perms.attRepo = atts
	perms.userRepo = users
	perms.eventRepo = events

	env := &testEnv{
		repo: &repository.Repository{
			User:       users,
			Department: depts,
			Event:      events,
			Attendance: atts,
			Permission: perms,
			Stats:      &mockStatsRepo{users: users, events: events, atts: atts, loc: time.UTC},
		},
		users:  users,
		depts:  depts,
		events: events,
		atts:   atts,
		perms:  perms,
		now:    time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
	}
	env.clock = &Clock{Location: time.UTC, NowFn: func() time.Time { return env.now }}
	return env
}

func (e *testEnv) addUser(studentID, name, role string, deptID *string) *model.User {
	user := &model.User{
		UserID:       "user-" + studentID,
		StudentID:    studentID,
		Name:         name,
		PasswordHash: "x",
		Role:         role,
		DepartmentID: deptID,
	}
	if deptID != nil {
		if d, ok := e.depts.departments[*deptID]; ok {
			user.Department = d
		}
	}
	e.users.users[studentID] = user
	e.users.users[user.UserID] = user
	return user
}

func (e *testEnv) addDept(id, name string) *model.Department {
	dept := &model.Department{DepartmentID: id, Name: name}
	e.depts.departments[id] = dept
	return dept
}

// addEvent 10:00 开始 12:00 结束、15 分钟迟到阈值的活动
func (e *testEnv) addEvent(id, token string, participantIDs ...string) *model.Event {
	event := &model.Event{
		EventID:       id,
		Title:         "全体例会",
		Type:          model.EventTypePlenary,
		Date:          "2026-03-10",
		TimeStart:     "10:00",
		TimeEnd:       "12:00",
		LateThreshold: 15,
		QRToken:       token,
		IsActive:      true,
		CreatedBy:     "user-admin",
	}
	e.events.events[id] = event
	e.events.participants[id] = append([]string{}, participantIDs...)
	return event
}

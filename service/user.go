package service

import (
	"context"
	"strings"

	"github.com/aisgo/workshop-server/audit"
	"github.com/aisgo/workshop-server/authz"
	"github.com/aisgo/workshop-server/cache/redis"
	"github.com/aisgo/workshop-server/errors"
	"github.com/aisgo/workshop-server/logger"
	"github.com/aisgo/workshop-server/model"
	"github.com/aisgo/workshop-server/repository"
	"github.com/aisgo/workshop-server/utils/password"
	"github.com/aisgo/workshop-server/validator"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

/* ========================================================================
 * User Service - 门店员工管理
 * ========================================================================
 * 职责: 员工账号的创建/查询/启停/角色分配
 * 注意: 角色集固定 (owner/office/mechanic), 按名称绑定;
 *       角色或启停变更后失效主体缓存, 权限立即生效
 * ======================================================================== */

// CreateUserInput 创建员工请求
type CreateUserInput struct {
	Email    string   `json:"email" validate:"required,email,max=255" error_msg:"required:email is required|email:invalid email format"`
	Password string   `json:"password" validate:"required,min=8,max=72" error_msg:"required:password is required|min:password must be at least 8 characters"`
	FullName string   `json:"full_name" validate:"required,max=120" error_msg:"required:full name is required"`
	Roles    []string `json:"roles" validate:"required,min=1,dive,oneof=owner office mechanic" error_msg:"required:at least one role is required|oneof:unknown role"`
}

// UpdateUserInput 更新员工资料请求
type UpdateUserInput struct {
	FullName string `json:"full_name" validate:"required,max=120" error_msg:"required:full name is required"`
}

// UserService 员工服务
type UserService struct {
	repo      repository.Repository[model.User]
	roleRepo  repository.Repository[model.Role]
	principal *redis.PrincipalCache
	validate  *validator.Validator
	audit     audit.Publisher
	log       *logger.Logger
}

// NewUserService 创建员工服务
func NewUserService(
	repo repository.Repository[model.User],
	roleRepo repository.Repository[model.Role],
	principal *redis.PrincipalCache,
	validate *validator.Validator,
	auditPub audit.Publisher,
	log *logger.Logger,
) *UserService {
	return &UserService{
		repo:      repo,
		roleRepo:  roleRepo,
		principal: principal,
		validate:  validate,
		audit:     auditPub,
		log:       log,
	}
}

// Create 创建员工账号
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*model.User, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapUsersManage); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	roles, err := s.resolveRoles(ctx, input.Roles)
	if err != nil {
		return nil, err
	}

	hash, err := password.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "hash password failed", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		Active:       true,
		Roles:        roles,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, emailTakenError()
		}
		return nil, err
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionCreate, "user", user.ID).
		WithDetail("email", email).
		WithDetail("roles", input.Roles))
	return user, nil
}

// Get 按 id 查询员工
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapUsersManage); err != nil {
		return nil, err
	}
	return s.repo.FindOneWithOpts(ctx, "id = ?",
		[]repository.Option{repository.WithPreloads("Roles")}, id)
}

// List 分页查询员工
func (s *UserService) List(ctx context.Context, page, pageSize int) (*repository.PageResult[model.User], error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapUsersManage); err != nil {
		return nil, err
	}
	return s.repo.FindPageWithOpts(ctx, page, pageSize, "",
		[]repository.Option{
			repository.WithOrderBy("create_time DESC"),
			repository.WithPreloads("Roles"),
		})
}

// Update 更新员工资料
func (s *UserService) Update(ctx context.Context, id int64, input UpdateUserInput) (*model.User, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapUsersManage); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateByID(ctx, id, map[string]any{
		"full_name": strings.TrimSpace(input.FullName),
	}, "full_name"); err != nil {
		return nil, err
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionUpdate, "user", id))
	return s.Get(ctx, id)
}

// SetActive 启用或停用员工
func (s *UserService) SetActive(ctx context.Context, id int64, active bool) error {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := authz.Require(p, authz.CapUsersManage); err != nil {
		return err
	}
	// 禁止自停用, 防止门店把最后一个管理账号锁死
	if !active && id == p.UserID {
		verr := &validator.ValidationError{}
		verr.Add("ID", "cannot deactivate your own account")
		return verr
	}

	if err := s.repo.UpdateByID(ctx, id, map[string]any{"active": active}, "active"); err != nil {
		return err
	}
	s.invalidatePrincipal(ctx, id)

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionUpdate, "user", id).
		WithDetail("active", active))
	return nil
}

// SetRoles 重设员工角色
func (s *UserService) SetRoles(ctx context.Context, id int64, roleNames []string) (*model.User, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapUsersManage); err != nil {
		return nil, err
	}
	if len(roleNames) == 0 {
		verr := &validator.ValidationError{}
		verr.Add("Roles", "at least one role is required")
		return nil, verr
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	roles, err := s.resolveRoles(ctx, roleNames)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		return tx.Model(user).Association("Roles").Replace(toRoleRefs(roles))
	}); err != nil {
		return nil, err
	}
	s.invalidatePrincipal(ctx, id)

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionUpdate, "user", id).
		WithDetail("roles", roleNames))
	return s.Get(ctx, id)
}

// Delete 删除员工账号
func (s *UserService) Delete(ctx context.Context, id int64) error {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := authz.Require(p, authz.CapUsersManage); err != nil {
		return err
	}
	if id == p.UserID {
		verr := &validator.ValidationError{}
		verr.Add("ID", "cannot delete your own account")
		return verr
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidatePrincipal(ctx, id)

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionDelete, "user", id))
	return nil
}

// resolveRoles 按名称去重并解析全局角色记录
func (s *UserService) resolveRoles(ctx context.Context, names []string) ([]model.Role, error) {
	uniq := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if _, ok := seen[n]; ok || n == "" {
			continue
		}
		seen[n] = struct{}{}
		uniq = append(uniq, n)
	}

	found, err := s.roleRepo.FindByQuery(ctx, "name IN ?", uniq)
	if err != nil {
		return nil, err
	}
	if len(found) != len(uniq) {
		verr := &validator.ValidationError{}
		verr.Add("Roles", "unknown role")
		return nil, verr
	}

	roles := make([]model.Role, 0, len(found))
	for _, r := range found {
		roles = append(roles, *r)
	}
	return roles, nil
}

func toRoleRefs(roles []model.Role) []model.Role {
	// Association.Replace 只需要主键, 避免带实体副本触发 upsert
	refs := make([]model.Role, 0, len(roles))
	for _, r := range roles {
		refs = append(refs, model.Role{ID: r.ID})
	}
	return refs
}

func (s *UserService) invalidatePrincipal(ctx context.Context, userID int64) {
	if s.principal == nil {
		return
	}
	if err := s.principal.Invalidate(ctx, userID); err != nil {
		s.log.Warn("invalidate principal cache failed",
			zap.Int64("user_id", userID), zap.Error(err))
	}
}

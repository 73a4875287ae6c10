package service

import (
	"context"
	"strings"

	"github.com/aisgo/workshop-server/utils/id-generator/ulid"
	"go.uber.org/zap"

	"github.com/aisgo/workshop-server/audit"
	"github.com/aisgo/workshop-server/errors"
	"github.com/aisgo/workshop-server/logger"
	"github.com/aisgo/workshop-server/metrics"
	"github.com/aisgo/workshop-server/model"
	"github.com/aisgo/workshop-server/repository"
	"github.com/aisgo/workshop-server/utils/password"
	"github.com/aisgo/workshop-server/validator"
)

/* ========================================================================
 * Registration Service - 门店注册
 * ========================================================================
 * 职责: 一个事务内创建门店 + 店主账号 + owner 角色关联
 * 任一步失败整体回滚, 不会留下无主门店或无门店用户
 * ======================================================================== */

// RegisterInput 注册请求
type RegisterInput struct {
	WorkshopName string `json:"workshop_name" validate:"required,min=2,max=200" error_msg:"required:workshop name is required|min:workshop name is too short|max:workshop name is too long"`
	Email        string `json:"email" validate:"required,email,max=255" error_msg:"required:email is required|email:invalid email address"`
	Password     string `json:"password" validate:"required,min=8,max=72" error_msg:"required:password is required|min:password must be at least 8 characters|max:password is too long"`
	FullName     string `json:"full_name" validate:"required,min=1,max=120" error_msg:"required:full name is required"`
}

// RegisterResult 注册结果
type RegisterResult struct {
	Workshop *model.Workshop `json:"workshop"`
	Owner    *model.User     `json:"owner"`
}

// RegistrationService 注册服务
type RegistrationService struct {
	workshopRepo repository.Repository[model.Workshop]
	userRepo     repository.Repository[model.User]
	roleRepo     repository.Repository[model.Role]
	validate     *validator.Validator
	audit        audit.Publisher
	log          *logger.Logger
}

// NewRegistrationService 创建注册服务
func NewRegistrationService(
	workshopRepo repository.Repository[model.Workshop],
	userRepo repository.Repository[model.User],
	roleRepo repository.Repository[model.Role],
	validate *validator.Validator,
	auditPub audit.Publisher,
	log *logger.Logger,
) *RegistrationService {
	return &RegistrationService{
		workshopRepo: workshopRepo,
		userRepo:     userRepo,
		roleRepo:     roleRepo,
		validate:     validate,
		audit:        auditPub,
		log:          log,
	}
}

// Register 注册新门店与店主
// 注册是未认证操作: 创建 user 时 workshop_id 预先填好,
// 无需租户上下文（仓储对预设租户字段放行）
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	// 预检重复邮箱给出友好错误; 并发窗口由唯一索引兜底
	var existing int64
	if err := s.userRepo.GetDB().WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", email).
		Count(&existing).Error; err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to check email", err)
	}
	if existing > 0 {
		metrics.RegistrationTotal.WithLabelValues("rejected").Inc()
		return nil, emailTakenError()
	}

	hash, err := password.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to hash password", err)
	}

	workshop := &model.Workshop{
		ID:   ulid.Generate(),
		Name: strings.TrimSpace(input.WorkshopName),
	}
	owner := &model.User{
		WorkshopID:   workshop.ID,
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		Active:       true,
	}

	err = s.workshopRepo.Execute(ctx, func(txCtx context.Context) error {
		if err := s.workshopRepo.Create(txCtx, workshop); err != nil {
			return err
		}

		ownerRole, err := s.roleRepo.FindOne(txCtx, "name = ?", model.RoleOwner)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, "owner role not seeded", err)
		}
		owner.Roles = []model.Role{*ownerRole}

		return s.userRepo.Create(txCtx, owner)
	})
	if err != nil {
		if isUniqueViolation(err) {
			metrics.RegistrationTotal.WithLabelValues("rejected").Inc()
			return nil, emailTakenError()
		}
		metrics.RegistrationTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.RegistrationTotal.WithLabelValues("ok").Inc()
	s.log.Info("workshop registered",
		zap.String("workshop_id", workshop.ID.String()),
		zap.Int64("owner_id", owner.ID),
	)
	_ = s.audit.Publish(ctx, audit.NewEvent(workshop.ID, owner.ID, audit.ActionRegister, "workshop", 0).
		WithDetail("workshop_name", workshop.Name))

	return &RegisterResult{Workshop: workshop, Owner: owner}, nil
}

func emailTakenError() error {
	verr := &validator.ValidationError{}
	verr.Add("Email", "email is already registered")
	return verr
}

// isUniqueViolation 识别各驱动的唯一约束错误
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || // postgres
		strings.Contains(msg, "Duplicate entry") || // mysql
		strings.Contains(msg, "UNIQUE constraint failed") // sqlite
}

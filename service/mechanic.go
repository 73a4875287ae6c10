package service

import (
	"context"
	"strings"

	"github.com/aisgo/workshop-server/audit"
	"github.com/aisgo/workshop-server/authz"
	"github.com/aisgo/workshop-server/logger"
	"github.com/aisgo/workshop-server/model"
	"github.com/aisgo/workshop-server/repository"
	"github.com/aisgo/workshop-server/validator"
)

/* ========================================================================
 * Mechanic Service - 技师管理
 * ========================================================================
 * 技师是门店资源档案, 与登录账号 (User) 相互独立
 * ======================================================================== */

// CreateMechanicInput 创建技师请求
type CreateMechanicInput struct {
	FullName   string `json:"full_name" validate:"required,min=1,max=120" error_msg:"required:full name is required"`
	Phone      string `json:"phone" validate:"omitempty,max=40" error_msg:"max:phone is too long"`
	HourlyRate int64  `json:"hourly_rate" validate:"omitempty,min=0" error_msg:"min:hourly rate cannot be negative"` // 最小货币单位
	Active     *bool  `json:"active"`
}

// UpdateMechanicInput 更新技师请求
type UpdateMechanicInput = CreateMechanicInput

// MechanicService 技师服务
type MechanicService struct {
	repo     repository.Repository[model.Mechanic]
	validate *validator.Validator
	audit    audit.Publisher
	log      *logger.Logger
}

// NewMechanicService 创建技师服务
func NewMechanicService(
	repo repository.Repository[model.Mechanic],
	validate *validator.Validator,
	auditPub audit.Publisher,
	log *logger.Logger,
) *MechanicService {
	return &MechanicService{repo: repo, validate: validate, audit: auditPub, log: log}
}

// Create 创建技师
func (s *MechanicService) Create(ctx context.Context, input CreateMechanicInput) (*model.Mechanic, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapMechanicsManage); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	mechanic := &model.Mechanic{
		FullName:   strings.TrimSpace(input.FullName),
		Phone:      input.Phone,
		HourlyRate: input.HourlyRate,
		Active:     active,
	}
	if err := s.repo.Create(ctx, mechanic); err != nil {
		return nil, err
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionCreate, "mechanic", mechanic.ID))
	return mechanic, nil
}

// Get 查询技师
func (s *MechanicService) Get(ctx context.Context, id int64) (*model.Mechanic, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapMechanicsManage); err != nil {
		return nil, err
	}

	mechanic, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSameWorkshop(p, mechanic.WorkshopID); err != nil {
		return nil, err
	}
	return mechanic, nil
}

// List 分页查询技师, activeOnly 只含在职技师
func (s *MechanicService) List(ctx context.Context, page, pageSize int, activeOnly bool) (*repository.PageResult[model.Mechanic], error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapMechanicsManage); err != nil {
		return nil, err
	}

	opts := []repository.Option{repository.WithOrderBy("full_name ASC")}
	if activeOnly {
		return s.repo.FindPageWithOpts(ctx, page, pageSize, "active = ?", opts, true)
	}
	return s.repo.FindPageWithOpts(ctx, page, pageSize, "", opts)
}

// Update 更新技师
func (s *MechanicService) Update(ctx context.Context, id int64, input UpdateMechanicInput) (*model.Mechanic, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapMechanicsManage); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	mechanic, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	mechanic.FullName = strings.TrimSpace(input.FullName)
	mechanic.Phone = input.Phone
	mechanic.HourlyRate = input.HourlyRate
	if input.Active != nil {
		mechanic.Active = *input.Active
	}

	if err := s.repo.Update(ctx, mechanic); err != nil {
		return nil, err
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionUpdate, "mechanic", mechanic.ID))
	return mechanic, nil
}

// Delete 软删除技师
// 历史工时记录保留, 只是档案不再可选
func (s *MechanicService) Delete(ctx context.Context, id int64) error {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := authz.Require(p, authz.CapMechanicsManage); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionDelete, "mechanic", id))
	return nil
}

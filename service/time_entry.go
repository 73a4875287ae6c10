package service

import (
	"context"

	"github.com/aisgo/workshop-server/audit"
	"github.com/aisgo/workshop-server/authz"
	"github.com/aisgo/workshop-server/errors"
	"github.com/aisgo/workshop-server/logger"
	"github.com/aisgo/workshop-server/model"
	"github.com/aisgo/workshop-server/repository"
	"github.com/aisgo/workshop-server/validator"
)

/* ========================================================================
 * Time Entry Service - 工时记录
 * ========================================================================
 * 工时表无 workshop_id 列, 租户归属经由工单与技师双重解析:
 * 两者都必须能在当前门店内找到, 否则拒绝写入
 * ======================================================================== */

// LogTimeInput 记录工时请求
// 时长以 小时 + 分钟 提交, 存储为总分钟数
type LogTimeInput struct {
	RepairOrderID int64  `json:"repair_order_id,string" validate:"required" error_msg:"required:repair order is required"`
	MechanicID    int64  `json:"mechanic_id,string" validate:"required" error_msg:"required:mechanic is required"`
	Hours         int    `json:"hours" validate:"min=0,max=1000" error_msg:"min:hours cannot be negative|max:too many hours"`
	Minutes       int    `json:"minutes" validate:"min=0,max=59" error_msg:"min:minutes cannot be negative|max:minutes must be below 60"`
	Description   string `json:"description" validate:"omitempty,max=2000" error_msg:"max:description is too long"`
}

// TimeEntryService 工时服务
type TimeEntryService struct {
	repo         repository.Repository[model.TimeEntry]
	orderRepo    repository.Repository[model.RepairOrder]
	mechanicRepo repository.Repository[model.Mechanic]
	validate     *validator.Validator
	audit        audit.Publisher
	log          *logger.Logger
}

// NewTimeEntryService 创建工时服务
func NewTimeEntryService(
	repo repository.Repository[model.TimeEntry],
	orderRepo repository.Repository[model.RepairOrder],
	mechanicRepo repository.Repository[model.Mechanic],
	validate *validator.Validator,
	auditPub audit.Publisher,
	log *logger.Logger,
) *TimeEntryService {
	return &TimeEntryService{
		repo:         repo,
		orderRepo:    orderRepo,
		mechanicRepo: mechanicRepo,
		validate:     validate,
		audit:        auditPub,
		log:          log,
	}
}

// Log 记录工时
func (s *TimeEntryService) Log(ctx context.Context, input LogTimeInput) (*model.TimeEntry, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapTimeLog); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	total := input.Hours*60 + input.Minutes
	if total <= 0 {
		verr := &validator.ValidationError{}
		verr.Add("Minutes", "duration must be positive")
		return nil, verr
	}

	// 工单必须在当前门店
	if _, err := s.orderRepo.FindByID(ctx, input.RepairOrderID); err != nil {
		return nil, err
	}

	// 技师必须在当前门店且在职; 他店/不存在的技师 id 属于坏输入,
	// 与在职校验一样按字段错误上报, 而不是 not found
	mechanic, err := s.mechanicRepo.FindByID(ctx, input.MechanicID)
	if err != nil {
		if errors.IsNotFound(err) {
			verr := &validator.ValidationError{}
			verr.Add("MechanicID", "mechanic does not exist in this workshop")
			return nil, verr
		}
		return nil, err
	}
	if !mechanic.Active {
		verr := &validator.ValidationError{}
		verr.Add("MechanicID", "mechanic is not active")
		return nil, verr
	}

	entry := &model.TimeEntry{
		RepairOrderID:   input.RepairOrderID,
		MechanicID:      input.MechanicID,
		DurationMinutes: total,
		Description:     input.Description,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionCreate, "time_entry", entry.ID).
		WithDetail("repair_order_id", input.RepairOrderID).
		WithDetail("duration_minutes", total))
	return entry, nil
}

// ListByOrder 查询工单的全部工时记录
// 先按租户解析工单, 失败即 not found, 不会看到他店记录
func (s *TimeEntryService) ListByOrder(ctx context.Context, orderID int64) ([]*model.TimeEntry, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapOrdersView); err != nil {
		return nil, err
	}

	if _, err := s.orderRepo.FindByID(ctx, orderID); err != nil {
		return nil, err
	}

	return s.repo.FindByQueryWithOpts(ctx, "repair_order_id = ?",
		[]repository.Option{repository.WithOrderBy("create_time ASC")}, orderID)
}

// TotalMinutes 统计工单总工时（分钟）
func (s *TimeEntryService) TotalMinutes(ctx context.Context, orderID int64) (int64, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return 0, err
	}
	if err := authz.Require(p, authz.CapOrdersView); err != nil {
		return 0, err
	}

	if _, err := s.orderRepo.FindByID(ctx, orderID); err != nil {
		return 0, err
	}

	total, err := s.repo.Sum(ctx, "duration_minutes", "repair_order_id = ?", orderID)
	if err != nil {
		return 0, err
	}
	return int64(total), nil
}

// UpdateTimeEntryInput 修改工时请求
type UpdateTimeEntryInput struct {
	Hours       int    `json:"hours" validate:"min=0,max=1000" error_msg:"min:hours cannot be negative|max:too many hours"`
	Minutes     int    `json:"minutes" validate:"min=0,max=59" error_msg:"min:minutes cannot be negative|max:minutes must be below 60"`
	Description string `json:"description" validate:"omitempty,max=2000" error_msg:"max:description is too long"`
}

// Update 修改工时记录的时长与说明
// 工单与技师引用不可变更, 需要改挂记录时删除后重建
func (s *TimeEntryService) Update(ctx context.Context, id int64, input UpdateTimeEntryInput) (*model.TimeEntry, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapTimeLog); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	total := input.Hours*60 + input.Minutes
	if total <= 0 {
		verr := &validator.ValidationError{}
		verr.Add("Minutes", "duration must be positive")
		return nil, verr
	}

	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 经由工单解析租户
	if _, err := s.orderRepo.FindByID(ctx, entry.RepairOrderID); err != nil {
		return nil, err
	}

	entry.DurationMinutes = total
	entry.Description = input.Description
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, err
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionUpdate, "time_entry", id).
		WithDetail("duration_minutes", total))
	return entry, nil
}

// Delete 删除工时记录
func (s *TimeEntryService) Delete(ctx context.Context, id int64) error {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := authz.Require(p, authz.CapTimeLog); err != nil {
		return err
	}

	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	// 经由工单解析租户
	if _, err := s.orderRepo.FindByID(ctx, entry.RepairOrderID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionDelete, "time_entry", id))
	return nil
}

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
 * Note Service - 内部备注
 * ========================================================================
 * 备注挂在工单/客户/车辆之一（带标签引用）, 仅员工可见。
 * 备注表无 workshop_id 列, 租户归属经由被挂实体解析:
 * 解析失败（不存在或他店）一律 not found
 * ======================================================================== */

// AddNoteInput 添加备注请求
type AddNoteInput struct {
	NotableType model.NotableType `json:"notable_type" validate:"required" error_msg:"required:notable type is required"`
	NotableID   int64             `json:"notable_id,string" validate:"required" error_msg:"required:notable id is required"`
	Content     string            `json:"content" validate:"required,min=1,max=10000" error_msg:"required:note content is required|max:note content is too long"`
}

// NoteService 备注服务
type NoteService struct {
	repo        repository.Repository[model.InternalNote]
	orderRepo   repository.Repository[model.RepairOrder]
	clientRepo  repository.Repository[model.Client]
	vehicleRepo repository.Repository[model.Vehicle]
	validate    *validator.Validator
	audit       audit.Publisher
	log         *logger.Logger
}

// NewNoteService 创建备注服务
func NewNoteService(
	repo repository.Repository[model.InternalNote],
	orderRepo repository.Repository[model.RepairOrder],
	clientRepo repository.Repository[model.Client],
	vehicleRepo repository.Repository[model.Vehicle],
	validate *validator.Validator,
	auditPub audit.Publisher,
	log *logger.Logger,
) *NoteService {
	return &NoteService{
		repo:        repo,
		orderRepo:   orderRepo,
		clientRepo:  clientRepo,
		vehicleRepo: vehicleRepo,
		validate:    validate,
		audit:       auditPub,
		log:         log,
	}
}

// Add 添加备注
func (s *NoteService) Add(ctx context.Context, input AddNoteInput) (*model.InternalNote, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapNotesWrite); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	ref := model.NotableRef{Type: input.NotableType, ID: input.NotableID}
	if err := s.resolveNotable(ctx, ref); err != nil {
		return nil, err
	}

	note := &model.InternalNote{
		NotableType: input.NotableType,
		NotableID:   input.NotableID,
		AuthorID:    p.UserID,
		Content:     strings.TrimSpace(input.Content),
	}
	if err := s.repo.Create(ctx, note); err != nil {
		return nil, err
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionCreate, "internal_note", note.ID).
		WithDetail("notable_type", string(input.NotableType)).
		WithDetail("notable_id", input.NotableID))
	return note, nil
}

// ListFor 查询实体的全部备注
func (s *NoteService) ListFor(ctx context.Context, notableType model.NotableType, notableID int64) ([]*model.InternalNote, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapNotesWrite); err != nil {
		return nil, err
	}

	ref := model.NotableRef{Type: notableType, ID: notableID}
	if err := s.resolveNotable(ctx, ref); err != nil {
		return nil, err
	}

	return s.repo.FindByQueryWithOpts(ctx, "notable_type = ? AND notable_id = ?",
		[]repository.Option{repository.WithOrderBy("create_time ASC")}, notableType, notableID)
}

// Delete 删除备注
func (s *NoteService) Delete(ctx context.Context, id int64) error {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := authz.Require(p, authz.CapNotesWrite); err != nil {
		return err
	}

	note, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.resolveNotable(ctx, note.Ref()); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionDelete, "internal_note", id))
	return nil
}

// resolveNotable 按变体解析被挂实体, 必须存在于当前门店
func (s *NoteService) resolveNotable(ctx context.Context, ref model.NotableRef) error {
	if !ref.Type.Valid() {
		verr := &validator.ValidationError{}
		verr.Add("NotableType", "unknown notable type")
		return verr
	}

	var err error
	switch ref.Type {
	case model.NotableRepairOrder:
		_, err = s.orderRepo.FindByID(ctx, ref.ID)
	case model.NotableClient:
		_, err = s.clientRepo.FindByID(ctx, ref.ID)
	case model.NotableVehicle:
		_, err = s.vehicleRepo.FindByID(ctx, ref.ID)
	}
	return err
}

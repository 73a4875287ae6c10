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
 * Client Service - 客户管理
 * ======================================================================== */

// CreateClientInput 创建客户请求
type CreateClientInput struct {
	Name  string `json:"name" validate:"required,min=1,max=200" error_msg:"required:client name is required|max:client name is too long"`
	Phone string `json:"phone" validate:"omitempty,max=40" error_msg:"max:phone is too long"`
	Email string `json:"email" validate:"omitempty,email,max=255" error_msg:"email:invalid email address"`
	Notes string `json:"notes" validate:"omitempty,max=2000" error_msg:"max:notes are too long"`
}

// UpdateClientInput 更新客户请求
type UpdateClientInput = CreateClientInput

// ClientService 客户服务
type ClientService struct {
	repo     repository.Repository[model.Client]
	validate *validator.Validator
	audit    audit.Publisher
	log      *logger.Logger
}

// NewClientService 创建客户服务
func NewClientService(
	repo repository.Repository[model.Client],
	validate *validator.Validator,
	auditPub audit.Publisher,
	log *logger.Logger,
) *ClientService {
	return &ClientService{repo: repo, validate: validate, audit: auditPub, log: log}
}

// Create 创建客户
func (s *ClientService) Create(ctx context.Context, input CreateClientInput) (*model.Client, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapClientsManage); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	client := &model.Client{
		Name:  strings.TrimSpace(input.Name),
		Phone: input.Phone,
		Email: strings.ToLower(strings.TrimSpace(input.Email)),
		Notes: input.Notes,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, err
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionCreate, "client", client.ID))
	return client, nil
}

// Get 查询单个客户
func (s *ClientService) Get(ctx context.Context, id int64) (*model.Client, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapClientsManage); err != nil {
		return nil, err
	}

	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSameWorkshop(p, client.WorkshopID); err != nil {
		return nil, err
	}
	return client, nil
}

// List 分页查询客户, search 匹配名称/电话
func (s *ClientService) List(ctx context.Context, page, pageSize int, search string) (*repository.PageResult[model.Client], error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapClientsManage); err != nil {
		return nil, err
	}

	opts := []repository.Option{repository.WithOrderBy("create_time DESC")}
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + search + "%"
		return s.repo.FindPageWithOpts(ctx, page, pageSize, "name LIKE ? OR phone LIKE ?", opts, like, like)
	}
	return s.repo.FindPageWithOpts(ctx, page, pageSize, "", opts)
}

// Update 更新客户
func (s *ClientService) Update(ctx context.Context, id int64, input UpdateClientInput) (*model.Client, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapClientsManage); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	client.Name = strings.TrimSpace(input.Name)
	client.Phone = input.Phone
	client.Email = strings.ToLower(strings.TrimSpace(input.Email))
	client.Notes = input.Notes

	if err := s.repo.Update(ctx, client); err != nil {
		return nil, err
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionUpdate, "client", client.ID))
	return client, nil
}

// Delete 软删除客户
func (s *ClientService) Delete(ctx context.Context, id int64) error {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := authz.Require(p, authz.CapClientsManage); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionDelete, "client", id))
	return nil
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/aisgo/workshop-server/audit"
	"github.com/aisgo/workshop-server/authz"
	"github.com/aisgo/workshop-server/errors"
	"github.com/aisgo/workshop-server/logger"
	"github.com/aisgo/workshop-server/model"
	"github.com/aisgo/workshop-server/repository"
	"github.com/aisgo/workshop-server/validator"
)

/* ========================================================================
 * Repair Order Service - 工单管理
 * ========================================================================
 * 职责: 工单 CRUD + 状态流转 + 嵌套建档
 * 状态: 七个合法状态之间自由流转, 无状态机约束;
 *       closed 仅按惯例视为终态, 可以重新打开
 * 嵌套: 新客户来店可在一个事务里同时建客户/车辆/工单
 * ======================================================================== */

// NewOrderVehicle 工单内嵌车辆建档
// ClientID 与 NewClient 二选一
type NewOrderVehicle struct {
	ClientID  int64              `json:"client_id,string"`
	NewClient *CreateClientInput `json:"new_client"`

	VIN     string `json:"vin" validate:"required,min=5,max=17" error_msg:"required:vin is required|min:vin is too short|max:vin is too long"`
	Plate   string `json:"plate" validate:"omitempty,max=16"`
	Make    string `json:"make" validate:"omitempty,max=60"`
	Model   string `json:"model" validate:"omitempty,max=60"`
	Year    int    `json:"year" validate:"omitempty,min=1900,max=2100" error_msg:"min:invalid year|max:invalid year"`
	Mileage int    `json:"mileage" validate:"omitempty,min=0" error_msg:"min:mileage cannot be negative"`
}

// CreateOrderInput 创建工单请求
// VehicleID 与 NewVehicle 二选一
type CreateOrderInput struct {
	VehicleID  int64            `json:"vehicle_id,string"`
	NewVehicle *NewOrderVehicle `json:"new_vehicle"`
	Problem    string           `json:"problem" validate:"required,min=1,max=10000" error_msg:"required:problem description is required|max:problem description is too long"`
}

// UpdateOrderInput 更新工单请求（状态走单独接口）
type UpdateOrderInput struct {
	VehicleID int64  `json:"vehicle_id,string" validate:"required" error_msg:"required:vehicle is required"`
	Problem   string `json:"problem" validate:"required,min=1,max=10000" error_msg:"required:problem description is required|max:problem description is too long"`
}

// OrderListFilter 工单列表过滤
type OrderListFilter struct {
	Status    model.OrderStatus
	VehicleID int64
}

// RepairOrderService 工单服务
type RepairOrderService struct {
	repo        repository.Repository[model.RepairOrder]
	vehicleRepo repository.Repository[model.Vehicle]
	clientRepo  repository.Repository[model.Client]
	validate    *validator.Validator
	audit       audit.Publisher
	log         *logger.Logger
}

// NewRepairOrderService 创建工单服务
func NewRepairOrderService(
	repo repository.Repository[model.RepairOrder],
	vehicleRepo repository.Repository[model.Vehicle],
	clientRepo repository.Repository[model.Client],
	validate *validator.Validator,
	auditPub audit.Publisher,
	log *logger.Logger,
) *RepairOrderService {
	return &RepairOrderService{
		repo:        repo,
		vehicleRepo: vehicleRepo,
		clientRepo:  clientRepo,
		validate:    validate,
		audit:       auditPub,
		log:         log,
	}
}

// Create 创建工单
// 支持嵌套建档: 事务内按需创建客户和车辆, 任一步失败整体回滚
func (s *RepairOrderService) Create(ctx context.Context, input CreateOrderInput) (*model.RepairOrder, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapOrdersManage); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	if (input.VehicleID > 0) == (input.NewVehicle != nil) {
		verr := &validator.ValidationError{}
		verr.Add("VehicleID", "provide exactly one of vehicle_id or new_vehicle")
		return nil, verr
	}

	order := &model.RepairOrder{
		Status:  model.StatusNew,
		Problem: strings.TrimSpace(input.Problem),
	}

	if input.VehicleID > 0 {
		vehicle, err := s.vehicleRepo.FindByID(ctx, input.VehicleID)
		if err != nil {
			return nil, err
		}
		order.VehicleID = vehicle.ID

		if err := s.repo.Create(ctx, order); err != nil {
			return nil, err
		}
	} else {
		if err := s.createNested(ctx, input.NewVehicle, order); err != nil {
			return nil, err
		}
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionCreate, "repair_order", order.ID).
		WithDetail("vehicle_id", order.VehicleID))
	return order, nil
}

// createNested 嵌套建档: (客户) -> 车辆 -> 工单, 单事务
func (s *RepairOrderService) createNested(ctx context.Context, nv *NewOrderVehicle, order *model.RepairOrder) error {
	if err := s.validate.Validate(*nv); err != nil {
		return err
	}
	if (nv.ClientID > 0) == (nv.NewClient != nil) {
		verr := &validator.ValidationError{}
		verr.Add("NewVehicle.ClientID", "provide exactly one of client_id or new_client")
		return verr
	}
	if nv.NewClient != nil {
		if err := s.validate.Validate(*nv.NewClient); err != nil {
			return err
		}
	}

	return s.repo.Execute(ctx, func(txCtx context.Context) error {
		clientID := nv.ClientID
		if nv.NewClient != nil {
			client := &model.Client{
				Name:  strings.TrimSpace(nv.NewClient.Name),
				Phone: nv.NewClient.Phone,
				Email: strings.ToLower(strings.TrimSpace(nv.NewClient.Email)),
				Notes: nv.NewClient.Notes,
			}
			if err := s.clientRepo.Create(txCtx, client); err != nil {
				return err
			}
			clientID = client.ID
		} else {
			if _, err := s.clientRepo.FindByID(txCtx, clientID); err != nil {
				return err
			}
		}

		vin := normalizeVIN(nv.VIN)
		taken, err := s.vehicleRepo.Exists(txCtx, "vin = ?", vin)
		if err != nil {
			return err
		}
		if taken {
			return vinTakenError()
		}

		vehicle := &model.Vehicle{
			ClientID:  clientID,
			VIN:       vin,
			Plate:     strings.ToUpper(strings.TrimSpace(nv.Plate)),
			Make:      nv.Make,
			ModelName: nv.Model,
			Year:      nv.Year,
			Mileage:   nv.Mileage,
		}
		if err := s.vehicleRepo.Create(txCtx, vehicle); err != nil {
			if isUniqueViolation(err) {
				return vinTakenError()
			}
			return err
		}

		order.VehicleID = vehicle.ID
		return s.repo.Create(txCtx, order)
	})
}

// Get 查询工单
func (s *RepairOrderService) Get(ctx context.Context, id int64) (*model.RepairOrder, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapOrdersView); err != nil {
		return nil, err
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSameWorkshop(p, order.WorkshopID); err != nil {
		return nil, err
	}
	return order, nil
}

// List 分页查询工单
func (s *RepairOrderService) List(ctx context.Context, page, pageSize int, filter OrderListFilter) (*repository.PageResult[model.RepairOrder], error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapOrdersView); err != nil {
		return nil, err
	}

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, errors.Newf(errors.ErrCodeInvalidStatus, "unknown status %q", filter.Status)
	}

	opts := []repository.Option{repository.WithOrderBy("create_time DESC")}
	query := ""
	var args []any
	if filter.Status != "" {
		query = "status = ?"
		args = append(args, filter.Status)
	}
	if filter.VehicleID > 0 {
		if query != "" {
			query += " AND vehicle_id = ?"
		} else {
			query = "vehicle_id = ?"
		}
		args = append(args, filter.VehicleID)
	}

	return s.repo.FindPageWithOpts(ctx, page, pageSize, query, opts, args...)
}

// Update 更新工单内容
func (s *RepairOrderService) Update(ctx context.Context, id int64, input UpdateOrderInput) (*model.RepairOrder, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapOrdersManage); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.VehicleID != order.VehicleID {
		if _, err := s.vehicleRepo.FindByID(ctx, input.VehicleID); err != nil {
			return nil, err
		}
		order.VehicleID = input.VehicleID
	}
	order.Problem = strings.TrimSpace(input.Problem)

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionUpdate, "repair_order", order.ID))
	return order, nil
}

// UpdateStatus 状态流转
// 只校验枚举合法性和操作权限, 不校验来源状态;
// 首次进入 in_progress 记 started_at, 进入 closed 记 finished_at,
// 重新打开会清掉 finished_at
func (s *RepairOrderService) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.RepairOrder, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapOrdersStatus); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, errors.Newf(errors.ErrCodeInvalidStatus, "unknown status %q", status)
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}

	from := order.Status
	now := time.Now()
	order.Status = status

	if status == model.StatusInProgress && order.StartedAt == nil {
		order.StartedAt = &now
	}
	if status == model.StatusClosed {
		order.FinishedAt = &now
	} else {
		order.FinishedAt = nil
	}

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionStatusChange, "repair_order", order.ID).
		WithDetail("from", string(from)).
		WithDetail("to", string(status)))
	return order, nil
}

// Delete 软删除工单
func (s *RepairOrderService) Delete(ctx context.Context, id int64) error {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := authz.Require(p, authz.CapOrdersManage); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionDelete, "repair_order", id))
	return nil
}

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
 * Vehicle Service - 车辆管理
 * ========================================================================
 * VIN 在同一门店内唯一, 不同门店可以登记同一辆车
 * ======================================================================== */

// CreateVehicleInput 创建车辆请求
type CreateVehicleInput struct {
	ClientID int64  `json:"client_id,string" validate:"required" error_msg:"required:client is required"`
	VIN      string `json:"vin" validate:"required,min=5,max=17" error_msg:"required:vin is required|min:vin is too short|max:vin is too long"`
	Plate    string `json:"plate" validate:"omitempty,max=16" error_msg:"max:plate is too long"`
	Make     string `json:"make" validate:"omitempty,max=60"`
	Model    string `json:"model" validate:"omitempty,max=60"`
	Year     int    `json:"year" validate:"omitempty,min=1900,max=2100" error_msg:"min:invalid year|max:invalid year"`
	Mileage  int    `json:"mileage" validate:"omitempty,min=0" error_msg:"min:mileage cannot be negative"`
}

// UpdateVehicleInput 更新车辆请求（不允许改 VIN 归属以外的约束字段时仍整体提交）
type UpdateVehicleInput = CreateVehicleInput

// VehicleService 车辆服务
type VehicleService struct {
	repo       repository.Repository[model.Vehicle]
	clientRepo repository.Repository[model.Client]
	validate   *validator.Validator
	audit      audit.Publisher
	log        *logger.Logger
}

// NewVehicleService 创建车辆服务
func NewVehicleService(
	repo repository.Repository[model.Vehicle],
	clientRepo repository.Repository[model.Client],
	validate *validator.Validator,
	auditPub audit.Publisher,
	log *logger.Logger,
) *VehicleService {
	return &VehicleService{repo: repo, clientRepo: clientRepo, validate: validate, audit: auditPub, log: log}
}

// Create 创建车辆
func (s *VehicleService) Create(ctx context.Context, input CreateVehicleInput) (*model.Vehicle, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapVehiclesManage); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	// 客户必须属于当前门店
	if _, err := s.clientRepo.FindByID(ctx, input.ClientID); err != nil {
		return nil, err
	}

	vin := normalizeVIN(input.VIN)
	if err := s.checkVINAvailable(ctx, vin, 0); err != nil {
		return nil, err
	}

	vehicle := &model.Vehicle{
		ClientID:  input.ClientID,
		VIN:       vin,
		Plate:     strings.ToUpper(strings.TrimSpace(input.Plate)),
		Make:      input.Make,
		ModelName: input.Model,
		Year:      input.Year,
		Mileage:   input.Mileage,
	}
	if err := s.repo.Create(ctx, vehicle); err != nil {
		if isUniqueViolation(err) {
			return nil, vinTakenError()
		}
		return nil, err
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionCreate, "vehicle", vehicle.ID))
	return vehicle, nil
}

// Get 查询单辆车
func (s *VehicleService) Get(ctx context.Context, id int64) (*model.Vehicle, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapVehiclesManage); err != nil {
		return nil, err
	}

	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSameWorkshop(p, vehicle.WorkshopID); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// List 分页查询车辆, 可按客户过滤
func (s *VehicleService) List(ctx context.Context, page, pageSize int, clientID int64) (*repository.PageResult[model.Vehicle], error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapVehiclesManage); err != nil {
		return nil, err
	}

	opts := []repository.Option{repository.WithOrderBy("create_time DESC")}
	if clientID > 0 {
		return s.repo.FindPageWithOpts(ctx, page, pageSize, "client_id = ?", opts, clientID)
	}
	return s.repo.FindPageWithOpts(ctx, page, pageSize, "", opts)
}

// Update 更新车辆
func (s *VehicleService) Update(ctx context.Context, id int64, input UpdateVehicleInput) (*model.Vehicle, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapVehiclesManage); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.clientRepo.FindByID(ctx, input.ClientID); err != nil {
		return nil, err
	}

	vin := normalizeVIN(input.VIN)
	if vin != vehicle.VIN {
		if err := s.checkVINAvailable(ctx, vin, vehicle.ID); err != nil {
			return nil, err
		}
	}

	vehicle.ClientID = input.ClientID
	vehicle.VIN = vin
	vehicle.Plate = strings.ToUpper(strings.TrimSpace(input.Plate))
	vehicle.Make = input.Make
	vehicle.ModelName = input.Model
	vehicle.Year = input.Year
	vehicle.Mileage = input.Mileage

	if err := s.repo.Update(ctx, vehicle); err != nil {
		if isUniqueViolation(err) {
			return nil, vinTakenError()
		}
		return nil, err
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionUpdate, "vehicle", vehicle.ID))
	return vehicle, nil
}

// Delete 软删除车辆
func (s *VehicleService) Delete(ctx context.Context, id int64) error {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := authz.Require(p, authz.CapVehiclesManage); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	_ = s.audit.Publish(ctx, audit.NewEvent(p.WorkshopID, p.UserID, audit.ActionDelete, "vehicle", id))
	return nil
}

// checkVINAvailable 校验 VIN 在本门店未被占用
// excludeID 排除自身（更新场景）
func (s *VehicleService) checkVINAvailable(ctx context.Context, vin string, excludeID int64) error {
	exists, err := s.repo.Exists(ctx, "vin = ? AND id != ?", vin, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return vinTakenError()
	}
	return nil
}

func normalizeVIN(vin string) string {
	return strings.ToUpper(strings.TrimSpace(vin))
}

func vinTakenError() error {
	verr := &validator.ValidationError{}
	verr.Add("VIN", "vin is already registered in this workshop")
	return verr
}

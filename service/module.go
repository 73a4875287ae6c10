package service

import (
	"github.com/aisgo/workshop-server/model"
	"github.com/aisgo/workshop-server/repository"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

/* ========================================================================
 * Service Module
 * ========================================================================
 * 职责: 提供业务服务与各实体仓储的依赖注入模块
 * ======================================================================== */

// Module 业务服务模块
// 仓储按实体逐个注册, 服务构造函数按类型取用
var Module = fx.Module("service",
	fx.Provide(
		func(db *gorm.DB) repository.Repository[model.Workshop] { return repository.NewRepository[model.Workshop](db) },
		func(db *gorm.DB) repository.Repository[model.User] { return repository.NewRepository[model.User](db) },
		func(db *gorm.DB) repository.Repository[model.Role] { return repository.NewRepository[model.Role](db) },
		func(db *gorm.DB) repository.Repository[model.Client] { return repository.NewRepository[model.Client](db) },
		func(db *gorm.DB) repository.Repository[model.Vehicle] { return repository.NewRepository[model.Vehicle](db) },
		func(db *gorm.DB) repository.Repository[model.Mechanic] { return repository.NewRepository[model.Mechanic](db) },
		func(db *gorm.DB) repository.Repository[model.RepairOrder] {
			return repository.NewRepository[model.RepairOrder](db)
		},
		func(db *gorm.DB) repository.Repository[model.TimeEntry] {
			return repository.NewRepository[model.TimeEntry](db)
		},
		func(db *gorm.DB) repository.Repository[model.InternalNote] {
			return repository.NewRepository[model.InternalNote](db)
		},

		NewRegistrationService,
		NewClientService,
		NewVehicleService,
		NewMechanicService,
		NewRepairOrderService,
		NewTimeEntryService,
		NewNoteService,
		NewUserService,
		NewReportService,
		NewPrincipalService,
	),
)

package handler

import (
	transporthttp "github.com/aisgo/workshop-server/transport/http"

	"go.uber.org/fx"
)

// Module HTTP 接口模块
// Router 以 group:"routes" 注入 HTTP 服务器, 构建时挂载
var Module = fx.Module("handler",
	fx.Provide(
		NewRegistrationHandler,
		NewClientHandler,
		NewVehicleHandler,
		NewMechanicHandler,
		NewRepairOrderHandler,
		NewTimeEntryHandler,
		NewNoteHandler,
		NewUserHandler,
		NewReportHandler,

		fx.Annotate(
			NewRouter,
			fx.As(new(transporthttp.RouteRegistrar)),
			fx.ResultTags(`group:"routes"`),
		),
	),
)

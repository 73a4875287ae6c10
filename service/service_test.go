package service

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aisgo/workshop-server/audit"
	"github.com/aisgo/workshop-server/authz"
	"github.com/aisgo/workshop-server/database"
	"github.com/aisgo/workshop-server/logger"
	"github.com/aisgo/workshop-server/model"
	"github.com/aisgo/workshop-server/repository"
	"github.com/aisgo/workshop-server/validator"
)

// testEnv 内存数据库 + 全部服务, 每个测试独享一份
type testEnv struct {
	db *gorm.DB

	registration *RegistrationService
	clients      *ClientService
	vehicles     *VehicleService
	mechanics    *MechanicService
	orders       *RepairOrderService
	times        *TimeEntryService
	notes        *NoteService
	users        *UserService
	reports      *ReportService
	principals   *PrincipalService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.SeedRBAC(db); err != nil {
		t.Fatalf("seed rbac: %v", err)
	}

	log := logger.NewNop()
	v := validator.New()
	aud := audit.NewNoopPublisher(log)

	workshopRepo := repository.NewRepository[model.Workshop](db)
	userRepo := repository.NewRepository[model.User](db)
	roleRepo := repository.NewRepository[model.Role](db)
	clientRepo := repository.NewRepository[model.Client](db)
	vehicleRepo := repository.NewRepository[model.Vehicle](db)
	mechanicRepo := repository.NewRepository[model.Mechanic](db)
	orderRepo := repository.NewRepository[model.RepairOrder](db)
	entryRepo := repository.NewRepository[model.TimeEntry](db)
	noteRepo := repository.NewRepository[model.InternalNote](db)

	return &testEnv{
		db:           db,
		registration: NewRegistrationService(workshopRepo, userRepo, roleRepo, v, aud, log),
		clients:      NewClientService(clientRepo, v, aud, log),
		vehicles:     NewVehicleService(vehicleRepo, clientRepo, v, aud, log),
		mechanics:    NewMechanicService(mechanicRepo, v, aud, log),
		orders:       NewRepairOrderService(orderRepo, vehicleRepo, clientRepo, v, aud, log),
		times:        NewTimeEntryService(entryRepo, orderRepo, mechanicRepo, v, aud, log),
		notes:        NewNoteService(noteRepo, orderRepo, clientRepo, vehicleRepo, v, aud, log),
		users:        NewUserService(userRepo, roleRepo, nil, v, aud, log),
		reports:      NewReportService(entryRepo, orderRepo, mechanicRepo, log),
		principals:   NewPrincipalService(userRepo, nil, log),
	}
}

// register 注册门店并返回店主的请求上下文
func (e *testEnv) register(t *testing.T, shop, email string) context.Context {
	t.Helper()
	res, err := e.registration.Register(context.Background(), RegisterInput{
		WorkshopName: shop,
		Email:        email,
		Password:     "correct-horse-battery",
		FullName:     "Shop Owner",
	})
	if err != nil {
		t.Fatalf("register %s: %v", shop, err)
	}
	return e.login(res.Owner)
}

// login 以已加载角色的用户身份构建请求上下文
func (e *testEnv) login(u *model.User) context.Context {
	p := authz.NewPrincipal(u)
	ctx := authz.WithPrincipal(context.Background(), p)
	return repository.WithTenantContext(ctx, repository.TenantContext{
		WorkshopID: p.WorkshopID,
		UserID:     p.UserID,
		Roles:      p.Roles,
	})
}

// loginAs 在门店内创建指定角色的员工并以其身份登录
func (e *testEnv) loginAs(t *testing.T, ownerCtx context.Context, email string, roles ...string) context.Context {
	t.Helper()
	created, err := e.users.Create(ownerCtx, CreateUserInput{
		Email:    email,
		Password: "correct-horse-battery",
		FullName: "Staff Member",
		Roles:    roles,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	loaded, err := e.users.Get(ownerCtx, created.ID)
	if err != nil {
		t.Fatalf("load user %s: %v", email, err)
	}
	return e.login(loaded)
}

func isValidationError(err error, field string) bool {
	verr, ok := err.(*validator.ValidationError)
	if !ok {
		return false
	}
	return len(verr.Get(field)) > 0
}

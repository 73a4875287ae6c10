package service

import (
	"testing"

	"github.com/aisgo/workshop-server/errors"
	"github.com/aisgo/workshop-server/model"
)

func TestCreateUserAssignsRolesWithinWorkshop(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.register(t, "Shop", "owner@example.com")

	created, err := env.users.Create(ctx, CreateUserInput{
		Email:    "Desk@Example.Com",
		Password: "correct-horse-battery",
		FullName: "Front Desk",
		Roles:    []string{model.RoleOffice},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Email != "desk@example.com" {
		t.Fatalf("email not normalized: %q", created.Email)
	}

	loaded, err := env.users.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(loaded.Roles) != 1 || loaded.Roles[0].Name != model.RoleOffice {
		t.Fatalf("roles = %+v, want [office]", loaded.Roles)
	}

	page, err := env.users.List(ctx, 1, 20)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 { // 店主 + 新员工
		t.Fatalf("total = %d, want 2", page.Total)
	}
}

func TestCreateUserRejectsUnknownRoleAndDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.register(t, "Shop", "owner@example.com")

	_, err := env.users.Create(ctx, CreateUserInput{
		Email:    "x@example.com",
		Password: "correct-horse-battery",
		FullName: "X",
		Roles:    []string{"janitor"},
	})
	if !isValidationError(err, "Roles") {
		t.Fatalf("want role validation error, got %v", err)
	}

	_, err = env.users.Create(ctx, CreateUserInput{
		Email:    "owner@example.com",
		Password: "correct-horse-battery",
		FullName: "Clone",
		Roles:    []string{model.RoleOffice},
	})
	if !isValidationError(err, "Email") {
		t.Fatalf("want duplicate email error, got %v", err)
	}
}

func TestSetRolesReplacesAssignment(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.register(t, "Shop", "owner@example.com")

	created, err := env.users.Create(ctx, CreateUserInput{
		Email:    "staff@example.com",
		Password: "correct-horse-battery",
		FullName: "Staff",
		Roles:    []string{model.RoleMechanic},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := env.users.SetRoles(ctx, created.ID, []string{model.RoleOffice, model.RoleMechanic})
	if err != nil {
		t.Fatalf("set roles: %v", err)
	}
	names := map[string]bool{}
	for _, r := range updated.Roles {
		names[r.Name] = true
	}
	if len(updated.Roles) != 2 || !names[model.RoleOffice] || !names[model.RoleMechanic] {
		t.Fatalf("roles = %+v, want office+mechanic", updated.Roles)
	}

	if _, err := env.users.SetRoles(ctx, created.ID, nil); !isValidationError(err, "Roles") {
		t.Fatalf("want empty roles rejected, got %v", err)
	}
}

func TestCannotDeactivateOrDeleteSelf(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.register(t, "Shop", "owner@example.com")

	page, err := env.users.List(ctx, 1, 20)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	self := page.List[0].ID

	if err := env.users.SetActive(ctx, self, false); !isValidationError(err, "ID") {
		t.Fatalf("want self-deactivation rejected, got %v", err)
	}
	if err := env.users.Delete(ctx, self); !isValidationError(err, "ID") {
		t.Fatalf("want self-deletion rejected, got %v", err)
	}
}

func TestUserManagementDeniedForOfficeRole(t *testing.T) {
	env := newTestEnv(t)
	ownerCtx := env.register(t, "Shop", "owner@example.com")
	officeCtx := env.loginAs(t, ownerCtx, "desk@example.com", "office")

	_, err := env.users.Create(officeCtx, CreateUserInput{
		Email:    "another@example.com",
		Password: "correct-horse-battery",
		FullName: "Another",
		Roles:    []string{model.RoleMechanic},
	})
	if !errors.IsPermissionDenied(err) {
		t.Fatalf("want permission denied, got %v", err)
	}
}

func TestUsersScopedToTheirWorkshop(t *testing.T) {
	env := newTestEnv(t)
	ctxA := env.register(t, "Shop A", "a@example.com")
	ctxB := env.register(t, "Shop B", "b@example.com")

	created, err := env.users.Create(ctxA, CreateUserInput{
		Email:    "a-staff@example.com",
		Password: "correct-horse-battery",
		FullName: "A Staff",
		Roles:    []string{model.RoleOffice},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := env.users.Get(ctxB, created.ID); !errors.IsNotFound(err) {
		t.Fatalf("cross-tenant get: want not found, got %v", err)
	}

	page, err := env.users.List(ctxB, 1, 20)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 { // 只有 B 店店主
		t.Fatalf("shop B sees %d users, want 1", page.Total)
	}
}

package service

import (
	"testing"

	"github.com/aisgo/workshop-server/errors"
)

func TestClientCRUDWithinWorkshop(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.register(t, "Miller Auto", "owner@miller.example")

	created, err := env.clients.Create(ctx, CreateClientInput{
		Name:  "Jane Kowalski",
		Phone: "+48 600 100 200",
		Email: "jane@example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("client id not assigned")
	}

	got, err := env.clients.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Jane Kowalski" {
		t.Fatalf("name = %q", got.Name)
	}

	updated, err := env.clients.Update(ctx, created.ID, UpdateClientInput{
		Name:  "Jane Kowalski-Nowak",
		Phone: "+48 600 100 200",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Jane Kowalski-Nowak" {
		t.Fatalf("updated name = %q", updated.Name)
	}

	if err := env.clients.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.clients.Get(ctx, created.ID); !errors.IsNotFound(err) {
		t.Fatalf("want not found after delete, got %v", err)
	}
}

func TestClientListSearchesNameAndPhone(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.register(t, "Miller Auto", "owner@miller.example")

	for _, c := range []CreateClientInput{
		{Name: "Adam Novak", Phone: "111222333"},
		{Name: "Beata Adamska", Phone: "444555666"},
		{Name: "Carol Smith", Phone: "111999888"},
	} {
		if _, err := env.clients.Create(ctx, c); err != nil {
			t.Fatalf("create %s: %v", c.Name, err)
		}
	}

	page, err := env.clients.List(ctx, 1, 20, "Adam")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("search 'Adam' total = %d, want 2", page.Total)
	}

	page, err = env.clients.List(ctx, 1, 20, "111")
	if err != nil {
		t.Fatalf("list by phone: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("search '111' total = %d, want 2", page.Total)
	}

	page, err = env.clients.List(ctx, 1, 20, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if page.Total != 3 {
		t.Fatalf("total = %d, want 3", page.Total)
	}
}

func TestClientInvisibleAcrossWorkshops(t *testing.T) {
	env := newTestEnv(t)
	ctxA := env.register(t, "Shop A", "a@example.com")
	ctxB := env.register(t, "Shop B", "b@example.com")

	created, err := env.clients.Create(ctxA, CreateClientInput{Name: "Only In A"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := env.clients.Get(ctxB, created.ID); !errors.IsNotFound(err) {
		t.Fatalf("cross-tenant get: want not found, got %v", err)
	}
	if _, err := env.clients.Update(ctxB, created.ID, UpdateClientInput{Name: "Stolen"}); !errors.IsNotFound(err) {
		t.Fatalf("cross-tenant update: want not found, got %v", err)
	}
	if err := env.clients.Delete(ctxB, created.ID); !errors.IsNotFound(err) {
		t.Fatalf("cross-tenant delete: want not found, got %v", err)
	}

	page, err := env.clients.List(ctxB, 1, 20, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 0 {
		t.Fatalf("shop B sees %d clients, want 0", page.Total)
	}
}

func TestClientManagementDeniedForMechanicRole(t *testing.T) {
	env := newTestEnv(t)
	ownerCtx := env.register(t, "Shop", "owner@example.com")
	mechCtx := env.loginAs(t, ownerCtx, "wrench@example.com", "mechanic")

	if _, err := env.clients.Create(mechCtx, CreateClientInput{Name: "Nope"}); !errors.IsPermissionDenied(err) {
		t.Fatalf("want permission denied, got %v", err)
	}
	if _, err := env.clients.List(mechCtx, 1, 20, ""); !errors.IsPermissionDenied(err) {
		t.Fatalf("want permission denied on list, got %v", err)
	}
}

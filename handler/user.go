package handler

import (
	"github.com/aisgo/workshop-server/response"
	"github.com/aisgo/workshop-server/service"

	"github.com/gofiber/fiber/v3"
)

// UserHandler 员工账号接口
type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Create POST /api/v1/users
func (h *UserHandler) Create(c fiber.Ctx) error {
	var input service.CreateUserInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	user, err := h.svc.Create(c.Context(), input)
	if err != nil {
		return err
	}
	return response.Created(c, user)
}

// Get GET /api/v1/users/:id
func (h *UserHandler) Get(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	user, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return response.OkWithData(c, user)
}

// List GET /api/v1/users?page=&page_size=
func (h *UserHandler) List(c fiber.Ctx) error {
	page, pageSize := pagination(c)

	result, err := h.svc.List(c.Context(), page, pageSize)
	if err != nil {
		return err
	}
	return response.PageData(c, result.List, result.Total, result.Page, result.PageSize)
}

// Update PUT /api/v1/users/:id
func (h *UserHandler) Update(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var input service.UpdateUserInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	user, err := h.svc.Update(c.Context(), id, input)
	if err != nil {
		return err
	}
	return response.OkWithData(c, user)
}

type setRolesRequest struct {
	Roles []string `json:"roles"`
}

// SetRoles PUT /api/v1/users/:id/roles
func (h *UserHandler) SetRoles(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req setRolesRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	user, err := h.svc.SetRoles(c.Context(), id, req.Roles)
	if err != nil {
		return err
	}
	return response.OkWithData(c, user)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// SetActive PUT /api/v1/users/:id/active
func (h *UserHandler) SetActive(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req setActiveRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	if err := h.svc.SetActive(c.Context(), id, req.Active); err != nil {
		return err
	}
	return response.Ok(c)
}

// Delete DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Context(), id); err != nil {
		return err
	}
	return response.Ok(c)
}

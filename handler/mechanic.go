package handler

import (
	"github.com/aisgo/workshop-server/response"
	"github.com/aisgo/workshop-server/service"

	"github.com/gofiber/fiber/v3"
)

// MechanicHandler 技师接口
type MechanicHandler struct {
	svc *service.MechanicService
}

func NewMechanicHandler(svc *service.MechanicService) *MechanicHandler {
	return &MechanicHandler{svc: svc}
}

// Create POST /api/v1/mechanics
func (h *MechanicHandler) Create(c fiber.Ctx) error {
	var input service.CreateMechanicInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	mechanic, err := h.svc.Create(c.Context(), input)
	if err != nil {
		return err
	}
	return response.Created(c, mechanic)
}

// Get GET /api/v1/mechanics/:id
func (h *MechanicHandler) Get(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	mechanic, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return response.OkWithData(c, mechanic)
}

// List GET /api/v1/mechanics?active=true&page=&page_size=
func (h *MechanicHandler) List(c fiber.Ctx) error {
	page, pageSize := pagination(c)
	activeOnly := fiber.Query[bool](c, "active")

	result, err := h.svc.List(c.Context(), page, pageSize, activeOnly)
	if err != nil {
		return err
	}
	return response.PageData(c, result.List, result.Total, result.Page, result.PageSize)
}

// Update PUT /api/v1/mechanics/:id
func (h *MechanicHandler) Update(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var input service.UpdateMechanicInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	mechanic, err := h.svc.Update(c.Context(), id, input)
	if err != nil {
		return err
	}
	return response.OkWithData(c, mechanic)
}

// Delete DELETE /api/v1/mechanics/:id
func (h *MechanicHandler) Delete(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Context(), id); err != nil {
		return err
	}
	return response.Ok(c)
}

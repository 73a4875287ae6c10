package handler

import (
	"github.com/aisgo/workshop-server/response"
	"github.com/aisgo/workshop-server/service"

	"github.com/gofiber/fiber/v3"
)

// VehicleHandler 车辆接口
type VehicleHandler struct {
	svc *service.VehicleService
}

func NewVehicleHandler(svc *service.VehicleService) *VehicleHandler {
	return &VehicleHandler{svc: svc}
}

// Create POST /api/v1/vehicles
func (h *VehicleHandler) Create(c fiber.Ctx) error {
	var input service.CreateVehicleInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	vehicle, err := h.svc.Create(c.Context(), input)
	if err != nil {
		return err
	}
	return response.Created(c, vehicle)
}

// Get GET /api/v1/vehicles/:id
func (h *VehicleHandler) Get(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	vehicle, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return response.OkWithData(c, vehicle)
}

// List GET /api/v1/vehicles?client_id=&page=&page_size=
func (h *VehicleHandler) List(c fiber.Ctx) error {
	page, pageSize := pagination(c)
	clientID := fiber.Query[int64](c, "client_id")

	result, err := h.svc.List(c.Context(), page, pageSize, clientID)
	if err != nil {
		return err
	}
	return response.PageData(c, result.List, result.Total, result.Page, result.PageSize)
}

// Update PUT /api/v1/vehicles/:id
func (h *VehicleHandler) Update(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var input service.UpdateVehicleInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	vehicle, err := h.svc.Update(c.Context(), id, input)
	if err != nil {
		return err
	}
	return response.OkWithData(c, vehicle)
}

// Delete DELETE /api/v1/vehicles/:id
func (h *VehicleHandler) Delete(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Context(), id); err != nil {
		return err
	}
	return response.Ok(c)
}

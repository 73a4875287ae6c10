package handler

import (
	"github.com/aisgo/workshop-server/model"
	"github.com/aisgo/workshop-server/response"
	"github.com/aisgo/workshop-server/service"

	"github.com/gofiber/fiber/v3"
)

// RepairOrderHandler 工单接口
type RepairOrderHandler struct {
	svc *service.RepairOrderService
}

func NewRepairOrderHandler(svc *service.RepairOrderService) *RepairOrderHandler {
	return &RepairOrderHandler{svc: svc}
}

// Create POST /api/v1/orders
// 支持挂既有车辆 (vehicle_id) 或嵌套创建 (new_vehicle, 可再嵌套 new_client)
func (h *RepairOrderHandler) Create(c fiber.Ctx) error {
	var input service.CreateOrderInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	order, err := h.svc.Create(c.Context(), input)
	if err != nil {
		return err
	}
	return response.Created(c, order)
}

// Get GET /api/v1/orders/:id
func (h *RepairOrderHandler) Get(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	order, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return response.OkWithData(c, order)
}

// List GET /api/v1/orders?status=&vehicle_id=&page=&page_size=
func (h *RepairOrderHandler) List(c fiber.Ctx) error {
	page, pageSize := pagination(c)
	filter := service.OrderListFilter{
		Status:    model.OrderStatus(c.Query("status")),
		VehicleID: fiber.Query[int64](c, "vehicle_id"),
	}

	result, err := h.svc.List(c.Context(), page, pageSize, filter)
	if err != nil {
		return err
	}
	return response.PageData(c, result.List, result.Total, result.Page, result.PageSize)
}

// Update PUT /api/v1/orders/:id
func (h *RepairOrderHandler) Update(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var input service.UpdateOrderInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	order, err := h.svc.Update(c.Context(), id, input)
	if err != nil {
		return err
	}
	return response.OkWithData(c, order)
}

type updateStatusRequest struct {
	Status model.OrderStatus `json:"status"`
}

// UpdateStatus PATCH /api/v1/orders/:id/status
func (h *RepairOrderHandler) UpdateStatus(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req updateStatusRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	order, err := h.svc.UpdateStatus(c.Context(), id, req.Status)
	if err != nil {
		return err
	}
	return response.OkWithData(c, order)
}

// Delete DELETE /api/v1/orders/:id
func (h *RepairOrderHandler) Delete(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Context(), id); err != nil {
		return err
	}
	return response.Ok(c)
}

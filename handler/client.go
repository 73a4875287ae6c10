package handler

import (
	"github.com/aisgo/workshop-server/response"
	"github.com/aisgo/workshop-server/service"

	"github.com/gofiber/fiber/v3"
)

// ClientHandler 客户接口
type ClientHandler struct {
	svc *service.ClientService
}

func NewClientHandler(svc *service.ClientService) *ClientHandler {
	return &ClientHandler{svc: svc}
}

// Create POST /api/v1/clients
func (h *ClientHandler) Create(c fiber.Ctx) error {
	var input service.CreateClientInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	client, err := h.svc.Create(c.Context(), input)
	if err != nil {
		return err
	}
	return response.Created(c, client)
}

// Get GET /api/v1/clients/:id
func (h *ClientHandler) Get(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	client, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return response.OkWithData(c, client)
}

// List GET /api/v1/clients?search=&page=&page_size=
func (h *ClientHandler) List(c fiber.Ctx) error {
	page, pageSize := pagination(c)
	search := c.Query("search")

	result, err := h.svc.List(c.Context(), page, pageSize, search)
	if err != nil {
		return err
	}
	return response.PageData(c, result.List, result.Total, result.Page, result.PageSize)
}

// Update PUT /api/v1/clients/:id
func (h *ClientHandler) Update(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var input service.UpdateClientInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	client, err := h.svc.Update(c.Context(), id, input)
	if err != nil {
		return err
	}
	return response.OkWithData(c, client)
}

// Delete DELETE /api/v1/clients/:id
func (h *ClientHandler) Delete(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Context(), id); err != nil {
		return err
	}
	return response.Ok(c)
}

package handler

import (
	"github.com/aisgo/workshop-server/model"
	"github.com/aisgo/workshop-server/response"
	"github.com/aisgo/workshop-server/service"

	"github.com/gofiber/fiber/v3"
)

// TimeEntryHandler 工时接口
type TimeEntryHandler struct {
	svc *service.TimeEntryService
}

func NewTimeEntryHandler(svc *service.TimeEntryService) *TimeEntryHandler {
	return &TimeEntryHandler{svc: svc}
}

// Log POST /api/v1/time-entries
func (h *TimeEntryHandler) Log(c fiber.Ctx) error {
	var input service.LogTimeInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	entry, err := h.svc.Log(c.Context(), input)
	if err != nil {
		return err
	}
	return response.Created(c, entry)
}

type orderTimeSheet struct {
	Entries      []*model.TimeEntry `json:"entries"`
	TotalMinutes int64              `json:"total_minutes"`
}

// ListByOrder GET /api/v1/orders/:id/time-entries
// 返回工单下全部工时记录与合计分钟数
func (h *TimeEntryHandler) ListByOrder(c fiber.Ctx) error {
	orderID, err := parseID(c)
	if err != nil {
		return err
	}

	entries, err := h.svc.ListByOrder(c.Context(), orderID)
	if err != nil {
		return err
	}
	total, err := h.svc.TotalMinutes(c.Context(), orderID)
	if err != nil {
		return err
	}
	return response.OkWithData(c, orderTimeSheet{Entries: entries, TotalMinutes: total})
}

// Update PUT /api/v1/time-entries/:id
func (h *TimeEntryHandler) Update(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var input service.UpdateTimeEntryInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	entry, err := h.svc.Update(c.Context(), id, input)
	if err != nil {
		return err
	}
	return response.OkWithData(c, entry)
}

// Delete DELETE /api/v1/time-entries/:id
func (h *TimeEntryHandler) Delete(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Context(), id); err != nil {
		return err
	}
	return response.Ok(c)
}

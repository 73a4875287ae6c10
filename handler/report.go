package handler

import (
	"github.com/aisgo/workshop-server/response"
	"github.com/aisgo/workshop-server/service"

	"github.com/gofiber/fiber/v3"
)

// ReportHandler 运营报表接口
type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// MechanicHours GET /api/v1/reports/mechanic-hours?from=&to=
func (h *ReportHandler) MechanicHours(c fiber.Ctx) error {
	from, err := parseTimeParam(c.Query("from"))
	if err != nil {
		return err
	}
	to, err := parseTimeParam(c.Query("to"))
	if err != nil {
		return err
	}

	rows, err := h.svc.MechanicHours(c.Context(), service.MechanicHoursQuery{From: from, To: to})
	if err != nil {
		return err
	}
	return response.OkWithData(c, rows)
}

// OrdersByStatus GET /api/v1/reports/orders-by-status
func (h *ReportHandler) OrdersByStatus(c fiber.Ctx) error {
	counts, err := h.svc.OrdersByStatus(c.Context())
	if err != nil {
		return err
	}
	return response.OkWithData(c, counts)
}

package handler

import (
	"github.com/aisgo/workshop-server/response"
	"github.com/aisgo/workshop-server/service"

	"github.com/gofiber/fiber/v3"
)

// RegistrationHandler 门店注册接口
type RegistrationHandler struct {
	svc *service.RegistrationService
}

func NewRegistrationHandler(svc *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

// Register POST /api/v1/register
func (h *RegistrationHandler) Register(c fiber.Ctx) error {
	var input service.RegisterInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	result, err := h.svc.Register(c.Context(), input)
	if err != nil {
		return err
	}
	return response.Created(c, result)
}

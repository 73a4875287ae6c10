package handler

import (
	"github.com/aisgo/workshop-server/errors"
	"github.com/aisgo/workshop-server/model"
	"github.com/aisgo/workshop-server/response"
	"github.com/aisgo/workshop-server/service"

	"github.com/gofiber/fiber/v3"
)

// NoteHandler 内部备注接口
type NoteHandler struct {
	svc *service.NoteService
}

func NewNoteHandler(svc *service.NoteService) *NoteHandler {
	return &NoteHandler{svc: svc}
}

// Add POST /api/v1/notes
func (h *NoteHandler) Add(c fiber.Ctx) error {
	var input service.AddNoteInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	note, err := h.svc.Add(c.Context(), input)
	if err != nil {
		return err
	}
	return response.Created(c, note)
}

// List GET /api/v1/notes?notable_type=&notable_id=
func (h *NoteHandler) List(c fiber.Ctx) error {
	notableType := model.NotableType(c.Query("notable_type"))
	notableID := fiber.Query[int64](c, "notable_id")
	if notableID <= 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "notable_id is required")
	}

	notes, err := h.svc.ListFor(c.Context(), notableType, notableID)
	if err != nil {
		return err
	}
	return response.OkWithData(c, notes)
}

// Delete DELETE /api/v1/notes/:id
func (h *NoteHandler) Delete(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Context(), id); err != nil {
		return err
	}
	return response.Ok(c)
}

package handler

import (
	"time"

	"github.com/aisgo/workshop-server/errors"

	"github.com/gofiber/fiber/v3"
)

/* ========================================================================
 * Handler Helpers - 公共解析逻辑
 * ======================================================================== */

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

func parseID(c fiber.Ctx) (int64, error) {
	id := fiber.Params[int64](c, "id")
	if id <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidArgument, "invalid id")
	}
	return id, nil
}

func pagination(c fiber.Ctx) (page, pageSize int) {
	page = fiber.Query[int](c, "page", defaultPage)
	if page <= 0 {
		page = defaultPage
	}
	pageSize = fiber.Query[int](c, "page_size", defaultPageSize)
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// parseTimeParam 接受 RFC3339 或 2006-01-02 两种格式
func parseTimeParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "invalid time format, use RFC3339 or YYYY-MM-DD")
	}
	return &t, nil
}

func bindBody(c fiber.Ctx, dst any) error {
	if err := c.Bind().Body(dst); err != nil {
		return errors.New(errors.ErrCodeInvalidArgument, "malformed request body")
	}
	return nil
}

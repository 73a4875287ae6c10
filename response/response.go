package response

import (
	"net/http"

	"github.com/aisgo/workshop-server/errors"
	"github.com/aisgo/workshop-server/validator"

	"github.com/gofiber/fiber/v3"
)

/* ========================================================================
 * Response - 统一响应处理
 * ========================================================================
 * 职责: 提供统一的 HTTP 响应处理函数
 * 特性:
 *   - 标准 JSON 响应格式
 *   - 与 errors 包集成，自动识别 BizError
 *   - 校验错误返回字段级错误映射
 *   - 支持分页响应
 * ======================================================================== */

// newResp 创建响应对象
func newResp(code int, msg string, data interface{}) *Result {
	resp := &Result{
		Code: code,
		Msg:  msg,
	}

	// 确保 data 字段不为 nil
	if data == nil {
		resp.Data = &struct{}{}
	} else {
		resp.Data = data
	}

	return resp
}

// respJSONWithStatusCode 返回 JSON 响应
func respJSONWithStatusCode(c fiber.Ctx, code int, msg string, data ...interface{}) error {
	var firstData interface{}
	if len(data) > 0 {
		firstData = data[0]
	}

	// 确保 HTTP 状态码在有效范围内
	if code > http.StatusNetworkAuthenticationRequired || code < http.StatusContinue {
		code = http.StatusInternalServerError
	}

	resp := newResp(code, msg, firstData)
	return c.Status(code).JSON(resp)
}

/* ========================================================================
 * 成功响应
 * ======================================================================== */

// Ok 返回成功响应 (默认消息 "ok")
func Ok(c fiber.Ctx) error {
	return respJSONWithStatusCode(c, http.StatusOK, "ok")
}

// OkWithData 返回成功响应（带数据）
func OkWithData(c fiber.Ctx, data interface{}) error {
	return respJSONWithStatusCode(c, http.StatusOK, "ok", data)
}

// Created 返回 201 响应（带数据）
func Created(c fiber.Ctx, data interface{}) error {
	return respJSONWithStatusCode(c, http.StatusCreated, "created", data)
}

// OkWithMsg 返回成功响应（自定义消息）
func OkWithMsg(c fiber.Ctx, msg string, data ...interface{}) error {
	return respJSONWithStatusCode(c, http.StatusOK, msg, data...)
}

/* ========================================================================
 * 错误响应
 * ======================================================================== */

// Error 返回错误响应
// 自动识别 BizError 和 ValidationError 类型
func Error(c fiber.Ctx, err error) error {
	if err == nil {
		return Ok(c)
	}

	// 校验错误：返回字段级错误映射
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		return ValidationFailed(c, verr)
	}

	// 业务错误：使用 errors 包的 HTTP 状态码映射
	if bizErr, ok := errors.AsBizError(err); ok {
		return respJSONWithStatusCode(c, errors.HTTPStatus(bizErr), bizErr.Message)
	}

	// 普通错误，返回 500
	return respJSONWithStatusCode(c, http.StatusInternalServerError, err.Error())
}

// ValidationFailed 返回字段级校验错误响应
func ValidationFailed(c fiber.Ctx, verr *validator.ValidationError) error {
	return respJSONWithStatusCode(c, http.StatusUnprocessableEntity, "validation failed",
		&FieldErrors{Fields: verr.Errors})
}

/* ========================================================================
 * 分页响应
 * ======================================================================== */

// PageData 返回分页数据
func PageData(c fiber.Ctx, list interface{}, total int64, page, pageSize int) error {
	pageResult := &PageResult{
		List:     list,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	return OkWithData(c, pageResult)
}

/* ========================================================================
 * 快捷响应
 * ======================================================================== */

// BadRequest 返回 400 错误
func BadRequest(c fiber.Ctx, msg string) error {
	return respJSONWithStatusCode(c, http.StatusBadRequest, msg)
}

// Unauthorized 返回 401 错误
func Unauthorized(c fiber.Ctx, msg string) error {
	return respJSONWithStatusCode(c, http.StatusUnauthorized, msg)
}

// Forbidden 返回 403 错误
func Forbidden(c fiber.Ctx, msg string) error {
	return respJSONWithStatusCode(c, http.StatusForbidden, msg)
}

// NotFound 返回 404 错误
func NotFound(c fiber.Ctx, msg string) error {
	return respJSONWithStatusCode(c, http.StatusNotFound, msg)
}

// TooManyRequests 返回 429 错误
func TooManyRequests(c fiber.Ctx, msg string) error {
	return respJSONWithStatusCode(c, http.StatusTooManyRequests, msg)
}

// InternalError 返回 500 错误
func InternalError(c fiber.Ctx, msg string) error {
	return respJSONWithStatusCode(c, http.StatusInternalServerError, msg)
}

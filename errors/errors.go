package errors

import (
	"errors"
	"fmt"
	"net/http"
)

/* ========================================================================
 * Workshop Error Package - 统一错误处理
 * ========================================================================
 * 职责: 定义业务错误码，提供错误包装和转换工具
 * 设计: 错误码按领域分段，HTTP 映射集中在本包
 * ======================================================================== */

// ========================================================================
// 错误码定义
// ========================================================================

// ErrorCode 业务错误码
type ErrorCode int

const (
	// 通用错误 (1xxx)
	ErrCodeUnknown          ErrorCode = 1000 // 未知错误
	ErrCodeInvalidArgument  ErrorCode = 1001 // 参数无效
	ErrCodeNotFound         ErrorCode = 1002 // 资源不存在
	ErrCodeAlreadyExists    ErrorCode = 1003 // 资源已存在
	ErrCodePermissionDenied ErrorCode = 1004 // 权限不足
	ErrCodeUnauthenticated  ErrorCode = 1005 // 未认证
	ErrCodeInternal         ErrorCode = 1006 // 内部错误
	ErrCodeUnavailable      ErrorCode = 1007 // 服务不可用

	// 业务错误 (2xxx)
	ErrCodeValidation    ErrorCode = 2001 // 请求字段校验失败
	ErrCodeTenantMissing ErrorCode = 2002 // 无法解析当前租户
	ErrCodeInvalidStatus ErrorCode = 2003 // 非法的工单状态值
)

// ========================================================================
// 业务错误类型
// ========================================================================

// BizError 业务错误
type BizError struct {
	Code    ErrorCode // 业务错误码
	Message string    // 错误消息
	Cause   error     // 原始错误
}

// Error 实现 error 接口
func (e *BizError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Is 支持 errors.Is：按业务错误码匹配
func (e *BizError) Is(target error) bool {
	t, ok := target.(*BizError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Unwrap 支持 errors.Is 和 errors.As
func (e *BizError) Unwrap() error {
	return e.Cause
}

// ========================================================================
// 错误构造函数
// ========================================================================

// New 创建业务错误
func New(code ErrorCode, message string) *BizError {
	return &BizError{
		Code:    code,
		Message: message,
	}
}

// Newf 格式化创建业务错误
func Newf(code ErrorCode, format string, args ...any) *BizError {
	return &BizError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap 包装错误
func Wrap(code ErrorCode, message string, cause error) *BizError {
	return &BizError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf 格式化包装错误
func Wrapf(code ErrorCode, cause error, format string, args ...any) *BizError {
	return &BizError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// ========================================================================
// 预定义错误（便于 errors.Is 判断）
// ========================================================================

var (
	// 通用错误
	ErrInvalidArgument  = New(ErrCodeInvalidArgument, "invalid argument")
	ErrNotFound         = New(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists    = New(ErrCodeAlreadyExists, "resource already exists")
	ErrPermissionDenied = New(ErrCodePermissionDenied, "permission denied")
	ErrUnauthenticated  = New(ErrCodeUnauthenticated, "unauthenticated")
	ErrInternal         = New(ErrCodeInternal, "internal error")
	ErrUnavailable      = New(ErrCodeUnavailable, "service unavailable")

	// 业务错误
	ErrTenantMissing = New(ErrCodeTenantMissing, "no tenant resolvable for this operation")
	ErrInvalidStatus = New(ErrCodeInvalidStatus, "invalid repair order status")
)

// ========================================================================
// 错误判断辅助函数
// ========================================================================

// Is 判断错误是否为指定类型
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As 将错误转换为指定类型
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Code 获取错误码
func Code(err error) ErrorCode {
	var bizErr *BizError
	if errors.As(err, &bizErr) {
		return bizErr.Code
	}
	return ErrCodeUnknown
}

// IsNotFound 判断是否为 NotFound 错误
func IsNotFound(err error) bool {
	return Code(err) == ErrCodeNotFound
}

// IsPermissionDenied 判断是否为权限错误
func IsPermissionDenied(err error) bool {
	return Code(err) == ErrCodePermissionDenied
}

// AsBizError 将错误转换为 BizError
// 返回值: (*BizError, bool) - 如果是 BizError 返回实例和 true，否则返回 nil 和 false
func AsBizError(err error) (*BizError, bool) {
	if err == nil {
		return nil, false
	}
	var bizErr *BizError
	if errors.As(err, &bizErr) {
		return bizErr, true
	}
	return nil, false
}

// ========================================================================
// HTTP 错误转换
// ========================================================================

// httpStatusCode 业务错误码到 HTTP 状态码映射
var httpStatusCode = map[ErrorCode]int{
	ErrCodeUnknown:          http.StatusInternalServerError,
	ErrCodeInvalidArgument:  http.StatusBadRequest,
	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeAlreadyExists:    http.StatusConflict,
	ErrCodePermissionDenied: http.StatusForbidden,
	ErrCodeUnauthenticated:  http.StatusUnauthorized,
	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeUnavailable:      http.StatusServiceUnavailable,
	ErrCodeValidation:       http.StatusUnprocessableEntity,
	ErrCodeTenantMissing:    http.StatusUnauthorized,
	ErrCodeInvalidStatus:    http.StatusUnprocessableEntity,
}

// HTTPStatus 返回业务错误对应的 HTTP 状态码
// 非 BizError 一律按 500 处理
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if status, ok := httpStatusCode[Code(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

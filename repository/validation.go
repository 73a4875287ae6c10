package repository

import (
	"fmt"
	"regexp"
	"strings"
)

/* ========================================================================
 * SQL 安全校验器
 * ========================================================================
 * 职责: 防止 OrderBy 注入风险（排序字段来自请求参数）
 * 设计: 白名单模式
 * ======================================================================== */

var (
	// 列名白名单正则：仅允许字母、数字、下划线、点号（表别名）
	orderColumnPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

	// 排序方向白名单
	orderDirections = map[string]bool{
		"ASC":  true,
		"DESC": true,
		"asc":  true,
		"desc": true,
	}
)

// OrderByError OrderBy 校验错误
type OrderByError struct {
	Value  string
	Reason string
}

func (e *OrderByError) Error() string {
	return fmt.Sprintf("invalid order by %q: %s", e.Value, e.Reason)
}

// ValidateOrderBy 校验排序字符串
//
// 允许格式:
//   - "column"
//   - "column ASC"
//   - "column DESC"
//   - "col1 ASC, col2 DESC"
func ValidateOrderBy(orderBy string) error {
	if strings.TrimSpace(orderBy) == "" {
		return nil // 空字符串允许
	}

	parts := strings.Split(orderBy, ",")
	for _, part := range parts {
		if err := validateSingleOrderBy(strings.TrimSpace(part)); err != nil {
			return err
		}
	}

	return nil
}

// validateSingleOrderBy 校验单个排序字段
func validateSingleOrderBy(orderBy string) error {
	if orderBy == "" {
		return nil
	}

	fields := strings.Fields(orderBy)
	if len(fields) == 0 || len(fields) > 2 {
		return &OrderByError{Value: orderBy, Reason: "must be 'column' or 'column ASC/DESC'"}
	}

	if !orderColumnPattern.MatchString(fields[0]) {
		return &OrderByError{Value: orderBy, Reason: "column contains invalid characters"}
	}

	if len(fields) == 2 && !orderDirections[fields[1]] {
		return &OrderByError{Value: orderBy, Reason: "direction must be ASC or DESC"}
	}

	return nil
}

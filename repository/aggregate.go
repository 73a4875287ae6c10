package repository

import (
	"context"
	"regexp"
	"strings"

	"github.com/aisgo/workshop-server/errors"
)

/* ========================================================================
 * Aggregate Repository Implementation - 聚合查询实现
 * ========================================================================
 * 职责: 实现 AggregateRepository 接口
 * 安全: 对列名进行白名单验证，防止 SQL 注入
 * ======================================================================== */

// columnRegex 列名正则表达式（只允许字母、数字、下划线）
var columnRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateColumn 验证列名是否安全
func validateColumn(column string) error {
	if column == "" {
		return errors.New(errors.ErrCodeInvalidArgument, "column cannot be empty")
	}
	if strings.Contains(column, ".") {
		return errors.New(errors.ErrCodeInvalidArgument, "column must not contain table qualifier")
	}
	if !columnRegex.MatchString(column) {
		return errors.New(errors.ErrCodeInvalidArgument, "invalid column name: "+column)
	}
	return nil
}

// Sum 求和
func (r *RepositoryImpl[T]) Sum(ctx context.Context, column string, query string, args ...any) (float64, error) {
	if err := validateColumn(column); err != nil {
		return 0, err
	}

	var result float64
	db := r.scoped(ctx)

	if query != "" {
		db = db.Where(query, args...)
	}

	sql := "COALESCE(SUM(" + column + "), 0)"
	if err := db.Model(r.newModelPtr()).Select(sql).Scan(&result).Error; err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, "failed to sum records", err)
	}

	return result, nil
}

// Avg 平均值
func (r *RepositoryImpl[T]) Avg(ctx context.Context, column string, query string, args ...any) (float64, error) {
	if err := validateColumn(column); err != nil {
		return 0, err
	}

	var result float64
	db := r.scoped(ctx)

	if query != "" {
		db = db.Where(query, args...)
	}

	sql := "COALESCE(AVG(" + column + "), 0)"
	if err := db.Model(r.newModelPtr()).Select(sql).Scan(&result).Error; err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, "failed to average records", err)
	}

	return result, nil
}

// CountByGroup 分组统计
// 用于类似 GROUP BY COUNT(*) 的查询（如按状态统计工单数）
func (r *RepositoryImpl[T]) CountByGroup(ctx context.Context, groupColumn, query string, args ...any) (map[string]int64, error) {
	if err := validateColumn(groupColumn); err != nil {
		return nil, err
	}

	type Result struct {
		Group string `gorm:"column:group_column"`
		Count int64
	}

	var results []Result
	db := r.scoped(ctx)

	if query != "" {
		db = db.Where(query, args...)
	}

	sql := groupColumn + " as group_column, COUNT(*) as count"
	if err := db.Model(r.newModelPtr()).
		Select(sql).
		Group(groupColumn).
		Scan(&results).Error; err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to count by group", err)
	}

	resultMap := make(map[string]int64)
	for _, r := range results {
		resultMap[r.Group] = r.Count
	}

	return resultMap, nil
}

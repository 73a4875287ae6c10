package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

/* ========================================================================
 * JSONB Type - PostgreSQL JSONB 映射
 * ========================================================================
 * 职责: 半结构化列的 Gorm 映射
 * 用途: workshops.settings 等半结构化列
 * ======================================================================== */

// JSONB 自定义类型，用于 Gorm 映射 PostgreSQL JSONB
type JSONB map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONB)
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for JSONB scan")
	}
	return json.Unmarshal(data, j)
}

// GetString 读取字符串设置项, 缺失或类型不符时返回空串
func (j JSONB) GetString(key string) string {
	if v, ok := j[key].(string); ok {
		return v
	}
	return ""
}

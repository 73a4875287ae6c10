package ulid

import (
	"crypto/rand"
	"database/sql/driver"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

/* ========================================================================
 * ULID Generator - ULID 生成器
 * ========================================================================
 * 职责: 生成分布式唯一 ID（门店租户标识）
 * 特点:
 *   - 字典序排序（按时间戳）
 *   - URL 安全（Crockford's Base32）
 *   - 固定 26 字符长度
 * ======================================================================== */

// ULID 包装 oklog 的 ULID, 数据库存取使用 26 字符文本格式
// (上游 Valuer 存 16 字节二进制, char(26) 列放不下, 原生 SQL 也没法比较)
type ULID struct {
	ulid.ULID
}

// Value 实现 driver.Valuer, 以文本格式入库
func (u ULID) Value() (driver.Value, error) {
	return u.ULID.String(), nil
}

// Scan 实现 sql.Scanner, 兼容文本与二进制两种来源
// (mysql 驱动对 char 列返回 []byte)
func (u *ULID) Scan(src any) error {
	switch x := src.(type) {
	case nil:
		return nil
	case string:
		return u.ULID.UnmarshalText([]byte(x))
	case []byte:
		if len(x) == ulid.EncodedSize {
			return u.ULID.UnmarshalText(x)
		}
		return u.ULID.UnmarshalBinary(x)
	}
	return ulid.ErrScanValue
}

var (
	globalEntropy io.Reader
	once          sync.Once
	mu            sync.Mutex
)

// initEntropy 初始化全局熵源（仅执行一次）
// 使用 Monotonic 熵源，保证同一毫秒内按生成顺序递增（更利于排序/索引）。
// 注意：Monotonic 熵源本身不是并发安全的，因此需要配合互斥锁使用。
func initEntropy() {
	globalEntropy = ulid.Monotonic(rand.Reader, 0)
}

// Generate 生成 ULID
// 使用 crypto/rand.Reader 作为熵源，保证加密安全
func Generate() ULID {
	once.Do(initEntropy)

	mu.Lock()
	defer mu.Unlock()
	return ULID{ulid.MustNew(ulid.Timestamp(time.Now()), globalEntropy)}
}

// GenerateString 生成 ULID（字符串格式）
func GenerateString() string {
	return Generate().String()
}

// Parse 解析 ULID 字符串
func Parse(s string) (ULID, error) {
	id, err := ulid.Parse(s)
	return ULID{id}, err
}

// MustParse 解析 ULID 字符串，失败时 panic
func MustParse(s string) ULID {
	id, err := ulid.Parse(s)
	if err != nil {
		panic(err)
	}
	return ULID{id}
}

// Zero 返回零值 ULID
func Zero() ULID {
	return ULID{}
}

// IsZero 检查 ULID 是否为零值
func IsZero(id ULID) bool {
	return id == ULID{}
}
